package api

import (
	"errors"
	"math"
	"strings"
)

// Validator - интерфейс, который могут реализовать DTO.
// Проверка выполняется автоматически оберткой хендлера.
type Validator interface {
	Validate() error
}

func (p MovePayload) Validate() error {
	for _, c := range p.Target {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.New("target coordinates must be finite")
		}
	}
	return nil
}

func (p ChatPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return errors.New("text is required")
	}
	if len(p.Text) > 512 {
		return errors.New("text too long")
	}
	return nil
}
