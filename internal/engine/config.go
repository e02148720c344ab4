package engine

import "time"

// TicksPerSecond - частота продвижения уровня (фиксированный тик)
const TicksPerSecond = 20

// Config хранит параметры запуска движка
type Config struct {
	TickInterval time.Duration
	LevelName    string
	Difficulty   float64
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		TickInterval: time.Second / TicksPerSecond,
		LevelName:    "overworld",
		Difficulty:   1,
	}
}
