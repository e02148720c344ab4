package engine

import (
	"encoding/json"
	"fmt"

	"emberfall-server/internal/domain"
	"emberfall-server/pkg/api"
)

// HandlerContext передает хендлеру состояние, нужное для выполнения
// действия клиента. Хендлеры работают на горутине уровня.
type HandlerContext struct {
	Service    *GameService
	Level      *domain.Level
	Actor      domain.Object
	Permission int
}

// Result - результат хендлера. Хендлер не пишет в Hub напрямую,
// он возвращает данные.
type Result struct {
	Msg     string
	MsgType string // INFO, ERROR, CHAT
}

// HandlerFunc - контракт любого действия клиента (MOVE, CHAT, ...)
type HandlerFunc func(ctx HandlerContext, payload json.RawMessage) (Result, error)

// TypedHandlerFunc - "чистый" хендлер, работающий с готовой структурой T
type TypedHandlerFunc[T any] func(ctx HandlerContext, payload T) (Result, error)

// EmptyHandlerFunc - хендлер, которому не нужны данные (INIT, RESET)
type EmptyHandlerFunc func(ctx HandlerContext) (Result, error)

// WithPayload оборачивает типизированный хендлер в стандартный:
// берет на себя Unmarshal и автоматическую валидацию DTO.
func WithPayload[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx HandlerContext, raw json.RawMessage) (Result, error) {
		var payload T

		if err := json.Unmarshal(raw, &payload); err != nil {
			return Result{}, fmt.Errorf("invalid payload format: %w", err)
		}

		if v, ok := any(payload).(api.Validator); ok {
			if err := v.Validate(); err != nil {
				return Result{}, fmt.Errorf("validation failed: %w", err)
			}
		}

		return handler(ctx, payload)
	}
}

// WithEmptyPayload - обертка для действий без данных
func WithEmptyPayload(handler EmptyHandlerFunc) HandlerFunc {
	return func(ctx HandlerContext, _ json.RawMessage) (Result, error) {
		return handler(ctx)
	}
}
