package engine

import (
	"strings"

	"emberfall-server/internal/domain"
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/vmath"
)

// handleInit отправляет клиенту полный снимок уровня
func handleInit(ctx HandlerContext) (Result, error) {
	rec := ctx.Level.Record()
	ctx.Service.Hub.SendTo(ctx.Actor.Base().ID, api.ServerResponse{
		Type:  "init",
		Tick:  ctx.Level.Tick,
		Level: &rec,
	})
	return Result{}, nil
}

// handleMove ведет сущность к цели через поиск пути
func handleMove(ctx HandlerContext, p api.MovePayload) (Result, error) {
	ctx.Actor.Base().MoveTo(vmath.FromArray(p.Target), p.Relative)
	return Result{}, nil
}

// handleChat: строки с ведущим "/" идут в диспетчер команд,
// остальное - обычный чат, рассылаемый всем
func handleChat(ctx HandlerContext, p api.ChatPayload) (Result, error) {
	text := strings.TrimSpace(p.Text)

	if strings.HasPrefix(text, "/") {
		reply := ctx.Service.Commands.Dispatch(ctx.Actor, text[1:], ctx.Permission, false)
		return Result{Msg: reply, MsgType: "INFO"}, nil
	}

	ctx.Service.Hub.Broadcast(api.ServerResponse{
		Type:     "chat",
		EntityID: ctx.Actor.Base().ID,
		Message:  ctx.Actor.Base().Name + ": " + text,
	})
	return Result{}, nil
}

// handleReset возвращает игрока в исходное состояние
func handleReset(ctx HandlerContext) (Result, error) {
	player, ok := ctx.Actor.(*domain.Player)
	if !ok {
		return Result{Msg: "Only players can reset.", MsgType: "ERROR"}, nil
	}
	player.Reset()
	return Result{}, nil
}
