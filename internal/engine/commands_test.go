package engine

import (
	"strings"
	"testing"

	"emberfall-server/internal/domain"
	"emberfall-server/pkg/logger"
)

func init() {
	logger.Init()
}

func TestDispatchPermissionDenied(t *testing.T) {
	lvl := domain.NewLevel("test", nil)
	player := domain.NewPlayer(lvl, "guest")

	d := NewDispatcher()
	d.Register("kick ", 2, func(actor domain.Object, args []string) string {
		t.Fatal("handler must not run without permission")
		return ""
	})

	got := d.Dispatch(player, "kick @guest", 0, false)
	if got != MsgNoPermission {
		t.Errorf("Dispatch() = %q, want %q", got, MsgNoPermission)
	}
}

func TestDispatchOverrideSkipsPermission(t *testing.T) {
	lvl := domain.NewLevel("test", nil)
	player := domain.NewPlayer(lvl, "guest")

	d := NewDispatcher()
	d.Register("kick ", 2, func(actor domain.Object, args []string) string {
		return "kicked"
	})

	got := d.Dispatch(player, "kick @guest", 0, true)
	if got != "kicked" {
		t.Errorf("Dispatch() with override = %q, want %q", got, "kicked")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := NewDispatcher()
	d.Register("kick ", 0, func(actor domain.Object, args []string) string { return "" })

	got := d.Dispatch(nil, "dance", 5, false)
	if got != MsgUnknownCommand {
		t.Errorf("Dispatch() = %q, want %q", got, MsgUnknownCommand)
	}
}

func TestDispatchSplitsArguments(t *testing.T) {
	d := NewDispatcher()

	var captured []string
	d.Register("tell ", 0, func(actor domain.Object, args []string) string {
		captured = args
		return ""
	})

	d.Dispatch(nil, "tell @guest  hello   world", 0, false)
	want := []string{"@guest", "hello", "world"}
	if len(captured) != len(want) {
		t.Fatalf("args = %v, want %v", captured, want)
	}
	for i := range want {
		if captured[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, captured[i], want[i])
		}
	}
}

func TestDispatchFirstPrefixWins(t *testing.T) {
	d := NewDispatcher()
	d.Register("save", 0, func(actor domain.Object, args []string) string { return "short" })
	d.Register("saveall", 0, func(actor domain.Object, args []string) string { return "long" })

	// "save" зарегистрирован первым и является префиксом ввода
	if got := d.Dispatch(nil, "saveall", 0, false); got != "short" {
		t.Errorf("Dispatch() = %q, want %q", got, "short")
	}
}

func TestDefaultKillCommand(t *testing.T) {
	lvl := domain.NewLevel("arena", nil)
	s := &GameService{Level: lvl, Commands: NewDispatcher()}
	s.Commands.RegisterDefaults(s)

	domain.NewEntity(lvl, "rat")
	domain.NewEntity(lvl, "rat")
	operator := domain.NewPlayer(lvl, "op")

	got := s.Commands.Dispatch(operator, "kill .entity", 2, false)
	if !strings.HasPrefix(got, "Killed") {
		t.Fatalf("Dispatch() = %q, want kill report", got)
	}
	// Игрок - тоже Entity по цепочке предков, убиты все трое
	if lvl.Count() != 0 {
		t.Errorf("Count() = %d after kill, want 0", lvl.Count())
	}
}

func TestDefaultResetRequiresPlayer(t *testing.T) {
	lvl := domain.NewLevel("arena", nil)
	s := &GameService{Level: lvl, Commands: NewDispatcher()}
	s.Commands.RegisterDefaults(s)

	crate := domain.NewEntity(lvl, "crate")
	got := s.Commands.Dispatch(crate, "reset", 0, false)
	if got != "Only players can reset." {
		t.Errorf("Dispatch() = %q", got)
	}
}
