package engine

import (
	"encoding/json"
	"testing"

	"emberfall-server/internal/domain"
	"emberfall-server/pkg/api"
)

func newTestService(t *testing.T) *GameService {
	t.Helper()
	lvl := domain.NewLevel("test", nil)
	return NewService(NewConfig(), lvl, nil)
}

func TestJoinSpawnsPlayerOnce(t *testing.T) {
	s := newTestService(t)

	first := s.ensurePlayer("ranger")
	second := s.ensurePlayer("ranger")

	if first != second {
		t.Errorf("ensurePlayer() returned different IDs: %q, %q", first, second)
	}
	if s.Level.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Level.Count())
	}
}

func TestProcessCommandMove(t *testing.T) {
	s := newTestService(t)
	id := s.ensurePlayer("ranger")

	payload, _ := json.Marshal(api.MovePayload{Target: [3]float64{3, 0, 0}})
	s.ProcessCommand(api.ClientCommand{Action: "MOVE", Payload: payload}, id, 0)

	s.drainCommands()

	obj, err := s.Level.EntityByID(id)
	if err != nil {
		t.Fatalf("EntityByID() error: %v", err)
	}
	pos := obj.Base().Position
	if pos.X != 3 || pos.Z != 0 {
		t.Errorf("position after MOVE = %+v, want X=3 Z=0", pos)
	}
}

func TestProcessCommandUnknownActionDropped(t *testing.T) {
	s := newTestService(t)
	id := s.ensurePlayer("ranger")

	s.ProcessCommand(api.ClientCommand{Action: "DANCE"}, id, 0)

	select {
	case cmd := <-s.CommandChan:
		t.Fatalf("unknown action was queued: %+v", cmd)
	default:
	}
}

func TestInitSendsLevelSnapshot(t *testing.T) {
	s := newTestService(t)
	id := s.ensurePlayer("ranger")
	updates := s.Hub.Register(id)

	s.ProcessCommand(api.ClientCommand{Action: "INIT"}, id, 0)
	s.drainCommands()

	for {
		select {
		case msg := <-updates:
			if msg.Type != "init" {
				continue
			}
			if msg.Level == nil || len(msg.Level.Entities) != 1 {
				t.Fatalf("init snapshot = %+v", msg.Level)
			}
			return
		default:
			t.Fatal("no init message received")
		}
	}
}

func TestChatCommandGoesToDispatcher(t *testing.T) {
	s := newTestService(t)
	id := s.ensurePlayer("ranger")
	updates := s.Hub.Register(id)

	payload, _ := json.Marshal(api.ChatPayload{Text: "/dance"})
	s.ProcessCommand(api.ClientCommand{Action: "CHAT", Payload: payload}, id, 0)
	s.drainCommands()

	select {
	case msg := <-updates:
		if msg.Message != MsgUnknownCommand {
			t.Errorf("reply = %q, want %q", msg.Message, MsgUnknownCommand)
		}
	default:
		t.Fatal("no reply received")
	}
}

func TestRouteBroadcastOnMove(t *testing.T) {
	s := newTestService(t)
	id := s.ensurePlayer("ranger")
	updates := s.Hub.Register(id)

	payload, _ := json.Marshal(api.MovePayload{Target: [3]float64{2, 0, 0}})
	s.ProcessCommand(api.ClientCommand{Action: "MOVE", Payload: payload}, id, 0)
	s.drainCommands()

	for {
		select {
		case msg := <-updates:
			if msg.Type != domain.EventPathStart.String() {
				continue
			}
			if len(msg.Route) == 0 {
				t.Fatal("path start event carries no route")
			}
			last := msg.Route[len(msg.Route)-1]
			if last[0] != 2 || last[2] != 0 {
				t.Errorf("route ends at %v, want [2 0 0]", last)
			}
			return
		default:
			t.Fatal("no path start event received")
		}
	}
}

func TestCommandFromUnknownEntityIgnored(t *testing.T) {
	s := newTestService(t)

	s.ProcessCommand(api.ClientCommand{Action: "INIT"}, "ghost", 0)
	s.drainCommands()

	if s.Level.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Level.Count())
	}
}
