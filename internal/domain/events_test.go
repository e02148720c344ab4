package domain

import "testing"

func TestBus_EmitOrder(t *testing.T) {
	bus := &Bus{}

	var seen []string
	bus.Subscribe(func(ev Event) { seen = append(seen, "first:"+ev.Type.String()) })
	bus.Subscribe(func(ev Event) { seen = append(seen, "second:"+ev.Type.String()) })

	bus.Emit(Event{Type: EventUpdate})

	if len(seen) != 2 || seen[0] != "first:update" || seen[1] != "second:update" {
		t.Errorf("Handlers must run synchronously in registration order, got %v", seen)
	}
}

func TestBus_DeferUntilDrain(t *testing.T) {
	bus := &Bus{}
	var seen []EventType
	bus.Subscribe(func(ev Event) { seen = append(seen, ev.Type) })

	bus.Defer(Event{Type: EventEntityAdded})
	if len(seen) != 0 {
		t.Fatal("Deferred events must not fire before Drain")
	}

	bus.Drain()
	if len(seen) != 1 || seen[0] != EventEntityAdded {
		t.Errorf("Drain should deliver deferred events, got %v", seen)
	}

	// Second drain must be a no-op
	bus.Drain()
	if len(seen) != 1 {
		t.Error("Drain delivered the same event twice")
	}
}

func TestEventType_Strings(t *testing.T) {
	cases := map[EventType]string{
		EventUpdate:        "update",
		EventEntityAdded:   "entity_added",
		EventEntityRemoved: "entity_removed",
		EventEntityDeath:   "entity_death",
		EventPathStart:     "entity_path_start",
		EventPlayerReset:   "player_reset",
	}
	for ev, want := range cases {
		if ev.String() != want {
			t.Errorf("%d.String() = %q, want %q", ev, ev.String(), want)
		}
		if ParseEvent(want) != ev {
			t.Errorf("ParseEvent(%q) did not round-trip", want)
		}
	}
	if ParseEvent("nonsense") != EventUnknown {
		t.Error("ParseEvent should fall back to EventUnknown")
	}
}
