package domain

import (
	"math"
	"reflect"
	"testing"

	"emberfall-server/pkg/api"
	"emberfall-server/pkg/logger"
	"emberfall-server/pkg/vmath"
)

func init() {
	logger.Init()
}

func TestAbsoluteTransform_NoParent(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "loner")
	e.Position = vmath.Vector3{X: 1, Y: 2, Z: 3}
	e.Rotation = vmath.Vector3{Y: 0.5}

	if e.AbsolutePosition() != e.Position {
		t.Error("Without a parent, absolute position must equal position")
	}
	if e.AbsoluteRotation() != e.Rotation {
		t.Error("Without a parent, absolute rotation must equal rotation")
	}
}

func TestAbsoluteTransform_ParentChain(t *testing.T) {
	lvl := NewLevel("test", nil)

	a := NewEntity(lvl, "a")
	b := NewEntity(lvl, "b")
	c := NewEntity(lvl, "c")
	b.Parent = a
	c.Parent = b

	a.Position = vmath.Vector3{X: 1}
	b.Position = vmath.Vector3{Y: 2}
	c.Position = vmath.Vector3{Z: 3}

	want := vmath.Vector3{X: 1, Y: 2, Z: 3}
	if got := c.AbsolutePosition(); got != want {
		t.Errorf("Chain position: got %v, want %v", got, want)
	}
}

func TestAbsoluteVelocity_ParentChain(t *testing.T) {
	lvl := NewLevel("test", nil)
	a := NewEntity(lvl, "a")
	b := NewEntity(lvl, "b")
	b.Parent = a

	a.Velocity = vmath.Vector3{X: 1}
	a.Rotation = vmath.Vector3{X: 100} // must NOT leak into velocity
	b.Velocity = vmath.Vector3{X: 2}

	want := vmath.Vector3{X: 3}
	if got := b.AbsoluteVelocity(); got != want {
		t.Errorf("Chain velocity: got %v, want %v", got, want)
	}
}

func TestEntityUpdate_RotationWrap(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "spinner")
	e.Rotation.Y = 3.5

	e.Update()

	want := 3.5 - 2*math.Pi
	if math.Abs(e.Rotation.Y-want) > 1e-9 {
		t.Errorf("Rotation.Y: got %f, want %f", e.Rotation.Y, want)
	}
	if e.Rotation.Y > math.Pi || e.Rotation.Y <= -math.Pi {
		t.Errorf("Rotation.Y %f escaped (-π, π]", e.Rotation.Y)
	}
}

func TestEntityUpdate_Integration(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "mover")
	e.Position = vmath.Vector3{X: 1}
	e.Velocity = vmath.Vector3{X: 0.5, Z: -1}

	e.Update()

	want := vmath.Vector3{X: 1.5, Z: -1}
	if e.Position != want {
		t.Errorf("Position after update: got %v, want %v", e.Position, want)
	}
}

func TestPlayerUpdate_Damping(t *testing.T) {
	lvl := NewLevel("test", nil)
	p := NewPlayer(lvl, "hero")
	p.Position = vmath.Vector3{X: 10}
	p.Velocity = vmath.Vector3{X: 1}
	p.Rotation.Y = 3.5 // would wrap for a base entity

	p.Update()

	if !p.Velocity.Equals(vmath.Vector3{X: 0.9}, 1e-9) {
		t.Errorf("Velocity after damping: got %v", p.Velocity)
	}
	if p.Position.X != 10 {
		t.Error("Player update must not integrate velocity into position")
	}
	if p.Rotation.Y != 3.5 {
		t.Error("Player update must not wrap rotation")
	}
}

func TestPlayer_OwnsItself(t *testing.T) {
	lvl := NewLevel("test", nil)
	p := NewPlayer(lvl, "hero")

	if p.Owner != &p.Entity {
		t.Error("Player must own itself by default")
	}
	if p.Parent != nil {
		t.Error("Player parent must stay unset")
	}
}

func TestEntity_RecordRoundTrip(t *testing.T) {
	lvl := NewLevel("test", nil)
	owner := NewPlayer(lvl, "hero")
	e := NewEntity(lvl, "crate")
	e.Parent = &owner.Entity
	e.Owner = &owner.Entity
	e.Position = vmath.Vector3{X: 1, Y: 2, Z: 3}
	e.Rotation = vmath.Vector3{Y: 0.25}
	e.Velocity = vmath.Vector3{Z: -0.5}

	rec := e.Record()
	if rec.Owner != owner.ID || rec.Parent != owner.ID {
		t.Error("Record must serialize owner/parent as id strings")
	}

	// Restore into a fresh level that already holds the owner
	lvl2 := NewLevel("test2", nil)
	ownerRec := owner.Record()
	factory, _ := LookupEntityType(ownerRec.EntityType)
	if _, err := factory(lvl2, ownerRec); err != nil {
		t.Fatalf("Restore owner: %v", err)
	}
	factory, _ = LookupEntityType(rec.EntityType)
	restored, err := factory(lvl2, rec)
	if err != nil {
		t.Fatalf("Restore entity: %v", err)
	}

	got := restored.Record()
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Round-trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestEntity_ApplyBrokenReference(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "orphan")

	rec := e.Record()
	rec.Parent = "deadbeefdeadbeefdeadbeefdeadbeef"

	if err := e.Apply(rec); err == nil {
		t.Error("Apply must fail on a broken parent reference")
	}
}

func TestEntity_IsType(t *testing.T) {
	lvl := NewLevel("test", nil)
	p := NewPlayer(lvl, "hero")
	g := NewGroup(lvl, "party")

	if !p.IsType(TypePlayer) || !p.IsType(TypeEntity) {
		t.Error("Player chain must include Player and Entity")
	}
	if p.IsType(TypeGroup) {
		t.Error("Player must not match Group")
	}
	if !g.IsType(TypeEntity) {
		t.Error("Group chain must include Entity")
	}
}

func TestEntity_Remove(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "doomed")
	e.Position = vmath.Vector3{X: 7}

	var removed []Event
	lvl.Bus.Subscribe(func(ev Event) {
		if ev.Type == EventEntityRemoved {
			removed = append(removed, ev)
		}
	})

	e.Remove()

	if lvl.Count() != 0 {
		t.Errorf("Level should be empty, has %d entities", lvl.Count())
	}
	if _, err := lvl.EntityByID(e.ID); err == nil {
		t.Error("EntityByID should fail after removal")
	}
	if len(removed) != 1 {
		t.Fatalf("Expected one entity_removed event, got %d", len(removed))
	}
	snap, ok := removed[0].Data.(api.EntityRecord)
	if !ok {
		t.Fatal("entity_removed must carry the last snapshot")
	}
	if snap.Position[0] != 7 {
		t.Errorf("Snapshot must be taken before removal, got %v", snap.Position)
	}
}

func TestEntity_Kill(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "victim")
	e.Position = vmath.Vector3{X: 4}

	var order []EventType
	var death Event
	lvl.Bus.Subscribe(func(ev Event) {
		switch ev.Type {
		case EventEntityDeath, EventEntityRemoved:
			order = append(order, ev.Type)
			if ev.Type == EventEntityDeath {
				death = ev
			}
		}
	})

	e.Kill()

	if lvl.Count() != 0 {
		t.Errorf("Level should be empty, has %d entities", lvl.Count())
	}
	if len(order) != 2 || order[0] != EventEntityDeath || order[1] != EventEntityRemoved {
		t.Fatalf("Expected entity_death before entity_removed, got %v", order)
	}
	snap, ok := death.Data.(api.EntityRecord)
	if !ok {
		t.Fatal("entity_death must carry the last snapshot")
	}
	if death.EntityID != e.ID || snap.Position[0] != 4 {
		t.Errorf("Snapshot must be taken before removal, got %v", snap.Position)
	}
}

func TestPlayer_Reset(t *testing.T) {
	lvl := NewLevel("test", nil)
	p := NewPlayer(lvl, "hero")
	p.Position = vmath.Vector3{X: 5, Y: 1, Z: -2}
	p.Rotation = vmath.Vector3{Y: 1.5}
	p.Velocity = vmath.Vector3{X: 0.3}

	var resets []Event
	lvl.Bus.Subscribe(func(ev Event) {
		if ev.Type == EventPlayerReset {
			resets = append(resets, ev)
		}
	})

	p.Reset()

	zero := vmath.Vector3{}
	if p.Position != zero || p.Rotation != zero || p.Velocity != zero {
		t.Errorf("Reset must zero the transform, got pos=%v rot=%v vel=%v",
			p.Position, p.Rotation, p.Velocity)
	}
	if len(resets) != 1 || resets[0].EntityID != p.ID {
		t.Fatalf("Expected one player_reset event for %s, got %v", p.ID, resets)
	}
	if lvl.Count() != 1 {
		t.Errorf("Reset must not remove the player, count = %d", lvl.Count())
	}
}

func TestEntity_MoveTo(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "walker")

	var route []vmath.Vector3
	lvl.Bus.Subscribe(func(ev Event) {
		if ev.Type == EventPathStart {
			route = ev.Data.([]vmath.Vector3)
		}
	})

	e.MoveTo(vmath.Vector3{X: 5}, false)

	if len(route) == 0 {
		t.Fatal("Expected entity_path_start with a route")
	}
	if e.Position.X != 5 || e.Position.Z != 0 {
		t.Errorf("Entity should end at the goal, got %v", e.Position)
	}
}

func TestEntity_MoveTo_NoRoute(t *testing.T) {
	lvl := NewLevel("test", nil)
	e := NewEntity(lvl, "stuck")
	e.Position = vmath.Vector3{X: 3}

	// Target resolves to the same grid cell: no movement, no event
	fired := false
	lvl.Bus.Subscribe(func(ev Event) {
		if ev.Type == EventPathStart {
			fired = true
		}
	})

	e.MoveTo(vmath.Vector3{X: 3.2}, false)

	if fired {
		t.Error("No path started event expected for a same-cell target")
	}
	if e.Position.X != 3 {
		t.Error("Position must not change when the route is empty")
	}
}
