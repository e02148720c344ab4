package domain

import (
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/vmath"
)

// playerDamping - коэффициент затухания скорости игрока за тик
const playerDamping = 0.9

// Player - сущность, управляемая клиентом.
// Owner по умолчанию указывает на самого игрока (Parent при этом
// остается пустым - это независимые связи).
type Player struct {
	Entity
}

// NewPlayer создает игрока и регистрирует его в уровне
func NewPlayer(lvl *Level, name string) *Player {
	p := &Player{Entity: Entity{
		ID:    GenerateID(),
		Name:  name,
		Type:  TypePlayer,
		Level: lvl,
	}}
	p.Owner = &p.Entity
	lvl.attach(p)
	return p
}

// Update у игрока НЕ интегрирует позицию и не заворачивает вращение:
// игроки двигаются явными позиционными командами (MoveTo),
// скорость лишь затухает от тика к тику.
func (p *Player) Update() {
	p.Velocity = p.Velocity.Scale(playerDamping)
	p.Level.Bus.Emit(Event{Type: EventUpdate, EntityID: p.ID})
}

// Reset возвращает игрока в исходное состояние и шлет "player_reset"
func (p *Player) Reset() {
	p.Position = vmath.Vector3{}
	p.Velocity = vmath.Vector3{}
	p.Rotation = vmath.Vector3{}
	p.Level.Bus.Emit(Event{Type: EventPlayerReset, EntityID: p.ID})
}

func init() {
	RegisterEntityType(TypePlayer, []string{TypePlayer, TypeEntity}, func(lvl *Level, rec api.EntityRecord) (Object, error) {
		p := NewPlayer(lvl, rec.Name)
		if err := p.Apply(rec); err != nil {
			lvl.detach(p.ID)
			return nil, err
		}
		return p, nil
	})
}
