package domain

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/google/uuid"

	"emberfall-server/internal/systems"
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/vmath"
)

// Теги зарегистрированных типов сущностей
const (
	TypeEntity = "Entity"
	TypePlayer = "Player"
	TypeGroup  = "Group"
)

// GenerateID создает уникальный ID: 32 hex-символа
func GenerateID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Object - любой конкретный вариант сущности (базовая, Player, Group).
// Варианты встраивают Entity и при необходимости переопределяют поведение.
type Object interface {
	Base() *Entity
	Update()
	Record() api.EntityRecord
	Apply(rec api.EntityRecord) error
}

// Entity - узел дерева владения с трансформом.
// Position/Rotation хранятся ОТНОСИТЕЛЬНО Parent; абсолютные значения
// складываются рекурсивно по цепочке предков.
//
// Parent и Owner - две независимые связи с разной семантикой:
// Parent задает композицию трансформа и вложенность сериализации,
// Owner - "контролирующую" сущность (у Player по умолчанию он сам).
// Не схлопывать в одну ссылку.
type Entity struct {
	ID   string
	Name string
	Type string

	// Level устанавливается конструктором и не переназначается:
	// сущность живет ровно в одном уровне весь свой срок.
	Level *Level

	Parent *Entity
	Owner  *Entity

	Position vmath.Vector3
	Rotation vmath.Vector3
	Velocity vmath.Vector3

	// PathRadius - радиус коллизии, используется только поиском пути.
	PathRadius float64

	// self - ссылка на конкретный вариант. Нужна, чтобы базовые методы
	// (Remove, Kill) снимали снимок переопределенным Record.
	self Object
}

// Base возвращает базовую часть сущности
func (e *Entity) Base() *Entity { return e }

// NewEntity создает базовую сущность и сразу регистрирует ее в уровне.
// Уведомление "entity_added" откладывается до следующего тика.
func NewEntity(lvl *Level, name string) *Entity {
	e := &Entity{
		ID:    GenerateID(),
		Name:  name,
		Type:  TypeEntity,
		Level: lvl,
	}
	lvl.attach(e)
	return e
}

// AbsolutePosition возвращает позицию с учетом всей цепочки предков
func (e *Entity) AbsolutePosition() vmath.Vector3 {
	if e.Parent == nil {
		return e.Position
	}
	return e.Parent.AbsolutePosition().Add(e.Position)
}

// AbsoluteRotation возвращает вращение с учетом всей цепочки предков
func (e *Entity) AbsoluteRotation() vmath.Vector3 {
	if e.Parent == nil {
		return e.Rotation
	}
	return e.Parent.AbsoluteRotation().Add(e.Rotation)
}

// AbsoluteVelocity складывает скорость по цепочке предков
func (e *Entity) AbsoluteVelocity() vmath.Vector3 {
	if e.Parent == nil {
		return e.Velocity
	}
	return e.Parent.AbsoluteVelocity().Add(e.Velocity)
}

// Update продвигает сущность на один тик:
// нормализует рыскание в (-π, π] (заворот, не обрезание),
// интегрирует скорость в позицию и шлет уведомление "update".
func (e *Entity) Update() {
	for e.Rotation.Y > math.Pi {
		e.Rotation.Y -= 2 * math.Pi
	}
	for e.Rotation.Y <= -math.Pi {
		e.Rotation.Y += 2 * math.Pi
	}

	e.Position = e.Position.Add(e.Velocity)

	e.Level.Bus.Emit(Event{Type: EventUpdate, EntityID: e.ID})
}

// MoveTo ведет сущность к цели через поиск пути.
// target - абсолютная точка; при relative=true - смещение от текущей
// абсолютной позиции. Пустой маршрут означает "остаемся на месте".
func (e *Entity) MoveTo(target vmath.Vector3, relative bool) {
	start := e.AbsolutePosition()
	if relative {
		target = start.Add(target)
	}

	route := systems.FindPath(start, target, e.Level.obstaclesFor(e))
	if len(route) == 0 {
		return
	}

	// Маршрут уходит наблюдателям в абсолютных координатах (для анимации)
	e.Level.Bus.Emit(Event{Type: EventPathStart, EntityID: e.ID, Data: route})

	// Позиция хранится относительно родителя - переводим конечную точку
	last := route[len(route)-1]
	parentAbs := vmath.Vector3{}
	if e.Parent != nil {
		parentAbs = e.Parent.AbsolutePosition()
	}
	e.Position = last.Sub(parentAbs)

	// Вращение по направлению последнего сегмента маршрута.
	// -π/2 по тангажу - поправка на позу покоя модели.
	prev := start
	if len(route) > 1 {
		prev = route[len(route)-2]
	}
	dir := last.Sub(prev)
	yaw := math.Atan2(dir.X, dir.Z)
	pitch := math.Atan2(dir.Y, math.Hypot(dir.X, dir.Z)) - math.Pi/2
	e.Rotation = vmath.Vector3{X: pitch, Y: yaw}
}

// Remove удаляет сущность из уровня.
// Уведомление "entity_removed" несет снимок, снятый ДО удаления.
func (e *Entity) Remove() {
	snap := e.self.Record()
	e.Level.detach(e.ID)
	e.Level.Bus.Emit(Event{Type: EventEntityRemoved, EntityID: e.ID, Data: snap})
}

// Kill шлет "entity_death" со снимком и затем удаляет сущность
func (e *Entity) Kill() {
	snap := e.self.Record()
	e.Level.Bus.Emit(Event{Type: EventEntityDeath, EntityID: e.ID, Data: snap})
	e.Remove()
}

// Record сериализует сущность в запись снимка.
// Owner/Parent пишутся строками-ID, вложенных объектов в проводе нет.
func (e *Entity) Record() api.EntityRecord {
	rec := api.EntityRecord{
		ID:         e.ID,
		Name:       e.Name,
		EntityType: e.Type,
		Position:   e.Position.Array(),
		Rotation:   e.Rotation.Array(),
		Velocity:   e.Velocity.Array(),
	}
	if e.Owner != nil {
		rec.Owner = e.Owner.ID
	}
	if e.Parent != nil {
		rec.Parent = e.Parent.ID
	}
	return rec
}

// Apply восстанавливает поля из записи снимка.
// Ссылки Owner/Parent разрешаются по текущему набору сущностей уровня,
// поэтому порядок восстановления важен: ссылка обязана уже существовать.
// Битая ссылка - фатальная ошибка этой операции (инвариант нарушен).
func (e *Entity) Apply(rec api.EntityRecord) error {
	if rec.ID != "" && rec.ID != e.ID {
		e.Level.reindex(e.ID, rec.ID)
		e.ID = rec.ID
	}
	if rec.Name != "" {
		e.Name = rec.Name
	}

	e.Position = vmath.FromArray(rec.Position)
	e.Rotation = vmath.FromArray(rec.Rotation)
	e.Velocity = vmath.FromArray(rec.Velocity)

	if rec.Owner != "" {
		obj, err := e.Level.EntityByID(rec.Owner)
		if err != nil {
			return fmt.Errorf("resolve owner %q: %w", rec.Owner, err)
		}
		e.Owner = obj.Base()
	}
	if rec.Parent != "" {
		obj, err := e.Level.EntityByID(rec.Parent)
		if err != nil {
			return fmt.Errorf("resolve parent %q: %w", rec.Parent, err)
		}
		e.Parent = obj.Base()
	}
	return nil
}

// IsType сообщает, встречается ли хоть один из тегов
// в цепочке предков типа этой сущности
func (e *Entity) IsType(names ...string) bool {
	chain := typeAncestors(e.Type)
	for _, name := range names {
		for _, tag := range chain {
			if tag == name {
				return true
			}
		}
	}
	return false
}

func init() {
	RegisterEntityType(TypeEntity, []string{TypeEntity}, func(lvl *Level, rec api.EntityRecord) (Object, error) {
		e := NewEntity(lvl, rec.Name)
		if err := e.Apply(rec); err != nil {
			lvl.detach(e.ID)
			return nil, err
		}
		return e, nil
	})
}
