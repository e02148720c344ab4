package domain

import "strings"

// EventType - внутренний числовой идентификатор уведомления уровня
type EventType uint8

const (
	EventUnknown EventType = iota
	EventUpdate
	EventEntityAdded
	EventEntityRemoved
	EventEntityDeath
	EventPathStart
	EventPlayerReset
)

// Маппинг для конвертации JSON -> Domain
var eventStringToType = map[string]EventType{
	"UPDATE":            EventUpdate,
	"ENTITY_ADDED":      EventEntityAdded,
	"ENTITY_REMOVED":    EventEntityRemoved,
	"ENTITY_DEATH":      EventEntityDeath,
	"ENTITY_PATH_START": EventPathStart,
	"PLAYER_RESET":      EventPlayerReset,
}

// Маппинг для провода/логов Domain -> String
var eventTypeToString = map[EventType]string{
	EventUpdate:        "update",
	EventEntityAdded:   "entity_added",
	EventEntityRemoved: "entity_removed",
	EventEntityDeath:   "entity_death",
	EventPathStart:     "entity_path_start",
	EventPlayerReset:   "player_reset",
}

// ParseEvent конвертирует строку в EventType
func ParseEvent(s string) EventType {
	upper := strings.ToUpper(s)
	if val, ok := eventStringToType[upper]; ok {
		return val
	}
	return EventUnknown
}

// String реализует интерфейс Stringer (для провода и fmt.Printf)
func (e EventType) String() string {
	if val, ok := eventTypeToString[e]; ok {
		return val
	}
	return "unknown"
}

// Event - одно уведомление уровня.
type Event struct {
	Type     EventType
	EntityID string // Сущность, к которой относится событие ("" для update уровня)
	Data     any    // Снимок, маршрут и т.п. в зависимости от типа
}

// Bus - шина уведомлений уровня.
// Работает строго на горутине уровня (один логический поток на уровень),
// поэтому блокировок нет.
type Bus struct {
	handlers []func(Event)
	pending  []Event
}

// Subscribe регистрирует обработчик. Обработчики вызываются синхронно
// в порядке регистрации.
func (b *Bus) Subscribe(fn func(Event)) {
	b.handlers = append(b.handlers, fn)
}

// Emit доставляет событие немедленно, внутри текущего тика.
func (b *Bus) Emit(ev Event) {
	for _, fn := range b.handlers {
		fn(ev)
	}
}

// Defer откладывает событие до начала следующего тика.
// Так "entity_added" при создании сущности видят и те подписчики,
// которые подписались сразу ПОСЛЕ конструктора.
func (b *Bus) Defer(ev Event) {
	b.pending = append(b.pending, ev)
}

// Drain доставляет все отложенные события. Вызывается уровнем в начале тика.
func (b *Bus) Drain() {
	if len(b.pending) == 0 {
		return
	}
	queue := b.pending
	b.pending = nil
	for _, ev := range queue {
		b.Emit(ev)
	}
}
