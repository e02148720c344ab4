package domain

import (
	"fmt"
	"sort"
	"time"

	"emberfall-server/internal/systems"
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// DefaultTypeOrder - порядок приоритета типов по умолчанию.
// Тип, стоящий раньше в списке, не зависит от существования более поздних
// типов при восстановлении: его можно построить первым.
var DefaultTypeOrder = []string{TypePlayer, TypeEntity}

// Level - авторитетная симуляция: набор сущностей, часы тиков,
// шина уведомлений и сериализация целиком.
//
// Инварианты: ID каждой сущности уникален внутри уровня;
// у каждой сущности из набора entity.Level == этот уровень.
type Level struct {
	ID         string
	Name       string
	Date       time.Time // Момент последнего сохранения
	Difficulty float64

	Bus     *Bus
	Monitor *TickMonitor

	// TypeOrder - явная конфигурация порядка типов, передается при
	// конструировании (не процесс-глобальная мутабельная переменная).
	TypeOrder []string

	Tick uint64

	// Набор сущностей. Срез держит порядок вставки (его же документируем
	// как порядок обхода в Update), индекс дает поиск по ID.
	entities []Object
	index    map[string]Object
}

// NewLevel создает пустой уровень.
// order=nil означает порядок типов по умолчанию.
func NewLevel(name string, order []string) *Level {
	if order == nil {
		order = DefaultTypeOrder
	}
	return &Level{
		ID:        GenerateID(),
		Name:      name,
		Bus:       &Bus{},
		Monitor:   &TickMonitor{},
		TypeOrder: append([]string(nil), order...),
		index:     make(map[string]Object),
	}
}

// attach регистрирует сущность в наборе уровня.
// "entity_added" откладывается до следующего тика, чтобы его увидели
// подписчики, добавленные сразу после конструктора.
func (l *Level) attach(obj Object) {
	base := obj.Base()
	base.self = obj
	l.entities = append(l.entities, obj)
	l.index[base.ID] = obj
	l.Bus.Defer(Event{Type: EventEntityAdded, EntityID: base.ID, Data: obj})
}

// detach убирает сущность из набора (уведомления шлет вызывающий)
func (l *Level) detach(id string) {
	delete(l.index, id)
	for i, obj := range l.entities {
		if obj.Base().ID == id {
			l.entities = append(l.entities[:i], l.entities[i+1:]...)
			return
		}
	}
}

// reindex переносит сущность под новый ID (при применении снимка)
func (l *Level) reindex(oldID, newID string) {
	if obj, ok := l.index[oldID]; ok {
		delete(l.index, oldID)
		l.index[newID] = obj
	}
}

// EntityByID ищет сущность по ID.
// Отсутствие - ошибка: битая ссылка означает нарушенный инвариант.
func (l *Level) EntityByID(id string) (Object, error) {
	if obj, ok := l.index[id]; ok {
		return obj, nil
	}
	return nil, fmt.Errorf("entity %q not found in level %q", id, l.ID)
}

// Entities возвращает копию набора в порядке вставки
func (l *Level) Entities() []Object {
	return append([]Object(nil), l.entities...)
}

// Count возвращает размер набора
func (l *Level) Count() int {
	return len(l.entities)
}

// Update продвигает уровень на один тик: доставляет отложенные
// уведомления, шлет "update" уровня и тикает каждую сущность
// в порядке вставки. Работает строго на горутине уровня.
func (l *Level) Update() {
	started := time.Now()
	l.Tick++

	l.Bus.Drain()
	l.Bus.Emit(Event{Type: EventUpdate})

	// Копия среза: Update сущности может удалять ее саму или соседей
	for _, obj := range append([]Object(nil), l.entities...) {
		if _, ok := l.index[obj.Base().ID]; !ok {
			continue // удалена ранее в этом же тике
		}
		obj.Update()
	}

	l.Monitor.AddTick(time.Since(started).Nanoseconds())
}

// orderIndex возвращает позицию типа в TypeOrder.
// Тип, которого нет в списке, наследует позицию ближайшего предка;
// совсем неизвестные уходят в конец.
func (l *Level) orderIndex(typeName string) int {
	for _, tag := range typeAncestors(typeName) {
		for i, t := range l.TypeOrder {
			if t == tag {
				return i
			}
		}
	}
	return len(l.TypeOrder)
}

// Record сериализует уровень в снимок и обновляет метку сохранения.
// Сущности переупорядочиваются так, что типы, стоящие ПОЗЖЕ в списке
// приоритетов, пишутся ПЕРВЫМИ: парный LevelFromRecord читает в прямом
// порядке приоритетов и разрешает ссылки без забегания вперед.
func (l *Level) Record() api.LevelRecord {
	l.Date = time.Now().UTC()

	recs := make([]api.EntityRecord, 0, len(l.entities))
	for _, obj := range l.entities {
		recs = append(recs, obj.Record())
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return l.orderIndex(recs[i].EntityType) > l.orderIndex(recs[j].EntityType)
	})

	return api.LevelRecord{
		Date:       l.Date.Format(time.RFC3339),
		Difficulty: l.Difficulty,
		Name:       l.Name,
		ID:         l.ID,
		Entities:   recs,
	}
}

// LevelFromRecord восстанавливает уровень из снимка.
// Сущности строятся строго в порядке ВОЗРАСТАНИЯ приоритета типов:
// ранний тип не зависит от поздних, поэтому ссылки Owner/Parent
// к моменту разрешения уже существуют.
//
// Неизвестный тип или битая запись - диагностика и пропуск, никогда
// не срыв загрузки: снимок может ссылаться на типы, которых больше
// нет в сборке.
func LevelFromRecord(rec api.LevelRecord, order []string) (*Level, error) {
	lvl := NewLevel(rec.Name, order)
	if rec.ID != "" {
		lvl.ID = rec.ID
	}
	lvl.Difficulty = rec.Difficulty

	if rec.Date != "" {
		saved, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			logger.Log.WithError(err).WithField("level_id", lvl.ID).Warn("Bad snapshot date, ignoring")
		} else {
			lvl.Date = saved
		}
	}

	sorted := append([]api.EntityRecord(nil), rec.Entities...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lvl.orderIndex(sorted[i].EntityType) < lvl.orderIndex(sorted[j].EntityType)
	})

	for _, er := range sorted {
		factory, ok := LookupEntityType(er.EntityType)
		if !ok {
			logger.Log.WithFields(logrus.Fields{
				"level_id":    lvl.ID,
				"entity_id":   er.ID,
				"entity_type": er.EntityType,
			}).Warn("Unknown entity type in snapshot, skipping")
			continue
		}
		if _, err := factory(lvl, er); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"level_id":  lvl.ID,
				"entity_id": er.ID,
			}).Warn("Failed to restore entity, skipping")
		}
	}

	return lvl, nil
}

// obstaclesFor собирает препятствия уровня для поиска пути,
// исключая саму движущуюся сущность.
// Сущности с нулевым PathRadius препятствиями не считаются.
func (l *Level) obstaclesFor(mover *Entity) []systems.Obstacle {
	obstacles := make([]systems.Obstacle, 0, len(l.entities))
	for _, obj := range l.entities {
		base := obj.Base()
		if base == mover || base.PathRadius <= 0 {
			continue
		}
		obstacles = append(obstacles, systems.Obstacle{
			Position: base.AbsolutePosition(),
			Radius:   base.PathRadius,
		})
	}
	return obstacles
}
