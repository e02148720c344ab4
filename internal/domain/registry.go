package domain

import "emberfall-server/pkg/api"

// EntityFactory строит сущность конкретного типа из записи снимка.
// Фабрика обязана зарегистрировать сущность в уровне (через конструктор)
// и применить запись (Apply) до возврата.
type EntityFactory func(lvl *Level, rec api.EntityRecord) (Object, error)

// typeSpec описывает один зарегистрированный тип сущности.
// Ancestors - явная цепочка тегов предков (включая собственный тег),
// хранится при регистрации, чтобы не ходить по reflect в рантайме.
type typeSpec struct {
	Name      string
	Ancestors []string
	New       EntityFactory
}

// entityTypes - глобальный реестр типов.
// Заполняется в init() при определении типа, читается только при
// восстановлении уровня из снимка.
var entityTypes = map[string]typeSpec{}

// RegisterEntityType регистрирует тип сущности.
// Вызывается один раз на тип, при инициализации процесса.
func RegisterEntityType(name string, ancestors []string, factory EntityFactory) {
	entityTypes[name] = typeSpec{Name: name, Ancestors: ancestors, New: factory}
}

// LookupEntityType возвращает спецификацию типа.
// Незарегистрированный тип - штатная ситуация (снимок может ссылаться
// на типы, которых больше нет в сборке), решение принимает вызывающий.
func LookupEntityType(name string) (EntityFactory, bool) {
	spec, ok := entityTypes[name]
	if !ok {
		return nil, false
	}
	return spec.New, true
}

// typeAncestors возвращает цепочку тегов предков для тега типа.
func typeAncestors(name string) []string {
	if spec, ok := entityTypes[name]; ok {
		return spec.Ancestors
	}
	return []string{name}
}
