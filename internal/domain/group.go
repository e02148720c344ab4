package domain

import "emberfall-server/pkg/api"

// Group - именованная группа сущностей.
// Участники хранятся списком ID и сериализуются как есть:
// живые ссылки группе не нужны, состав может переживать участников.
type Group struct {
	Entity
	Members []string
}

// NewGroup создает группу и регистрирует ее в уровне
func NewGroup(lvl *Level, name string) *Group {
	g := &Group{Entity: Entity{
		ID:    GenerateID(),
		Name:  name,
		Type:  TypeGroup,
		Level: lvl,
	}}
	lvl.attach(g)
	return g
}

// AddMember добавляет сущность в группу (идемпотентно)
func (g *Group) AddMember(id string) {
	for _, m := range g.Members {
		if m == id {
			return
		}
	}
	g.Members = append(g.Members, id)
}

// RemoveMember убирает сущность из группы
func (g *Group) RemoveMember(id string) {
	for i, m := range g.Members {
		if m == id {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return
		}
	}
}

func (g *Group) Record() api.EntityRecord {
	rec := g.Entity.Record()
	rec.Members = append([]string(nil), g.Members...)
	return rec
}

func (g *Group) Apply(rec api.EntityRecord) error {
	if err := g.Entity.Apply(rec); err != nil {
		return err
	}
	g.Members = append([]string(nil), rec.Members...)
	return nil
}

func init() {
	RegisterEntityType(TypeGroup, []string{TypeGroup, TypeEntity}, func(lvl *Level, rec api.EntityRecord) (Object, error) {
		g := NewGroup(lvl, rec.Name)
		if err := g.Apply(rec); err != nil {
			lvl.detach(g.ID)
			return nil, err
		}
		return g, nil
	})
}
