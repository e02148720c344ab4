package domain

import (
	"fmt"
	"strings"
)

// FilterEntities возвращает подмножество сущностей по строке-селектору.
//
// Грамматика:
//
//	*        все сущности
//	@имя     точное совпадение имени
//	#id      точное совпадение ID
//	.substr  регистронезависимая подстрока в цепочке типов
//
// Любой другой ведущий символ - ошибка синтаксиса селектора
// (фатальная для вызова, см. обработку ошибок уровня).
func FilterEntities(entities []Object, selector string) ([]Object, error) {
	if selector == "" {
		return nil, fmt.Errorf("invalid selector %q", selector)
	}

	rest := selector[1:]
	var matched []Object

	switch selector[0] {
	case '*':
		matched = append(matched, entities...)

	case '@':
		for _, obj := range entities {
			if obj.Base().Name == rest {
				matched = append(matched, obj)
			}
		}

	case '#':
		for _, obj := range entities {
			if obj.Base().ID == rest {
				matched = append(matched, obj)
			}
		}

	case '.':
		needle := strings.ToLower(rest)
		for _, obj := range entities {
			for _, tag := range typeAncestors(obj.Base().Type) {
				if strings.Contains(strings.ToLower(tag), needle) {
					matched = append(matched, obj)
					break
				}
			}
		}

	default:
		return nil, fmt.Errorf("invalid selector %q", selector)
	}

	return matched, nil
}
