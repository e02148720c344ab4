package systems

import (
	"math"
	"strconv"

	"emberfall-server/pkg/vmath"
)

// maxSearchNodes - жесткий предел на размер open/closed множеств.
// Единственная защита от зависшего тика на большом или недостижимом поиске.
const maxSearchNodes = 10000

// Obstacle - препятствие для поиска пути: абсолютная позиция и радиус коллизии.
type Obstacle struct {
	Position vmath.Vector3
	Radius   float64
}

// pathNode - узел поиска. Живет только внутри одного вызова FindPath.
// parent образует односвязную цепочку обратного хода от цели к старту.
type pathNode struct {
	x, z   int
	parent *pathNode
	gCost  float64 // Накопленная стоимость от старта
	hCost  float64 // Эвристика до цели
}

func (n *pathNode) fCost() float64 {
	return n.gCost + n.hCost
}

// nodeKey - каноничный ключ клетки сетки. Два узла в одной клетке
// считаются одним и тем же узлом независимо от истории пути.
func nodeKey(x, z int) string {
	return strconv.Itoa(x) + ":" + strconv.Itoa(z)
}

// nodeDistance - октильная метрика: диагональный шаг стоит √2, прямой 1.
func nodeDistance(ax, az, bx, bz int) float64 {
	dx := math.Abs(float64(ax - bx))
	dz := math.Abs(float64(az - bz))
	lo, hi := dx, dz
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Sqrt2*lo + (hi - lo)
}

// blocked проверяет, занята ли клетка каким-либо препятствием.
// Клетка считается занятой, если расстояние по плоскости XZ до центра
// препятствия не превышает его радиус + 1.
func blocked(x, z int, obstacles []Obstacle) bool {
	for _, obs := range obstacles {
		dx := obs.Position.X - float64(x)
		dz := obs.Position.Z - float64(z)
		if math.Hypot(dx, dz) <= obs.Radius+1 {
			return true
		}
	}
	return false
}

// FindPath ищет маршрут A* по сетке в плоскости XZ (Y игнорируется),
// с раскрытием в 8 направлениях на целочисленных клетках.
//
// Результат: упорядоченная последовательность точек сетки от старта
// (исключительно) до цели (включительно). Пустой маршрут означает
// "остаемся на месте": старт и цель в одной клетке, либо поиск уперся
// в предел maxSearchNodes до того, как нашел цель.
func FindPath(start, goal vmath.Vector3, obstacles []Obstacle) []vmath.Vector3 {
	startX, startZ := int(math.Round(start.X)), int(math.Round(start.Z))
	goalX, goalZ := int(math.Round(goal.X)), int(math.Round(goal.Z))

	goalKey := nodeKey(goalX, goalZ)
	if nodeKey(startX, startZ) == goalKey {
		return nil
	}

	first := &pathNode{x: startX, z: startZ, hCost: nodeDistance(startX, startZ, goalX, goalZ)}

	open := map[string]*pathNode{nodeKey(startX, startZ): first}
	closed := map[string]*pathNode{}

	var current *pathNode

	for len(open) > 0 && len(open) <= maxSearchNodes && len(closed) <= maxSearchNodes {
		// Выбор следующего узла: минимальный fCost, при равенстве -
		// БОЛЬШИЙ hCost (предпочитаем узлы дальше по маршруту,
		// меньше возвратов назад).
		current = nil
		for _, n := range open {
			if current == nil || n.fCost() < current.fCost() ||
				(n.fCost() == current.fCost() && n.hCost > current.hCost) {
				current = n
			}
		}

		key := nodeKey(current.x, current.z)
		delete(open, key)
		closed[key] = current

		if key == goalKey {
			break
		}

		// Окрестность 3x3 без центральной клетки
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dz == 0 {
					continue
				}
				nx, nz := current.x+dx, current.z+dz
				nKey := nodeKey(nx, nz)

				if _, done := closed[nKey]; done {
					continue
				}
				if blocked(nx, nz, obstacles) {
					continue
				}

				tentative := current.gCost + nodeDistance(current.x, current.z, nx, nz)

				if existing, ok := open[nKey]; ok {
					// Ослабление: перезаписываем только более дешевый заход
					if tentative < existing.gCost {
						existing.gCost = tentative
						existing.parent = current
					}
					continue
				}

				open[nKey] = &pathNode{
					x:      nx,
					z:      nz,
					parent: current,
					gCost:  tentative,
					hCost:  nodeDistance(nx, nz, goalX, goalZ),
				}
			}
		}
	}

	if current == nil {
		return nil
	}

	// Обратный ход по цепочке parent, старт не включается.
	// Если предел сработал раньше цели, трассируем то состояние, которое
	// есть: вызывающий трактует пустой/частичный маршрут как "нет движения"
	// до соответствующей точки.
	var route []vmath.Vector3
	for n := current; n.parent != nil; n = n.parent {
		route = append(route, vmath.Vector3{X: float64(n.x), Z: float64(n.z)})
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}
