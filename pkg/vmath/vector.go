package vmath

import "math"

// Vector3 - трехмерный вектор. Используется для позиции, вращения и скорости.
// Передается по значению: структура маленькая, а мутации через копию безопаснее.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add возвращает сумму векторов (не меняя исходный)
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub возвращает разность векторов
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale возвращает вектор, умноженный на скаляр
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Length возвращает длину вектора
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo возвращает расстояние до другой точки
func (v Vector3) DistanceTo(other Vector3) float64 {
	return v.Sub(other).Length()
}

// Equals сравнивает векторы с допуском eps (прямое сравнение float ненадежно)
func (v Vector3) Equals(other Vector3, eps float64) bool {
	return math.Abs(v.X-other.X) <= eps &&
		math.Abs(v.Y-other.Y) <= eps &&
		math.Abs(v.Z-other.Z) <= eps
}

// Array пакует вектор в формат провода: [x, y, z]
func (v Vector3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromArray распаковывает вектор из формата провода
func FromArray(a [3]float64) Vector3 {
	return Vector3{X: a[0], Y: a[1], Z: a[2]}
}
