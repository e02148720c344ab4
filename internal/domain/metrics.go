package domain

import "sync/atomic"

// TickMonitor копит метрики тиков уровня (для мониторинга и отладки).
// Счетчики атомарные: пишет горутина уровня, читает HTTP-обработчик.
type TickMonitor struct {
	TickCount   int64 // Количество завершенных тиков
	TotalTickNs int64 // Суммарная длительность тиков (наносекунды)
	LastTickNs  int64 // Длительность последнего тика
}

func (m *TickMonitor) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
	atomic.StoreInt64(&m.LastTickNs, ns)
}

// Snapshot возвращает read-only срез метрик для HTTP-вывода
func (m *TickMonitor) Snapshot() map[string]any {
	ticks := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)

	var avgMs float64
	if ticks > 0 {
		avgMs = float64(total) / float64(ticks) / 1e6
	}
	return map[string]any{
		"tick_count":   ticks,
		"avg_tick_ms":  avgMs,
		"last_tick_ms": float64(atomic.LoadInt64(&m.LastTickNs)) / 1e6,
	}
}
