package network

import (
	"sync"

	"emberfall-server/pkg/api"
)

// Broadcaster занимается только доставкой сообщений подписчикам.
// Подписчик - одно клиентское соединение, ключ - ID его сущности.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan api.ServerResponse
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerResponse),
	}
}

// Register создает личный канал для сущности.
// Повторная регистрация закрывает старый канал (reconnect).
func (b *Broadcaster) Register(entityID string) chan api.ServerResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[entityID]; ok {
		close(old)
	}

	ch := make(chan api.ServerResponse, 100)
	b.subscribers[entityID] = ch
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(entityID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[entityID]; ok {
		close(ch)
		delete(b.subscribers, entityID)
	}
}

// SendTo отправляет сообщение конкретному подписчику (unicast)
func (b *Broadcaster) SendTo(entityID string, msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[entityID]; ok {
		select {
		case ch <- msg:
		default:
			// Медленный клиент: сообщение пропускается, тик не ждет
		}
	}
}

// Broadcast отправляет сообщение всем подписчикам
func (b *Broadcaster) Broadcast(msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber сообщает, слушает ли кто-то эту сущность
func (b *Broadcaster) HasSubscriber(entityID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[entityID]
	return ok
}

// SubscriberCount возвращает число активных подписчиков
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
