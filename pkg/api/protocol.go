package api

import "encoding/json"

// --- ФОРМАТ ПРОВОДА / ДИСКА ---

// EntityRecord - сериализованный снимок одной сущности.
// Owner и Parent хранятся СТРОКАМИ-ID, а не вложенными объектами:
// живые ссылки восстанавливаются при загрузке уровня.
type EntityRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Owner      string     `json:"owner,omitempty"`
	Parent     string     `json:"parent,omitempty"`
	EntityType string     `json:"entityType"`
	Position   [3]float64 `json:"position"`
	Rotation   [3]float64 `json:"rotation"`
	Velocity   [3]float64 `json:"velocity"`

	// Поля подтипов. У базовой сущности пустые.
	Members []string `json:"members,omitempty"` // Group: ID участников
}

// LevelRecord - сериализованный снимок уровня целиком.
type LevelRecord struct {
	Date       string         `json:"date"` // ISO-8601, момент сохранения
	Difficulty float64        `json:"difficulty"`
	Name       string         `json:"name"`
	ID         string         `json:"id"`
	Entities   []EntityRecord `json:"entities"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand - входящее сообщение от клиента.
type ClientCommand struct {
	Token   string          `json:"token,omitempty"` // Токен аккаунта (handshake) или ID сущности
	Action  string          `json:"action"`          // INIT, MOVE, CHAT, RESET
	Payload json.RawMessage `json:"payload"`
}

// MovePayload: цель движения для MOVE.
// Relative=true означает смещение относительно текущей абсолютной позиции.
type MovePayload struct {
	Target   [3]float64 `json:"target"`
	Relative bool       `json:"relative,omitempty"`
}

// ChatPayload: текст чата или операторская команда для CHAT.
type ChatPayload struct {
	Text string `json:"text"`
}

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerResponse - исходящее сообщение.
// Уведомления уровня (entity_added, entity_removed, entity_death,
// entity_path_start, player_reset, update) пересылаются клиентам как есть.
type ServerResponse struct {
	Type     string          `json:"type"`
	EntityID string          `json:"entityId,omitempty"`
	Tick     uint64          `json:"tick,omitempty"`
	Level    *LevelRecord    `json:"level,omitempty"`    // Полный снимок (INIT)
	Entity   *EntityRecord   `json:"entity,omitempty"`   // Снимок сущности (entity_removed и др.)
	Route    [][3]float64    `json:"route,omitempty"`    // Маршрут (entity_path_start)
	Message  string          `json:"message,omitempty"`  // Ответ команды / чата
	Data     json.RawMessage `json:"data,omitempty"`     // Прочие данные события
}
