package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"emberfall-server/internal/accounts"
	"emberfall-server/internal/engine"
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	authTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между WebSocket и GameService
type Client struct {
	Game       *engine.GameService
	Accounts   *accounts.Store
	Conn       *websocket.Conn
	Send       chan api.ServerResponse
	EntityID   string
	Permission int
}

func NewClient(game *engine.GameService, store *accounts.Store, conn *websocket.Conn) *Client {
	return &Client{
		Game:     game,
		Accounts: store,
		Conn:     conn,
		Send:     make(chan api.ServerResponse, 256),
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		if c.EntityID != "" {
			c.Game.Hub.Unregister(c.EntityID)
			logger.Log.WithField("entity_id", c.EntityID).Info("Client disconnected")
		}
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. HANDSHAKE (LOGIN)
	var loginCmd api.ClientCommand
	if err := c.Conn.ReadJSON(&loginCmd); err != nil {
		logger.Log.Warn("Handshake failed")
		return
	}

	account, err := c.authenticate(loginCmd.Token)
	if err != nil {
		c.reject(err.Error())
		return
	}
	c.Permission = account.PermissionLevel

	// 2. ПОИСК ИЛИ СОЗДАНИЕ ИГРОКА
	c.EntityID = c.Game.Join(account.Username)

	logger.Log.WithFields(logrus.Fields{
		"entity_id": c.EntityID,
		"username":  account.Username,
	}).Info("Client logged in")

	// 3. ПОДПИСКА НА ОБНОВЛЕНИЯ
	gameUpdates := c.Game.Hub.Register(c.EntityID)

	// Пересылка обновлений из Hub в writePump
	go func() {
		for msg := range gameUpdates {
			c.Send <- msg
		}
		close(c.Send)
	}()

	// Отправляем INIT (триггер первой отрисовки)
	c.Game.ProcessCommand(api.ClientCommand{Action: "INIT"}, c.EntityID, c.Permission)

	// 4. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Errorf("WS Error: %v", err)
			}
			break
		}
		c.Game.ProcessCommand(cmd, c.EntityID, c.Permission)
	}
}

// authenticate проверяет токен подключения по базе учетных записей.
// Неизвестный или заблокированный аккаунт не допускается на уровень.
func (c *Client) authenticate(token string) (accounts.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	account, err := c.Accounts.ByToken(ctx, token)
	if err != nil {
		return accounts.Account{}, err
	}
	if account.IsDisabled {
		return accounts.Account{}, errAccountDisabled
	}
	return account, nil
}

// reject отправляет причину отказа и закрывает соединение
func (c *Client) reject(reason string) {
	logger.Log.WithField("reason", reason).Warn("Client rejected")
	if err := c.Conn.WriteJSON(api.ServerResponse{Type: "error", Message: reason}); err != nil {
		logger.Log.WithError(err).Debug("write reject message failed")
	}
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Warn("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
