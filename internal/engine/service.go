package engine

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"emberfall-server/internal/domain"
	"emberfall-server/internal/infrastructure/storage"
	"emberfall-server/internal/network"
	"emberfall-server/pkg/api"
	"emberfall-server/pkg/logger"
	"emberfall-server/pkg/vmath"
)

var errNoStore = errors.New("level storage is not configured")

// InternalCommand - команда клиента, уже привязанная к сущности и правам
type InternalCommand struct {
	Action     domain.ActionType
	Token      string // ID сущности-исполнителя
	Permission int
	Payload    json.RawMessage
}

// joinRequest - запрос на вход игрока. Обрабатывается на горутине
// уровня, ID сущности возвращается через reply.
type joinRequest struct {
	name  string
	reply chan string
}

// GameService владеет уровнем и его циклом тиков.
// Вся мутация уровня происходит на ОДНОЙ горутине (Run): команды и
// входы складываются в каналы и выполняются между тиками, поэтому
// доменному слою не нужны блокировки.
type GameService struct {
	Level    *domain.Level
	Hub      *network.Broadcaster
	Commands *Dispatcher
	Store    *storage.LevelService

	CommandChan chan InternalCommand
	JoinChan    chan joinRequest

	handlers map[domain.ActionType]HandlerFunc
	cfg      Config
	stop     chan struct{}
}

func NewService(cfg Config, lvl *domain.Level, store *storage.LevelService) *GameService {
	s := &GameService{
		Level:       lvl,
		Hub:         network.NewBroadcaster(),
		Commands:    NewDispatcher(),
		Store:       store,
		CommandChan: make(chan InternalCommand, 100),
		JoinChan:    make(chan joinRequest, 10),
		handlers:    make(map[domain.ActionType]HandlerFunc),
		cfg:         cfg,
		stop:        make(chan struct{}),
	}

	s.registerHandlers()
	s.Commands.RegisterDefaults(s)
	s.forwardEvents()
	return s
}

func (s *GameService) registerHandlers() {
	s.handlers[domain.ActionInit] = WithEmptyPayload(handleInit)
	s.handlers[domain.ActionMove] = WithPayload(handleMove)
	s.handlers[domain.ActionChat] = WithPayload(handleChat)
	s.handlers[domain.ActionReset] = WithEmptyPayload(handleReset)
}

// forwardEvents подписывает Hub на шину уровня: уведомления уровня
// пересылаются клиентам как есть
func (s *GameService) forwardEvents() {
	s.Level.Bus.Subscribe(func(ev domain.Event) {
		resp := api.ServerResponse{
			Type:     ev.Type.String(),
			EntityID: ev.EntityID,
			Tick:     s.Level.Tick,
		}

		switch data := ev.Data.(type) {
		case api.EntityRecord:
			resp.Entity = &data
		case domain.Object:
			rec := data.Record()
			resp.Entity = &rec
		case []vmath.Vector3:
			resp.Route = make([][3]float64, len(data))
			for i, point := range data {
				resp.Route[i] = point.Array()
			}
		}

		s.Hub.Broadcast(resp)
	})
}

// Start запускает цикл тиков в отдельной горутине
func (s *GameService) Start() {
	go s.Run()
}

// Stop останавливает цикл тиков
func (s *GameService) Stop() {
	close(s.stop)
}

// Run - цикл тиков уровня. Входы и команды выполняются строго между
// тиками; внутри тика уровень единолично владеет своим состоянием.
func (s *GameService) Run() {
	logger.Log.WithField("level_id", s.Level.ID).Info("Level loop started")

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			logger.Log.WithField("level_id", s.Level.ID).Info("Level loop stopped")
			return

		case <-ticker.C:
			s.drainJoins()
			s.drainCommands()
			s.Level.Update()
		}
	}
}

// drainJoins обрабатывает входы игроков, накопившиеся с прошлого тика
func (s *GameService) drainJoins() {
	for {
		select {
		case req := <-s.JoinChan:
			req.reply <- s.ensurePlayer(req.name)
		default:
			return
		}
	}
}

// drainCommands обрабатывает команды, накопившиеся с прошлого тика
func (s *GameService) drainCommands() {
	for {
		select {
		case cmd := <-s.CommandChan:
			s.execute(cmd)
		default:
			return
		}
	}
}

// ensurePlayer находит игрока по имени или создает нового
func (s *GameService) ensurePlayer(name string) string {
	matched, err := domain.FilterEntities(s.Level.Entities(), "@"+name)
	if err == nil {
		for _, obj := range matched {
			if player, ok := obj.(*domain.Player); ok {
				return player.ID
			}
		}
	}

	player := domain.NewPlayer(s.Level, name)
	logger.Log.WithFields(logrus.Fields{
		"level_id":  s.Level.ID,
		"entity_id": player.ID,
		"name":      name,
	}).Info("Player spawned")
	return player.ID
}

// execute выполняет одну команду в контексте уровня
func (s *GameService) execute(cmd InternalCommand) {
	actor, err := s.Level.EntityByID(cmd.Token)
	if err != nil {
		logger.Log.WithError(err).WithField("token", cmd.Token).Warn("Command from unknown entity")
		return
	}

	handler, ok := s.handlers[cmd.Action]
	if !ok {
		return
	}

	ctx := HandlerContext{
		Service:    s,
		Level:      s.Level,
		Actor:      actor,
		Permission: cmd.Permission,
	}

	result, err := handler(ctx, cmd.Payload)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"action":    cmd.Action.String(),
			"entity_id": cmd.Token,
		}).Warn("Command failed")
		s.Hub.SendTo(cmd.Token, api.ServerResponse{Type: "error", Message: err.Error()})
		return
	}

	if result.Msg != "" {
		s.Hub.SendTo(cmd.Token, api.ServerResponse{Type: "message", Message: result.Msg})
	}
}

// ProcessCommand принимает команду от внешнего мира (WebSocket).
// Выполнение откладывается до следующего тика.
func (s *GameService) ProcessCommand(external api.ClientCommand, entityID string, permission int) {
	action := domain.ParseAction(external.Action)
	if action == domain.ActionUnknown {
		logger.Log.WithField("action", external.Action).Warn("Unknown action")
		return
	}

	s.CommandChan <- InternalCommand{
		Action:     action,
		Token:      entityID,
		Permission: permission,
		Payload:    external.Payload,
	}
}

// Join регистрирует игрока (по имени аккаунта) и возвращает ID сущности
func (s *GameService) Join(name string) string {
	reply := make(chan string, 1)
	s.JoinChan <- joinRequest{name: name, reply: reply}
	return <-reply
}

// SaveLevel снимает снимок уровня и пишет его в хранилище
func (s *GameService) SaveLevel() error {
	if s.Store == nil {
		return errNoStore
	}
	return s.Store.Save(s.Level.Record())
}
