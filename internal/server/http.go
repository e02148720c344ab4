package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"emberfall-server/internal/accounts"
	"emberfall-server/internal/engine"
	"emberfall-server/internal/version"
	"emberfall-server/pkg/logger"
)

var errAccountDisabled = errors.New("account is disabled")

// Уровень прав для административных маршрутов
const adminPermission = 3

type Server struct {
	Engine   *engine.GameService
	Accounts *accounts.Store
	Port     string
}

func New(game *engine.GameService, store *accounts.Store, port string) *Server {
	return &Server{
		Engine:   game,
		Accounts: store,
		Port:     port,
	}
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/ws", s.handleWS)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Get("/metrics", s.handleMetrics)

	// Административные маршруты: требуют токен оператора
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/save", s.handleSave)
		r.Post("/accounts", s.handleCreateAccount)
	})

	logger.Log.Infof("Emberfall server running on :%s (%s)", s.Port, version.String())
	return http.ListenAndServe(":"+s.Port, r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Разрешаем запросы с фронтенда
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")

		next.ServeHTTP(w, r)
	})
}

// requireAdmin пускает дальше только оператора с достаточными правами
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := s.Accounts.ByToken(r.Context(), r.Header.Get("X-Auth-Token"))
		if err != nil || account.IsDisabled || account.PermissionLevel < adminPermission {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleWS обрабатывает подключение по WebSocket
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("Upgrade error:", err)
		return
	}

	client := NewClient(s.Engine, s.Accounts, conn)

	// Запускаем пампы
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(version.Info())
}

// handleMetrics отдает счетчики тиков уровня и число подключений
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats := s.Engine.Level.Monitor.Snapshot()
	stats["entity_count"] = s.Engine.Level.Count()
	stats["subscribers"] = s.Engine.Hub.SubscriberCount()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleSave снимает снимок уровня на диск
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.SaveLevel(); err != nil {
		logger.Log.WithError(err).Error("Level save failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("saved"))
}

type createAccountRequest struct {
	Username   string `json:"username"`
	Permission int    `json:"permission"`
}

// handleCreateAccount регистрирует учетную запись и возвращает токен
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	account, err := s.Accounts.Create(r.Context(), req.Username, req.Permission)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"id":       account.ID,
		"username": account.Username,
		"token":    account.Token,
	})
}
