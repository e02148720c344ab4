package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"emberfall-server/internal/accounts"
	"emberfall-server/internal/domain"
	"emberfall-server/internal/engine"
	"emberfall-server/internal/infrastructure/storage"
	"emberfall-server/internal/server"
	"emberfall-server/internal/version"
	"emberfall-server/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var levelPath string
	var saveDir string
	var accountsDB string
	var levelName string
	var difficulty float64
	flag.StringVar(&levelPath, "level", "", "Path to level snapshot to load (empty for a fresh level)")
	flag.StringVar(&saveDir, "save-dir", "data/levels", "Directory for level snapshots")
	flag.StringVar(&accountsDB, "accounts-db", "data/accounts.db", "Path to the accounts database")
	flag.StringVar(&levelName, "name", "", "Level name for a fresh level")
	flag.Float64Var(&difficulty, "difficulty", 0, "Level difficulty for a fresh level")
	flag.Parse()

	logger.Log.Info("Starting Emberfall...")
	logger.Log.Info(version.String())

	cfg := engine.NewConfig()
	if levelName != "" {
		cfg.LevelName = levelName
	}
	if difficulty != 0 {
		cfg.Difficulty = difficulty
	}

	port := os.Getenv("EF_PORT")
	if port == "" {
		port = "8080"
	}

	// 2. Хранилища
	store := storage.NewLevelService(saveDir)

	accountStore, err := accounts.Open(accountsDB)
	if err != nil {
		logger.Log.Fatal("Failed to open accounts database:", err)
	}
	defer accountStore.Close()
	if err := accountStore.Migrate(); err != nil {
		logger.Log.Fatal("Failed to migrate accounts database:", err)
	}

	// 3. Уровень: загружаем снимок или стартуем с чистого
	lvl := bootstrapLevel(cfg, store, levelPath)

	// 4. Инициализация ядра
	gameService := engine.NewService(cfg, lvl, store)
	gameService.Start()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 5. Запуск сервера
	srv := server.New(gameService, accountStore, port)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	gameService.Stop()
	if err := gameService.SaveLevel(); err != nil {
		logger.Log.WithError(err).Error("Final level save failed")
	}

	logger.Log.Info("Done.")
}

// bootstrapLevel загружает снимок уровня или создает новый
func bootstrapLevel(cfg engine.Config, store *storage.LevelService, levelPath string) *domain.Level {
	if levelPath != "" {
		rec, err := store.LoadPath(levelPath)
		if err != nil {
			logger.Log.Fatal("Failed to load level snapshot:", err)
		}
		lvl, err := domain.LevelFromRecord(rec, nil)
		if err != nil {
			logger.Log.Fatal("Failed to restore level:", err)
		}
		logger.Log.Infof("Level %q restored (%d entities)", lvl.Name, lvl.Count())
		return lvl
	}

	lvl := domain.NewLevel(cfg.LevelName, nil)
	lvl.Difficulty = cfg.Difficulty
	logger.Log.Infof("Fresh level %q created", lvl.Name)
	return lvl
}
