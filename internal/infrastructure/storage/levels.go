package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"emberfall-server/pkg/api"
)

// LevelService пишет и читает снимки уровней на диске.
// Формат - обычный JSON того же вида, что уходит по проводу:
// снимок можно переносить между сервером и инструментами как есть.
type LevelService struct {
	SaveDir string
}

func NewLevelService(dir string) *LevelService {
	// Создаем папку, если ее нет
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		_ = os.MkdirAll(dir, 0755)
	}
	return &LevelService{SaveDir: dir}
}

// path возвращает имя файла снимка для ID уровня
func (s *LevelService) path(levelID string) string {
	return filepath.Join(s.SaveDir, fmt.Sprintf("level_%s.json", levelID))
}

// Save записывает снимок уровня (атомарно: во временный файл + rename)
func (s *LevelService) Save(rec api.LevelRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode level snapshot: %w", err)
	}

	tmp := s.path(rec.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write level snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(rec.ID)); err != nil {
		return fmt.Errorf("failed to finalize level snapshot: %w", err)
	}
	return nil
}

// Load читает снимок уровня по ID
func (s *LevelService) Load(levelID string) (api.LevelRecord, error) {
	return s.LoadPath(s.path(levelID))
}

// LoadPath читает снимок уровня из произвольного файла
func (s *LevelService) LoadPath(path string) (api.LevelRecord, error) {
	var rec api.LevelRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read level snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode level snapshot: %w", err)
	}
	return rec, nil
}
