package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound - токен не зарегистрирован
var ErrNotFound = errors.New("account not found")

// Account - учетная запись игрока. Токен выдается при создании и
// предъявляется клиентом при подключении.
type Account struct {
	ID              string
	Username        string
	Token           string
	PermissionLevel int
	IsDisabled      bool
}

// Store хранит учетные записи в SQLite
type Store struct {
	db *sql.DB
}

// Open открывает базу учетных записей и включает WAL
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("accounts: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("accounts: enable WAL: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate создает схему, если ее еще нет
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			token TEXT NOT NULL UNIQUE,
			permission_level INTEGER NOT NULL DEFAULT 0,
			is_disabled INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_token ON accounts(token)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("accounts: migrate: %w", err)
		}
	}
	return nil
}

// ByToken ищет учетную запись по токену подключения
func (s *Store) ByToken(ctx context.Context, token string) (Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, ErrNotFound
	}

	var a Account
	var disabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, token, permission_level, is_disabled
		 FROM accounts
		 WHERE token = ?`,
		token,
	).Scan(&a.ID, &a.Username, &a.Token, &a.PermissionLevel, &disabled)
	if err == sql.ErrNoRows {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("accounts: by token: %w", err)
	}
	a.IsDisabled = disabled != 0
	return a, nil
}

// Create регистрирует новую учетную запись и возвращает ее вместе с
// выданным токеном
func (s *Store) Create(ctx context.Context, username string, permission int) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, fmt.Errorf("accounts: username is required")
	}

	a := Account{
		ID:              uuid.NewString(),
		Username:        username,
		Token:           uuid.NewString(),
		PermissionLevel: permission,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, token, permission_level)
		 VALUES (?, ?, ?, ?)`,
		a.ID, a.Username, a.Token, a.PermissionLevel,
	)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: create: %w", err)
	}
	return a, nil
}

// SetDisabled блокирует или разблокирует учетную запись
func (s *Store) SetDisabled(ctx context.Context, id string, disabled bool) error {
	flag := 0
	if disabled {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET is_disabled = ? WHERE id = ?`, flag, id)
	if err != nil {
		return fmt.Errorf("accounts: set disabled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
