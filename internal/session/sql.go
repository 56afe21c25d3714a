package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// SQLStore keeps tokens in Postgres, one row per console client.
type SQLStore struct {
	db         *sql.DB
	clientName string
}

func NewSQLStore(db *sql.DB, clientName string) *SQLStore {
	return &SQLStore{db: db, clientName: clientName}
}

// OpenPostgres opens dsn with the lib/pq driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// CreateTable creates the session table if it does not exist.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS console_sessions (
		client_name VARCHAR(255) PRIMARY KEY,
		session_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM console_sessions WHERE client_name = $1`,
		s.clientName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Save(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO console_sessions (client_name, session_id) VALUES ($1, $2)
		ON CONFLICT (client_name) DO NOTHING`,
		s.clientName, id)
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
