package session

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	selectSession = "SELECT session_id FROM console_sessions WHERE client_name = $1"
	insertSession = "INSERT INTO console_sessions (client_name, session_id)"
)

func TestSQLStoreLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectSession)).
		WithArgs("desk").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow("session_abc_1"))

	id, err := NewSQLStore(db, "desk").Load(context.Background())
	if err != nil || id != "session_abc_1" {
		t.Errorf("Expected stored token, got %q (%v)", id, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreCreatesOnFirstUse(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectSession)).
		WithArgs("desk").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}))
	mock.ExpectExec(regexp.QuoteMeta(insertSession)).
		WithArgs("desk", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectSession)).
		WithArgs("desk").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow("session_winner_1"))

	id, err := NewManager(NewSQLStore(db, "desk"), testLogger()).ID(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != "session_winner_1" {
		t.Errorf("Expected the persisted token, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectSession)).
		WillReturnError(errors.New("connection reset"))

	if _, err := NewSQLStore(db, "desk").Load(context.Background()); err == nil || errors.Is(err, ErrNoSession) {
		t.Errorf("Expected a read failure, got %v", err)
	}
}

func TestSQLStoreCreateTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS console_sessions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewSQLStore(db, "desk").CreateTable(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
