package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/park285/cheese-board/internal/domain"
)

func TestNewRepositoryRequiresURL(t *testing.T) {
	if _, err := NewRepository("  "); err == nil {
		t.Fatalf("expected error for empty DATABASE_URL")
	}
}

func TestNilRepositoryIsNoop(t *testing.T) {
	var r *Repository
	ctx := context.Background()
	if err := r.SaveResult(ctx, &domain.FinishedGame{GameID: "x"}); err != nil {
		t.Fatalf("SaveResult on nil repo: %v", err)
	}
	if err := r.Migrate(ctx); err != nil {
		t.Fatalf("Migrate on nil repo: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil repo: %v", err)
	}
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepositoryWithDB(db), mock
}

func TestMigrateCreatesTable(t *testing.T) {
	r, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS board_games")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultUpsertsColumnsInOrder(t *testing.T) {
	r, mock := newMockRepository(t)
	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	ended := started.Add(90 * time.Second)
	g := &domain.FinishedGame{
		GameID:    "g1",
		Winner:    " white ",
		Method:    "checkmate",
		MovesUCI:  []string{"h1h8"},
		FEN:       "kN5R/8/8/8/8/8/8/4K3 b - - 0 1",
		Plies:     1,
		StartedAt: started,
		EndedAt:   ended,
		Duration:  ended.Sub(started),
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_games")).
		WithArgs("g1", "white", "checkmate", `["h1h8"]`, g.FEN, 1, started, ended, int64(90000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.SaveResult(context.Background(), g); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultPropagatesError(t *testing.T) {
	r, mock := newMockRepository(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO board_games")).WillReturnError(boom)

	if err := r.SaveResult(context.Background(), &domain.FinishedGame{GameID: "g2"}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}
