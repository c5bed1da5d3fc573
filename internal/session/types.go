package session

import (
	"time"

	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/rules"
)

// Session is the persisted state of one game, stored as JSON under board:game:<id>.
type Session struct {
	ID        string        `json:"id"`
	State     game.Snapshot `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// EventKind names the operation that produced an Event.
type EventKind string

const (
	EventCreated    EventKind = "created"
	EventSelected   EventKind = "selected"
	EventMoved      EventKind = "moved"
	EventDeselected EventKind = "deselected"
	EventReset      EventKind = "reset"
	EventDeleted    EventKind = "deleted"
)

// Event is published on board:events:<id> after every committed operation.
type Event struct {
	GameID   string           `json:"game_id"`
	Kind     EventKind        `json:"kind"`
	Status   game.Status      `json:"status"`
	Applied  bool             `json:"applied,omitempty"`
	Move     *game.MoveRecord `json:"move,omitempty"`
	Turn     rules.Color      `json:"turn,omitempty"`
	GameOver bool             `json:"game_over"`
	At       time.Time        `json:"at"`
}

// Errors
var (
	ErrInvalidArgs  = errf("invalid arguments")
	ErrNotFound     = errf("game not found or expired")
	ErrConflict     = errf("concurrent update detected")
	ErrTooManyGames = errf("too many active games")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }
