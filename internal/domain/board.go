package domain

import "time"

// FinishedGame is the archived result of a match that ended in checkmate.
type FinishedGame struct {
	GameID    string
	Winner    string
	Method    string
	MovesUCI  []string
	FEN       string
	Plies     int
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}
