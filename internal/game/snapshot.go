package game

import (
	"fmt"

	"github.com/park285/cheese-board/internal/rules"
)

// Snapshot is the serializable form of a Game.
type Snapshot struct {
	Pieces     []rules.Piece  `json:"pieces"`
	Turn       rules.Color    `json:"turn"`
	Selected   int            `json:"selected,omitempty"`
	LegalMoves []rules.Square `json:"legal_moves,omitempty"`
	GameOver   bool           `json:"game_over"`
	Winner     rules.Color    `json:"winner,omitempty"`
	Indicator  Status         `json:"indicator"`
	History    []MoveRecord   `json:"history,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Pieces:     g.Pieces(),
		Turn:       g.turn,
		Selected:   g.selected,
		LegalMoves: g.LegalMoves(),
		GameOver:   g.over,
		Winner:     g.winner,
		Indicator:  g.status,
		History:    g.History(),
	}
}

// Restore rebuilds a Game from a snapshot.
func Restore(s Snapshot, opts ...Option) (*Game, error) {
	g, err := NewFromPieces(s.Pieces, s.Turn, opts...)
	if err != nil {
		return nil, err
	}
	if s.Selected != 0 {
		if _, ok := g.pieces.Get(s.Selected); !ok {
			return nil, fmt.Errorf("%w: selected piece %d not on board", ErrInvalidSnapshot, s.Selected)
		}
		g.selected = s.Selected
		g.legal = append([]rules.Square(nil), s.LegalMoves...)
	}
	g.over = s.GameOver
	g.winner = s.Winner
	if s.Indicator.Kind != "" {
		g.status = s.Indicator
	}
	g.history = append([]MoveRecord(nil), s.History...)
	return g, nil
}
