package game

import (
	"errors"
	"fmt"

	"github.com/park285/cheese-board/internal/rules"
	"go.uber.org/zap"
)

var ErrInvalidSnapshot = errors.New("invalid game snapshot")

// Game holds turn ownership, the current selection and the piece set of one match.
// It is not safe for concurrent use; callers serialize input events.
type Game struct {
	logger *zap.Logger

	pieces   *rules.PieceSet
	turn     rules.Color
	selected int
	legal    []rules.Square
	over     bool
	winner   rules.Color
	status   Status
	history  []MoveRecord
}

type Option func(*Game)

// WithLogger sets the logger used for programmer errors and move events.
func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a game in the standard starting position with white to move.
func New(opts ...Option) *Game {
	g := newGame(opts)
	g.Reset()
	return g
}

// NewFromPieces returns a game over a custom position.
func NewFromPieces(pieces []rules.Piece, turn rules.Color, opts ...Option) (*Game, error) {
	if !turn.Valid() {
		return nil, fmt.Errorf("%w: turn %q", ErrInvalidSnapshot, turn)
	}
	seen := make(map[int]struct{}, len(pieces))
	for _, p := range pieces {
		if p.ID <= 0 {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate piece id %d", ErrInvalidSnapshot, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	g := newGame(opts)
	g.pieces = rules.NewPieceSet(pieces)
	g.turn = turn
	g.status = TurnChanged(turn)
	return g, nil
}

func newGame(opts []Option) *Game {
	g := &Game{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SelectPiece selects a piece of the side to move and returns its legal destinations.
// Selecting while the game is over, an unknown piece, or an opponent's piece changes nothing.
func (g *Game) SelectPiece(id int) []rules.Square {
	if g.over {
		return nil
	}
	p, ok := g.pieces.Get(id)
	if !ok || p.Color != g.turn {
		return nil
	}
	g.clearSelection()
	g.selected = p.ID
	moves, err := rules.GenerateMoves(p, g.pieces)
	if err != nil {
		g.logger.Error("board_invalid_piece_type",
			zap.Int("piece_id", p.ID),
			zap.String("type", string(p.Type)),
			zap.Error(err),
		)
		moves = nil
	}
	g.legal = moves
	return g.LegalMoves()
}

// SelectAt selects the piece standing on sq, if any.
func (g *Game) SelectAt(sq rules.Square) []rules.Square {
	p, ok := g.pieces.At(sq)
	if !ok {
		return nil
	}
	return g.SelectPiece(p.ID)
}

// Deselect clears the current selection.
func (g *Game) Deselect() Status {
	if g.over || g.selected == 0 {
		return None
	}
	g.clearSelection()
	return Deselected
}

// AttemptMove moves the selected piece to target if target is one of its legal destinations.
// The selection is cleared afterwards whatever the outcome.
func (g *Game) AttemptMove(target rules.Square) MoveResult {
	if g.over || g.selected == 0 {
		return MoveResult{Status: None}
	}
	defer g.clearSelection()

	mover, ok := g.pieces.Get(g.selected)
	if !ok || !rules.Contains(g.legal, target) {
		return MoveResult{Status: IllegalMove}
	}

	g.pieces.Relocate(mover.ID, target)
	rec := MoveRecord{
		Ply:     len(g.history) + 1,
		PieceID: mover.ID,
		Type:    mover.Type,
		Color:   mover.Color,
		From:    mover.Square,
		To:      target,
	}
	g.history = append(g.history, rec)

	var st Status
	king, found := g.pieces.King(mover.Color.Opposite())
	switch {
	case found && rules.IsInCheck(king, g.pieces):
		if rules.IsCheckmate(king, g.pieces) {
			g.over = true
			g.winner = mover.Color
			st = Checkmate(mover.Color)
		} else {
			st = Check(king.Color)
		}
	default:
		g.turn = g.turn.Opposite()
		st = TurnChanged(g.turn)
	}
	g.status = st

	g.logger.Debug("board_move_applied",
		zap.Int("ply", rec.Ply),
		zap.Int("piece_id", rec.PieceID),
		zap.String("type", string(rec.Type)),
		zap.String("color", string(rec.Color)),
		zap.String("move", rec.UCI()),
		zap.String("status", string(st.Kind)),
	)
	return MoveResult{Applied: true, Status: st, Move: &rec}
}

// Reset restores the standard starting position with white to move.
func (g *Game) Reset() {
	g.pieces = rules.NewPieceSet(rules.StandardLayout())
	g.turn = rules.White
	g.over = false
	g.winner = ""
	g.history = nil
	g.status = TurnChanged(rules.White)
	g.clearSelection()
}

func (g *Game) clearSelection() {
	g.selected = 0
	g.legal = nil
}

func (g *Game) Turn() rules.Color   { return g.turn }
func (g *Game) IsGameOver() bool    { return g.over }
func (g *Game) Winner() rules.Color { return g.winner }

// Indicator is the last turn, check or checkmate status.
func (g *Game) Indicator() Status { return g.status }

// Selection returns the selected piece, if any.
func (g *Game) Selection() (rules.Piece, bool) {
	if g.selected == 0 {
		return rules.Piece{}, false
	}
	return g.pieces.Get(g.selected)
}

// LegalMoves returns a copy of the selected piece's destinations.
func (g *Game) LegalMoves() []rules.Square {
	if len(g.legal) == 0 {
		return nil
	}
	out := make([]rules.Square, len(g.legal))
	copy(out, g.legal)
	return out
}

func (g *Game) Pieces() []rules.Piece { return g.pieces.All() }

func (g *Game) PieceAt(sq rules.Square) (rules.Piece, bool) { return g.pieces.At(sq) }

// History returns the applied moves in order.
func (g *Game) History() []MoveRecord {
	out := make([]MoveRecord, len(g.history))
	copy(out, g.history)
	return out
}
