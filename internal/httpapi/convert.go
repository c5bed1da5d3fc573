package httpapi

import (
	"fmt"
	"strings"

	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/notation"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/session"
	dto "github.com/park285/cheese-board/pkg/boarddto"
)

func toState(s *session.Session, cat *msgcat.Catalog) *dto.GameState {
	if s == nil {
		return nil
	}
	st := s.State
	out := &dto.GameState{
		ID:         s.ID,
		Turn:       string(st.Turn),
		Pieces:     make([]dto.Piece, 0, len(st.Pieces)),
		Selected:   st.Selected,
		LegalMoves: squareNames(st.LegalMoves),
		GameOver:   st.GameOver,
		Winner:     string(st.Winner),
		Status:     toStatus(st.Indicator, cat),
		FEN:        notation.FEN(st.Pieces, st.Turn),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	for _, p := range st.Pieces {
		out.Pieces = append(out.Pieces, toPiece(p))
	}
	for _, m := range st.History {
		out.History = append(out.History, *toMove(&m))
	}
	return out
}

func toPiece(p rules.Piece) dto.Piece {
	return dto.Piece{ID: p.ID, Type: string(p.Type), Color: string(p.Color), Square: p.Square.String()}
}

func toStatus(st game.Status, cat *msgcat.Catalog) dto.Status {
	out := dto.Status{Kind: string(st.Kind), Color: string(st.Color)}
	if cat != nil {
		out.Text = cat.Status(st)
	}
	return out
}

func toMove(m *game.MoveRecord) *dto.Move {
	if m == nil {
		return nil
	}
	return &dto.Move{
		Ply:     m.Ply,
		PieceID: m.PieceID,
		Type:    string(m.Type),
		Color:   string(m.Color),
		From:    m.From.String(),
		To:      m.To.String(),
		UCI:     m.UCI(),
	}
}

func toEvent(ev session.Event, cat *msgcat.Catalog) dto.Event {
	return dto.Event{
		GameID:   ev.GameID,
		Kind:     string(ev.Kind),
		Status:   toStatus(ev.Status, cat),
		Applied:  ev.Applied,
		Move:     toMove(ev.Move),
		Turn:     string(ev.Turn),
		GameOver: ev.GameOver,
		At:       ev.At,
	}
}

func squareNames(sqs []rules.Square) []string {
	if len(sqs) == 0 {
		return nil
	}
	out := make([]string, 0, len(sqs))
	for _, s := range sqs {
		out = append(out, s.String())
	}
	return out
}

// fromPieces converts a custom starting position. Unknown types are rejected.
func fromPieces(in []dto.Piece) ([]rules.Piece, error) {
	out := make([]rules.Piece, 0, len(in))
	for i, p := range in {
		sq, err := rules.ParseSquare(p.Square)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		typ := rules.PieceType(strings.ToLower(strings.TrimSpace(p.Type)))
		if !validType(typ) {
			return nil, fmt.Errorf("piece %d: %w: %q", i, rules.ErrInvalidPieceType, p.Type)
		}
		c := rules.Color(strings.ToLower(strings.TrimSpace(p.Color)))
		if !c.Valid() {
			return nil, fmt.Errorf("piece %d: invalid color %q", i, p.Color)
		}
		out = append(out, rules.Piece{ID: p.ID, Type: typ, Color: c, Square: sq})
	}
	return out, nil
}

func validType(t rules.PieceType) bool {
	switch t {
	case rules.Pawn, rules.Rook, rules.Knight, rules.Bishop, rules.Queen, rules.King:
		return true
	}
	return false
}
