package game

import (
	"errors"
	"reflect"
	"testing"

	"github.com/park285/cheese-board/internal/rules"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sq(t *testing.T, name string) rules.Square {
	t.Helper()
	s, err := rules.ParseSquare(name)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", name, err)
	}
	return s
}

func pieceAt(t *testing.T, g *Game, name string) rules.Piece {
	t.Helper()
	p, ok := g.PieceAt(sq(t, name))
	if !ok {
		t.Fatalf("no piece at %s", name)
	}
	return p
}

func TestNewGameStartsWithWhite(t *testing.T) {
	g := New()
	if g.Turn() != rules.White {
		t.Fatalf("turn = %s, want white", g.Turn())
	}
	if g.IsGameOver() {
		t.Fatalf("new game must not be over")
	}
	if _, ok := g.Selection(); ok {
		t.Fatalf("new game must have no selection")
	}
	if len(g.Pieces()) != 32 {
		t.Fatalf("expected 32 pieces, got %d", len(g.Pieces()))
	}
}

func TestSelectOpponentPieceIsNoop(t *testing.T) {
	g := New()
	knight := pieceAt(t, g, "b1")
	want := g.SelectPiece(knight.ID)
	if len(want) != 2 {
		t.Fatalf("white knight b1 should have 2 moves, got %v", want)
	}
	before := g.Snapshot()

	black := pieceAt(t, g, "g8")
	if moves := g.SelectPiece(black.ID); moves != nil {
		t.Fatalf("selecting an opponent piece returned moves %v", moves)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Fatalf("state changed after selecting an opponent piece")
	}
	if moves := g.SelectPiece(999); moves != nil {
		t.Fatalf("selecting an unknown piece returned moves %v", moves)
	}
}

func TestAttemptMoveIllegalTargetClearsSelection(t *testing.T) {
	g := New()
	knight := pieceAt(t, g, "g1")
	g.SelectPiece(knight.ID)
	before := g.Pieces()

	res := g.AttemptMove(sq(t, "g4"))
	if res.Applied || res.Status != IllegalMove {
		t.Fatalf("expected IllegalMove, got %+v", res)
	}
	if !reflect.DeepEqual(before, g.Pieces()) {
		t.Fatalf("pieces moved after an illegal move")
	}
	if _, ok := g.Selection(); ok || len(g.LegalMoves()) != 0 {
		t.Fatalf("selection must be cleared after an illegal move")
	}
	if g.Turn() != rules.White {
		t.Fatalf("turn must not change after an illegal move")
	}
}

func TestAttemptMoveWithoutSelection(t *testing.T) {
	g := New()
	res := g.AttemptMove(sq(t, "f3"))
	if res.Applied || res.Status != None {
		t.Fatalf("expected no-op, got %+v", res)
	}
}

func TestMoveFlipsTurn(t *testing.T) {
	g := New()
	knight := pieceAt(t, g, "g1")
	g.SelectPiece(knight.ID)
	res := g.AttemptMove(sq(t, "f3"))
	if !res.Applied || res.Status != TurnChanged(rules.Black) {
		t.Fatalf("unexpected result %+v", res)
	}
	if g.Turn() != rules.Black {
		t.Fatalf("turn = %s, want black", g.Turn())
	}
	if p, _ := g.PieceAt(sq(t, "f3")); p.ID != knight.ID {
		t.Fatalf("knight not on f3")
	}
	if _, ok := g.Selection(); ok {
		t.Fatalf("selection must be cleared after a move")
	}
	h := g.History()
	if len(h) != 1 || h[0].UCI() != "g1f3" || h[0].Ply != 1 {
		t.Fatalf("unexpected history %+v", h)
	}

	// white may not move again
	if moves := g.SelectPiece(knight.ID); moves != nil {
		t.Fatalf("white selected out of turn")
	}
}

// matingNet puts a white pawn on the black king's square and walls the king in.
func matingNet(t *testing.T, escape bool) *Game {
	t.Helper()
	pieces := []rules.Piece{
		{ID: 1, Type: rules.King, Color: rules.Black, Square: sq(t, "a8")},
		{ID: 2, Type: rules.Pawn, Color: rules.White, Square: sq(t, "a8")},
		{ID: 3, Type: rules.Rook, Color: rules.Black, Square: sq(t, "a7")},
		{ID: 5, Type: rules.Knight, Color: rules.White, Square: sq(t, "b8")},
		{ID: 6, Type: rules.Rook, Color: rules.White, Square: sq(t, "h1")},
		{ID: 7, Type: rules.King, Color: rules.White, Square: sq(t, "e1")},
	}
	if !escape {
		pieces = append(pieces, rules.Piece{ID: 4, Type: rules.Rook, Color: rules.Black, Square: sq(t, "b7")})
	}
	g, err := NewFromPieces(pieces, rules.White)
	if err != nil {
		t.Fatalf("NewFromPieces: %v", err)
	}
	return g
}

func TestMoveGivingCheckKeepsTurn(t *testing.T) {
	g := matingNet(t, true)
	g.SelectPiece(6)
	res := g.AttemptMove(sq(t, "h4"))
	if !res.Applied || res.Status != Check(rules.Black) {
		t.Fatalf("expected Check(black), got %+v", res)
	}
	if g.Turn() != rules.White {
		t.Fatalf("turn must stay with the mover after check, got %s", g.Turn())
	}
	if g.IsGameOver() {
		t.Fatalf("check must not end the game")
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	g := matingNet(t, false)
	g.SelectPiece(6)
	res := g.AttemptMove(sq(t, "h4"))
	if !res.Applied || res.Status != Checkmate(rules.White) {
		t.Fatalf("expected Checkmate(white), got %+v", res)
	}
	if !g.IsGameOver() || g.Winner() != rules.White {
		t.Fatalf("game over=%v winner=%s", g.IsGameOver(), g.Winner())
	}
	if g.Indicator() != Checkmate(rules.White) {
		t.Fatalf("indicator = %+v", g.Indicator())
	}

	before := g.Snapshot()
	if moves := g.SelectPiece(7); moves != nil {
		t.Fatalf("selection allowed after game over")
	}
	if res := g.AttemptMove(sq(t, "e2")); res.Applied || res.Status != None {
		t.Fatalf("move allowed after game over: %+v", res)
	}
	if st := g.Deselect(); st != None {
		t.Fatalf("deselect after game over = %+v", st)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Fatalf("state changed after game over")
	}

	g.Reset()
	if g.IsGameOver() || g.Turn() != rules.White || len(g.Pieces()) != 32 {
		t.Fatalf("reset did not restore a fresh game")
	}
}

func TestMoveWithoutOpposingKingFlipsTurn(t *testing.T) {
	g, err := NewFromPieces([]rules.Piece{{ID: 1, Type: rules.Queen, Color: rules.White, Square: sq(t, "d1")}}, rules.White)
	if err != nil {
		t.Fatalf("NewFromPieces: %v", err)
	}
	g.SelectPiece(1)
	if res := g.AttemptMove(sq(t, "d8")); res.Status != TurnChanged(rules.Black) {
		t.Fatalf("unexpected status %+v", res.Status)
	}
}

func TestDeselect(t *testing.T) {
	g := New()
	if st := g.Deselect(); st != None {
		t.Fatalf("deselect with nothing selected = %+v", st)
	}
	g.SelectAt(sq(t, "b1"))
	if _, ok := g.Selection(); !ok {
		t.Fatalf("SelectAt did not select b1")
	}
	if st := g.Deselect(); st != Deselected {
		t.Fatalf("deselect = %+v", st)
	}
	if _, ok := g.Selection(); ok {
		t.Fatalf("selection still set")
	}
}

func TestResetIdempotent(t *testing.T) {
	g := New()
	g.SelectAt(sq(t, "g1"))
	g.AttemptMove(sq(t, "h3"))
	g.Reset()
	first := g.Snapshot()
	g.Reset()
	if !reflect.DeepEqual(first, g.Snapshot()) {
		t.Fatalf("two resets produced different states")
	}
	if first.Turn != rules.White || len(first.Pieces) != 32 || first.GameOver || first.Selected != 0 {
		t.Fatalf("unexpected reset state %+v", first)
	}
}

func TestInvalidPieceTypeIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	g, err := NewFromPieces([]rules.Piece{{ID: 1, Type: "wizard", Color: rules.White, Square: sq(t, "c3")}}, rules.White, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("NewFromPieces: %v", err)
	}
	if moves := g.SelectPiece(1); len(moves) != 0 {
		t.Fatalf("expected no moves, got %v", moves)
	}
	if _, ok := g.Selection(); !ok {
		t.Fatalf("piece should still be selected")
	}
	if logs.FilterMessage("board_invalid_piece_type").Len() != 1 {
		t.Fatalf("expected one invalid piece type log entry, got %d", logs.Len())
	}
	if res := g.AttemptMove(sq(t, "c4")); res.Status != IllegalMove {
		t.Fatalf("expected IllegalMove, got %+v", res)
	}
}

func TestDuplicatePieceIDsRejected(t *testing.T) {
	dup := []rules.Piece{
		{ID: 5, Type: rules.Rook, Color: rules.White, Square: sq(t, "a1")},
		{ID: 5, Type: rules.Knight, Color: rules.White, Square: sq(t, "e5")},
	}
	if _, err := NewFromPieces(dup, rules.White); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if _, err := Restore(Snapshot{Pieces: dup, Turn: rules.White}); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("Restore: expected ErrInvalidSnapshot, got %v", err)
	}

	dup[1].ID = 0
	g, err := NewFromPieces(dup, rules.White)
	if err != nil {
		t.Fatalf("NewFromPieces: %v", err)
	}
	g.SelectAt(sq(t, "e5"))
	sel, ok := g.Selection()
	if !ok || sel.Type != rules.Knight || sel.ID == 5 {
		t.Fatalf("SelectAt(e5) selected %+v", sel)
	}
	if res := g.AttemptMove(sq(t, "f7")); !res.Applied {
		t.Fatalf("knight e5-f7 rejected: %+v", res)
	}
}

func TestSnapshotRestore(t *testing.T) {
	g := New()
	g.SelectAt(sq(t, "b1"))
	g.AttemptMove(sq(t, "c3"))
	g.SelectAt(sq(t, "g8"))

	r, err := Restore(g.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(g.Snapshot(), r.Snapshot()) {
		t.Fatalf("restored snapshot differs")
	}
	res := r.AttemptMove(sq(t, "f6"))
	if !res.Applied || r.Turn() != rules.White {
		t.Fatalf("restored game did not continue: %+v", res)
	}

	if _, err := Restore(Snapshot{Turn: "green"}); err == nil {
		t.Fatalf("expected error for invalid turn")
	}
	if _, err := Restore(Snapshot{Turn: rules.White, Selected: 42}); err == nil {
		t.Fatalf("expected error for dangling selection")
	}
}
