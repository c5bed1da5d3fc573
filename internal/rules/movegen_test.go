package rules

import (
	"errors"
	"testing"
)

func sq(name string) Square {
	s, err := ParseSquare(name)
	if err != nil {
		panic(err)
	}
	return s
}

func TestParseSquare(t *testing.T) {
	tests := []struct {
		in   string
		want Square
		ok   bool
	}{
		{"a1", Square{0, 0}, true},
		{"h8", Square{7, 7}, true},
		{" E4 ", Square{4, 3}, true},
		{"i1", Square{}, false},
		{"a9", Square{}, false},
		{"a0", Square{}, false},
		{"", Square{}, false},
		{"e44", Square{}, false},
	}
	for _, tt := range tests {
		got, err := ParseSquare(tt.in)
		if tt.ok && (err != nil || got != tt.want) {
			t.Fatalf("ParseSquare(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidSquare) {
			t.Fatalf("ParseSquare(%q) expected ErrInvalidSquare, got %v", tt.in, err)
		}
	}
	if got := (Square{4, 3}).String(); got != "e4" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Square{-1, 3}).String(); got != "invalid" {
		t.Fatalf("out of bounds String() = %q", got)
	}
}

func TestRookCornerEmptyBoard(t *testing.T) {
	rook := Piece{ID: 1, Type: Rook, Color: White, Square: sq("a1")}
	set := NewPieceSet([]Piece{rook})
	moves, err := GenerateMoves(rook, set)
	if err != nil {
		t.Fatalf("GenerateMoves: %v", err)
	}
	if len(moves) != 14 {
		t.Fatalf("expected 14 rook moves, got %d (%v)", len(moves), moves)
	}
	if Contains(moves, rook.Square) {
		t.Fatalf("rook moves must not include its own square")
	}
}

func TestSlidersStopBeforeBlocker(t *testing.T) {
	tests := []struct {
		name    string
		typ     PieceType
		from    string
		blocker string
		beyond  string
		before  string
	}{
		{"rook file", Rook, "d4", "d6", "d7", "d5"},
		{"rook rank", Rook, "d4", "b4", "a4", "c4"},
		{"bishop", Bishop, "c1", "e3", "f4", "d2"},
		{"queen diagonal", Queen, "d1", "g4", "h5", "f3"},
		{"queen file", Queen, "d1", "d3", "d4", "d2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Piece{ID: 1, Type: tt.typ, Color: White, Square: sq(tt.from)}
			// an enemy blocker must block exactly like a friendly one
			set := NewPieceSet([]Piece{p, {ID: 2, Type: Pawn, Color: Black, Square: sq(tt.blocker)}})
			moves, err := GenerateMoves(p, set)
			if err != nil {
				t.Fatalf("GenerateMoves: %v", err)
			}
			if Contains(moves, sq(tt.blocker)) {
				t.Fatalf("blocking square %s included", tt.blocker)
			}
			if Contains(moves, sq(tt.beyond)) {
				t.Fatalf("square %s beyond blocker included", tt.beyond)
			}
			if !Contains(moves, sq(tt.before)) {
				t.Fatalf("square %s before blocker missing", tt.before)
			}
		})
	}
}

func TestQueenIsRookPlusBishop(t *testing.T) {
	from := sq("d4")
	set := NewPieceSet([]Piece{{ID: 1, Type: Queen, Color: Black, Square: from}, {ID: 2, Type: Knight, Color: White, Square: sq("f6")}})
	q, _ := set.Get(1)
	moves, err := GenerateMoves(q, set)
	if err != nil {
		t.Fatalf("GenerateMoves: %v", err)
	}
	want := len(rookMoves(from, set)) + len(bishopMoves(from, set))
	if len(moves) != want {
		t.Fatalf("queen moves %d, want %d", len(moves), want)
	}
	// 14 orthogonal + 13 diagonal minus f6 and g7,h8 behind it
	if len(moves) != 24 {
		t.Fatalf("expected 24 queen moves, got %d", len(moves))
	}
}

func TestKnightAndKingOffsets(t *testing.T) {
	knight := Piece{ID: 1, Type: Knight, Color: White, Square: sq("d4")}
	king := Piece{ID: 2, Type: King, Color: White, Square: sq("h1")}
	set := NewPieceSet([]Piece{knight, king, {ID: 3, Type: Pawn, Color: White, Square: sq("e6")}})

	moves, _ := GenerateMoves(knight, set)
	if len(moves) != 7 {
		t.Fatalf("knight at d4 with e6 occupied: expected 7 moves, got %d", len(moves))
	}
	for _, m := range moves {
		df, dr := abs(m.File-knight.Square.File), abs(m.Rank-knight.Square.Rank)
		if !(df == 1 && dr == 2 || df == 2 && dr == 1) {
			t.Fatalf("knight move %v is not an L offset", m)
		}
	}

	moves, _ = GenerateMoves(king, set)
	if len(moves) != 3 {
		t.Fatalf("king in corner: expected 3 moves, got %d (%v)", len(moves), moves)
	}

	corner := Piece{ID: 4, Type: Knight, Color: Black, Square: sq("a8")}
	moves, _ = GenerateMoves(corner, NewPieceSet([]Piece{corner}))
	if len(moves) != 2 {
		t.Fatalf("knight in corner: expected 2 moves, got %d", len(moves))
	}
}

func TestPawnDirectionAndBlocking(t *testing.T) {
	white := Piece{ID: 1, Type: Pawn, Color: White, Square: sq("e4")}
	black := Piece{ID: 2, Type: Pawn, Color: Black, Square: sq("c4")}
	set := NewPieceSet([]Piece{white, black})

	moves, _ := GenerateMoves(white, set)
	if len(moves) != 1 || moves[0] != sq("e3") {
		t.Fatalf("white pawn should step toward lower rank, got %v", moves)
	}
	moves, _ = GenerateMoves(black, set)
	if len(moves) != 1 || moves[0] != sq("c5") {
		t.Fatalf("black pawn should step toward higher rank, got %v", moves)
	}

	set.Add(Piece{Type: Rook, Color: Black, Square: sq("e3")})
	if moves, _ := GenerateMoves(white, set); len(moves) != 0 {
		t.Fatalf("pawn must not move onto an occupied square, got %v", moves)
	}

	edge := Piece{ID: 9, Type: Pawn, Color: White, Square: sq("a1")}
	if moves, _ := GenerateMoves(edge, NewPieceSet([]Piece{edge})); len(moves) != 0 {
		t.Fatalf("pawn on its last rank must have no moves, got %v", moves)
	}
}

func TestStartingPositionPawnsAreBlocked(t *testing.T) {
	set := NewPieceSet(StandardLayout())
	for _, p := range set.All() {
		if p.Type != Pawn {
			continue
		}
		if moves, _ := GenerateMoves(p, set); len(moves) != 0 {
			t.Fatalf("pawn %v advances toward its own back rank and must be blocked, got %v", p.Square, moves)
		}
	}
}

func TestGeneratedMovesInBoundsAndFree(t *testing.T) {
	set := NewPieceSet(StandardLayout())
	set.Relocate(mustAt(t, set, "d2").ID, sq("d4"))
	set.Relocate(mustAt(t, set, "g8").ID, sq("f6"))
	for _, p := range set.All() {
		moves, err := GenerateMoves(p, set)
		if err != nil {
			t.Fatalf("GenerateMoves(%v): %v", p, err)
		}
		for _, m := range moves {
			if !InBounds(m) {
				t.Fatalf("%s %s: destination %v out of bounds", p.Color, p.Type, m)
			}
			if IsOccupied(m, set) {
				t.Fatalf("%s %s: destination %v occupied", p.Color, p.Type, m)
			}
		}
	}
}

func TestUnknownPieceType(t *testing.T) {
	p := Piece{ID: 1, Type: "dragon", Color: White, Square: sq("d4")}
	moves, err := GenerateMoves(p, NewPieceSet([]Piece{p}))
	if !errors.Is(err, ErrInvalidPieceType) {
		t.Fatalf("expected ErrInvalidPieceType, got %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("expected no moves, got %v", moves)
	}
}

func mustAt(t *testing.T, set *PieceSet, name string) Piece {
	t.Helper()
	p, ok := set.At(sq(name))
	if !ok {
		t.Fatalf("no piece at %s", name)
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
