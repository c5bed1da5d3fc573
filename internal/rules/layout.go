package rules

var backRank = [BoardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardLayout returns the starting position: white on ranks 0-1, black on ranks 6-7.
// IDs are left zero for the PieceSet to assign.
func StandardLayout() []Piece {
	out := make([]Piece, 0, 4*BoardSize)
	for f := 0; f < BoardSize; f++ {
		out = append(out,
			Piece{Type: Pawn, Color: White, Square: Square{File: f, Rank: 1}},
			Piece{Type: Pawn, Color: Black, Square: Square{File: f, Rank: BoardSize - 2}},
		)
	}
	for f, t := range backRank {
		out = append(out,
			Piece{Type: t, Color: White, Square: Square{File: f, Rank: 0}},
			Piece{Type: t, Color: Black, Square: Square{File: f, Rank: BoardSize - 1}},
		)
	}
	return out
}
