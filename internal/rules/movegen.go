package rules

import "fmt"

var (
	orthogonal = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal   = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

	knightOffsets = []offset{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
	kingOffsets = []offset{
		{-1, -1}, {-1, 0}, {-1, 1},
		{0, -1}, {0, 1},
		{1, -1}, {1, 0}, {1, 1},
	}
)

// GenerateMoves returns the destinations piece p may move to in set.
// Occupied squares block every piece type; nothing is ever captured.
// An unknown type tag yields ErrInvalidPieceType and no moves.
func GenerateMoves(p Piece, set *PieceSet) ([]Square, error) {
	switch p.Type {
	case Pawn:
		return pawnMoves(p, set), nil
	case Rook:
		return rookMoves(p.Square, set), nil
	case Knight:
		return stepMoves(p.Square, set, knightOffsets), nil
	case Bishop:
		return bishopMoves(p.Square, set), nil
	case Queen:
		return append(rookMoves(p.Square, set), bishopMoves(p.Square, set)...), nil
	case King:
		return stepMoves(p.Square, set, kingOffsets), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPieceType, string(p.Type))
	}
}

// Contains reports whether sq is one of moves.
func Contains(moves []Square, sq Square) bool {
	for _, m := range moves {
		if m == sq {
			return true
		}
	}
	return false
}

func pawnMoves(p Piece, set *PieceSet) []Square {
	to := p.Square.Offset(0, p.Color.forward())
	if !InBounds(to) || IsOccupied(to, set) {
		return nil
	}
	return []Square{to}
}

func rookMoves(from Square, set *PieceSet) []Square {
	return slide(from, set, orthogonal)
}

func bishopMoves(from Square, set *PieceSet) []Square {
	return slide(from, set, diagonal)
}

// slide walks each ray until it leaves the board or hits an occupied square.
func slide(from Square, set *PieceSet, dirs []offset) []Square {
	var out []Square
	for _, d := range dirs {
		for i := 1; i < BoardSize; i++ {
			to := from.Offset(d.df*i, d.dr*i)
			if !InBounds(to) || IsOccupied(to, set) {
				break
			}
			out = append(out, to)
		}
	}
	return out
}

func stepMoves(from Square, set *PieceSet, offsets []offset) []Square {
	var out []Square
	for _, d := range offsets {
		to := from.Offset(d.df, d.dr)
		if InBounds(to) && !IsOccupied(to, set) {
			out = append(out, to)
		}
	}
	return out
}
