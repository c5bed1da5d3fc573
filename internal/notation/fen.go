// Package notation exports positions in FEN so they can be archived and read by standard chess tools.
package notation

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-board/internal/rules"
)

// Placement returns the FEN piece-placement field for pieces.
// Pieces off the board or with unknown types are skipped; when two pieces share a square the later one wins.
func Placement(pieces []rules.Piece) string {
	m := make(map[nchess.Square]nchess.Piece, len(pieces))
	for _, p := range pieces {
		if !rules.InBounds(p.Square) {
			continue
		}
		pc := libPiece(p)
		if pc == nchess.NoPiece {
			continue
		}
		m[libSquare(p.Square)] = pc
	}
	return nchess.NewBoard(m).String()
}

// FEN returns the placement plus the side to move. Castling, en passant and clocks are not tracked.
func FEN(pieces []rules.Piece, turn rules.Color) string {
	side := "w"
	if turn == rules.Black {
		side = "b"
	}
	return Placement(pieces) + " " + side + " - - 0 1"
}

func libSquare(sq rules.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.File), nchess.Rank(sq.Rank))
}

func libPiece(p rules.Piece) nchess.Piece {
	white := p.Color == rules.White
	switch p.Type {
	case rules.King:
		if white {
			return nchess.WhiteKing
		}
		return nchess.BlackKing
	case rules.Queen:
		if white {
			return nchess.WhiteQueen
		}
		return nchess.BlackQueen
	case rules.Rook:
		if white {
			return nchess.WhiteRook
		}
		return nchess.BlackRook
	case rules.Bishop:
		if white {
			return nchess.WhiteBishop
		}
		return nchess.BlackBishop
	case rules.Knight:
		if white {
			return nchess.WhiteKnight
		}
		return nchess.BlackKnight
	case rules.Pawn:
		if white {
			return nchess.WhitePawn
		}
		return nchess.BlackPawn
	}
	return nchess.NoPiece
}
