package rules

import "errors"

var (
	ErrInvalidPieceType = errors.New("invalid piece type")
	ErrInvalidSquare    = errors.New("invalid square")
)

// Color identifies a side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the other side.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool { return c == White || c == Black }

// forward is the rank direction pawns of this color advance in.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

// PieceType is the tag the move generator dispatches on.
type PieceType string

const (
	Pawn   PieceType = "pawn"
	Rook   PieceType = "rook"
	Knight PieceType = "knight"
	Bishop PieceType = "bishop"
	Queen  PieceType = "queen"
	King   PieceType = "king"
)

// Piece is a live piece. ID is assigned by the PieceSet and stays stable for the piece's lifetime.
type Piece struct {
	ID     int       `json:"id"`
	Type   PieceType `json:"type"`
	Color  Color     `json:"color"`
	Square Square    `json:"square"`
}
