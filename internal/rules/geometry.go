package rules

import (
	"fmt"
	"strings"
)

// BoardSize is the number of squares along each axis.
const BoardSize = 8

// Square is a board coordinate. File 0 is the a-file, rank 0 is white's back rank.
type Square struct {
	File int `json:"file"`
	Rank int `json:"rank"`
}

type offset struct{ df, dr int }

// Offset returns the square shifted by df files and dr ranks. The result may be off the board.
func (s Square) Offset(df, dr int) Square {
	return Square{File: s.File + df, Rank: s.Rank + dr}
}

func (s Square) String() string {
	if !InBounds(s) {
		return "invalid"
	}
	return fmt.Sprintf("%c%d", 'a'+s.File, s.Rank+1)
}

// InBounds reports whether both coordinates fall within the board.
func InBounds(s Square) bool {
	return s.File >= 0 && s.File < BoardSize && s.Rank >= 0 && s.Rank < BoardSize
}

// ParseSquare parses algebraic square names such as "e4".
func ParseSquare(raw string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
	}
	sq := Square{File: int(v[0] - 'a'), Rank: int(v[1] - '1')}
	if v[0] < 'a' || v[1] < '1' || !InBounds(sq) {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, raw)
	}
	return sq, nil
}
