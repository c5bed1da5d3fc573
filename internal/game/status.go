package game

import "github.com/park285/cheese-board/internal/rules"

// StatusKind classifies the outcome of a state machine operation.
type StatusKind string

const (
	StatusNone        StatusKind = "none"
	StatusTurnChanged StatusKind = "turn_changed"
	StatusCheck       StatusKind = "check"
	StatusCheckmate   StatusKind = "checkmate"
	StatusIllegalMove StatusKind = "illegal_move"
	StatusDeselected  StatusKind = "deselected"
)

// Status is the message reported to the presentation layer.
// Color is the new turn owner for TurnChanged, the side whose king is in check for Check,
// and the winner for Checkmate.
type Status struct {
	Kind  StatusKind  `json:"kind"`
	Color rules.Color `json:"color,omitempty"`
}

func TurnChanged(c rules.Color) Status { return Status{Kind: StatusTurnChanged, Color: c} }

func Check(c rules.Color) Status { return Status{Kind: StatusCheck, Color: c} }

func Checkmate(winner rules.Color) Status { return Status{Kind: StatusCheckmate, Color: winner} }

var (
	None        = Status{Kind: StatusNone}
	IllegalMove = Status{Kind: StatusIllegalMove}
	Deselected  = Status{Kind: StatusDeselected}
)

// MoveResult is returned by AttemptMove.
type MoveResult struct {
	Applied bool        `json:"applied"`
	Status  Status      `json:"status"`
	Move    *MoveRecord `json:"move,omitempty"`
}

// MoveRecord is one applied move.
type MoveRecord struct {
	Ply     int             `json:"ply"`
	PieceID int             `json:"piece_id"`
	Type    rules.PieceType `json:"type"`
	Color   rules.Color     `json:"color"`
	From    rules.Square    `json:"from"`
	To      rules.Square    `json:"to"`
}

// UCI renders the move as from-to square names, e.g. "b1c3".
func (m MoveRecord) UCI() string { return m.From.String() + m.To.String() }
