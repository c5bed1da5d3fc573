package boarddto

// CreateRequest starts a game. With no pieces the standard layout is used.
type CreateRequest struct {
	Pieces []Piece `json:"pieces,omitempty"`
	Turn   string  `json:"turn,omitempty"`
}

// SelectRequest names a piece by id or by the square it stands on.
type SelectRequest struct {
	PieceID int    `json:"piece_id,omitempty"`
	Square  string `json:"square,omitempty"`
}

type SelectResponse struct {
	State *GameState `json:"state"`
	Moves []string   `json:"moves"`
}

type MoveRequest struct {
	Square string `json:"square"`
}

type MoveResponse struct {
	State   *GameState `json:"state"`
	Applied bool       `json:"applied"`
	Status  Status     `json:"status"`
	Move    *Move      `json:"move,omitempty"`
}

type DeselectResponse struct {
	State  *GameState `json:"state"`
	Status Status     `json:"status"`
}

type ListResponse struct {
	Games []string `json:"games"`
}
