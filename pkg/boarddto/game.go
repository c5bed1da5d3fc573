package boarddto

import "time"

// Squares are algebraic names ("a1".."h8") on the wire.

type Piece struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Color  string `json:"color"`
	Square string `json:"square"`
}

type Status struct {
	Kind  string `json:"kind"`
	Color string `json:"color,omitempty"`
	Text  string `json:"text"`
}

type Move struct {
	Ply     int    `json:"ply"`
	PieceID int    `json:"piece_id"`
	Type    string `json:"type"`
	Color   string `json:"color"`
	From    string `json:"from"`
	To      string `json:"to"`
	UCI     string `json:"uci"`
}

type GameState struct {
	ID         string    `json:"id"`
	Turn       string    `json:"turn"`
	Pieces     []Piece   `json:"pieces"`
	Selected   int       `json:"selected,omitempty"`
	LegalMoves []string  `json:"legal_moves,omitempty"`
	GameOver   bool      `json:"game_over"`
	Winner     string    `json:"winner,omitempty"`
	Status     Status    `json:"status"`
	FEN        string    `json:"fen"`
	History    []Move    `json:"history,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Event struct {
	GameID   string    `json:"game_id"`
	Kind     string    `json:"kind"`
	Status   Status    `json:"status"`
	Applied  bool      `json:"applied,omitempty"`
	Move     *Move     `json:"move,omitempty"`
	Turn     string    `json:"turn,omitempty"`
	GameOver bool      `json:"game_over"`
	At       time.Time `json:"at"`
}

// EventSubscribed is sent once when a websocket subscription is ready.
const EventSubscribed = "subscribed"
