package rules

// PieceSet owns the live pieces of a position and keeps a per-square occupancy count.
// It does not enforce one piece per square; move generation never produces an occupied destination.
type PieceSet struct {
	pieces []Piece
	occ    map[Square]int
	nextID int
}

// NewPieceSet copies pieces into a new set. Pieces with a zero ID get a fresh one.
func NewPieceSet(pieces []Piece) *PieceSet {
	s := &PieceSet{
		pieces: make([]Piece, 0, len(pieces)),
		occ:    make(map[Square]int, len(pieces)),
		nextID: 1,
	}
	for _, p := range pieces {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	for _, p := range pieces {
		s.Add(p)
	}
	return s
}

// Add inserts a piece and returns it with its assigned ID.
func (s *PieceSet) Add(p Piece) Piece {
	if p.ID <= 0 {
		p.ID = s.nextID
	}
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	s.pieces = append(s.pieces, p)
	s.occ[p.Square]++
	return p
}

func (s *PieceSet) Len() int { return len(s.pieces) }

// All returns a copy of the pieces in insertion order.
func (s *PieceSet) All() []Piece {
	out := make([]Piece, len(s.pieces))
	copy(out, s.pieces)
	return out
}

// Get looks a piece up by ID.
func (s *PieceSet) Get(id int) (Piece, bool) {
	for _, p := range s.pieces {
		if p.ID == id {
			return p, true
		}
	}
	return Piece{}, false
}

// At returns the first piece standing on sq.
func (s *PieceSet) At(sq Square) (Piece, bool) {
	if s.occ[sq] == 0 {
		return Piece{}, false
	}
	for _, p := range s.pieces {
		if p.Square == sq {
			return p, true
		}
	}
	return Piece{}, false
}

// King returns the first king of the given color.
func (s *PieceSet) King(c Color) (Piece, bool) {
	for _, p := range s.pieces {
		if p.Type == King && p.Color == c {
			return p, true
		}
	}
	return Piece{}, false
}

// Relocate moves the piece with the given ID to sq. No other piece is removed.
func (s *PieceSet) Relocate(id int, sq Square) bool {
	for i := range s.pieces {
		if s.pieces[i].ID != id {
			continue
		}
		from := s.pieces[i].Square
		if s.occ[from]--; s.occ[from] <= 0 {
			delete(s.occ, from)
		}
		s.pieces[i].Square = sq
		s.occ[sq]++
		return true
	}
	return false
}

// Clone returns an independent copy of the set.
func (s *PieceSet) Clone() *PieceSet {
	c := &PieceSet{
		pieces: s.All(),
		occ:    make(map[Square]int, len(s.occ)),
		nextID: s.nextID,
	}
	for sq, n := range s.occ {
		c.occ[sq] = n
	}
	return c
}

// IsOccupied reports whether any piece in set stands exactly on sq.
func IsOccupied(sq Square, set *PieceSet) bool {
	if set == nil {
		return false
	}
	return set.occ[sq] > 0
}
