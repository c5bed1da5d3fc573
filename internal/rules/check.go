package rules

// IsInCheck reports whether a piece of the opposing color stands on the king's square.
// This is a contact test, not an attack analysis.
func IsInCheck(king Piece, set *PieceSet) bool {
	if set == nil {
		return false
	}
	for _, p := range set.pieces {
		if p.Color != king.Color && p.Square == king.Square {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether a king in check has no adjacent escape square.
// An escape is an in-bounds square that no piece occupies and where the king would not be in check.
// The king is probed by value, so its square in set is never changed.
func IsCheckmate(king Piece, set *PieceSet) bool {
	if !IsInCheck(king, set) {
		return false
	}
	for _, d := range kingOffsets {
		probe := king
		probe.Square = king.Square.Offset(d.df, d.dr)
		if !InBounds(probe.Square) {
			continue
		}
		if !IsOccupied(probe.Square, set) && !IsInCheck(probe, set) {
			return false
		}
	}
	return true
}
