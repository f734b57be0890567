package engine

// KickOffsets returns the horizontal offsets tried when rotating a piece of
// the given size: 0, +1, -1, +2, -2, ... up to +size and -size. Right is
// tried before left at equal distance.
func KickOffsets(size int) []int {
	offsets := make([]int, 0, 2*size+1)
	offsets = append(offsets, 0)
	for d := 1; d <= size; d++ {
		offsets = append(offsets, d, -d)
	}
	return offsets
}

// RotateCW turns the active piece clockwise, kicking it sideways if needed
func (f *Field) RotateCW() bool {
	_, ok := f.rotate(1)
	return ok
}

// RotateCCW turns the active piece counterclockwise, kicking it sideways if needed
func (f *Field) RotateCCW() bool {
	_, ok := f.rotate(-1)
	return ok
}

// rotate commits the first kick offset that makes the next state fit and
// returns it. Nothing changes when no offset fits.
func (f *Field) rotate(direction int) (int, bool) {
	if f.piece == nil {
		return 0, false
	}

	next := f.piece.Normalize(f.rotation + direction)
	state := f.piece.state(next)

	for _, offset := range KickOffsets(f.piece.Size()) {
		candidate := Position{Row: f.anchor.Row, Col: f.anchor.Col + offset}
		if f.Collides(state, candidate) {
			continue
		}
		f.rotation = next
		f.anchor = candidate
		return offset, true
	}

	return 0, false
}
