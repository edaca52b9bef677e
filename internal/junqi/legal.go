package junqi

// LegalMoves 某一方当前所有合法走法，按格子顺序。
func (b *Board) LegalMoves(seat Seat) []Move {
	var out []Move
	for sq := 0; sq < NumSquares; sq++ {
		pc := b.slot(sq)
		if pc == nil || pc.Owner != seat {
			continue
		}
		from := posOf(sq)
		for _, to := range b.Targets(from) {
			out = append(out, Move{From: from, To: to})
		}
	}
	return out
}

// HasLegalMove 只要找到一步就返回。
func (b *Board) HasLegalMove(seat Seat) bool {
	for sq := 0; sq < NumSquares; sq++ {
		pc := b.slot(sq)
		if pc == nil || pc.Owner != seat || !pc.Kind.Movable() {
			continue
		}
		if len(b.Targets(posOf(sq))) > 0 {
			return true
		}
	}
	return false
}

// AxisDead reports whether neither seat of the axis has a piece left.
func (b *Board) AxisDead(a Axis) bool {
	for _, s := range a.Seats() {
		if b.Count(s) > 0 {
			return false
		}
	}
	return true
}

func (b *Board) flagCount() int {
	n := 0
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Kind == Flag {
			n++
		}
	}
	return n
}
