package junqi

// LocalPos 以某一方为视角的 1 基坐标：第 1 行靠近中央，第 6 行是大本营行。
type LocalPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// LocalCoords maps a global position into the frame of seat. Positions outside the
// seat's area still map, they just land outside 1..6 x 1..5.
func LocalCoords(p Pos, seat Seat) LocalPos {
	switch seat {
	case South:
		return LocalPos{Row: p.Row - 10, Col: p.Col - 5}
	case North:
		return LocalPos{Row: 6 - p.Row, Col: 11 - p.Col}
	case West:
		return LocalPos{Row: 6 - p.Col, Col: p.Row - 5}
	case East:
		return LocalPos{Row: p.Col - 10, Col: 11 - p.Row}
	}
	return LocalPos{Row: p.Row, Col: p.Col}
}

// GlobalFromLocal is the inverse of LocalCoords.
func GlobalFromLocal(l LocalPos, seat Seat) Pos {
	switch seat {
	case South:
		return Pos{Row: 10 + l.Row, Col: 5 + l.Col}
	case North:
		return Pos{Row: 6 - l.Row, Col: 11 - l.Col}
	case West:
		return Pos{Row: 5 + l.Col, Col: 6 - l.Row}
	case East:
		return Pos{Row: 11 - l.Col, Col: 10 + l.Row}
	}
	return Pos{Row: l.Row, Col: l.Col}
}

// InOwnArea 本地坐标落在 6x5 阵地内。
func (l LocalPos) InOwnArea() bool {
	return l.Row >= 1 && l.Row <= 6 && l.Col >= 1 && l.Col <= 5
}

// BackRows 最后两行（地雷区）。
func (l LocalPos) BackRows() bool { return l.Row == 5 || l.Row == 6 }
