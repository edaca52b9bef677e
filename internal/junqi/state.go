package junqi

// PieceView 对某个观察者可见的棋子信息。暗子不带 Kind。
type PieceView struct {
	Owner   Seat      `json:"owner"`
	ID      string    `json:"id,omitempty"`
	Kind    PieceKind `json:"kind,omitempty"`
	Visible bool      `json:"visible"`
	Kills   int       `json:"kills"`
	Mark    string    `json:"mark,omitempty"`
}

type CellView struct {
	Pos   Pos        `json:"pos"`
	Kind  CellKind   `json:"kind"`
	Area  Seat       `json:"area"`
	Piece *PieceView `json:"piece,omitempty"`
}

// PublicState 对外广播的局面快照。
type PublicState struct {
	Phase      Phase           `json:"phase"`
	Current    Seat            `json:"current"`
	Viewer     Seat            `json:"viewer"`
	Eliminated []Seat          `json:"eliminated"`
	Winner     *Axis           `json:"winner,omitempty"`
	Testing    bool            `json:"testing"`
	Cells      []CellView      `json:"cells"`
	History    []HistoryRecord `json:"history"`
}

// PublicState 按观察者视角生成快照：自己的棋子和已翻开的棋子显示棋面。
// viewer 为 NoSeat 时是旁观视角。
func (g *Game) PublicState(viewer Seat) PublicState {
	st := PublicState{
		Phase:      g.phase,
		Current:    g.current,
		Viewer:     viewer,
		Eliminated: g.EliminatedSeats(),
		Testing:    g.testing,
		History:    g.History(),
	}
	if a, ok := g.Winner(); ok {
		st.Winner = &a
	}
	for _, p := range Cells() {
		cv := CellView{Pos: p, Kind: KindAt(p), Area: AreaOf(p)}
		if pc := g.board.at(p); pc != nil {
			pv := &PieceView{Owner: pc.Owner, ID: pc.ID, Visible: pc.Visible, Kills: pc.Kills, Mark: pc.Mark}
			own := viewer.Valid() && pc.Owner == viewer
			if own || pc.Visible || g.testing {
				pv.Kind = pc.Kind
			}
			cv.Piece = pv
		}
		st.Cells = append(st.Cells, cv)
	}
	return st
}
