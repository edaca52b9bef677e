// Package perspective rebuilds each seat's fog-of-war view of a game: where every piece
// stands in the seat's own coordinates, which faces the seat may know, and what the
// seat can deduce about the hidden enemy pieces from the public history.
package perspective

import (
	"fmt"
	"strings"
	"sync"

	"junqi/internal/junqi"
)

const maxNotes = 5

// Source 重建视角需要的对局信息，*junqi.Game 满足这个接口。
// KindOf 只会被问到观察者自己的棋子。
type Source interface {
	Board() *junqi.Board
	History() []junqi.HistoryRecord
	KindOf(id string) (junqi.PieceKind, bool)
}

// PieceCoord 棋子在观察者本地坐标下的位置；Face 只在棋面公开时给出。
type PieceCoord struct {
	Row  int             `json:"row"`
	Col  int             `json:"col"`
	Face junqi.PieceKind `json:"face,omitempty"`
}

// Inference 对一枚暗子的推断。
type Inference struct {
	Possible       []junqi.PieceKind `json:"possible"`
	Excluded       []junqi.PieceKind `json:"excluded"`
	Notes          []string          `json:"notes"`
	LastUpdateTurn int               `json:"last_update_turn"`
}

// Payload 某一方的完整视角。
type Payload struct {
	ForFaction junqi.Seat            `json:"for_faction"`
	Turn       int                   `json:"turn"`
	IDCoords   map[string]PieceCoord `json:"id_coords"`
	Inferences map[string]Inference  `json:"inferences"`
}

// Clue 观察者眼中的一个格子。
type Clue struct {
	Pos      junqi.Pos       `json:"pos"`
	Row      int             `json:"row"`
	Col      int             `json:"col"`
	HasPiece bool            `json:"has_piece"`
	PieceID  string          `json:"piece_id,omitempty"`
	Owner    junqi.Seat      `json:"owner"`
	Face     junqi.PieceKind `json:"face,omitempty"`
	Clues    *Inference      `json:"clues,omitempty"`
}

type view struct {
	payload Payload
	clues   []Clue
}

// Manager keeps the latest view of every managed seat. Views are rebuilt from scratch
// on each Refresh; nothing carries over between refreshes.
type Manager struct {
	mu    sync.RWMutex
	seats []junqi.Seat
	views map[junqi.Seat]*view
}

// DefaultSeats 默认由机器人坐的三个位置。
var DefaultSeats = []junqi.Seat{junqi.West, junqi.North, junqi.East}

// NewManager manages the given seats, or DefaultSeats when none are given.
func NewManager(seats ...junqi.Seat) *Manager {
	if len(seats) == 0 {
		seats = DefaultSeats
	}
	m := &Manager{views: make(map[junqi.Seat]*view, len(seats))}
	for _, s := range seats {
		if s.Valid() {
			m.seats = append(m.seats, s)
		}
	}
	return m
}

// Seats 返回受管理的座位。
func (m *Manager) Seats() []junqi.Seat {
	return append([]junqi.Seat(nil), m.seats...)
}

// Refresh rebuilds every managed view from src.
func (m *Manager) Refresh(src Source) {
	b, hist := src.Board(), src.History()
	views := make(map[junqi.Seat]*view, len(m.seats))
	for _, s := range m.seats {
		views[s] = build(b, hist, src.KindOf, s)
	}
	m.mu.Lock()
	m.views = views
	m.mu.Unlock()
}

// Payload returns the last built view of seat.
func (m *Manager) Payload(seat junqi.Seat) (Payload, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[seat]
	if !ok {
		return Payload{}, false
	}
	return v.payload, true
}

// LocationClues lists every board cell as seen by seat.
func (m *Manager) LocationClues(seat junqi.Seat) ([]Clue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[seat]
	if !ok {
		return nil, false
	}
	return v.clues, true
}

// Build computes a single seat's view without a Manager.
func Build(src Source, viewer junqi.Seat) Payload {
	return build(src.Board(), src.History(), src.KindOf, viewer).payload
}

func build(b *junqi.Board, hist []junqi.HistoryRecord, kindOf func(string) (junqi.PieceKind, bool), viewer junqi.Seat) *view {
	pl := Payload{
		ForFaction: viewer,
		Turn:       len(hist),
		IDCoords:   make(map[string]PieceCoord),
		Inferences: make(map[string]Inference),
	}
	public := func(pc junqi.Piece) bool { return pc.Owner == viewer || pc.Visible }

	trackers := make(map[string]*tracker)
	track := func(id string) *tracker {
		if t, ok := trackers[id]; ok {
			return t
		}
		t := &tracker{possible: allKinds}
		trackers[id] = t
		return t
	}

	occupied := b.Occupied()
	for _, sq := range occupied {
		pc := sq.Piece
		l := junqi.LocalCoords(sq.Pos, viewer)
		c := PieceCoord{Row: l.Row, Col: l.Col}
		if public(pc) {
			c.Face = pc.Kind
		}
		pl.IDCoords[pc.ID] = c
		if public(pc) || junqi.Allied(pc.Owner, viewer) || pc.ID == "" {
			continue
		}
		// 站位本身就能排除地雷和军旗
		t := track(pc.ID)
		if !junqi.LocalCoords(sq.Pos, pc.Owner).BackRows() {
			t.restrict(^setOf(junqi.Mine), 0, "不在后两排，不是地雷")
		}
		if junqi.KindAt(sq.Pos) != junqi.Headquarters {
			t.restrict(^setOf(junqi.Flag), 0, "不在大本营，不是军旗")
		}
	}

	enemy := func(id string) bool {
		s, ok := junqi.SeatFromID(id)
		return ok && !junqi.Allied(s, viewer)
	}
	for _, r := range hist {
		if enemy(r.PieceID) {
			track(r.PieceID).restrict(movable, r.Turn, fmt.Sprintf("第%d步走动过，不是地雷或军旗", r.Turn))
		}
		if !r.Outcome.IsCombat() || r.DefenderID == "" {
			continue
		}
		switch {
		case r.Faction == viewer && enemy(r.DefenderID):
			own, ok := kindOf(r.PieceID)
			if !ok {
				continue
			}
			var fits kindSet
			for _, k := range junqi.AllKinds {
				if junqi.Battle(own, k) == r.Outcome {
					fits = fits.with(k)
				}
			}
			track(r.DefenderID).restrictCombat(fits, r.Turn, attackNote(r.Turn, own, r.Outcome))
		case defenderSeat(r) == viewer && enemy(r.PieceID):
			own, ok := kindOf(r.DefenderID)
			if !ok {
				continue
			}
			var fits kindSet
			for _, k := range junqi.AllKinds {
				if k.Movable() && junqi.Battle(k, own) == r.Outcome {
					fits = fits.with(k)
				}
			}
			track(r.PieceID).restrictCombat(fits, r.Turn, defendNote(r.Turn, own, r.Outcome))
		}
	}

	byPos := make(map[junqi.Pos]junqi.Piece, len(occupied))
	shown := make(map[string]bool)
	for _, sq := range occupied {
		byPos[sq.Pos] = sq.Piece
		if public(sq.Piece) {
			shown[sq.Piece.ID] = true
		}
	}
	for id, t := range trackers {
		if !shown[id] {
			pl.Inferences[id] = t.inference()
		}
	}

	v := &view{payload: pl}
	for _, p := range junqi.Cells() {
		l := junqi.LocalCoords(p, viewer)
		c := Clue{Pos: p, Row: l.Row, Col: l.Col, Owner: junqi.NoSeat}
		if pc, ok := byPos[p]; ok {
			c.HasPiece = true
			c.PieceID = pc.ID
			c.Owner = pc.Owner
			if public(pc) {
				c.Face = pc.Kind
			} else if inf, ok := pl.Inferences[pc.ID]; ok {
				c.Clues = &inf
			}
		}
		v.clues = append(v.clues, c)
	}
	return v
}

func defenderSeat(r junqi.HistoryRecord) junqi.Seat {
	s, ok := junqi.SeatFromID(r.DefenderID)
	if !ok {
		return junqi.NoSeat
	}
	return s
}

func attackNote(turn int, own junqi.PieceKind, o junqi.Outcome) string {
	switch o {
	case junqi.OutcomeAttackerWins:
		return fmt.Sprintf("第%d步被我方%s吃掉", turn, own.Face())
	case junqi.OutcomeDefenderWins:
		return fmt.Sprintf("第%d步挡住了我方%s的进攻", turn, own.Face())
	}
	return fmt.Sprintf("第%d步与我方%s同归于尽", turn, own.Face())
}

func defendNote(turn int, own junqi.PieceKind, o junqi.Outcome) string {
	switch o {
	case junqi.OutcomeAttackerWins:
		return fmt.Sprintf("第%d步吃掉了我方%s", turn, own.Face())
	case junqi.OutcomeDefenderWins:
		return fmt.Sprintf("第%d步进攻我方%s阵亡", turn, own.Face())
	}
	return fmt.Sprintf("第%d步进攻我方%s同归于尽", turn, own.Face())
}

// kindSet 兵种位集。
type kindSet uint16

func setOf(kinds ...junqi.PieceKind) kindSet {
	var s kindSet
	for _, k := range kinds {
		s = s.with(k)
	}
	return s
}

func (s kindSet) with(k junqi.PieceKind) kindSet { return s | 1<<uint(k) }
func (s kindSet) has(k junqi.PieceKind) bool     { return s&(1<<uint(k)) != 0 }

func (s kindSet) kinds() []junqi.PieceKind {
	out := []junqi.PieceKind{}
	for _, k := range junqi.AllKinds {
		if s.has(k) {
			out = append(out, k)
		}
	}
	return out
}

func faces(s kindSet) string {
	var parts []string
	for _, k := range s.kinds() {
		parts = append(parts, k.Face())
	}
	return strings.Join(parts, "、")
}

var (
	allKinds = setOf(junqi.AllKinds...)
	movable  = allKinds &^ setOf(junqi.Mine, junqi.Flag)
)

type tracker struct {
	possible kindSet
	notes    []string
	lastTurn int
}

// restrict 只在真的排除了什么时才记一笔。
func (t *tracker) restrict(s kindSet, turn int, note string) {
	before := t.possible
	t.possible &= s
	if t.possible == before {
		return
	}
	t.note(note)
	if turn > t.lastTurn {
		t.lastTurn = turn
	}
}

// restrictCombat 交战总要记下来，顺带列出新排除的兵种。
func (t *tracker) restrictCombat(s kindSet, turn int, note string) {
	before := t.possible
	t.possible &= s
	if gone := before &^ t.possible; gone != 0 {
		note += "，排除" + faces(gone)
	}
	t.note(note)
	if turn > t.lastTurn {
		t.lastTurn = turn
	}
}

func (t *tracker) note(s string) {
	t.notes = append(t.notes, s)
	if len(t.notes) > maxNotes {
		t.notes = t.notes[len(t.notes)-maxNotes:]
	}
}

func (t *tracker) inference() Inference {
	return Inference{
		Possible:       t.possible.kinds(),
		Excluded:       (allKinds &^ t.possible).kinds(),
		Notes:          append([]string{}, t.notes...),
		LastUpdateTurn: t.lastTurn,
	}
}
