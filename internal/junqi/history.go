package junqi

import "strings"

// HistoryRecord 一步棋的记录。坐标用走子方的本地坐标。
type HistoryRecord struct {
	Turn       int      `json:"turn"`
	Faction    Seat     `json:"player_faction"`
	PieceID    string   `json:"piece_id"`
	From       LocalPos `json:"from_local"`
	To         LocalPos `json:"to_local"`
	Outcome    Outcome  `json:"outcome"`
	DefenderID string   `json:"defender_piece_id,omitempty"`
	DeadIDs    []string `json:"dead_piece_ids"`
}

func newRecord(turn int, from, to Pos, res MoveResult) HistoryRecord {
	seat := res.Mover.Owner
	rec := HistoryRecord{
		Turn:    turn,
		Faction: seat,
		PieceID: res.Mover.ID,
		From:    LocalCoords(from, seat),
		To:      LocalCoords(to, seat),
		Outcome: res.Outcome,
		DeadIDs: []string{},
	}
	if res.HadDefender {
		rec.DefenderID = res.Defender.ID
	}
	for _, d := range res.Dead {
		rec.DeadIDs = append(rec.DeadIDs, d.ID)
	}
	return rec
}

// GlobalFrom 起点的全局坐标。
func (r HistoryRecord) GlobalFrom() Pos { return GlobalFromLocal(r.From, r.Faction) }

// GlobalTo 终点的全局坐标。
func (r HistoryRecord) GlobalTo() Pos { return GlobalFromLocal(r.To, r.Faction) }

// Died reports whether the piece id is among this record's casualties.
func (r HistoryRecord) Died(id string) bool {
	for _, d := range r.DeadIDs {
		if d == id {
			return true
		}
	}
	return false
}

// SeatFromID 从棋子编号的前缀（south_001 之类）取出所属座位。
func SeatFromID(id string) (Seat, bool) {
	name, _, ok := strings.Cut(id, "_")
	if !ok {
		return NoSeat, false
	}
	s, ok := ParseSeat(name)
	if !ok || !s.Valid() {
		return NoSeat, false
	}
	return s, true
}
