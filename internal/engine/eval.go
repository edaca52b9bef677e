package engine

import (
	"math"

	"junqi/internal/junqi"
)

// carrierPower 师长及以上算“大子”。
const carrierPower = 8

// HistoryStats 从对局记录里提炼出的统计量，评估时只读。
type HistoryStats struct {
	moves      map[string]int
	aggressive map[string]int
	killers    [junqi.NumSeats]map[string]bool
}

// NewHistoryStats 统计每个棋子走过几步、主动进攻过几次，以及各方的“仇人”。
func NewHistoryStats(hist []junqi.HistoryRecord) *HistoryStats {
	st := &HistoryStats{
		moves:      make(map[string]int),
		aggressive: make(map[string]int),
	}
	for _, rec := range hist {
		if rec.PieceID == "" {
			continue
		}
		st.moves[rec.PieceID]++
		if rec.Outcome.IsCombat() {
			st.aggressive[rec.PieceID]++
		}
	}
	for _, s := range junqi.AllSeats {
		st.killers[s] = Killers(hist, s)
	}
	return st
}

// Moves 某个棋子走过的步数。
func (st *HistoryStats) Moves(id string) int {
	if st == nil {
		return 0
	}
	return st.moves[id]
}

// Aggressive 某个棋子发起过的进攻次数。
func (st *HistoryStats) Aggressive(id string) int {
	if st == nil {
		return 0
	}
	return st.aggressive[id]
}

// IsKiller reports whether id took one of seat's pieces since seat last moved.
func (st *HistoryStats) IsKiller(seat junqi.Seat, id string) bool {
	if st == nil || !seat.Valid() || id == "" {
		return false
	}
	return st.killers[seat][id]
}

// KillerIDs 返回 seat 的仇人编号。
func (st *HistoryStats) KillerIDs(seat junqi.Seat) map[string]bool {
	if st == nil || !seat.Valid() {
		return nil
	}
	return st.killers[seat]
}

// Killers 从最近一步往回扫，直到（并包括）seat 自己的上一步，
// 找出吃掉过 seat 棋子的敌方棋子。
func Killers(hist []junqi.HistoryRecord, seat junqi.Seat) map[string]bool {
	out := make(map[string]bool)
	for i := len(hist) - 1; i >= 0; i-- {
		rec := hist[i]
		switch rec.Outcome {
		case junqi.OutcomeAttackerWins:
			if owner, ok := junqi.SeatFromID(rec.DefenderID); ok && owner == seat && rec.Faction != seat {
				out[rec.PieceID] = true
			}
		case junqi.OutcomeDefenderWins:
			if rec.Faction == seat && rec.DefenderID != "" {
				out[rec.DefenderID] = true
			}
		}
		if rec.Faction == seat {
			break
		}
	}
	return out
}

// Terms 单步评分的各分项（未加权）。
type Terms struct {
	Attack     float64 `json:"attack"`
	Positional float64 `json:"positional"`
	Risk       float64 `json:"risk"`
	Mobility   float64 `json:"mobility"`
	Info       float64 `json:"info"`
	Defense    float64 `json:"defense"`
	// Bonus 已经按权重折算好的局面加成
	Bonus float64 `json:"bonus"`
}

// Evaluator 只看公开信息给一步棋打分：自己的棋子知道兵种，对手的只看亮出来的。
type Evaluator struct {
	w     Weights
	stats *HistoryStats
}

func NewEvaluator(w Weights, stats *HistoryStats) *Evaluator {
	return &Evaluator{w: w, stats: stats}
}

func (ev *Evaluator) Weights() Weights { return ev.w }

// Score 加权总分。起点没有 seat 的棋子时为 0。
func (ev *Evaluator) Score(b *junqi.Board, seat junqi.Seat, mv junqi.Move) float64 {
	t, ok := ev.Terms(b, seat, mv)
	if !ok {
		return 0
	}
	return ev.combine(t)
}

func (ev *Evaluator) combine(t Terms) float64 {
	wd := ev.w.Defense
	if t.Defense > 0 {
		wd = ev.w.DefenseThreatened
	}
	s := ev.w.Attack*t.Attack +
		ev.w.Positional*t.Positional -
		ev.w.Risk*t.Risk +
		ev.w.Mobility*t.Mobility +
		ev.w.Info*t.Info +
		wd*t.Defense +
		t.Bonus
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// Terms 计算各分项；ok=false 表示起点不是 seat 的棋子。
func (ev *Evaluator) Terms(b *junqi.Board, seat junqi.Seat, mv junqi.Move) (Terms, bool) {
	mover, ok := b.PieceAt(mv.From)
	if !ok || mover.Owner != seat || !junqi.Exists(mv.To) {
		return Terms{}, false
	}
	target, occupied := b.PieceAt(mv.To)
	t := Terms{
		Attack:     attackEV(mover, target, occupied, mv.To),
		Positional: positional(seat, mv.To),
		Risk:       risk(b, seat, mv.To),
		Mobility:   mobility(mover, mv.To),
		Info:       info(b, seat, mv.To),
		Defense:    defense(b, seat, mv.To),
	}
	t.Bonus = ev.bonus(b, seat, mover, target, occupied, mv)
	return t, true
}

func attackEV(att, def junqi.Piece, occupied bool, to junqi.Pos) float64 {
	if !occupied || junqi.KindAt(to) == junqi.Camp {
		return 0
	}
	ap := att.Kind.Power()
	if !def.Visible {
		v := -0.08
		if ap >= 7 {
			v += 0.05
		}
		return v
	}
	switch def.Kind {
	case junqi.Flag:
		return 2.0
	case junqi.Mine:
		if att.Kind == junqi.Engineer {
			return 1.2
		}
		return -1.5
	case junqi.Bomb:
		return float64(def.Kind.Power()-ap) * 0.1
	}
	dp := def.Kind.Power()
	switch {
	case ap > dp:
		return float64(ap-dp) * 0.12
	case ap == dp:
		return -0.05
	}
	return -0.15
}

func railNeighbours(p junqi.Pos) int {
	n := 0
	for _, q := range junqi.Adjacent(p) {
		if junqi.IsRailway(q) {
			n++
		}
	}
	return n
}

func positional(seat junqi.Seat, to junqi.Pos) float64 {
	v := 0.0
	if junqi.CenterZone(to) {
		v += 1.0
	}
	if junqi.IsRailway(to) {
		v += float64(min(railNeighbours(to), 4)) * 0.15
	}
	if area := junqi.AreaOf(to); area.Valid() && area != seat {
		v += 0.3
	}
	if junqi.KindAt(to) == junqi.Camp {
		v += 0.25
	}
	return v
}

func risk(b *junqi.Board, seat junqi.Seat, to junqi.Pos) float64 {
	if junqi.KindAt(to) == junqi.Camp {
		return 0.05
	}
	r := 0.0
	for _, q := range junqi.Adjacent(to) {
		if pc, ok := b.PieceAt(q); ok && !junqi.Allied(pc.Owner, seat) {
			r += 0.4
		}
	}
	if junqi.IsRailway(to) {
		r += 0.1 * float64(railNeighbours(to))
	}
	return math.Min(r, 1)
}

func mobility(mover junqi.Piece, to junqi.Pos) float64 {
	if !mover.Kind.Movable() {
		return 0
	}
	adj := len(junqi.Adjacent(to))
	if junqi.IsRailway(to) {
		f := 0.6
		if mover.Kind == junqi.Engineer {
			f = 1
		}
		return math.Min(float64(railNeighbours(to))*f, 3) / 3
	}
	return float64(min(adj, 4)) / 4
}

func info(b *junqi.Board, seat junqi.Seat, to junqi.Pos) float64 {
	v := 0.0
	for _, q := range junqi.Adjacent(to) {
		if pc, ok := b.PieceAt(q); ok && !pc.Visible && !junqi.Allied(pc.Owner, seat) {
			v += 0.2
		}
	}
	return math.Min(v, 0.6)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func manhattan(a, b junqi.Pos) int { return abs(a.Row-b.Row) + abs(a.Col-b.Col) }

func defense(b *junqi.Board, seat junqi.Seat, to junqi.Pos) float64 {
	flag, ok := b.FindKind(seat, junqi.Flag)
	if !ok {
		return 0
	}
	threatened := false
	for _, q := range junqi.Adjacent(flag) {
		if pc, ok := b.PieceAt(q); ok && !junqi.Allied(pc.Owner, seat) {
			threatened = true
			break
		}
	}
	if !threatened {
		return 0
	}
	return float64(max(0, 3-manhattan(to, flag))) * 0.25
}

// bonus 护卫、炸弹、佯动、开局先验和反击，结果已乘权重。
func (ev *Evaluator) bonus(b *junqi.Board, seat junqi.Seat, mover, target junqi.Piece, occupied bool, mv junqi.Move) float64 {
	w := ev.w
	v := 0.0

	// 落点周围的情况，跳过起点（走完以后那里就空了）
	var ownCarrier, enemyNear, veteranEnemy bool
	for _, q := range junqi.Adjacent(mv.To) {
		if q == mv.From {
			continue
		}
		pc, ok := b.PieceAt(q)
		if !ok {
			continue
		}
		if pc.Owner == seat && pc.Kind.Power() >= carrierPower {
			ownCarrier = true
		}
		if !junqi.Allied(pc.Owner, seat) && pc.Kills >= 2 {
			veteranEnemy = true
		}
	}
	for dr := -2; dr <= 2 && !enemyNear; dr++ {
		span := 2 - abs(dr)
		for dc := -span; dc <= span; dc++ {
			p := junqi.Pos{Row: mv.To.Row + dr, Col: mv.To.Col + dc}
			if p == mv.To {
				continue
			}
			if pc, ok := b.PieceAt(p); ok && !junqi.Allied(pc.Owner, seat) {
				enemyNear = true
				break
			}
		}
	}

	switch mover.Kind {
	case junqi.Platoon, junqi.Engineer:
		if ownCarrier {
			v += w.Escort
		} else if fake, ok := ev.fakeCommander(b, seat, mover.ID); ok && isNeighbour(mv.To, fake) {
			v += w.FakeEscort
		}
	case junqi.Bomb:
		if ownCarrier {
			v += w.BombCover
		}
		if veteranEnemy {
			v += w.BombTrap
		}
	}

	if !mover.Visible && mover.Kind != junqi.Bomb && mover.Kind.Power() < carrierPower && ownCarrier && enemyNear {
		v += w.Feint
	}

	if occupied && !junqi.Allied(target.Owner, seat) {
		if !target.Visible {
			v += ev.openingPrior(mover, target, mv.To)
		}
		if ev.stats.IsKiller(seat, target.ID) {
			v += w.CounterAttack
		}
	}
	return v
}

// openingPrior 按目标在其阵地里的位置猜兵种，主动进攻过的棋子减弱先验。
func (ev *Evaluator) openingPrior(mover, target junqi.Piece, to junqi.Pos) float64 {
	if !target.Owner.Valid() || junqi.AreaOf(to) != target.Owner {
		return 0
	}
	scale := 1 / float64(1+ev.stats.Aggressive(target.ID))
	l := junqi.LocalCoords(to, target.Owner)
	switch {
	case l.Row == 1 && ev.stats.Moves(target.ID) == 0:
		return ev.w.OpeningFront * scale
	case l.BackRows():
		if mover.Kind == junqi.Engineer {
			return ev.w.OpeningBackDig * scale
		}
		return ev.w.OpeningBackMine * scale
	}
	return 0
}

// fakeCommander 走得最多（至少两步）的己方暗子，用来冒充司令。
func (ev *Evaluator) fakeCommander(b *junqi.Board, seat junqi.Seat, exclude string) (junqi.Pos, bool) {
	var best junqi.Pos
	bestMoves := 1
	found := false
	for _, sq := range b.PiecesOf(seat) {
		pc := sq.Piece
		if pc.Visible || pc.ID == "" || pc.ID == exclude {
			continue
		}
		if n := ev.stats.Moves(pc.ID); n > bestMoves {
			best, bestMoves, found = sq.Pos, n, true
		}
	}
	return best, found
}

func isNeighbour(a, b junqi.Pos) bool {
	for _, q := range junqi.Adjacent(a) {
		if q == b {
			return true
		}
	}
	return false
}
