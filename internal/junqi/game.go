package junqi

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

type Phase int8

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhaseFinished
)

var phaseNames = [...]string{"setup", "playing", "finished"}

func (p Phase) String() string {
	if p < PhaseSetup || p > PhaseFinished {
		return ""
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// 逆时针轮转：南→东→北→西
var turnOrder = [NumSeats]Seat{South, East, North, West}

// NextInTurnOrder 逆时针的下一位。
func NextInTurnOrder(s Seat) Seat {
	for i, t := range turnOrder {
		if t == s {
			return turnOrder[(i+1)%NumSeats]
		}
	}
	return South
}

// Game 四国军棋状态机。不是并发安全的，调用方自己加锁。
type Game struct {
	board      *Board
	phase      Phase
	current    Seat
	eliminated [NumSeats]bool
	history    []HistoryRecord
	testing    bool
	// 开局时棋盘上的军旗数，用于“只剩一面军旗”判负
	flagsAtStart int

	rng        *rand.Rand
	autoLayout bool
	// 开局阵容：棋子编号 -> 兵种，阵亡后也能查到
	lineup map[string]PieceKind
}

type Option func(*Game)

// WithSeed 固定随机数种子（先手与自动布阵）。
func WithSeed(seed uint64) Option {
	return func(g *Game) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithoutAutoLayout 新局不自动摆名阵，四方都是空的。
func WithoutAutoLayout() Option {
	return func(g *Game) {
		g.autoLayout = false
	}
}

// WithTestingMode 测试模式：任何一方的棋子都能操作，布阵时全部明子。
func WithTestingMode() Option {
	return func(g *Game) {
		g.testing = true
	}
}

// NewGame 新建对局：布阵阶段，默认四方随机摆一套名阵。
func NewGame(opts ...Option) *Game {
	g := &Game{autoLayout: true}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	g.resetBoard()
	return g
}

// NewGameFromBoard starts a game directly in the playing phase from an arbitrary position.
// Pieces without an id receive one. Used for analysis, puzzles and tests.
func NewGameFromBoard(b *Board, first Seat, opts ...Option) *Game {
	g := &Game{autoLayout: true}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	g.board = b.Clone()
	g.assignIDs()
	g.phase = PhasePlaying
	g.current = first
	g.flagsAtStart = g.board.flagCount()
	for _, s := range AllSeats {
		g.eliminated[s] = g.board.Count(s) == 0
	}
	if !first.Valid() || g.eliminated[first] {
		g.nextTurn()
	}
	return g
}

func (g *Game) resetBoard() {
	g.board = NewBoard()
	g.phase = PhaseSetup
	g.current = South
	g.eliminated = [NumSeats]bool{}
	g.history = nil
	g.flagsAtStart = 0
	g.lineup = nil
	if g.autoLayout {
		for _, s := range AllSeats {
			g.AutoLayout(s)
		}
	}
}

// Board 返回棋盘副本。
func (g *Game) Board() *Board { return g.board.Clone() }

func (g *Game) Phase() Phase   { return g.phase }
func (g *Game) Current() Seat  { return g.current }
func (g *Game) Testing() bool  { return g.testing }
func (g *Game) Hash() uint64   { return g.board.Hash() }
func (g *Game) TurnCount() int { return len(g.history) }

func (g *Game) Eliminated(s Seat) bool { return s.Valid() && g.eliminated[s] }

// EliminatedSeats 按座位编号列出。
func (g *Game) EliminatedSeats() []Seat {
	out := []Seat{}
	for _, s := range AllSeats {
		if g.eliminated[s] {
			out = append(out, s)
		}
	}
	return out
}

// History 返回历史副本。
func (g *Game) History() []HistoryRecord {
	out := make([]HistoryRecord, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Game) CanMove(from, to Pos) bool   { return g.board.CanMove(from, to) }
func (g *Game) LegalMoves(s Seat) []Move    { return g.board.LegalMoves(s) }
func (g *Game) PieceAt(p Pos) (Piece, bool) { return g.board.PieceAt(p) }

// SetTestingMode 打开后可以操作任何一方。
func (g *Game) SetTestingMode(on bool) { g.testing = on }

// SetMark 记牌标签，任何阶段都可以。
func (g *Game) SetMark(p Pos, mark string) bool { return g.board.SetMark(p, mark) }

// CanPlace 布阵规则：本方阵地、非行营；炸弹不上第一排；地雷只在后两排；军旗只进大本营。
// 另一个大本营可以放普通棋子（25 个棋子恰好填满 25 个可布阵格）。
func CanPlace(b *Board, p Pos, kind PieceKind, seat Seat) bool {
	if !Exists(p) || !b.Empty(p) || !kind.Valid() {
		return false
	}
	return canStand(p, kind, seat, true)
}

func canStand(p Pos, kind PieceKind, seat Seat, hqOpen bool) bool {
	if AreaOf(p) != seat {
		return false
	}
	ck := KindAt(p)
	if ck == Camp {
		return false
	}
	l := LocalCoords(p, seat)
	switch kind {
	case Bomb:
		if l.Row == 1 {
			return false
		}
	case Mine:
		if !l.BackRows() {
			return false
		}
	case Flag:
		return ck == Headquarters
	}
	if ck == Headquarters && !hqOpen {
		return false
	}
	return true
}

// PlacePiece 布阵阶段放一个棋子，不能超过该兵种的编制数。
func (g *Game) PlacePiece(p Pos, kind PieceKind, seat Seat) bool {
	if g.phase != PhaseSetup || !seat.Valid() {
		return false
	}
	if !CanPlace(g.board, p, kind, seat) {
		return false
	}
	if g.board.rosterCounts(seat)[kind] >= Roster[kind] {
		return false
	}
	return g.board.Place(p, Piece{Kind: kind, Owner: seat, Visible: g.testing})
}

// ApplyFormation 用名阵重新布置一方。要么全部成功，要么棋盘不变。
func (g *Game) ApplyFormation(seat Seat, name string) bool {
	if g.phase != PhaseSetup || !seat.Valid() {
		return false
	}
	layout, err := FormationLayout(name)
	if err != nil {
		return false
	}
	nb := g.board.Clone()
	nb.ClearSeat(seat)
	for r := 0; r < 6; r++ {
		for c := 0; c < 5; c++ {
			k := layout[r][c]
			if k == NoKind {
				continue
			}
			p := GlobalFromLocal(LocalPos{Row: r + 1, Col: c + 1}, seat)
			if !CanPlace(nb, p, k, seat) {
				return false
			}
			if !nb.Place(p, Piece{Kind: k, Owner: seat, Visible: g.testing}) {
				return false
			}
		}
	}
	g.board = nb
	return true
}

// AutoLayout 随机挑一套名阵。
func (g *Game) AutoLayout(seat Seat) bool {
	if g.phase != PhaseSetup {
		return false
	}
	names := Formations()
	if len(names) == 0 {
		return false
	}
	return g.ApplyFormation(seat, names[g.rng.Intn(len(names))])
}

// ClearSeat 布阵阶段清空一方。
func (g *Game) ClearSeat(seat Seat) bool {
	if g.phase != PhaseSetup || !seat.Valid() {
		return false
	}
	g.board.ClearSeat(seat)
	return true
}

// SwapSetupPositions 布阵阶段在同一阵地内移动或交换两个棋子。布阵阶段的当前一方是南方。
// 普通棋子只能以交换的方式进入已有普通棋子的大本营。
func (g *Game) SwapSetupPositions(from, to Pos) bool {
	if g.phase != PhaseSetup || !Exists(from) || !Exists(to) || from == to {
		return false
	}
	a := g.board.at(from)
	if a == nil || AreaOf(to) != a.Owner {
		return false
	}
	// 只能动当前一方的棋子，测试模式除外
	if !g.testing && a.Owner != g.current {
		return false
	}
	bp := g.board.at(to)
	if bp == nil {
		if !canStand(to, a.Kind, a.Owner, KindAt(from) == Headquarters) {
			return false
		}
		g.board.relocate(from, to)
		return true
	}
	if bp.Owner != a.Owner || AreaOf(from) != bp.Owner {
		return false
	}
	// 大本营里的普通棋子数量不能增加
	aOK := canStand(to, a.Kind, a.Owner, bp.Kind != Flag || KindAt(from) == Headquarters)
	bOK := canStand(from, bp.Kind, bp.Owner, a.Kind != Flag || KindAt(to) == Headquarters)
	if !aOK || !bOK {
		return false
	}
	fs, ts := from.index(), to.index()
	ka, kb := g.board.Squares[fs], g.board.Squares[ts]
	g.board.hash ^= pieceHashKey(a, fs) ^ pieceHashKey(bp, ts)
	g.board.Squares[fs], g.board.Squares[ts] = kb, ka
	g.board.hash ^= pieceHashKey(a, ts) ^ pieceHashKey(bp, fs)
	return true
}

// SetupComplete reports whether seat's placed pieces equal the standard roster.
func (g *Game) SetupComplete(seat Seat) bool { return g.board.SetupComplete(seat) }

// assignIDs 给没有编号的棋子按扫描顺序编号，跳过棋盘上已经存在的编号。
func (g *Game) assignIDs() {
	var next [NumSeats]int
	g.lineup = make(map[string]PieceKind, MaxPieces)
	for sq := 0; sq < NumSquares; sq++ {
		if pc := g.board.slot(sq); pc != nil && pc.ID != "" {
			g.lineup[pc.ID] = pc.Kind
		}
	}
	for sq := 0; sq < NumSquares; sq++ {
		pc := g.board.slot(sq)
		if pc == nil || pc.ID != "" {
			continue
		}
		var id string
		for {
			next[pc.Owner]++
			id = fmt.Sprintf("%s_%03d", pc.Owner, next[pc.Owner])
			if _, taken := g.lineup[id]; !taken {
				break
			}
		}
		kind := pc.Kind
		g.board.update(sq, func(pc *Piece) { pc.ID = id })
		g.lineup[id] = kind
	}
}

// KindOf 开局时该编号棋子的兵种。只应该对观察者自己的棋子调用，否则等于偷看。
func (g *Game) KindOf(id string) (PieceKind, bool) {
	k, ok := g.lineup[id]
	return k, ok
}

// StartGame 四方布阵完成后开局，先手随机。
func (g *Game) StartGame() bool {
	if g.phase != PhaseSetup {
		return false
	}
	for _, s := range AllSeats {
		if !g.board.SetupComplete(s) {
			return false
		}
	}
	g.assignIDs()
	g.phase = PhasePlaying
	g.current = AllSeats[g.rng.Intn(NumSeats)]
	g.testing = false
	g.eliminated = [NumSeats]bool{}
	g.history = nil
	g.flagsAtStart = g.board.flagCount()
	return true
}

// gameOver 一条轴两方都没有棋子，或者只剩一面军旗。
func (g *Game) gameOver() bool {
	for _, a := range []Axis{AxisSouthNorth, AxisWestEast} {
		dead := true
		for _, s := range a.Seats() {
			if !g.eliminated[s] && g.board.Count(s) > 0 {
				dead = false
			}
		}
		if dead {
			return true
		}
	}
	return g.flagsAtStart >= 2 && g.board.flagCount() <= 1
}

func (g *Game) finish() {
	g.phase = PhaseFinished
	g.board.RevealAll()
}

func (g *Game) eliminate(s Seat) {
	g.board.ClearSeat(s)
	g.eliminated[s] = true
}

// MovePiece 当前方走一步（测试模式下不限制哪一方）。
func (g *Game) MovePiece(from, to Pos) bool {
	if g.phase != PhasePlaying {
		return false
	}
	pc := g.board.at(from)
	if pc == nil {
		return false
	}
	if !g.testing && pc.Owner != g.current {
		return false
	}
	res, ok := g.board.MovePiece(from, to)
	if !ok {
		return false
	}
	g.history = append(g.history, newRecord(len(g.history)+1, from, to, res))

	// 扛旗：军旗被吃掉，旗主出局
	if res.HadDefender && res.Defender.Kind == Flag && res.Outcome == OutcomeAttackerWins {
		g.eliminate(res.Defender.Owner)
	}

	if g.gameOver() {
		g.finish()
		return true
	}
	g.syncElimination()
	g.nextTurn()
	return true
}

// syncElimination 没有棋子的一方记为出局。
func (g *Game) syncElimination() {
	for _, s := range AllSeats {
		if g.board.Count(s) == 0 {
			g.eliminated[s] = true
		}
	}
}

// nextTurn 先清掉无子可动的一方，再按逆时针找下一位。
func (g *Game) nextTurn() {
	for _, s := range AllSeats {
		if g.eliminated[s] {
			continue
		}
		if g.board.Count(s) > 0 && !g.board.HasLegalMove(s) {
			g.eliminate(s)
		}
	}
	g.syncElimination()
	if g.gameOver() {
		g.finish()
		return
	}

	n := 0
	for _, s := range AllSeats {
		if g.eliminated[s] {
			n++
		}
	}
	if n >= NumSeats-1 {
		g.finish()
		return
	}
	s := g.current
	for i := 0; i < NumSeats; i++ {
		s = NextInTurnOrder(s)
		if !g.eliminated[s] {
			g.current = s
			return
		}
	}
	g.finish()
}

// SkipTurn 当前方跳过。
func (g *Game) SkipTurn() bool {
	if g.phase != PhasePlaying {
		return false
	}
	g.nextTurn()
	return true
}

// Surrender 当前方投降：清空全部棋子（含军旗）。
func (g *Game) Surrender() bool {
	if g.phase != PhasePlaying {
		return false
	}
	g.eliminate(g.current)
	if g.gameOver() {
		g.finish()
		return true
	}
	g.nextTurn()
	return true
}

// Reset 回到布阵阶段，重新自动布阵。
func (g *Game) Reset() {
	g.resetBoard()
}

// RevealAll 全部翻开。
func (g *Game) RevealAll() { g.board.RevealAll() }

// Winner 终局时返回获胜的同盟轴。
func (g *Game) Winner() (Axis, bool) {
	if g.phase != PhaseFinished {
		return 0, false
	}
	alive := [2]bool{}
	for _, s := range AllSeats {
		if !g.eliminated[s] && g.board.Count(s) > 0 {
			alive[s.Axis()] = true
		}
	}
	switch {
	case alive[AxisSouthNorth] && !alive[AxisWestEast]:
		return AxisSouthNorth, true
	case alive[AxisWestEast] && !alive[AxisSouthNorth]:
		return AxisWestEast, true
	}
	return 0, false
}
