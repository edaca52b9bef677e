// Package game owns the live sessions of the server: one junqi.Game per session, the bot
// driver that plays the configured seats, perspective refreshes and archiving.
package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"junqi/internal/engine"
	"junqi/internal/junqi"
	"junqi/internal/perspective"
	"junqi/internal/server/store"
)

var (
	ErrNotFound   = errors.New("game not found")
	ErrIllegal    = errors.New("illegal action")
	ErrNotBotTurn = errors.New("not a bot turn")
	// ErrStale 机器人思考期间局面被别人改了，这一步作废
	ErrStale = errors.New("game changed during search")
)

// Notifier 状态变化的推送出口，ws.Hub 实现了它。
type Notifier interface {
	Broadcast(room, event string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, string, any) {}

// Session 一局对局。game 只在持有 mu 时访问。
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	game      *junqi.Game
	views     *perspective.Manager
	version   int
	updatedAt time.Time
	startedAt time.Time
	archived  bool
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	engine  *engine.Engine
	bots    []junqi.Seat
	archive store.Store
	notify  Notifier
	log     zerolog.Logger
	seed    uint64
	created atomic.Uint64
	metrics *metrics
}

type Option func(*Manager)

func WithEngine(e *engine.Engine) Option {
	return func(m *Manager) { m.engine = e }
}

// WithBots 由机器人坐的座位，同时也是维护视角的座位。
func WithBots(seats ...junqi.Seat) Option {
	return func(m *Manager) { m.bots = append([]junqi.Seat(nil), seats...) }
}

func WithArchive(s store.Store) Option {
	return func(m *Manager) { m.archive = s }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notify = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithSeed 固定种子：第 n 局用 seed+n，整批对局可复现。0 表示按时间。
func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.seed = seed }
}

func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		sessions: make(map[string]*Session),
		bots:     perspective.DefaultSeats,
		notify:   nopNotifier{},
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.engine == nil {
		m.engine = engine.New(engine.WithLogger(m.log))
	}
	met, err := newMetrics()
	if err != nil {
		return nil, err
	}
	m.metrics = met
	return m, nil
}

func (m *Manager) Engine() *engine.Engine { return m.engine }

// Bots 返回机器人座位。
func (m *Manager) Bots() []junqi.Seat { return append([]junqi.Seat(nil), m.bots...) }

func (m *Manager) IsBot(seat junqi.Seat) bool {
	for _, s := range m.bots {
		if s == seat {
			return true
		}
	}
	return false
}

// Create starts a new session in the setup phase with every seat auto laid out.
func (m *Manager) Create() (string, junqi.PublicState) {
	var opts []junqi.Option
	n := m.created.Add(1)
	if m.seed != 0 {
		opts = append(opts, junqi.WithSeed(m.seed+n))
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		game:      junqi.NewGame(opts...),
		views:     perspective.NewManager(m.bots...),
		updatedAt: now,
	}
	s.views.Refresh(s.game)
	state := s.game.PublicState(junqi.NoSeat)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.log.Info().Str("game", s.ID).Msg("game created")
	return s.ID, state
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove 丢弃一局（不存档）。
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len 当前会话数。
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// State returns the public state as seen by viewer (NoSeat for spectators).
func (m *Manager) State(id string, viewer junqi.Seat) (junqi.PublicState, error) {
	s, err := m.get(id)
	if err != nil {
		return junqi.PublicState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.PublicState(viewer), nil
}

// mutate 在会话锁内执行 fn，成功后刷新视角、必要时存档，解锁后推送。
func (m *Manager) mutate(ctx context.Context, id, event string, fn func(g *junqi.Game) bool) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if !fn(s.game) {
		s.mu.Unlock()
		return ErrIllegal
	}
	state := m.afterChange(ctx, s)
	s.mu.Unlock()
	m.notify.Broadcast(id, event, state)
	return nil
}

// afterChange 调用方持有 s.mu。
func (m *Manager) afterChange(ctx context.Context, s *Session) junqi.PublicState {
	now := time.Now()
	s.version++
	s.updatedAt = now
	s.views.Refresh(s.game)
	switch s.game.Phase() {
	case junqi.PhaseSetup:
		s.startedAt = time.Time{}
		s.archived = false
	case junqi.PhasePlaying:
		if s.startedAt.IsZero() {
			s.startedAt = now
		}
	case junqi.PhaseFinished:
		if !s.archived {
			s.archived = true
			m.metrics.finished.Add(ctx, 1)
			m.save(ctx, s, now)
		}
	}
	return s.game.PublicState(junqi.NoSeat)
}

func (m *Manager) save(ctx context.Context, s *Session, finished time.Time) {
	logger := m.log.With().Str("game", s.ID).Logger()
	winner := ""
	if a, ok := s.game.Winner(); ok {
		winner = a.String()
	}
	logger.Info().Str("winner", winner).Int("turns", s.game.TurnCount()).Msg("game finished")
	if m.archive == nil {
		return
	}
	rec := store.Record{
		SessionID:  s.ID,
		Winner:     winner,
		Turns:      s.game.TurnCount(),
		History:    s.game.History(),
		StartedAt:  s.startedAt,
		FinishedAt: finished,
	}
	if _, err := m.archive.Save(ctx, rec); err != nil {
		logger.Error().Err(err).Msg("archiving finished game")
	}
}

func (m *Manager) Start(ctx context.Context, id string) error {
	return m.mutate(ctx, id, "started", func(g *junqi.Game) bool { return g.StartGame() })
}

func (m *Manager) Move(ctx context.Context, id string, from, to junqi.Pos) error {
	err := m.mutate(ctx, id, "moved", func(g *junqi.Game) bool { return g.MovePiece(from, to) })
	if err == nil {
		m.metrics.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "human")))
	}
	return err
}

func (m *Manager) Skip(ctx context.Context, id string) error {
	return m.mutate(ctx, id, "skipped", func(g *junqi.Game) bool { return g.SkipTurn() })
}

func (m *Manager) Surrender(ctx context.Context, id string) error {
	return m.mutate(ctx, id, "surrendered", func(g *junqi.Game) bool { return g.Surrender() })
}

func (m *Manager) Reset(ctx context.Context, id string) error {
	return m.mutate(ctx, id, "reset", func(g *junqi.Game) bool {
		g.Reset()
		return true
	})
}

// ApplyFormation 布阵阶段给某一方换一套名阵。
func (m *Manager) ApplyFormation(ctx context.Context, id string, seat junqi.Seat, name string) error {
	return m.mutate(ctx, id, "formation", func(g *junqi.Game) bool {
		return g.Phase() == junqi.PhaseSetup && g.ApplyFormation(seat, name)
	})
}

func (m *Manager) Swap(ctx context.Context, id string, from, to junqi.Pos) error {
	return m.mutate(ctx, id, "swapped", func(g *junqi.Game) bool { return g.SwapSetupPositions(from, to) })
}

// Mark 给棋子贴一个备注。
func (m *Manager) Mark(ctx context.Context, id string, p junqi.Pos, mark string) error {
	return m.mutate(ctx, id, "marked", func(g *junqi.Game) bool { return g.SetMark(p, mark) })
}

// LegalMoves lists seat's legal moves; NoSeat means the seat to act.
func (m *Manager) LegalMoves(id string, seat junqi.Seat) (junqi.Seat, []junqi.Move, error) {
	s, err := m.get(id)
	if err != nil {
		return junqi.NoSeat, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !seat.Valid() {
		seat = s.game.Current()
	}
	if s.game.Phase() != junqi.PhasePlaying {
		return seat, []junqi.Move{}, nil
	}
	return seat, s.game.LegalMoves(seat), nil
}

// ScoredMoves ranks seat's legal moves with public information only.
func (m *Manager) ScoredMoves(id string, seat junqi.Seat, topN int) (junqi.Seat, []engine.ScoredMove, error) {
	s, err := m.get(id)
	if err != nil {
		return junqi.NoSeat, nil, err
	}
	s.mu.Lock()
	if !seat.Valid() {
		seat = s.game.Current()
	}
	b, hist := s.game.Board(), s.game.History()
	playing := s.game.Phase() == junqi.PhasePlaying
	s.mu.Unlock()
	if !playing {
		return seat, []engine.ScoredMove{}, nil
	}
	return seat, m.engine.ScoreAndRank(b, seat, b.LegalMoves(seat), hist, topN), nil
}

// Perspective returns the fog-of-war view of a bot seat.
func (m *Manager) Perspective(id string, seat junqi.Seat) (perspective.Payload, []perspective.Clue, error) {
	s, err := m.get(id)
	if err != nil {
		return perspective.Payload{}, nil, err
	}
	if !m.IsBot(seat) {
		return perspective.Payload{}, nil, ErrIllegal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.views.Payload(seat)
	if !ok {
		return perspective.Payload{}, nil, ErrIllegal
	}
	clues, _ := s.views.LocationClues(seat)
	return p, clues, nil
}

// BotTurn 机器人走的一步；Skipped 表示无棋可走、跳过了这一轮。
type BotTurn struct {
	Seat    junqi.Seat    `json:"seat"`
	Skipped bool          `json:"skipped"`
	Choice  engine.Choice `json:"choice"`
}

// BotMove lets the engine play the seat to act. The search runs on a copy outside the
// session lock; its move is applied only if nobody changed the game meanwhile.
func (m *Manager) BotMove(ctx context.Context, id string) (BotTurn, error) {
	s, err := m.get(id)
	if err != nil {
		return BotTurn{}, err
	}
	s.mu.Lock()
	if s.game.Phase() != junqi.PhasePlaying {
		s.mu.Unlock()
		return BotTurn{}, ErrIllegal
	}
	seat := s.game.Current()
	if !m.IsBot(seat) {
		s.mu.Unlock()
		return BotTurn{}, ErrNotBotTurn
	}
	b, hist, version := s.game.Board(), s.game.History(), s.version
	s.mu.Unlock()

	start := time.Now()
	choice, found := m.engine.ChooseBestMove(ctx, b, seat, hist)
	seatAttr := metric.WithAttributes(attribute.String("seat", seat.String()))
	m.metrics.searches.Add(ctx, 1, seatAttr)
	m.metrics.nodes.Add(ctx, choice.Result.Nodes, seatAttr)
	m.metrics.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, seatAttr)

	s.mu.Lock()
	if s.version != version || s.game.Current() != seat || s.game.Phase() != junqi.PhasePlaying {
		s.mu.Unlock()
		return BotTurn{}, ErrStale
	}
	turn := BotTurn{Seat: seat, Skipped: !found, Choice: choice}
	event := "bot_moved"
	if found {
		if !s.game.MovePiece(choice.From, choice.To) {
			s.mu.Unlock()
			m.log.Error().Str("game", id).Str("seat", seat.String()).Stringer("move", choice.Move()).Msg("engine chose an illegal move")
			return BotTurn{}, ErrIllegal
		}
		m.metrics.moves.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "bot")))
	} else {
		s.game.SkipTurn()
		event = "bot_skipped"
	}
	state := m.afterChange(ctx, s)
	s.mu.Unlock()

	m.log.Debug().Str("game", id).Str("seat", seat.String()).Bool("skipped", !found).
		Str("source", string(choice.Source)).Int64("nodes", choice.Result.Nodes).
		Dur("took", time.Since(start)).Msg("bot turn")
	m.notify.Broadcast(id, event, state)
	return turn, nil
}

// PlayBots keeps letting bots move until a human seat is to act, the game ends or
// limit turns were played. It returns the bot turns played.
func (m *Manager) PlayBots(ctx context.Context, id string, limit int) ([]BotTurn, error) {
	var turns []BotTurn
	for limit <= 0 || len(turns) < limit {
		if err := ctx.Err(); err != nil {
			return turns, err
		}
		t, err := m.BotMove(ctx, id)
		switch {
		case errors.Is(err, ErrNotBotTurn), errors.Is(err, ErrIllegal) && len(turns) > 0:
			return turns, nil
		case err != nil:
			return turns, err
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Archived lists finished games from the archive, newest first.
func (m *Manager) Archived(ctx context.Context, limit int) ([]store.Record, error) {
	if m.archive == nil {
		return []store.Record{}, nil
	}
	return m.archive.List(ctx, limit)
}

func (m *Manager) ArchivedGame(ctx context.Context, id string) (store.Record, error) {
	if m.archive == nil {
		return store.Record{}, store.ErrNotFound
	}
	return m.archive.Get(ctx, id)
}
