package engine

import (
	"context"

	"github.com/rs/zerolog"

	"junqi/internal/junqi"
)

// Engine 机器人的决策入口。构造后只读，可以被多个 goroutine 同时使用，
// 每次搜索都有自己的置换表。
type Engine struct {
	weights Weights
	cfg     SearchConfig
	styles  map[junqi.Seat]Category
	topN    int
	log     zerolog.Logger
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

func WithSearchConfig(cfg SearchConfig) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithStyle 给某个座位指定根节点风格。
func WithStyle(seat junqi.Seat, c Category) Option {
	return func(e *Engine) {
		if seat.Valid() {
			e.styles[seat] = c
		}
	}
}

// WithTopN 候选池大小（ScoreAndRank 的 top_n）。
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		cfg:     DefaultSearchConfig(),
		styles:  make(map[junqi.Seat]Category),
		topN:    10,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Config() SearchConfig { return e.cfg }

func (e *Engine) Style(seat junqi.Seat) Category { return e.styles[seat] }

// Evaluator 用对局记录构造一个评估器。
func (e *Engine) Evaluator(hist []junqi.HistoryRecord) *Evaluator {
	return NewEvaluator(e.weights, NewHistoryStats(hist))
}

// ScoreAndRank 见 Evaluator.ScoreAndRank；topN<=0 时用引擎默认值。
func (e *Engine) ScoreAndRank(b *junqi.Board, seat junqi.Seat, moves []junqi.Move, hist []junqi.HistoryRecord, topN int) []ScoredMove {
	if topN <= 0 {
		topN = e.topN
	}
	return e.Evaluator(hist).ScoreAndRank(b, seat, moves, topN)
}

// Source 决策来自哪个候选池。
type Source string

const (
	SourceCounterAttack Source = "counter_attack"
	SourceRanked        Source = "ranked"
)

// Choice 机器人选出的一步。
type Choice struct {
	From    junqi.Pos    `json:"from"`
	To      junqi.Pos    `json:"to"`
	PieceID string       `json:"piece_id"`
	Source  Source       `json:"source"`
	Result  SearchResult `json:"result"`
}

func (c Choice) Move() junqi.Move { return junqi.Move{From: c.From, To: c.To} }

// CounterAttackPool seat 的合法走法里，目标是“仇人”的那些。
func CounterAttackPool(b *junqi.Board, seat junqi.Seat, legal []junqi.Move, stats *HistoryStats) []junqi.Move {
	killers := stats.KillerIDs(seat)
	if len(killers) == 0 {
		return nil
	}
	var out []junqi.Move
	for _, mv := range legal {
		if pc, ok := b.PieceAt(mv.To); ok && killers[pc.ID] {
			out = append(out, mv)
		}
	}
	return out
}

// ChooseBestMove 先在反击池里搜，没有再用 ScoreAndRank 的前 N 条按座位风格搜。
// ok=false 表示无棋可走，调用方应当 SkipTurn。
func (e *Engine) ChooseBestMove(ctx context.Context, b *junqi.Board, seat junqi.Seat, hist []junqi.HistoryRecord) (Choice, bool) {
	legal := b.LegalMoves(seat)
	if len(legal) == 0 {
		e.log.Debug().Str("seat", seat.String()).Msg("no legal move")
		return Choice{}, false
	}
	stats := NewHistoryStats(hist)

	if pool := CounterAttackPool(b, seat, legal, stats); len(pool) > 0 {
		e.log.Debug().Str("seat", seat.String()).Int("pool", len(pool)).Msg("counter attack")
		if res := e.Search(ctx, b, seat, pool, CategoryNone, stats); res.Found {
			return e.choice(b, res, SourceCounterAttack), true
		}
	}

	ranked := NewEvaluator(e.weights, stats).ScoreAndRank(b, seat, legal, e.topN)
	pool := make([]junqi.Move, len(ranked))
	for i, m := range ranked {
		pool[i] = m.Move()
	}
	e.log.Debug().Str("seat", seat.String()).Int("pool", len(pool)).Str("style", string(e.styles[seat])).Msg("search start")
	res := e.Search(ctx, b, seat, pool, e.styles[seat], stats)
	if !res.Found {
		return Choice{}, false
	}
	return e.choice(b, res, SourceRanked), true
}

func (e *Engine) choice(b *junqi.Board, res SearchResult, src Source) Choice {
	pc, _ := b.PieceAt(res.Move.From)
	return Choice{
		From:    res.Move.From,
		To:      res.Move.To,
		PieceID: pc.ID,
		Source:  src,
		Result:  res,
	}
}
