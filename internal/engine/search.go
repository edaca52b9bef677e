package engine

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"junqi/internal/junqi"
)

// 一个足够大的值，当成正负无穷
const scoreInf = 1e9

// SearchConfig 束搜索 + alpha-beta 的参数。
type SearchConfig struct {
	Depth         int           `mapstructure:"depth" json:"depth"`
	BeamWidth     int           `mapstructure:"beamWidth" json:"beamWidth"`
	Discount      float64       `mapstructure:"discount" json:"discount"`
	TimeLimit     time.Duration `mapstructure:"-" json:"timeLimit"` // 0 表示不限制
	AlphaBeta     bool          `mapstructure:"alphaBeta" json:"alphaBeta"`
	StyleFirstPly bool          `mapstructure:"styleFirstPly" json:"styleFirstPly"`
	Workers       int           `mapstructure:"workers" json:"workers"` // >1 时根节点并行
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Depth:         3,
		BeamWidth:     8,
		Discount:      0.95,
		TimeLimit:     5 * time.Second,
		AlphaBeta:     true,
		StyleFirstPly: true,
		Workers:       1,
	}
}

func (c SearchConfig) normalized() SearchConfig {
	d := DefaultSearchConfig()
	if c.Depth <= 0 {
		c.Depth = d.Depth
	}
	if c.BeamWidth <= 0 {
		c.BeamWidth = d.BeamWidth
	}
	if c.Discount <= 0 {
		c.Discount = d.Discount
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// SearchResult 搜索结果。Found=false 表示没有可走的棋，调用方应当跳过这一轮。
type SearchResult struct {
	Move     junqi.Move    `json:"move"`
	Found    bool          `json:"found"`
	Score    float64       `json:"score"`
	Depth    int           `json:"depth"`
	Nodes    int64         `json:"nodes"`
	TimeUsed time.Duration `json:"timeUsed"`
	// Cutoff 搜索因超时或取消提前收尾
	Cutoff bool `json:"cutoff"`
}

type searcher struct {
	ctx      context.Context
	ev       *Evaluator
	cfg      SearchConfig
	root     junqi.Seat
	deadline time.Time
	tt       map[ttKey]ttEntry
	nodes    int64
	cutoff   bool

	pool  map[junqi.Move]bool
	style Category
}

func (s *searcher) fork() *searcher {
	return &searcher{
		ctx:      s.ctx,
		ev:       s.ev,
		cfg:      s.cfg,
		root:     s.root,
		deadline: s.deadline,
		tt:       make(map[ttKey]ttEntry, 1<<14),
	}
}

func (s *searcher) expired() bool {
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return true
	}
	return s.ctx.Err() != nil
}

// evalState 己方同盟最好的一步减去对方同盟最好的一步，没有走法的一边记 0。
func (s *searcher) evalState(b *junqi.Board) float64 {
	allyBest, enemyBest := math.Inf(-1), math.Inf(-1)
	for _, seat := range junqi.AllSeats {
		ally := junqi.Allied(seat, s.root)
		for _, mv := range b.LegalMoves(seat) {
			v := s.ev.Score(b, seat, mv)
			if ally && v > allyBest {
				allyBest = v
			} else if !ally && v > enemyBest {
				enemyBest = v
			}
		}
	}
	if math.IsInf(allyBest, -1) {
		allyBest = 0
	}
	if math.IsInf(enemyBest, -1) {
		enemyBest = 0
	}
	return allyBest - enemyBest
}

// nextPlayer 按行棋顺序找下一个还有棋可走的座位，都没有就直接轮转。
func nextPlayer(b *junqi.Board, cur junqi.Seat) junqi.Seat {
	s := cur
	for i := 0; i < junqi.NumSeats-1; i++ {
		s = junqi.NextInTurnOrder(s)
		if b.HasLegalMove(s) {
			return s
		}
	}
	return junqi.NextInTurnOrder(cur)
}

type child struct {
	mv  junqi.Move
	now float64 // 走子前的单步评分
}

// expand 生成一个节点要展开的子节点：根节点先按候选池过滤，再按风格过滤（有匹配才过滤），
// 然后按单步分排序（极大层降序，极小层升序）并截断到束宽。
func (s *searcher) expand(b *junqi.Board, player junqi.Seat, root, maximizing bool) []child {
	moves := b.LegalMoves(player)
	if root {
		kept := moves[:0]
		for _, mv := range moves {
			if s.pool[mv] {
				kept = append(kept, mv)
			}
		}
		moves = kept
		if len(moves) > 0 && s.style != CategoryNone && s.cfg.StyleFirstPly {
			var styled []junqi.Move
			var exposed map[junqi.Pos]bool
			for _, mv := range moves {
				if exposed == nil {
					exposed = exposedHidden(b, player)
				}
				if detectSignals(b, player, mv, exposed).Category() == s.style {
					styled = append(styled, mv)
				}
			}
			if len(styled) > 0 {
				moves = styled
			}
		}
	}
	if len(moves) == 0 {
		return nil
	}

	children := make([]child, len(moves))
	for i, mv := range moves {
		children[i] = child{mv: mv, now: s.ev.Score(b, player, mv)}
	}
	sort.SliceStable(children, func(i, j int) bool {
		if maximizing {
			return children[i].now > children[j].now
		}
		return children[i].now < children[j].now
	})
	if len(children) > s.cfg.BeamWidth {
		children = children[:s.cfg.BeamWidth]
	}
	return children
}

// value 一个子节点的回传值：本步得分 + 折扣后的后续价值。
func (s *searcher) value(b *junqi.Board, player junqi.Seat, depth int, c child, maximizing bool, alpha, beta float64) float64 {
	next := b.Clone()
	next.MovePiece(c.mv.From, c.mv.To)
	np := nextPlayer(next, player)
	sub, _ := s.recurse(next, np, depth-1, alpha, beta)
	if maximizing {
		return c.now + s.cfg.Discount*sub
	}
	return -c.now + s.cfg.Discount*sub
}

// recurse 团队极大极小：与根座位同盟的一方取极大，对方取极小。
// 只有根节点（depth == cfg.Depth）返回着法。
func (s *searcher) recurse(b *junqi.Board, player junqi.Seat, depth int, alpha, beta float64) (float64, *junqi.Move) {
	s.nodes++
	root := depth == s.cfg.Depth
	if !root && s.expired() {
		// 超时：返回当前静态评估，保证能退出
		s.cutoff = true
		return s.evalState(b), nil
	}
	if depth <= 0 {
		return s.evalState(b), nil
	}

	key := ttKey{Hash: b.Hash(), Seat: player, Depth: depth}
	if v, ok := s.probeTT(key); ok {
		return v, nil
	}

	maximizing := junqi.Allied(player, s.root)
	children := s.expand(b, player, root, maximizing)
	if len(children) == 0 {
		v := s.evalState(b)
		s.storeTT(key, v)
		return v, nil
	}

	best := scoreInf
	if maximizing {
		best = -scoreInf
	}
	var bestMove *junqi.Move
	for i := range children {
		c := children[i]
		v := s.value(b, player, depth, c, maximizing, alpha, beta)
		if (maximizing && v > best) || (!maximizing && v < best) {
			best = v
			if root {
				mv := c.mv
				bestMove = &mv
			}
		}
		if maximizing {
			alpha = math.Max(alpha, best)
		} else {
			beta = math.Min(beta, best)
		}
		if s.cfg.AlphaBeta && beta <= alpha {
			break
		}
	}
	s.storeTT(key, best)
	return best, bestMove
}

// searchParallel 根节点的子节点分给多个 worker，每个 worker 自带置换表，窗口不共享。
func (s *searcher) searchParallel(b *junqi.Board) (float64, *junqi.Move, error) {
	s.nodes++
	children := s.expand(b, s.root, true, true)
	if len(children) == 0 {
		return s.evalState(b), nil, nil
	}

	scores := make([]float64, len(children))
	var cut atomic.Bool
	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range children {
		i := i
		g.Go(func() error {
			local := s.fork()
			local.ctx = ctx
			scores[i] = local.value(b, s.root, s.cfg.Depth, children[i], true, -scoreInf, scoreInf)
			atomic.AddInt64(&s.nodes, local.nodes)
			if local.cutoff {
				cut.Store(true)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}
	s.cutoff = s.cutoff || cut.Load()

	bi := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[bi] {
			bi = i
		}
	}
	mv := children[bi].mv
	return scores[bi], &mv, nil
}

// Search 从 seat 出发做束宽受限的团队 alpha-beta，根节点只考虑 pool 里的走法。
// pool 为空或其中没有合法走法时 Found=false。
func (e *Engine) Search(ctx context.Context, b *junqi.Board, seat junqi.Seat, pool []junqi.Move, style Category, stats *HistoryStats) SearchResult {
	start := time.Now()
	cfg := e.cfg.normalized()
	s := &searcher{
		ctx:   ctx,
		ev:    NewEvaluator(e.weights, stats),
		cfg:   cfg,
		root:  seat,
		tt:    make(map[ttKey]ttEntry, 1<<16),
		pool:  make(map[junqi.Move]bool, len(pool)),
		style: style,
	}
	if cfg.TimeLimit > 0 {
		s.deadline = start.Add(cfg.TimeLimit)
	}
	for _, mv := range pool {
		s.pool[mv] = true
	}
	if len(s.pool) == 0 || !seat.Valid() {
		return SearchResult{TimeUsed: time.Since(start)}
	}

	var (
		score float64
		mv    *junqi.Move
	)
	if cfg.Workers > 1 {
		var err error
		score, mv, err = s.searchParallel(b)
		if err != nil {
			s.cutoff = true
		}
	} else {
		score, mv = s.recurse(b, seat, cfg.Depth, -scoreInf, scoreInf)
	}

	res := SearchResult{
		Score:    score,
		Depth:    cfg.Depth,
		Nodes:    atomic.LoadInt64(&s.nodes),
		TimeUsed: time.Since(start),
		Cutoff:   s.cutoff || ctx.Err() != nil,
	}
	if mv != nil {
		res.Move = *mv
		res.Found = true
	}
	e.log.Debug().
		Str("seat", seat.String()).
		Int("pool", len(pool)).
		Str("style", string(style)).
		Bool("found", res.Found).
		Int64("nodes", res.Nodes).
		Dur("took", res.TimeUsed).
		Msg("search finished")
	return res
}
