package engine

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junqi/internal/junqi"
)

// 南方连长站在西方军旗门口，军旗已经亮明。
func flagInReach(t *testing.T) (*junqi.Board, junqi.Move) {
	t.Helper()
	b := junqi.NewBoard()
	flag := local(junqi.West, 6, 2)
	from := local(junqi.West, 5, 2)
	put(t, b, flag, junqi.Piece{Kind: junqi.Flag, Owner: junqi.West, Visible: true, ID: "west_025"})
	put(t, b, from, junqi.Piece{Kind: junqi.Company, Owner: junqi.South, ID: "south_010"})
	put(t, b, local(junqi.West, 3, 2), junqi.Piece{Kind: junqi.Company, Owner: junqi.West, ID: "west_011"})
	put(t, b, local(junqi.East, 3, 2), junqi.Piece{Kind: junqi.Company, Owner: junqi.East, ID: "east_011"})
	return b, junqi.Move{From: from, To: flag}
}

func quickEngine(opts ...Option) *Engine {
	cfg := DefaultSearchConfig()
	cfg.Depth = 1
	cfg.TimeLimit = 10 * time.Second
	return New(append([]Option{WithSearchConfig(cfg)}, opts...)...)
}

func TestSearchEmptyPool(t *testing.T) {
	b, _ := flagInReach(t)
	res := quickEngine().Search(context.Background(), b, junqi.South, nil, CategoryNone, nil)
	assert.False(t, res.Found)

	// 池子里只有非法走法
	res = quickEngine().Search(context.Background(), b, junqi.South, []junqi.Move{{From: junqi.Pos{Row: 0, Col: 0}, To: junqi.Pos{Row: 1, Col: 1}}}, CategoryNone, nil)
	assert.False(t, res.Found)
}

func TestSearchCapturesExposedFlag(t *testing.T) {
	b, capture := flagInReach(t)
	pool := b.LegalMoves(junqi.South)
	require.Contains(t, pool, capture)

	res := quickEngine().Search(context.Background(), b, junqi.South, pool, CategoryNone, nil)
	require.True(t, res.Found)
	assert.Equal(t, capture, res.Move)
	assert.Positive(t, res.Nodes)

	cfg := DefaultSearchConfig()
	cfg.Depth = 1
	cfg.Workers = 4
	par := New(WithSearchConfig(cfg)).Search(context.Background(), b, junqi.South, pool, CategoryNone, nil)
	require.True(t, par.Found)
	assert.Equal(t, capture, par.Move)
}

func TestSearchHonoursStyle(t *testing.T) {
	b, capture := flagInReach(t)
	pool := b.LegalMoves(junqi.South)
	res := quickEngine().Search(context.Background(), b, junqi.South, pool, CategoryDefend, nil)
	require.True(t, res.Found)
	assert.NotEqual(t, capture, res.Move)
	assert.Equal(t, CategoryDefend, Classify(b, junqi.South, res.Move))

	// 风格没有匹配时不过滤
	only := []junqi.Move{capture}
	res = quickEngine().Search(context.Background(), b, junqi.South, only, CategoryDefend, nil)
	require.True(t, res.Found)
	assert.Equal(t, capture, res.Move)
}

func TestSearchStaysInsidePool(t *testing.T) {
	g := startedGame(t, 99)
	b := g.Board()
	seat := g.Current()
	legal := b.LegalMoves(seat)
	var pool []junqi.Move
	for i := 0; i < len(legal); i += 3 {
		pool = append(pool, legal[i])
	}
	cfg := DefaultSearchConfig()
	cfg.Depth = 2
	cfg.BeamWidth = 4
	res := New(WithSearchConfig(cfg)).Search(context.Background(), b, seat, pool, CategoryNone, nil)
	require.True(t, res.Found)
	assert.Contains(t, pool, res.Move)
	assert.Equal(t, g.Hash(), b.Hash(), "search must not touch the board it was given")
}

func TestSearchReturnsMoveWhenCancelled(t *testing.T) {
	b, _ := flagInReach(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New().Search(ctx, b, junqi.South, b.LegalMoves(junqi.South), CategoryNone, nil)
	require.True(t, res.Found)
	assert.True(t, res.Cutoff)
}

func TestNextPlayerFollowsTurnOrder(t *testing.T) {
	b := junqi.NewBoard()
	put(t, b, local(junqi.South, 2, 3), junqi.Piece{Kind: junqi.Company, Owner: junqi.South})
	put(t, b, local(junqi.East, 2, 3), junqi.Piece{Kind: junqi.Company, Owner: junqi.East})
	put(t, b, local(junqi.West, 2, 3), junqi.Piece{Kind: junqi.Company, Owner: junqi.West})
	assert.Equal(t, junqi.East, nextPlayer(b, junqi.South))
	assert.Equal(t, junqi.West, nextPlayer(b, junqi.East), "north has nothing to move")
	assert.Equal(t, junqi.South, nextPlayer(b, junqi.West))

	empty := junqi.NewBoard()
	assert.Equal(t, junqi.East, nextPlayer(empty, junqi.South))
}

func TestTranspositionTable(t *testing.T) {
	s := &searcher{tt: make(map[ttKey]ttEntry)}
	_, ok := s.probeTT(ttKey{Hash: 42, Seat: junqi.West, Depth: 3})
	assert.False(t, ok)
	s.storeTT(ttKey{Hash: 42, Seat: junqi.West, Depth: 3}, 1.5)
	v, ok := s.probeTT(ttKey{Hash: 42, Seat: junqi.West, Depth: 3})
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
	_, ok = s.probeTT(ttKey{Hash: 42, Seat: junqi.East, Depth: 3})
	assert.False(t, ok, "seat is part of the key")
}

func TestBeamKeepsSideBestMoves(t *testing.T) {
	b := startedGame(t, 7).Board()
	cfg := DefaultSearchConfig()
	cfg.BeamWidth = 2
	s := &searcher{
		ctx:  context.Background(),
		ev:   NewEvaluator(DefaultWeights(), nil),
		cfg:  cfg.normalized(),
		root: junqi.South,
		tt:   make(map[ttKey]ttEntry),
	}

	var scores []float64
	for _, mv := range b.LegalMoves(junqi.West) {
		scores = append(scores, s.ev.Score(b, junqi.West, mv))
	}
	require.Greater(t, len(scores), 2)
	sort.Float64s(scores)

	nows := func(cs []child) []float64 {
		out := make([]float64, len(cs))
		for i, c := range cs {
			out[i] = c.now
		}
		return out
	}

	// 极小层留对手得分最低的两步，升序
	low := s.expand(b, junqi.West, false, false)
	require.Len(t, low, 2)
	assert.Equal(t, scores[:2], nows(low))

	// 极大层留得分最高的两步，降序
	high := s.expand(b, junqi.West, false, true)
	require.Len(t, high, 2)
	assert.Equal(t, []float64{scores[len(scores)-1], scores[len(scores)-2]}, nows(high))
}
