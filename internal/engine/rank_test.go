package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junqi/internal/junqi"
)

func startedGame(t *testing.T, seed uint64) *junqi.Game {
	t.Helper()
	g := junqi.NewGame(junqi.WithSeed(seed))
	require.True(t, g.StartGame())
	return g
}

func TestScoreAndRankOnOpeningBoard(t *testing.T) {
	g := startedGame(t, 7)
	b := g.Board()
	legal := b.LegalMoves(junqi.South)
	require.NotEmpty(t, legal)

	ev := NewEvaluator(DefaultWeights(), nil)
	ranked := ev.ScoreAndRank(b, junqi.South, legal, 10)
	require.Len(t, ranked, min(10, len(legal)))

	seen := map[junqi.Move]bool{}
	for i, m := range ranked {
		assert.Equal(t, i, m.ID)
		assert.Contains(t, legal, m.Move())
		assert.False(t, seen[m.Move()], "duplicate %v", m.Move())
		seen[m.Move()] = true
		assert.NotEmpty(t, m.PieceID)
		assert.Contains(t, []string{"low", "medium", "high"}, m.RiskLevel)
		assert.Contains(t, []string{"low", "medium", "high"}, m.RewardLevel)
		assert.True(t, strings.HasPrefix(m.Reason, "score="), m.Reason)
		assert.Contains(t, []Category{CategoryAttack, CategoryProbe, CategoryDefend}, m.Category)
	}

	all := ev.ScoreAndRank(b, junqi.South, legal, 0)
	assert.Len(t, all, len(legal))
}

func TestScoreAndRankPutsWinningCaptureFirst(t *testing.T) {
	b := junqi.NewBoard()
	from := junqi.Pos{Row: 11, Col: 8}
	put(t, b, from, junqi.Piece{Kind: junqi.General, Owner: junqi.South, ID: "south_002"})
	put(t, b, junqi.Pos{Row: 10, Col: 8}, junqi.Piece{Kind: junqi.Company, Owner: junqi.West, Visible: true})

	ranked := NewEvaluator(DefaultWeights(), nil).ScoreAndRank(b, junqi.South, b.LegalMoves(junqi.South), 5)
	require.NotEmpty(t, ranked)
	top := ranked[0]
	assert.Equal(t, junqi.Pos{Row: 10, Col: 8}, top.To)
	assert.Equal(t, "south_002", top.PieceID)
	assert.True(t, top.HasTag(TagAttackWin))
	assert.Contains(t, top.Reason, "吃子存活")
	assert.Equal(t, CategoryAttack, top.Category)
	assert.Equal(t, "high", top.RewardLevel)
}

func TestScoreAndRankSkipsForeignMoves(t *testing.T) {
	b := junqi.NewBoard()
	put(t, b, junqi.Pos{Row: 11, Col: 8}, junqi.Piece{Kind: junqi.Company, Owner: junqi.West})
	got := NewEvaluator(DefaultWeights(), nil).ScoreAndRank(b, junqi.South, []junqi.Move{{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 12, Col: 8}}}, 5)
	assert.Empty(t, got)
}

func TestTagQuotaLimitsRepositionFlood(t *testing.T) {
	g := startedGame(t, 21)
	b := g.Board()
	legal := b.LegalMoves(junqi.East)
	ranked := NewEvaluator(DefaultWeights(), nil).ScoreAndRank(b, junqi.East, legal, 4)
	require.Len(t, ranked, 4)
	// 配额阶段按顺序挑，补齐阶段按分数；每一条都应该来自合法走法
	for _, m := range ranked {
		assert.Contains(t, legal, m.Move())
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "low", riskLabel(0.29))
	assert.Equal(t, "medium", riskLabel(0.3))
	assert.Equal(t, "high", riskLabel(0.6))
	assert.Equal(t, "high", rewardLabel(1.5, 1, 1))
	assert.Equal(t, "medium", rewardLabel(1.2, 1, 1))
	assert.Equal(t, "low", rewardLabel(0.9, 1, 1))
	assert.Equal(t, "score=0.12；risk=low；可能互换；reposition", reason(0.123, 0.1, 0, []string{TagReposition}))
}
