package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junqi/internal/junqi"
)

func TestClassifyPriority(t *testing.T) {
	b := junqi.NewBoard()
	// 吃子
	put(t, b, junqi.Pos{Row: 11, Col: 8}, junqi.Piece{Kind: junqi.General, Owner: junqi.South})
	put(t, b, junqi.Pos{Row: 10, Col: 8}, junqi.Piece{Kind: junqi.Company, Owner: junqi.West})
	assert.Equal(t, CategoryAttack, Classify(b, junqi.South, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 10, Col: 8}}))

	// 进入敌方非行营区域
	from := local(junqi.West, 2, 1)
	put(t, b, from, junqi.Piece{Kind: junqi.Company, Owner: junqi.South})
	assert.Equal(t, CategoryAttack, Classify(b, junqi.South, junqi.Move{From: from, To: local(junqi.West, 3, 1)}))

	// 敌方行营不算进攻
	camp := local(junqi.West, 2, 2)
	require.Equal(t, junqi.Camp, junqi.KindAt(camp))
	assert.Equal(t, CategoryDefend, Classify(b, junqi.South, junqi.Move{From: from, To: camp}))

	sig := DetectSignals(b, junqi.South, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 10, Col: 8}})
	assert.True(t, sig.EatPiece)
	assert.True(t, sig.EnterCenter)
}

func TestClassifyProbeWhenHubEntered(t *testing.T) {
	b := junqi.NewBoard()
	from := junqi.Pos{Row: 11, Col: 6}
	put(t, b, from, junqi.Piece{Kind: junqi.Company, Owner: junqi.South})
	assert.Equal(t, CategoryProbe, Classify(b, junqi.South, junqi.Move{From: from, To: junqi.Pos{Row: 10, Col: 6}}))
}

func TestClassifyProbeWhenNewlyExposed(t *testing.T) {
	b := junqi.NewBoard()
	camp := local(junqi.South, 3, 3)
	require.Equal(t, junqi.Camp, junqi.KindAt(camp))
	put(t, b, camp, junqi.Piece{Kind: junqi.Company, Owner: junqi.South})
	put(t, b, local(junqi.South, 1, 3), junqi.Piece{Kind: junqi.Company, Owner: junqi.West})

	mv := junqi.Move{From: camp, To: local(junqi.South, 2, 3)}
	sig := DetectSignals(b, junqi.South, mv)
	assert.False(t, sig.EatPiece)
	assert.False(t, sig.EnterEnemyArea)
	assert.False(t, sig.EnterCenter)
	assert.True(t, sig.NewExposed)
	assert.Equal(t, CategoryProbe, sig.Category())

	// 留在自家后方、没有暴露，就是防守
	assert.Equal(t, CategoryDefend, Classify(b, junqi.South, junqi.Move{From: camp, To: local(junqi.South, 4, 3)}))
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"attack": CategoryAttack,
		"Probe":  CategoryProbe,
		"防守":     CategoryDefend,
		"":       CategoryNone,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseCategory("berserk")
	assert.Error(t, err)
}
