package junqi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellCountAndHub(t *testing.T) {
	require.Len(t, Cells(), 4*30+9)
	for _, r := range []int{6, 8, 10} {
		for _, c := range []int{6, 8, 10} {
			p := Pos{r, c}
			require.True(t, Exists(p))
			assert.Equal(t, Railway, KindAt(p))
			assert.Equal(t, NoSeat, AreaOf(p))
		}
	}
	assert.False(t, Exists(Pos{7, 7}))
	assert.False(t, Exists(Pos{0, 0}))
	assert.False(t, Exists(Pos{-1, 8}))
	assert.False(t, Exists(Pos{17, 8}))
}

func TestTemplateIsRotatedForEverySeat(t *testing.T) {
	for _, s := range AllSeats {
		for r := 1; r <= 6; r++ {
			for c := 1; c <= 5; c++ {
				p := GlobalFromLocal(LocalPos{r, c}, s)
				require.True(t, Exists(p), "seat %s local (%d,%d)", s, r, c)
				assert.Equal(t, s, AreaOf(p))
				assert.Equal(t, templateKind(r, c), KindAt(p), "seat %s local (%d,%d)", s, r, c)
				assert.Equal(t, LocalPos{r, c}, LocalCoords(p, s))
			}
		}
		assert.Equal(t, Headquarters, KindAt(GlobalFromLocal(LocalPos{6, 2}, s)))
		assert.Equal(t, Headquarters, KindAt(GlobalFromLocal(LocalPos{6, 4}, s)))
		assert.Equal(t, Camp, KindAt(GlobalFromLocal(LocalPos{3, 3}, s)))
	}
}

func TestAdjacencyIsSymmetric(t *testing.T) {
	for _, p := range Cells() {
		for _, q := range Adjacent(p) {
			assert.Contains(t, Adjacent(q), p, "%v -> %v", p, q)
		}
	}
}

func TestHubJunctions(t *testing.T) {
	assert.Contains(t, Adjacent(Pos{10, 8}), Pos{11, 8})
	assert.Contains(t, Adjacent(Pos{10, 8}), Pos{8, 8})
	assert.Contains(t, Adjacent(Pos{6, 6}), Pos{5, 6})
	assert.Contains(t, Adjacent(Pos{6, 6}), Pos{6, 5})
	assert.Contains(t, Adjacent(Pos{8, 10}), Pos{8, 11})
	// 中央节点之间只有 ±2
	assert.NotContains(t, Adjacent(Pos{6, 6}), Pos{6, 7})
	// 不在铁路线上的阵地格不连中央
	assert.NotContains(t, Adjacent(Pos{6, 8}), Pos{4, 8})
}

func TestCampDiagonals(t *testing.T) {
	camp := GlobalFromLocal(LocalPos{2, 2}, South)
	require.Equal(t, Camp, KindAt(camp))
	assert.Contains(t, Adjacent(camp), GlobalFromLocal(LocalPos{1, 1}, South))
	assert.Contains(t, Adjacent(camp), GlobalFromLocal(LocalPos{3, 3}, South))

	// 两个非行营格之间没有斜线
	a := GlobalFromLocal(LocalPos{2, 3}, South)
	b := GlobalFromLocal(LocalPos{1, 4}, South)
	assert.NotContains(t, Adjacent(a), b)
}

func TestLocalCoordsRoundTrip(t *testing.T) {
	for _, p := range Cells() {
		for _, s := range AllSeats {
			assert.Equal(t, p, GlobalFromLocal(LocalCoords(p, s), s))
		}
	}
	assert.Equal(t, LocalPos{1, 1}, LocalCoords(Pos{11, 6}, South))
	assert.Equal(t, LocalPos{1, 5}, LocalCoords(Pos{10, 5}, West))
	assert.Equal(t, LocalPos{1, 1}, LocalCoords(Pos{5, 10}, North))
	assert.Equal(t, LocalPos{1, 1}, LocalCoords(Pos{10, 11}, East))
}
