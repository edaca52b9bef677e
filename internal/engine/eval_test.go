package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junqi/internal/junqi"
)

func local(s junqi.Seat, r, c int) junqi.Pos {
	return junqi.GlobalFromLocal(junqi.LocalPos{Row: r, Col: c}, s)
}

func put(t *testing.T, b *junqi.Board, p junqi.Pos, pc junqi.Piece) {
	t.Helper()
	require.True(t, b.Place(p, pc), "place %s at %v", pc.Kind, p)
}

func TestAttackEV(t *testing.T) {
	hub := junqi.Pos{Row: 8, Col: 8}
	cases := []struct {
		name     string
		att, def junqi.PieceKind
		visible  bool
		want     float64
	}{
		{"visible flag", junqi.Company, junqi.Flag, true, 2.0},
		{"engineer digs mine", junqi.Engineer, junqi.Mine, true, 1.2},
		{"company into mine", junqi.Company, junqi.Mine, true, -1.5},
		{"bomb trade", junqi.Company, junqi.Bomb, true, -0.3},
		{"stronger", junqi.General, junqi.Company, true, 0.6},
		{"equal", junqi.Regiment, junqi.Regiment, true, -0.05},
		{"weaker", junqi.Platoon, junqi.Regiment, true, -0.15},
		{"hidden small", junqi.Platoon, junqi.Regiment, false, -0.08},
		{"hidden big", junqi.Brigade, junqi.Regiment, false, -0.03},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := attackEV(
				junqi.Piece{Kind: c.att, Owner: junqi.South},
				junqi.Piece{Kind: c.def, Owner: junqi.West, Visible: c.visible},
				true, hub)
			assert.InDelta(t, c.want, got, 1e-9)
		})
	}
	assert.Zero(t, attackEV(junqi.Piece{Kind: junqi.General}, junqi.Piece{}, false, hub))
	assert.Zero(t, attackEV(junqi.Piece{Kind: junqi.General}, junqi.Piece{Kind: junqi.Company, Visible: true}, true, local(junqi.West, 3, 3)))
}

func TestScoreDegradesToZero(t *testing.T) {
	b := junqi.NewBoard()
	ev := NewEvaluator(DefaultWeights(), nil)
	assert.Zero(t, ev.Score(b, junqi.South, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 10, Col: 8}}))

	put(t, b, junqi.Pos{Row: 11, Col: 8}, junqi.Piece{Kind: junqi.Company, Owner: junqi.South})
	assert.Zero(t, ev.Score(b, junqi.South, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: -4, Col: 99}}))
	assert.Zero(t, ev.Score(b, junqi.West, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 10, Col: 8}}), "not the seat's piece")
	assert.NotZero(t, ev.Score(b, junqi.South, junqi.Move{From: junqi.Pos{Row: 11, Col: 8}, To: junqi.Pos{Row: 10, Col: 8}}))
}

func TestCampKeepsRiskLow(t *testing.T) {
	b := junqi.NewBoard()
	camp := local(junqi.South, 2, 2)
	put(t, b, local(junqi.South, 1, 2), junqi.Piece{Kind: junqi.Company, Owner: junqi.West})
	put(t, b, local(junqi.South, 2, 1), junqi.Piece{Kind: junqi.Company, Owner: junqi.East})
	assert.InDelta(t, 0.05, risk(b, junqi.South, camp), 1e-9)
	assert.Greater(t, risk(b, junqi.South, local(junqi.South, 1, 1)), 0.5)
}

func TestKillersStopAtOwnLastMove(t *testing.T) {
	hist := []junqi.HistoryRecord{
		{Turn: 1, Faction: junqi.West, PieceID: "west_009", Outcome: junqi.OutcomeAttackerWins, DefenderID: "south_005"},
		{Turn: 2, Faction: junqi.South, PieceID: "south_003", Outcome: junqi.OutcomeDefenderWins, DefenderID: "east_004"},
		{Turn: 3, Faction: junqi.East, PieceID: "east_001", Outcome: junqi.OutcomeAttackerWins, DefenderID: "south_010"},
		{Turn: 4, Faction: junqi.West, PieceID: "west_002", Outcome: junqi.OutcomeAttackerWins, DefenderID: "north_001"},
		{Turn: 5, Faction: junqi.North, PieceID: "north_004", Outcome: junqi.OutcomeBothDie, DefenderID: "west_007"},
	}
	got := Killers(hist, junqi.South)
	assert.Equal(t, map[string]bool{"east_004": true, "east_001": true}, got)

	// 北方刚走过，扫到自己那一步就停
	assert.Empty(t, Killers(hist, junqi.North))

	assert.Empty(t, Killers(nil, junqi.East))
}

func TestHistoryStats(t *testing.T) {
	hist := []junqi.HistoryRecord{
		{Faction: junqi.West, PieceID: "west_001", Outcome: junqi.OutcomeMove},
		{Faction: junqi.West, PieceID: "west_001", Outcome: junqi.OutcomeAttackerWins, DefenderID: "south_002"},
		{Faction: junqi.West, PieceID: "west_003", Outcome: junqi.OutcomeMove},
	}
	st := NewHistoryStats(hist)
	assert.Equal(t, 2, st.Moves("west_001"))
	assert.Equal(t, 1, st.Aggressive("west_001"))
	assert.Equal(t, 0, st.Aggressive("west_003"))
	assert.True(t, st.IsKiller(junqi.South, "west_001"))
	assert.False(t, st.IsKiller(junqi.North, "west_001"))

	var empty *HistoryStats
	assert.Zero(t, empty.Moves("west_001"))
	assert.False(t, empty.IsKiller(junqi.South, "west_001"))
}

func TestCounterAttackBonus(t *testing.T) {
	b := junqi.NewBoard()
	from, to := junqi.Pos{Row: 11, Col: 8}, junqi.Pos{Row: 10, Col: 8}
	put(t, b, from, junqi.Piece{Kind: junqi.Division, Owner: junqi.South, ID: "south_001"})
	put(t, b, to, junqi.Piece{Kind: junqi.Company, Owner: junqi.West, ID: "west_003"})
	hist := []junqi.HistoryRecord{
		{Turn: 1, Faction: junqi.West, PieceID: "west_003", Outcome: junqi.OutcomeAttackerWins, DefenderID: "south_007"},
	}
	mv := junqi.Move{From: from, To: to}

	plain := NewEvaluator(DefaultWeights(), nil).Score(b, junqi.South, mv)
	revenge := NewEvaluator(DefaultWeights(), NewHistoryStats(hist)).Score(b, junqi.South, mv)
	assert.InDelta(t, DefaultWeights().CounterAttack, revenge-plain, 1e-9)
}

func TestEscortBonus(t *testing.T) {
	b := junqi.NewBoard()
	put(t, b, local(junqi.South, 3, 2), junqi.Piece{Kind: junqi.Division, Owner: junqi.South})
	from := local(junqi.South, 4, 1)
	put(t, b, from, junqi.Piece{Kind: junqi.Engineer, Owner: junqi.South})

	ev := NewEvaluator(DefaultWeights(), nil)
	terms, ok := ev.Terms(b, junqi.South, junqi.Move{From: from, To: local(junqi.South, 3, 1)})
	require.True(t, ok)
	assert.InDelta(t, DefaultWeights().Escort, terms.Bonus, 1e-9)

	// 离开大子就没有加成
	terms, ok = ev.Terms(b, junqi.South, junqi.Move{From: from, To: local(junqi.South, 5, 1)})
	require.True(t, ok)
	assert.Zero(t, terms.Bonus)
}

func TestFakeCommanderEscort(t *testing.T) {
	b := junqi.NewBoard()
	put(t, b, local(junqi.South, 3, 2), junqi.Piece{Kind: junqi.Company, Owner: junqi.South, ID: "south_004"})
	from := local(junqi.South, 4, 1)
	put(t, b, from, junqi.Piece{Kind: junqi.Platoon, Owner: junqi.South, ID: "south_009"})
	hist := []junqi.HistoryRecord{
		{Faction: junqi.South, PieceID: "south_004", Outcome: junqi.OutcomeMove},
		{Faction: junqi.South, PieceID: "south_004", Outcome: junqi.OutcomeMove},
	}
	ev := NewEvaluator(DefaultWeights(), NewHistoryStats(hist))
	terms, ok := ev.Terms(b, junqi.South, junqi.Move{From: from, To: local(junqi.South, 3, 1)})
	require.True(t, ok)
	assert.InDelta(t, DefaultWeights().FakeEscort, terms.Bonus, 1e-9)
}

func TestBombTrap(t *testing.T) {
	b := junqi.NewBoard()
	from, to := junqi.Pos{Row: 11, Col: 7}, junqi.Pos{Row: 11, Col: 8}
	put(t, b, from, junqi.Piece{Kind: junqi.Bomb, Owner: junqi.South})
	put(t, b, junqi.Pos{Row: 10, Col: 8}, junqi.Piece{Kind: junqi.Company, Owner: junqi.West, Kills: 2})

	terms, ok := NewEvaluator(DefaultWeights(), nil).Terms(b, junqi.South, junqi.Move{From: from, To: to})
	require.True(t, ok)
	assert.InDelta(t, DefaultWeights().BombTrap, terms.Bonus, 1e-9)
}

func TestOpeningPriorOnBackRows(t *testing.T) {
	build := func(kind junqi.PieceKind) (*junqi.Board, junqi.Move) {
		b := junqi.NewBoard()
		from, to := local(junqi.North, 4, 3), local(junqi.North, 5, 3)
		put(t, b, from, junqi.Piece{Kind: kind, Owner: junqi.South})
		put(t, b, to, junqi.Piece{Kind: junqi.Mine, Owner: junqi.North, ID: "north_020"})
		return b, junqi.Move{From: from, To: to}
	}
	w := DefaultWeights()
	ev := NewEvaluator(w, nil)

	b, mv := build(junqi.Engineer)
	terms, ok := ev.Terms(b, junqi.South, mv)
	require.True(t, ok)
	assert.InDelta(t, w.OpeningBackDig, terms.Bonus, 1e-9)

	b, mv = build(junqi.Company)
	terms, ok = ev.Terms(b, junqi.South, mv)
	require.True(t, ok)
	assert.InDelta(t, w.OpeningBackMine, terms.Bonus, 1e-9)

	// 主动进攻过的棋子不太像地雷
	aggressive := NewEvaluator(w, NewHistoryStats([]junqi.HistoryRecord{
		{Faction: junqi.North, PieceID: "north_020", Outcome: junqi.OutcomeAttackerWins, DefenderID: "west_001"},
	}))
	terms, ok = aggressive.Terms(b, junqi.South, mv)
	require.True(t, ok)
	assert.InDelta(t, w.OpeningBackMine/2, terms.Bonus, 1e-9)
}

func TestDefenseTermNearThreatenedFlag(t *testing.T) {
	b := junqi.NewBoard()
	flag := local(junqi.South, 6, 2)
	put(t, b, flag, junqi.Piece{Kind: junqi.Flag, Owner: junqi.South})
	assert.Zero(t, defense(b, junqi.South, local(junqi.South, 5, 2)))

	put(t, b, local(junqi.South, 6, 1), junqi.Piece{Kind: junqi.Company, Owner: junqi.East})
	assert.InDelta(t, 0.5, defense(b, junqi.South, local(junqi.South, 5, 2)), 1e-9)
	assert.Zero(t, defense(b, junqi.South, local(junqi.South, 1, 2)))
}

func TestFeintAndBombCoverBonus(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		name  string
		mover junqi.Piece
		enemy bool
		want  float64
	}{
		{"暗子靠大子且敌在近处", junqi.Piece{Kind: junqi.Company, Owner: junqi.South}, true, w.Feint},
		{"附近无敌不算佯动", junqi.Piece{Kind: junqi.Company, Owner: junqi.South}, false, 0},
		{"明子不算佯动", junqi.Piece{Kind: junqi.Company, Owner: junqi.South, Visible: true}, true, 0},
		{"炸弹靠大子", junqi.Piece{Kind: junqi.Bomb, Owner: junqi.South}, false, w.BombCover},
		// 炸弹不参与佯动
		{"炸弹靠大子且敌在近处", junqi.Piece{Kind: junqi.Bomb, Owner: junqi.South}, true, w.BombCover},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := junqi.NewBoard()
			put(t, b, local(junqi.South, 3, 2), junqi.Piece{Kind: junqi.Division, Owner: junqi.South})
			from := local(junqi.South, 4, 1)
			put(t, b, from, tc.mover)
			if tc.enemy {
				// 与落点相距两格，不相邻
				put(t, b, local(junqi.South, 1, 1), junqi.Piece{Kind: junqi.Company, Owner: junqi.East})
			}
			ev := NewEvaluator(w, nil)
			terms, ok := ev.Terms(b, junqi.South, junqi.Move{From: from, To: local(junqi.South, 3, 1)})
			require.True(t, ok)
			assert.InDelta(t, tc.want, terms.Bonus, 1e-9)
		})
	}
}
