package engine

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"junqi/internal/junqi"
)

// 战术标签
const (
	TagAttackWin      = "attack_win"
	TagAttackTrade    = "attack_trade"
	TagAttackRisky    = "attack_risky"
	TagRailSprint     = "rail_sprint"
	TagCentralControl = "central_control"
	TagDefendFlag     = "defend_flag"
	TagCampHold       = "camp_hold"
	TagScout          = "scout"
	TagReposition     = "reposition"
)

// 多样性配额：按顺序先挑各标签的前几名，再按分数补齐。
var tagQuotas = []struct {
	tag   string
	limit int
}{
	{TagAttackWin, 8},
	{TagAttackTrade, 3},
	{TagAttackRisky, 1},
	{TagRailSprint, 6},
	{TagCentralControl, 4},
	{TagDefendFlag, 6},
	{TagCampHold, 2},
	{TagScout, 2},
	{TagReposition, 2},
}

// ScoredMove 一条带评分和标签的候选走法。
type ScoredMove struct {
	ID          int       `json:"id"`
	From        junqi.Pos `json:"from"`
	To          junqi.Pos `json:"to"`
	PieceID     string    `json:"piece_id"`
	Score       float64   `json:"score"`
	RiskLevel   string    `json:"risk_level"`
	RewardLevel string    `json:"reward_level"`
	Tactics     []string  `json:"tactics"`
	Reason      string    `json:"reason"`
	Category    Category  `json:"category"`

	idx int
}

func (m ScoredMove) Move() junqi.Move { return junqi.Move{From: m.From, To: m.To} }

func (m ScoredMove) HasTag(tag string) bool {
	for _, t := range m.Tactics {
		if t == tag {
			return true
		}
	}
	return false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func riskLabel(r float64) string {
	switch {
	case r < 0.3:
		return "low"
	case r < 0.6:
		return "medium"
	}
	return "high"
}

func rewardLabel(s, mean, std float64) string {
	switch {
	case s >= mean+0.5*std:
		return "high"
	case s >= mean:
		return "medium"
	}
	return "low"
}

func tactics(b *junqi.Board, seat junqi.Seat, to junqi.Pos, t Terms) []string {
	tags := []string{}
	_, occupied := b.PieceAt(to)
	switch {
	case t.Attack > 0.15:
		tags = append(tags, TagAttackWin)
	case t.Attack >= -0.1 && occupied:
		tags = append(tags, TagAttackTrade)
	case t.Attack < -0.1 && occupied:
		tags = append(tags, TagAttackRisky)
	}
	if junqi.IsRailway(to) && railNeighbours(to) >= 3 {
		tags = append(tags, TagRailSprint)
	}
	if junqi.CenterZone(to) {
		tags = append(tags, TagCentralControl)
	}
	if t.Defense >= 0.3 {
		tags = append(tags, TagDefendFlag)
	}
	if junqi.KindAt(to) == junqi.Camp {
		tags = append(tags, TagCampHold)
	}
	for _, q := range junqi.Adjacent(to) {
		if pc, ok := b.PieceAt(q); ok && !pc.Visible && !junqi.Allied(pc.Owner, seat) {
			tags = append(tags, TagScout)
			break
		}
	}
	if !occupied {
		tags = append(tags, TagReposition)
	}
	return tags
}

func reason(score, risk, attack float64, tags []string) string {
	parts := []string{
		"score=" + strconv.FormatFloat(round(score, 2), 'f', -1, 64),
		"risk=" + riskLabel(risk),
	}
	switch {
	case attack > 0.15:
		parts = append(parts, "吃子存活")
	case attack >= -0.1:
		parts = append(parts, "可能互换")
	default:
		parts = append(parts, "进攻风险")
	}
	if len(tags) > 0 {
		parts = append(parts, strings.Join(tags[:min(2, len(tags))], ","))
	}
	return strings.Join(parts, "；")
}

// ScoreAndRank 给 moves 打分、贴标签，按配额挑出至多 topN 条（topN<=0 表示全部）。
// 起点不是 seat 棋子的走法直接跳过。
func (ev *Evaluator) ScoreAndRank(b *junqi.Board, seat junqi.Seat, moves []junqi.Move, topN int) []ScoredMove {
	scored := make([]ScoredMove, 0, len(moves))
	var exposed map[junqi.Pos]bool
	for i, mv := range moves {
		t, ok := ev.Terms(b, seat, mv)
		if !ok {
			continue
		}
		mover, _ := b.PieceAt(mv.From)
		if exposed == nil {
			exposed = exposedHidden(b, seat)
		}
		score := ev.combine(t)
		tags := tactics(b, seat, mv.To, t)
		scored = append(scored, ScoredMove{
			From:      mv.From,
			To:        mv.To,
			PieceID:   mover.ID,
			Score:     round(score, 3),
			RiskLevel: riskLabel(t.Risk),
			Tactics:   tags,
			Reason:    reason(score, t.Risk, t.Attack, tags),
			Category:  detectSignals(b, seat, mv, exposed).Category(),
			idx:       i,
		})
	}
	if len(scored) == 0 {
		return nil
	}

	mean, std := meanStd(scored)
	for i := range scored {
		scored[i].RewardLevel = rewardLabel(scored[i].Score, mean, std)
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if topN <= 0 || topN > len(scored) {
		topN = len(scored)
	}
	selection := make([]ScoredMove, 0, topN)
	used := make(map[int]bool, topN)
	countTag := func(tag string) int {
		n := 0
		for _, m := range selection {
			if m.HasTag(tag) {
				n++
			}
		}
		return n
	}
quotas:
	for _, q := range tagQuotas {
		for _, m := range scored {
			if used[m.idx] {
				continue
			}
			if m.HasTag(q.tag) {
				selection = append(selection, m)
				used[m.idx] = true
				if countTag(q.tag) >= q.limit {
					break
				}
			}
			if len(selection) >= topN {
				break quotas
			}
		}
		if len(selection) >= topN {
			break
		}
	}
	for _, m := range scored {
		if len(selection) >= topN {
			break
		}
		if used[m.idx] {
			continue
		}
		selection = append(selection, m)
		used[m.idx] = true
	}
	for i := range selection {
		selection[i].ID = i
	}
	return selection
}

func meanStd(ms []ScoredMove) (float64, float64) {
	sum := 0.0
	for _, m := range ms {
		sum += m.Score
	}
	mean := sum / float64(len(ms))
	if len(ms) < 2 {
		return mean, 0
	}
	v := 0.0
	for _, m := range ms {
		v += (m.Score - mean) * (m.Score - mean)
	}
	return mean, math.Sqrt(v / float64(len(ms)))
}
