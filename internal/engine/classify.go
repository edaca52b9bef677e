package engine

import (
	"fmt"
	"strings"

	"junqi/internal/junqi"
)

// Category 走法风格：进攻、试探、防守，三者互斥。
type Category string

const (
	CategoryNone   Category = ""
	CategoryAttack Category = "attack"
	CategoryProbe  Category = "probe"
	CategoryDefend Category = "defend"
)

// ParseCategory 接受英文或中文；空串表示不限风格。
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return CategoryNone, nil
	case "attack", "进攻":
		return CategoryAttack, nil
	case "probe", "试探":
		return CategoryProbe, nil
	case "defend", "defense", "防守":
		return CategoryDefend, nil
	}
	return CategoryNone, fmt.Errorf("unknown style %q", s)
}

// Signals 分类用到的原始信号。
type Signals struct {
	EatPiece       bool `json:"eat_piece"`
	EnterEnemyArea bool `json:"enter_enemy_area_non_camp"`
	EnterCenter    bool `json:"enter_center"`
	NewExposed     bool `json:"new_exposed_unseen"`
}

func (s Signals) Category() Category {
	switch {
	case s.EatPiece || s.EnterEnemyArea:
		return CategoryAttack
	case s.EnterCenter || s.NewExposed:
		return CategoryProbe
	}
	return CategoryDefend
}

// DetectSignals 计算一步棋的分类信号。NewExposed 需要在副本上模拟走子，
// 只有前三个信号都没触发时才计算。
func DetectSignals(b *junqi.Board, seat junqi.Seat, mv junqi.Move) Signals {
	return detectSignals(b, seat, mv, nil)
}

// before 为 nil 时现算走子前的暴露集合；批量分类时由调用方复用。
func detectSignals(b *junqi.Board, seat junqi.Seat, mv junqi.Move, before map[junqi.Pos]bool) Signals {
	var sig Signals
	mover, ok := b.PieceAt(mv.From)
	if !ok || !junqi.Exists(mv.To) {
		return sig
	}
	if target, ok := b.PieceAt(mv.To); ok && !junqi.Allied(target.Owner, mover.Owner) {
		sig.EatPiece = true
	}
	if area := junqi.AreaOf(mv.To); area.Valid() && area != seat && junqi.KindAt(mv.To) != junqi.Camp {
		sig.EnterEnemyArea = true
	}
	sig.EnterCenter = junqi.CenterZone(mv.To)
	if sig.EatPiece || sig.EnterEnemyArea || sig.EnterCenter {
		// 已经能定类，省掉模拟
		return sig
	}

	if before == nil {
		before = exposedHidden(b, seat)
	}
	after := b.Clone()
	if _, ok := after.MovePiece(mv.From, mv.To); !ok {
		return sig
	}
	for p := range exposedHidden(after, seat) {
		if !before[p] {
			sig.NewExposed = true
			break
		}
	}
	return sig
}

// Classify 返回一步棋的风格，优先级 进攻 > 试探 > 防守。
func Classify(b *junqi.Board, seat junqi.Seat, mv junqi.Move) Category {
	return DetectSignals(b, seat, mv).Category()
}

// exposedHidden 己方未亮明、不在行营、且敌方一步可吃到的棋子位置。
func exposedHidden(b *junqi.Board, seat junqi.Seat) map[junqi.Pos]bool {
	reach := make(map[junqi.Pos]bool)
	for _, sq := range b.Occupied() {
		if junqi.Allied(sq.Piece.Owner, seat) {
			continue
		}
		for _, q := range b.Targets(sq.Pos) {
			reach[q] = true
		}
	}
	out := make(map[junqi.Pos]bool)
	for _, sq := range b.PiecesOf(seat) {
		if sq.Piece.Visible || junqi.KindAt(sq.Pos) == junqi.Camp {
			continue
		}
		if reach[sq.Pos] {
			out[sq.Pos] = true
		}
	}
	return out
}
