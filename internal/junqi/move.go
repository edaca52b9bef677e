package junqi

// MoveResult 一步棋在棋盘上的结果。Mover/Defender 是交战前的快照。
type MoveResult struct {
	Outcome     Outcome
	Mover       Piece
	Defender    Piece
	HadDefender bool
	Dead        []Piece
	// 因司令阵亡而亮旗的座位
	FlagsRevealed []Seat
}

// Battle 交战规则：返回攻击方视角的结果。
func Battle(attacker, defender PieceKind) Outcome {
	switch {
	case defender == Flag:
		return OutcomeAttackerWins
	case attacker == Bomb || defender == Bomb:
		return OutcomeBothDie
	case defender == Mine:
		if attacker == Engineer {
			return OutcomeAttackerWins
		}
		return OutcomeDefenderWins
	case attacker == Mine:
		return OutcomeDefenderWins
	}
	ap, dp := attacker.Power(), defender.Power()
	switch {
	case ap > dp:
		return OutcomeAttackerWins
	case ap < dp:
		return OutcomeDefenderWins
	}
	return OutcomeBothDie
}

// CanMove 判断 from->to 是否合法（不考虑轮到谁走）。
func (b *Board) CanMove(from, to Pos) bool {
	if !Exists(from) || !Exists(to) {
		return false
	}
	pc := b.at(from)
	if pc == nil {
		return false
	}
	fromKind, toKind := KindAt(from), KindAt(to)
	// 进了大本营就不能再动
	if fromKind == Headquarters {
		return false
	}
	if !pc.Kind.Movable() {
		return false
	}
	target := b.at(to)
	if target != nil && Allied(target.Owner, pc.Owner) {
		return false
	}
	// 行营里的棋子不能被攻击
	if target != nil && toKind == Camp {
		return false
	}
	if fromKind == Railway && toKind == Railway {
		return containsPos(b.RailTargets(from), to)
	}
	return containsPos(Adjacent(from), to)
}

// MovePiece 执行一步棋（含交战）。非法时返回 ok=false，棋盘不变。
func (b *Board) MovePiece(from, to Pos) (MoveResult, bool) {
	if !b.CanMove(from, to) {
		return MoveResult{}, false
	}
	fs, ts := from.index(), to.index()
	mover := b.slot(fs)
	res := MoveResult{Mover: *mover, Outcome: OutcomeMove}

	target := b.slot(ts)
	if target == nil {
		b.relocate(from, to)
		return res, true
	}

	res.Defender = *target
	res.HadDefender = true
	res.Outcome = Battle(mover.Kind, target.Kind)

	var deadCommanders []Seat
	switch res.Outcome {
	case OutcomeAttackerWins:
		if target.Kind == Commander {
			deadCommanders = append(deadCommanders, target.Owner)
		}
		gained := target.Kills + 1
		b.update(fs, func(pc *Piece) { pc.Kills += gained })
		res.Mover = *mover
		dead, _ := b.Remove(to)
		res.Dead = append(res.Dead, dead)
		b.relocate(from, to)
	case OutcomeDefenderWins:
		if mover.Kind == Commander {
			deadCommanders = append(deadCommanders, mover.Owner)
		}
		gained := mover.Kills + 1
		b.update(ts, func(pc *Piece) { pc.Kills += gained })
		dead, _ := b.Remove(from)
		res.Dead = append(res.Dead, dead)
	default:
		if mover.Kind == Commander {
			deadCommanders = append(deadCommanders, mover.Owner)
		}
		if target.Kind == Commander {
			deadCommanders = append(deadCommanders, target.Owner)
		}
		d1, _ := b.Remove(from)
		d2, _ := b.Remove(to)
		res.Dead = append(res.Dead, d1, d2)
	}

	for _, s := range deadCommanders {
		b.RevealFlag(s)
	}
	res.FlagsRevealed = deadCommanders
	return res, true
}

// Targets 一个棋子所有合法落点：铁路走法并上普通相邻，规则与 CanMove 一致。
func (b *Board) Targets(from Pos) []Pos {
	pc := b.at(from)
	if pc == nil || !pc.Kind.Movable() || KindAt(from) == Headquarters {
		return nil
	}
	rail := IsRailway(from)
	var railSet, cand posSet
	if rail {
		for _, q := range b.RailTargets(from) {
			railSet.add(q)
			cand.add(q)
		}
	}
	adj := Adjacent(from)
	for _, q := range adj {
		cand.add(q)
	}
	var out []Pos
	for _, q := range cand.list {
		target := b.at(q)
		if target != nil && (Allied(target.Owner, pc.Owner) || KindAt(q) == Camp) {
			continue
		}
		if rail && IsRailway(q) {
			if !railSet.seen[q.index()] {
				continue
			}
		} else if !containsPos(adj, q) {
			continue
		}
		out = append(out, q)
	}
	return out
}
