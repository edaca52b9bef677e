package junqi

// bridge 阵地拐角处的铁路桥：棋子从 source 边出发直走到 corner 时可以拐到 targets。
type bridge struct {
	corner  Pos
	source  []Pos
	targets []Pos
}

func rowRun(row, from, to int) []Pos {
	var out []Pos
	step := 1
	if to < from {
		step = -1
	}
	for c := from; ; c += step {
		out = append(out, Pos{row, c})
		if c == to {
			break
		}
	}
	return out
}

func colRun(col, from, to int) []Pos {
	var out []Pos
	step := 1
	if to < from {
		step = -1
	}
	for r := from; ; r += step {
		out = append(out, Pos{r, col})
		if r == to {
			break
		}
	}
	return out
}

var bridges = []bridge{
	{corner: Pos{11, 6}, source: colRun(6, 11, 15), targets: rowRun(10, 5, 1)},
	{corner: Pos{11, 10}, source: colRun(10, 11, 15), targets: rowRun(10, 11, 15)},
	{corner: Pos{5, 6}, source: colRun(6, 5, 1), targets: rowRun(6, 5, 1)},
	{corner: Pos{5, 10}, source: colRun(10, 5, 1), targets: rowRun(6, 11, 15)},
	{corner: Pos{6, 5}, source: rowRun(6, 5, 1), targets: colRun(6, 5, 1)},
	{corner: Pos{10, 5}, source: rowRun(10, 5, 1), targets: colRun(6, 11, 15)},
	{corner: Pos{6, 11}, source: rowRun(6, 11, 15), targets: colRun(10, 5, 1)},
	{corner: Pos{10, 11}, source: rowRun(10, 11, 15), targets: colRun(10, 11, 15)},
}

func containsPos(ps []Pos, p Pos) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

func bridgeAt(p Pos) *bridge {
	for i := range bridges {
		if bridges[i].corner == p {
			return &bridges[i]
		}
	}
	return nil
}

// posSet 用格子下标去重，保持加入顺序。
type posSet struct {
	seen [NumSquares]bool
	list []Pos
}

func (s *posSet) add(p Pos) {
	if s.seen[p.index()] {
		return
	}
	s.seen[p.index()] = true
	s.list = append(s.list, p)
}

// EngineerRailTargets 工兵在铁路网上 BFS：可以拐弯；空格继续扩展，敌子可以到达但不穿过。
func (b *Board) EngineerRailTargets(from Pos) []Pos {
	pc := b.at(from)
	if pc == nil || !IsRailway(from) {
		return nil
	}
	owner := pc.Owner
	var visited [NumSquares]bool
	visited[from.index()] = true
	queue := []Pos{from}
	var out []Pos
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := append(append([]Pos(nil), Adjacent(cur)...), cornerLinks[cur.index()]...)
		for _, q := range next {
			if visited[q.index()] || !IsRailway(q) {
				continue
			}
			visited[q.index()] = true
			occ := b.at(q)
			if occ == nil {
				out = append(out, q)
				queue = append(queue, q)
				continue
			}
			if !Allied(occ.Owner, owner) {
				out = append(out, q)
			}
		}
	}
	return out
}

// nextAlongAxis 同一行（或列）上沿 dir 方向最近的铁路邻居。
func nextAlongAxis(cur, prev Pos, horizontal bool, dir int) (Pos, bool) {
	best, bestDist, found := Pos{}, 0, false
	for _, q := range Adjacent(cur) {
		if q == prev || !IsRailway(q) {
			continue
		}
		var d int
		if horizontal {
			if q.Row != cur.Row {
				continue
			}
			d = (q.Col - cur.Col) * dir
		} else {
			if q.Col != cur.Col {
				continue
			}
			d = (q.Row - cur.Row) * dir
		}
		if d <= 0 {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = q, d, true
		}
	}
	return best, found
}

// StraightRailTargets 非工兵沿铁路直走，每个方向最多借一次拐角铁路桥。
func (b *Board) StraightRailTargets(from Pos) []Pos {
	pc := b.at(from)
	if pc == nil || !IsRailway(from) {
		return nil
	}
	owner := pc.Owner
	var set posSet

	canBridge := false
	for i := range bridges {
		if containsPos(bridges[i].source, from) {
			canBridge = true
			break
		}
	}

	// 返回 true 表示这个方向到此为止
	addStep := func(p Pos) bool {
		if !IsRailway(p) {
			return true
		}
		occ := b.at(p)
		if occ == nil {
			set.add(p)
			return false
		}
		if !Allied(occ.Owner, owner) {
			set.add(p)
		}
		return true
	}

	performBridge := func(cur Pos) bool {
		br := bridgeAt(cur)
		if br == nil {
			return false
		}
		if !containsPos(br.source, from) && from != cur {
			return false
		}
		for _, t := range br.targets {
			if addStep(t) {
				break
			}
		}
		return true
	}

	scan := func(horizontal bool, dir int) {
		cur, prev := from, Pos{-1, -1}
		bridged := false
		if canBridge && performBridge(cur) {
			bridged = true
		}
		for {
			nxt, ok := nextAlongAxis(cur, prev, horizontal, dir)
			if !ok || addStep(nxt) {
				return
			}
			prev, cur = cur, nxt
			if canBridge && !bridged && performBridge(cur) {
				bridged = true
			}
		}
	}

	scan(true, 1)
	scan(true, -1)
	scan(false, 1)
	scan(false, -1)
	return set.list
}

// RailTargets 按兵种选择铁路走法。
func (b *Board) RailTargets(from Pos) []Pos {
	pc := b.at(from)
	if pc == nil {
		return nil
	}
	if pc.Kind == Engineer {
		return b.EngineerRailTargets(from)
	}
	return b.StraightRailTargets(from)
}
