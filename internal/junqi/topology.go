package junqi

import "sync"

// 17x17 十字棋盘：中央 3x3 九宫节点（只用偶数行列），四个 6x5 阵地。
const (
	Size       = 17
	NumSquares = Size * Size
)

// 静态拓扑，只初始化一次。
var (
	topoOnce sync.Once

	cellExists [NumSquares]bool
	cellKinds  [NumSquares]CellKind
	cellAreas  [NumSquares]Seat
	adjacency  [NumSquares][]Pos
	// 工兵 BFS 额外使用的四个阵地拐角连接
	cornerLinks [NumSquares][]Pos
)

// 南方本地模板，1 基行列。第 1 行靠近中央。
func templateKind(r, c int) CellKind {
	switch {
	case r == 6 && (c == 2 || c == 4):
		return Headquarters
	case (r == 2 || r == 4) && (c == 2 || c == 4), r == 3 && c == 3:
		return Camp
	case r == 1 || r == 5, (c == 1 || c == 5) && r >= 2 && r <= 4:
		return Railway
	}
	return Normal
}

func isHub(p Pos) bool {
	return (p.Row == 6 || p.Row == 8 || p.Row == 10) && (p.Col == 6 || p.Col == 8 || p.Col == 10)
}

// inCenter 中央 5x5 区域（含不存在的奇数格）。
func inCenter(p Pos) bool {
	return p.Row >= 6 && p.Row <= 10 && p.Col >= 6 && p.Col <= 10
}

// areaOfGrid 按行列范围判断阵地，不检查格子是否存在。
func areaOfGrid(p Pos) Seat {
	switch {
	case p.Row >= 11 && p.Row <= 16 && p.Col >= 6 && p.Col <= 10:
		return South
	case p.Row >= 0 && p.Row <= 5 && p.Col >= 6 && p.Col <= 10:
		return North
	case p.Row >= 6 && p.Row <= 10 && p.Col >= 0 && p.Col <= 5:
		return West
	case p.Row >= 6 && p.Row <= 10 && p.Col >= 11 && p.Col <= 16:
		return East
	}
	return NoSeat
}

// junction 中央节点与阵地之间只在三条铁路线上相连。
func junction(hub, q Pos) bool {
	switch areaOfGrid(q) {
	case South:
		return q.Row == 11 && hub.Row == 10 && hub.Col == q.Col
	case North:
		return q.Row == 5 && hub.Row == 6 && hub.Col == q.Col
	case West:
		return q.Col == 5 && hub.Col == 6 && hub.Row == q.Row
	case East:
		return q.Col == 11 && hub.Col == 10 && hub.Row == q.Row
	}
	return false
}

func validConnection(p, q Pos) bool {
	pc, qc := isHub(p), isHub(q)
	switch {
	case pc && qc:
		dr, dc := abs(p.Row-q.Row), abs(p.Col-q.Col)
		return (dr == 2 && dc == 0) || (dr == 0 && dc == 2)
	case pc:
		return junction(p, q)
	case qc:
		return junction(q, p)
	}
	// 跨阵地的拐角只在铁路桥上出现，不是普通相邻
	return areaOfGrid(p) == areaOfGrid(q)
}

func initTopology() {
	for sq := 0; sq < NumSquares; sq++ {
		p := posOf(sq)
		cellAreas[sq] = NoSeat
		if isHub(p) {
			cellExists[sq] = true
			cellKinds[sq] = Railway
			continue
		}
		a := areaOfGrid(p)
		if a == NoSeat {
			continue
		}
		l := LocalCoords(p, a)
		cellExists[sq] = true
		cellAreas[sq] = a
		cellKinds[sq] = templateKind(l.Row, l.Col)
	}

	orth := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diag := [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	for sq := 0; sq < NumSquares; sq++ {
		if !cellExists[sq] {
			continue
		}
		p := posOf(sq)
		var ns []Pos
		steps := []int{1}
		if isHub(p) {
			steps = []int{2, 1}
		}
		for _, k := range steps {
			for _, d := range orth {
				q := Pos{p.Row + d[0]*k, p.Col + d[1]*k}
				if q.OnGrid() && cellExists[q.index()] && validConnection(p, q) {
					ns = append(ns, q)
				}
			}
		}
		// 行营斜线：同一阵地内且任一端是行营
		if !isHub(p) {
			for _, d := range diag {
				q := Pos{p.Row + d[0], p.Col + d[1]}
				if !q.OnGrid() || !cellExists[q.index()] || isHub(q) {
					continue
				}
				if cellAreas[q.index()] != cellAreas[sq] {
					continue
				}
				if cellKinds[sq] == Camp || cellKinds[q.index()] == Camp {
					ns = append(ns, q)
				}
			}
		}
		adjacency[sq] = ns
	}

	for _, pair := range [][2]Pos{
		{{6, 5}, {5, 6}},
		{{10, 5}, {11, 6}},
		{{11, 10}, {10, 11}},
		{{6, 11}, {5, 10}},
	} {
		a, b := pair[0].index(), pair[1].index()
		cornerLinks[a] = append(cornerLinks[a], pair[1])
		cornerLinks[b] = append(cornerLinks[b], pair[0])
	}
}

func ensureTopology() { topoOnce.Do(initTopology) }

// Exists reports whether p is a real cell of the cross board.
func Exists(p Pos) bool {
	ensureTopology()
	return p.OnGrid() && cellExists[p.index()]
}

// KindAt returns the static kind of p; off-board positions report Normal.
func KindAt(p Pos) CellKind {
	if !Exists(p) {
		return Normal
	}
	return cellKinds[p.index()]
}

// AreaOf returns the seat owning the cell, or NoSeat for the hub and off-board cells.
func AreaOf(p Pos) Seat {
	if !Exists(p) {
		return NoSeat
	}
	return cellAreas[p.index()]
}

// Adjacent returns the normal one-step neighbours of p. The slice is shared; do not modify it.
func Adjacent(p Pos) []Pos {
	if !Exists(p) {
		return nil
	}
	return adjacency[p.index()]
}

func IsRailway(p Pos) bool { return KindAt(p) == Railway }

// IsCenter 中央九宫节点。
func IsCenter(p Pos) bool { return Exists(p) && isHub(p) }

// CenterZone 行列都在 6..10 之间（启发式用的“中路”）。
func CenterZone(p Pos) bool { return inCenter(p) }

// Cells 按行优先返回全部真实格子。
func Cells() []Pos {
	ensureTopology()
	out := make([]Pos, 0, 129)
	for sq := 0; sq < NumSquares; sq++ {
		if cellExists[sq] {
			out = append(out, posOf(sq))
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
