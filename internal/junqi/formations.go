package junqi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// 名阵：以南方本地坐标书写的 6x5 字符矩阵，“…”为空位（行营）。
var charToKind = map[rune]PieceKind{
	'司': Commander,
	'令': Commander,
	'军': General,
	'师': Division,
	'旅': Brigade,
	'团': Regiment,
	'营': Battalion,
	'连': Company,
	'排': Platoon,
	'兵': Engineer,
	'炸': Bomb,
	'弹': Bomb,
	'雷': Mine,
	'旗': Flag,
}

var (
	formationsMu sync.RWMutex
	formations   = map[string][6]string{
		"河东狮吼": {
			"司兵连排师",
			"旅…连…炸",
			"炸营…团旅",
			"军…兵…连",
			"师兵营雷排",
			"团排雷旗雷",
		},
		"午夜风铃": {
			"连旅司兵团",
			"师…炸…军",
			"团排…连兵",
			"排…营…营",
			"雷雷连师炸",
			"雷旗旅排兵",
		},
		"飞花逐月": {
			"连司军兵师",
			"师…连…旅",
			"团弹…弹团",
			"营…排…营",
			"旅兵兵排雷",
			"雷旗雷排连",
		},
		"飘香一剑": {
			"师兵连旅师",
			"团…连…炸",
			"团营…炸营",
			"司…兵…连",
			"军兵旅雷排",
			"排排雷旗雷",
		},
		"于无声处": {
			"师兵军排营",
			"团…兵…旅",
			"师弹…连司",
			"弹…排…连",
			"营雷连雷团",
			"旅旗雷排兵",
		},
		"乌龙摆尾": {
			"营兵团排连",
			"师…兵…司",
			"旅连…军排",
			"连…兵…团",
			"弹旅师营雷",
			"弹排雷旗雷",
		},
		"三节阵": {
			"团排军兵令",
			"连…兵…团",
			"师弹…兵连",
			"排…连…旅",
			"雷营师弹旅",
			"雷旗雷排营",
		},
		"狼来了": {
			"团兵旅师连",
			"营…兵…军",
			"司兵…弹师",
			"排…弹…团",
			"营旅连雷连",
			"排排雷旗雷",
		},
		"雾山重剑": {
			"连排兵兵团",
			"师…连…司",
			"团营…营师",
			"炸…兵…旅",
			"军连旅雷炸",
			"雷旗雷排排",
		},
	}
)

// Layout 解析后的名阵，下标为 [本地行-1][本地列-1]。
type Layout [6][5]PieceKind

// normalizeRow 去掉空白，把 ASCII 省略号统一成一个“…”。
func normalizeRow(row string) string {
	r := strings.ReplaceAll(strings.TrimSpace(row), " ", "")
	r = strings.ReplaceAll(r, "...", "…")
	r = strings.ReplaceAll(r, "..", "…")
	return r
}

func parseGrid(grid [6]string) (Layout, error) {
	var l Layout
	var counts [numKinds]int
	for r, row := range grid {
		c := 0
		for _, ch := range normalizeRow(row) {
			if c >= 5 {
				return l, fmt.Errorf("row %d is longer than 5 cells", r+1)
			}
			switch ch {
			case '…', '·', '.':
			default:
				k, ok := charToKind[ch]
				if !ok {
					return l, fmt.Errorf("row %d: unknown piece %q", r+1, string(ch))
				}
				l[r][c] = k
				counts[k]++
			}
			c++
		}
	}
	if counts != Roster {
		return l, fmt.Errorf("formation does not match the standard roster")
	}
	return l, nil
}

// Formations 名阵名称，排序后返回。
func Formations() []string {
	formationsMu.RLock()
	defer formationsMu.RUnlock()
	names := make([]string, 0, len(formations))
	for n := range formations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func HasFormation(name string) bool {
	formationsMu.RLock()
	defer formationsMu.RUnlock()
	_, ok := formations[name]
	return ok
}

// FormationGrid returns the raw rows of a named formation.
func FormationGrid(name string) ([6]string, bool) {
	formationsMu.RLock()
	defer formationsMu.RUnlock()
	g, ok := formations[name]
	return g, ok
}

// FormationLayout parses a named formation.
func FormationLayout(name string) (Layout, error) {
	g, ok := FormationGrid(name)
	if !ok {
		return Layout{}, fmt.Errorf("unknown formation %q", name)
	}
	return parseGrid(g)
}

// RegisterFormation adds or replaces a formation after checking it against the roster.
func RegisterFormation(name string, grid [6]string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("formation name is empty")
	}
	for i := range grid {
		grid[i] = normalizeRow(grid[i])
	}
	if _, err := parseGrid(grid); err != nil {
		return err
	}
	formationsMu.Lock()
	formations[name] = grid
	formationsMu.Unlock()
	return nil
}
