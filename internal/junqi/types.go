package junqi

import (
	"fmt"
	"strings"
)

// Seat 座位（阵营）。同盟固定：南北 vs 东西。
type Seat int8

const (
	NoSeat Seat = -1
	South  Seat = 0
	West   Seat = 1
	North  Seat = 2
	East   Seat = 3

	NumSeats = 4
)

// AllSeats 按座位编号排列（南、西、北、东）。
var AllSeats = [NumSeats]Seat{South, West, North, East}

var seatNames = [NumSeats]string{"south", "west", "north", "east"}

func (s Seat) Valid() bool { return s >= South && s <= East }

func (s Seat) String() string {
	if !s.Valid() {
		return ""
	}
	return seatNames[s]
}

func (s Seat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Seat) UnmarshalText(b []byte) error {
	v, ok := ParseSeat(string(b))
	if !ok {
		return fmt.Errorf("unknown seat %q", string(b))
	}
	*s = v
	return nil
}

// ParseSeat accepts "south", "s", "南" and friends; an empty string yields NoSeat.
func ParseSeat(name string) (Seat, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return NoSeat, true
	case "south", "s", "南":
		return South, true
	case "west", "w", "西":
		return West, true
	case "north", "n", "北":
		return North, true
	case "east", "e", "东":
		return East, true
	}
	return NoSeat, false
}

// Axis 同盟轴：南北为 0，东西为 1。
type Axis int8

const (
	AxisSouthNorth Axis = 0
	AxisWestEast   Axis = 1
)

func (s Seat) Axis() Axis { return Axis(s % 2) }

// Seats 返回该轴上的两个座位。
func (a Axis) Seats() [2]Seat {
	if a == AxisSouthNorth {
		return [2]Seat{South, North}
	}
	return [2]Seat{West, East}
}

func (a Axis) String() string {
	if a == AxisSouthNorth {
		return "south_north"
	}
	return "west_east"
}

func (a Axis) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Allied reports whether two seats play on the same alliance axis.
func Allied(a, b Seat) bool {
	return a.Valid() && b.Valid() && a.Axis() == b.Axis()
}

type PieceKind int8

const (
	NoKind    PieceKind = iota
	Commander           // 司令
	General             // 军长
	Division            // 师长
	Brigade             // 旅长
	Regiment            // 团长
	Battalion           // 营长
	Company             // 连长
	Platoon             // 排长
	Engineer            // 工兵
	Bomb                // 炸弹
	Mine                // 地雷
	Flag                // 军旗

	numKinds
)

// AllKinds 全部棋子种类，从大到小。
var AllKinds = []PieceKind{
	Commander, General, Division, Brigade, Regiment, Battalion,
	Company, Platoon, Engineer, Bomb, Mine, Flag,
}

var kindPower = [numKinds]int{
	Commander: 10,
	General:   9,
	Division:  8,
	Brigade:   7,
	Regiment:  6,
	Battalion: 5,
	Company:   4,
	Platoon:   3,
	Engineer:  2,
	Bomb:      1,
	Mine:      0,
	Flag:      -1,
}

var kindNames = [numKinds]string{
	"", "commander", "general", "division", "brigade", "regiment", "battalion",
	"company", "platoon", "engineer", "bomb", "mine", "flag",
}

var kindFaces = [numKinds]string{
	"", "司令", "军长", "师长", "旅长", "团长", "营长", "连长", "排长", "工兵", "炸弹", "地雷", "军旗",
}

func (k PieceKind) Valid() bool { return k > NoKind && k < numKinds }

// Power 只用于比较大小，不代表真实价值。
func (k PieceKind) Power() int {
	if !k.Valid() {
		return -2
	}
	return kindPower[k]
}

// Movable 地雷、军旗不能走。
func (k PieceKind) Movable() bool {
	return k.Valid() && k != Mine && k != Flag
}

func (k PieceKind) String() string {
	if !k.Valid() {
		return ""
	}
	return kindNames[k]
}

// Face 中文棋面。
func (k PieceKind) Face() string {
	if !k.Valid() {
		return ""
	}
	return kindFaces[k]
}

func (k PieceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PieceKind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown piece kind %q", string(b))
	}
	*k = v
	return nil
}

// ParseKind accepts the English name or the Chinese face.
func ParseKind(s string) (PieceKind, bool) {
	s = strings.TrimSpace(s)
	for k := Commander; k < numKinds; k++ {
		if strings.EqualFold(s, kindNames[k]) || s == kindFaces[k] {
			return k, true
		}
	}
	return NoKind, false
}

// Roster 每方固定兵力。
var Roster = [numKinds]int{
	Commander: 1,
	General:   1,
	Division:  2,
	Brigade:   2,
	Regiment:  2,
	Battalion: 2,
	Company:   3,
	Platoon:   3,
	Engineer:  3,
	Bomb:      2,
	Mine:      3,
	Flag:      1,
}

const RosterSize = 25

type CellKind int8

const (
	Normal CellKind = iota
	Railway
	Camp
	Headquarters
)

var cellKindNames = [...]string{"normal", "railway", "camp", "headquarters"}

func (c CellKind) String() string {
	if c < Normal || c > Headquarters {
		return ""
	}
	return cellKindNames[c]
}

func (c CellKind) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Pos 全局坐标，行列都在 [0,17)。
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Pos) OnGrid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

func (p Pos) index() int { return p.Row*Size + p.Col }

func posOf(sq int) Pos { return Pos{Row: sq / Size, Col: sq % Size} }

type Move struct {
	From Pos `json:"from"`
	To   Pos `json:"to"`
}

func (m Move) String() string { return m.From.String() + "->" + m.To.String() }

// Piece 棋子。ID 在开局时统一分配。
type Piece struct {
	Kind    PieceKind `json:"kind"`
	Owner   Seat      `json:"owner"`
	Visible bool      `json:"visible"`
	Kills   int       `json:"kills"`
	ID      string    `json:"id,omitempty"`
	Mark    string    `json:"mark,omitempty"`
}

// Outcome 一步棋的结果。
type Outcome int8

const (
	OutcomeMove Outcome = iota
	OutcomeAttackerWins
	OutcomeDefenderWins
	OutcomeBothDie
)

var outcomeNames = [...]string{"move", "attack_attacker_wins", "attack_defender_wins", "attack_both_die"}

func (o Outcome) String() string {
	if o < OutcomeMove || o > OutcomeBothDie {
		return ""
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for i, n := range outcomeNames {
		if n == string(b) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", string(b))
}

// IsCombat reports whether the move hit an occupied cell.
func (o Outcome) IsCombat() bool { return o != OutcomeMove }
