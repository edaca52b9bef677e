package junqi

// MaxPieces 四方满编的棋子总数。
const MaxPieces = NumSeats * RosterSize

// Board 固定大小的值类型棋盘：Squares 存槽位号（0 表示空，k 表示 Pieces[k-1]）。
// 复制一个 Board 就是一次完整的深拷贝，搜索时可以随意 Clone。
type Board struct {
	Squares [NumSquares]uint8
	Pieces  [MaxPieces]Piece
	hash    uint64
}

// Square 一个被占据的格子。
type Square struct {
	Pos   Pos   `json:"pos"`
	Piece Piece `json:"piece"`
}

// Cell 格子的静态属性加上当前棋子。
type Cell struct {
	Pos      Pos
	Kind     CellKind
	Area     Seat
	Piece    Piece
	Occupied bool
}

func NewBoard() *Board {
	ensureTopology()
	return &Board{}
}

func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) slot(sq int) *Piece {
	k := b.Squares[sq]
	if k == 0 {
		return nil
	}
	return &b.Pieces[k-1]
}

// at 返回棋盘内部指针，只在包内使用。
func (b *Board) at(p Pos) *Piece {
	if !Exists(p) {
		return nil
	}
	return b.slot(p.index())
}

// PieceAt returns a copy of the piece on p.
func (b *Board) PieceAt(p Pos) (Piece, bool) {
	pc := b.at(p)
	if pc == nil {
		return Piece{}, false
	}
	return *pc, true
}

func (b *Board) Empty(p Pos) bool { return b.at(p) == nil }

// Cell returns the static data of p together with its occupant.
func (b *Board) Cell(p Pos) (Cell, bool) {
	if !Exists(p) {
		return Cell{}, false
	}
	c := Cell{Pos: p, Kind: KindAt(p), Area: AreaOf(p)}
	if pc := b.at(p); pc != nil {
		c.Piece = *pc
		c.Occupied = true
	}
	return c, true
}

// Place puts pc on an empty existing cell.
func (b *Board) Place(p Pos, pc Piece) bool {
	if !Exists(p) || b.at(p) != nil || !pc.Kind.Valid() || !pc.Owner.Valid() {
		return false
	}
	for i := range b.Pieces {
		if b.Pieces[i].Kind != NoKind {
			continue
		}
		b.Pieces[i] = pc
		sq := p.index()
		b.Squares[sq] = uint8(i + 1)
		b.hash ^= pieceHashKey(&b.Pieces[i], sq)
		return true
	}
	return false
}

// Remove takes the piece off p and frees its slot.
func (b *Board) Remove(p Pos) (Piece, bool) {
	if !Exists(p) {
		return Piece{}, false
	}
	sq := p.index()
	k := b.Squares[sq]
	if k == 0 {
		return Piece{}, false
	}
	pc := b.Pieces[k-1]
	b.hash ^= pieceHashKey(&pc, sq)
	b.Pieces[k-1] = Piece{}
	b.Squares[sq] = 0
	return pc, true
}

// relocate 搬动棋子，不做任何规则检查。
func (b *Board) relocate(from, to Pos) {
	fs, ts := from.index(), to.index()
	k := b.Squares[fs]
	pc := &b.Pieces[k-1]
	b.hash ^= pieceHashKey(pc, fs)
	b.Squares[fs] = 0
	b.Squares[ts] = k
	b.hash ^= pieceHashKey(pc, ts)
}

// update 原地修改 sq 上的棋子并维护哈希。
func (b *Board) update(sq int, fn func(pc *Piece)) {
	pc := b.slot(sq)
	if pc == nil {
		return
	}
	b.hash ^= pieceHashKey(pc, sq)
	fn(pc)
	b.hash ^= pieceHashKey(pc, sq)
}

func (b *Board) setVisible(sq int, v bool) {
	b.update(sq, func(pc *Piece) { pc.Visible = v })
}

// SetMark 给棋子贴标签（记牌用），空字符串清除。标签跟着棋子走。
func (b *Board) SetMark(p Pos, mark string) bool {
	pc := b.at(p)
	if pc == nil {
		return false
	}
	pc.Mark = mark
	return true
}

// Occupied 按格子顺序列出所有棋子。
func (b *Board) Occupied() []Square {
	out := make([]Square, 0, MaxPieces)
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil {
			out = append(out, Square{Pos: posOf(sq), Piece: *pc})
		}
	}
	return out
}

// PiecesOf 某一方的全部棋子。
func (b *Board) PiecesOf(seat Seat) []Square {
	var out []Square
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat {
			out = append(out, Square{Pos: posOf(sq), Piece: *pc})
		}
	}
	return out
}

func (b *Board) Count(seat Seat) int {
	n := 0
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat {
			n++
		}
	}
	return n
}

// Find locates a piece by id.
func (b *Board) Find(id string) (Pos, bool) {
	if id == "" {
		return Pos{}, false
	}
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.ID == id {
			return posOf(sq), true
		}
	}
	return Pos{}, false
}

// FindKind 某一方第一个该种类的棋子。
func (b *Board) FindKind(seat Seat, kind PieceKind) (Pos, bool) {
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat && pc.Kind == kind {
			return posOf(sq), true
		}
	}
	return Pos{}, false
}

func (b *Board) HasKind(seat Seat, kind PieceKind) bool {
	_, ok := b.FindKind(seat, kind)
	return ok
}

// ClearSeat 移除一方全部棋子，返回被移除的数量。
func (b *Board) ClearSeat(seat Seat) int {
	n := 0
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat {
			b.Remove(posOf(sq))
			n++
		}
	}
	return n
}

// RevealFlag 司令阵亡后亮出该方军旗。
func (b *Board) RevealFlag(seat Seat) {
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat && pc.Kind == Flag {
			b.setVisible(sq, true)
		}
	}
}

// RevealAll 终局时全部翻开。
func (b *Board) RevealAll() {
	for sq := 0; sq < NumSquares; sq++ {
		b.setVisible(sq, true)
	}
}

// rosterCounts 统计一方各兵种数量。
func (b *Board) rosterCounts(seat Seat) [numKinds]int {
	var n [numKinds]int
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil && pc.Owner == seat {
			n[pc.Kind]++
		}
	}
	return n
}

// SetupComplete reports whether seat has exactly the standard roster on the board.
func (b *Board) SetupComplete(seat Seat) bool {
	return b.rosterCounts(seat) == Roster
}
