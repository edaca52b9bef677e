package junqi

import "sync"

var (
	zobristOnce sync.Once

	// [座位][棋种][明/暗][格子]
	zobristPieces [NumSeats][numKinds][2][NumSquares]uint64
)

func initZobrist() {
	zobristOnce.Do(func() {
		seed := uint64(0x9E3779B97F4A7C15)
		next := func() uint64 {
			seed += 0x9E3779B97F4A7C15
			return mix64(seed)
		}

		for s := 0; s < NumSeats; s++ {
			for k := 1; k < int(numKinds); k++ {
				for v := 0; v < 2; v++ {
					for sq := 0; sq < NumSquares; sq++ {
						zobristPieces[s][k][v][sq] = next()
					}
				}
			}
		}
	})
}

func pieceHashKey(pc *Piece, sq int) uint64 {
	if pc == nil || !pc.Kind.Valid() || !pc.Owner.Valid() || sq < 0 || sq >= NumSquares {
		return 0
	}
	initZobrist()
	v := 0
	if pc.Visible {
		v = 1
	}
	return zobristPieces[pc.Owner][pc.Kind][v][sq] ^ identityKey(pc, sq)
}

// identityKey 把编号和战绩也算进哈希：同样兵种站位相同但“仇人”不同的局面估值不同。
// 要和格子一起混合，否则两个编号互换位置后异或结果不变。
func identityKey(pc *Piece, sq int) uint64 {
	if pc.ID == "" && pc.Kills == 0 {
		return 0
	}
	// FNV-1a
	h := uint64(14695981039346656037)
	for i := 0; i < len(pc.ID); i++ {
		h ^= uint64(pc.ID[i])
		h *= 1099511628211
	}
	kills := pc.Kills
	if kills > 0xff {
		kills = 0xff
	}
	return mix64(h ^ uint64(sq)<<40 ^ uint64(kills)<<56)
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// CalculateHash 全量计算当前局面的 Zobrist 哈希。
func (b *Board) CalculateHash() uint64 {
	var h uint64
	for sq := 0; sq < NumSquares; sq++ {
		if pc := b.slot(sq); pc != nil {
			h ^= pieceHashKey(pc, sq)
		}
	}
	return h
}

// Hash 增量维护的哈希。
func (b *Board) Hash() uint64 { return b.hash }
