package engine

import "junqi/internal/junqi"

const ttMaxEntries = 1_000_000

// 置换表键：局面哈希 + 轮到谁 + 剩余深度
type ttKey struct {
	Hash  uint64
	Seat  junqi.Seat
	Depth int
}

type ttEntry struct {
	Score float64
}

// 满了就整个清掉重来，不做替换策略
func (s *searcher) storeTT(key ttKey, score float64) {
	if len(s.tt) > ttMaxEntries {
		s.tt = make(map[ttKey]ttEntry, 1<<14)
	}
	s.tt[key] = ttEntry{Score: score}
}

func (s *searcher) probeTT(key ttKey) (float64, bool) {
	e, ok := s.tt[key]
	return e.Score, ok
}
