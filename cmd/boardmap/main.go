package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"junqi/internal/junqi"
)

// 格子类型的单字符记号
var cellMark = map[junqi.CellKind]string{
	junqi.Normal:       "·",
	junqi.Railway:      "=",
	junqi.Camp:         "○",
	junqi.Headquarters: "□",
}

func main() {
	seatName := flag.String("seat", "", "print local coordinates of this seat for every cell")
	seed := flag.Uint64("seed", 0, "print an auto laid out board with this seed")
	flag.Parse()

	var b *junqi.Board
	if *seed != 0 {
		g := junqi.NewGame(junqi.WithSeed(*seed))
		b = g.Board()
	}
	printGrid(b)

	if *seatName != "" {
		seat, ok := junqi.ParseSeat(*seatName)
		if !ok || !seat.Valid() {
			fmt.Fprintf(os.Stderr, "unknown seat %q\n", *seatName)
			os.Exit(2)
		}
		fmt.Printf("\nlocal coordinates of %s:\n", seat)
		for _, p := range junqi.Cells() {
			l := junqi.LocalCoords(p, seat)
			fmt.Printf("%v -> (%d,%d) %s area=%s\n", p, l.Row, l.Col, junqi.KindAt(p), junqi.AreaOf(p))
		}
	}
}

func printGrid(b *junqi.Board) {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < junqi.Size; c++ {
		fmt.Fprintf(&sb, "%3d", c)
	}
	sb.WriteByte('\n')
	for r := 0; r < junqi.Size; r++ {
		fmt.Fprintf(&sb, "%3d", r)
		for c := 0; c < junqi.Size; c++ {
			p := junqi.Pos{Row: r, Col: c}
			if !junqi.Exists(p) {
				sb.WriteString("   ")
				continue
			}
			mark := cellMark[junqi.KindAt(p)]
			if b != nil {
				if pc, ok := b.PieceAt(p); ok {
					mark = string([]rune(pc.Kind.Face())[:1])
				}
			}
			// 记号都是单个字符，按字符而不是字节对齐
			sb.WriteString("  " + mark)
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
	fmt.Printf("%d cells\n", len(junqi.Cells()))
}
