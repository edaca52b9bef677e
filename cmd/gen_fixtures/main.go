package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"junqi/internal/junqi"
)

// Fixture 一个局面和当前一方的全部合法走法，用来和其他实现对拍。
type Fixture struct {
	Pieces  []junqi.Square `json:"pieces"`
	Current junqi.Seat     `json:"current"`
	Moves   []junqi.Move   `json:"moves"`
	// Chosen 随机选中并执行的那一步
	Chosen *junqi.Move `json:"chosen,omitempty"`
}

func main() {
	games := flag.Int("games", 10, "number of random games")
	maxTurns := flag.Int("maxturns", 300, "turn cap per game")
	seed := flag.Uint64("seed", 1, "random seed")
	out := flag.String("out", "move_gen_fixtures.json", "output file")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	var fixtures []Fixture
	for g := 0; g < *games; g++ {
		game := junqi.NewGame(junqi.WithSeed(rng.Uint64()))
		if !game.StartGame() {
			fmt.Fprintln(os.Stderr, "auto layout failed")
			os.Exit(1)
		}
		for i := 0; i < *maxTurns && game.Phase() == junqi.PhasePlaying; i++ {
			seat := game.Current()
			f := Fixture{
				Pieces:  game.Board().Occupied(),
				Current: seat,
				Moves:   game.LegalMoves(seat),
			}
			if len(f.Moves) == 0 {
				fixtures = append(fixtures, f)
				game.SkipTurn()
				continue
			}
			mv := f.Moves[rng.Intn(len(f.Moves))]
			f.Chosen = &mv
			fixtures = append(fixtures, f)
			if !game.MovePiece(mv.From, mv.To) {
				fmt.Fprintf(os.Stderr, "legal move %v rejected\n", mv)
				os.Exit(1)
			}
		}
	}

	data, err := json.MarshalIndent(fixtures, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d positions from %d random games to %s\n", len(fixtures), *games, *out)
}
