package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"junqi/internal/config"
	"junqi/internal/engine"
	"junqi/internal/junqi"
	"junqi/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "config file for weights and search defaults")
	totalGames := flag.Int("games", 8, "number of games to play")
	workers := flag.Int("workers", 4, "games played in parallel")
	depth := flag.Int("depth", 0, "search depth (0 keeps the config value)")
	maxTurns := flag.Int("maxturns", 600, "turn cap per game, counted as a draw")
	seed := flag.Uint64("seed", 1, "seed of the first game; game n uses seed+n")
	snStyle := flag.String("sn-style", "", "root style of south and north")
	weStyle := flag.String("we-style", "", "root style of west and east")
	pprof := flag.String("pprof", "", "serve pprof on this address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if *pprof != "" {
		go func() {
			log.Info().Str("addr", *pprof).Msg("pprof listening")
			if err := http.ListenAndServe(*pprof, nil); err != nil {
				log.Warn().Err(err).Msg("pprof failed")
			}
		}()
	}

	sc := cfg.Search.Engine()
	if *depth > 0 {
		sc.Depth = *depth
	}
	opts := []engine.Option{
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
		engine.WithWeights(cfg.Weights),
		engine.WithSearchConfig(sc),
		engine.WithTopN(cfg.Bots.TopN),
	}
	for _, side := range []struct {
		style string
		axis  junqi.Axis
	}{{*snStyle, junqi.AxisSouthNorth}, {*weStyle, junqi.AxisWestEast}} {
		c, err := engine.ParseCategory(side.style)
		if err != nil {
			log.Fatal().Err(err).Msg("bad style")
		}
		for _, s := range side.axis.Seats() {
			opts = append(opts, engine.WithStyle(s, c))
		}
	}
	e := engine.New(opts...)

	var (
		mu    sync.Mutex
		stats tally
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)
	for i := 0; i < *totalGames; i++ {
		n := i
		g.Go(func() error {
			res, err := playGame(ctx, e, *seed+uint64(n), *maxTurns)
			if err != nil {
				return fmt.Errorf("game %d: %w", n+1, err)
			}
			log.Info().Int("game", n+1).Str("winner", res.winnerName()).Int("turns", res.turns).
				Int64("nodes", res.nodes).Dur("took", res.took).Msg("game over")
			mu.Lock()
			stats.add(res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("selfplay failed")
	}
	stats.print(os.Stdout, *snStyle, *weStyle)
}

type result struct {
	winner   junqi.Axis
	finished bool
	turns    int
	searches int
	nodes    int64
	took     time.Duration
}

func (r result) winnerName() string {
	if !r.finished {
		return "draw"
	}
	return r.winner.String()
}

// playGame 四个座位都交给引擎，直到终局或者到回合上限。
func playGame(ctx context.Context, e *engine.Engine, seed uint64, maxTurns int) (result, error) {
	start := time.Now()
	game := junqi.NewGame(junqi.WithSeed(seed))
	if !game.StartGame() {
		return result{}, fmt.Errorf("auto layout left a seat incomplete")
	}
	var res result
	for i := 0; i < maxTurns && game.Phase() == junqi.PhasePlaying; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		seat := game.Current()
		choice, ok := e.ChooseBestMove(ctx, game.Board(), seat, game.History())
		res.searches++
		res.nodes += choice.Result.Nodes
		if !ok {
			game.SkipTurn()
			continue
		}
		if !game.MovePiece(choice.From, choice.To) {
			return res, fmt.Errorf("%s chose illegal move %v", seat, choice.Move())
		}
	}
	res.turns = game.TurnCount()
	res.winner, res.finished = game.Winner()
	res.took = time.Since(start)
	return res, nil
}

type tally struct {
	games    int
	wins     [2]int
	draws    int
	turns    int
	searches int
	nodes    int64
	took     time.Duration
}

func (t *tally) add(r result) {
	t.games++
	if r.finished {
		t.wins[r.winner]++
	} else {
		t.draws++
	}
	t.turns += r.turns
	t.searches += r.searches
	t.nodes += r.nodes
	t.took += r.took
}

func (t tally) print(w *os.File, snStyle, weStyle string) {
	label := func(s string) string {
		if s == "" {
			return "default"
		}
		return s
	}
	fmt.Fprintf(w, "\n=== %d games ===\n", t.games)
	fmt.Fprintf(w, "south_north [%s]: %d\n", label(snStyle), t.wins[junqi.AxisSouthNorth])
	fmt.Fprintf(w, "west_east   [%s]: %d\n", label(weStyle), t.wins[junqi.AxisWestEast])
	fmt.Fprintf(w, "draws: %d\n", t.draws)
	if t.games == 0 || t.searches == 0 {
		return
	}
	fmt.Fprintf(w, "avg turns: %.1f\n", float64(t.turns)/float64(t.games))
	fmt.Fprintf(w, "avg nodes per search: %d, avg search time: %v\n",
		t.nodes/int64(t.searches), t.took/time.Duration(t.searches))
}
