package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"junqi/internal/config"
	"junqi/internal/engine"
	"junqi/internal/logging"
	"junqi/internal/server/game"
	httpserver "junqi/internal/server/http"
	"junqi/internal/server/store"
	"junqi/internal/server/ws"
)

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux / bsd
		cmd = exec.Command("xdg-open", url)
	}

	_ = cmd.Start() // 服务器环境可能没有图形界面
}

func main() {
	cfgPath := flag.String("config", "", "path to a JSON/YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newEngine(cfg config.Config, log zerolog.Logger) (*engine.Engine, error) {
	styles, err := cfg.Bots.StyleMap()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithLogger(log.With().Str("component", "engine").Logger()),
		engine.WithWeights(cfg.Weights),
		engine.WithSearchConfig(cfg.Search.Engine()),
		engine.WithTopN(cfg.Bots.TopN),
	}
	for seat, style := range styles {
		opts = append(opts, engine.WithStyle(seat, style))
	}
	return engine.New(opts...), nil
}

func run(cfg config.Config, log zerolog.Logger) error {
	archive, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer archive.Close()

	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	bots, err := cfg.Bots.SeatList()
	if err != nil {
		return err
	}

	hub := ws.NewHub(log.With().Str("component", "ws").Logger())
	games, err := game.NewManager(
		game.WithEngine(eng),
		game.WithBots(bots...),
		game.WithArchive(archive),
		game.WithNotifier(hub),
		game.WithLogger(log.With().Str("component", "game").Logger()),
		game.WithSeed(cfg.Game.Seed),
	)
	if err != nil {
		return err
	}

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	h := httpserver.NewHandler(games, hub, log.With().Str("component", "http").Logger(), cfg.Server.AutoBots)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpserver.NewRouter(h, cfg.Server.WebDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("web", cfg.Server.WebDir).
			Str("store", cfg.Store.Driver).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	if cfg.Server.OpenBrowser {
		// 延迟一下，等服务器起来
		go func() {
			time.Sleep(100 * time.Millisecond)
			openBrowser("http://127.0.0.1" + cfg.Server.Addr)
		}()
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
