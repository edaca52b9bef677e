// Package mobile starts the local game server from an app shell through gomobile bind.
package mobile

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"junqi/internal/logging"
	"junqi/internal/server/game"
	httpserver "junqi/internal/server/http"
	"junqi/internal/server/store"
	"junqi/internal/server/ws"
)

// NewHandler 用默认配置拼出整套服务：内存存档，西北东三家机器人。
func NewHandler(webDir string) (http.Handler, error) {
	logger := log.Logger.With().Str("component", "mobile").Logger()
	hub := ws.NewHub(logger)
	games, err := game.NewManager(
		game.WithArchive(store.NewMemory()),
		game.WithNotifier(hub),
		game.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return httpserver.NewRouter(httpserver.NewHandler(games, hub, logger, true), webDir), nil
}

// StartServer starts the local HTTP server in the background.
// webDir: physical path to the extracted web assets
// port: port to listen on, e.g. "2888"
func StartServer(webDir string, port string) error {
	h, err := NewHandler(webDir)
	if err != nil {
		return err
	}
	// 不能阻塞 Android 的 UI 线程
	go func() {
		if err := http.ListenAndServe("127.0.0.1:"+port, h); err != nil {
			log.Error().Err(err).Str("port", port).Msg("server error")
		}
	}()
	return nil
}

// SetLogLevel 让 app 端调整日志级别，比如 "debug"、"off"。
func SetLogLevel(level string) {
	zerolog.SetGlobalLevel(logging.ParseLevel(level))
}
