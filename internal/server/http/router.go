// Package httpserver exposes the game manager over a gin JSON API plus the push feed.
package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter mounts every /api route on a fresh gin engine. webDir, when not empty, is
// served under /web/ with / redirecting there.
func NewRouter(h *Handler, webDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	api := r.Group("/api")
	api.GET("/formations", h.Formations)
	api.GET("/archive", h.Archive)
	api.GET("/archive/:id", h.ArchivedGame)

	games := api.Group("/games")
	games.POST("", h.NewGame)
	games.GET("/:id", h.GetGame)
	games.POST("/:id/start", h.Start())
	games.POST("/:id/move", h.Move)
	games.POST("/:id/skip", h.Skip())
	games.POST("/:id/surrender", h.Surrender())
	games.POST("/:id/reset", h.Reset())
	games.POST("/:id/formation", h.Formation)
	games.POST("/:id/swap", h.Swap)
	games.POST("/:id/mark", h.Mark)
	games.POST("/:id/bot_move", h.BotMove)
	games.POST("/:id/bot_play", h.BotPlay)
	games.GET("/:id/legal_moves", h.LegalMoves)
	games.GET("/:id/scored_moves", h.ScoredMoves)
	games.GET("/:id/perspective/:seat", h.Perspective)
	games.GET("/:id/ws", h.WS)

	RegisterStaticRoutes(r, webDir)
	return r
}

// RegisterStaticRoutes 前端静态文件挂在 /web/ 下。
func RegisterStaticRoutes(r *gin.Engine, webDir string) {
	if webDir == "" {
		return
	}
	r.Static("/web", webDir)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/web/")
	})
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	}
}
