package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"junqi/internal/junqi"
	"junqi/internal/server/game"
	"junqi/internal/server/store"
	"junqi/internal/server/ws"
)

// Handler 把 HTTP 请求翻译成对 game.Manager 的调用。
type Handler struct {
	games *game.Manager
	hub   *ws.Hub
	log   zerolog.Logger
	// 人类走完之后自动让机器人接着走
	autoBots bool
}

func NewHandler(games *game.Manager, hub *ws.Hub, log zerolog.Logger, autoBots bool) *Handler {
	return &Handler{games: games, hub: hub, log: log, autoBots: autoBots}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotBotTurn), errors.Is(err, game.ErrStale):
		return http.StatusConflict
	case errors.Is(err, game.ErrIllegal):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// seatQuery 空字符串返回 NoSeat。
func seatQuery(c *gin.Context, key string) (junqi.Seat, bool) {
	s, ok := junqi.ParseSeat(c.Query(key))
	if !ok {
		badRequest(c, "unknown seat "+strconv.Quote(c.Query(key)))
	}
	return s, ok
}

func (h *Handler) state(c *gin.Context, id string) {
	st, err := h.games.State(id, junqi.NoSeat)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// runBots 后台把机器人的回合走完；失败只记日志。
func (h *Handler) runBots(id string) {
	if !h.autoBots {
		return
	}
	go func() {
		turns, err := h.games.PlayBots(context.Background(), id, 0)
		if err != nil && !errors.Is(err, game.ErrStale) && !errors.Is(err, game.ErrIllegal) {
			h.log.Warn().Err(err).Str("game", id).Msg("bot run stopped")
			return
		}
		h.log.Debug().Str("game", id).Int("turns", len(turns)).Msg("bot run done")
	}()
}

func (h *Handler) NewGame(c *gin.Context) {
	id, st := h.games.Create()
	c.JSON(http.StatusOK, NewGameResponse{GameID: id, State: st})
}

func (h *Handler) GetGame(c *gin.Context) {
	viewer, ok := seatQuery(c, "viewer")
	if !ok {
		return
	}
	st, err := h.games.State(c.Param("id"), viewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// action 无请求体的操作：start / skip / surrender / reset。
func (h *Handler) action(do func(ctx context.Context, id string) error, wakeBots bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := do(c.Request.Context(), id); err != nil {
			h.fail(c, err)
			return
		}
		if wakeBots {
			h.runBots(id)
		}
		h.state(c, id)
	}
}

func (h *Handler) Start() gin.HandlerFunc     { return h.action(h.games.Start, true) }
func (h *Handler) Skip() gin.HandlerFunc      { return h.action(h.games.Skip, true) }
func (h *Handler) Surrender() gin.HandlerFunc { return h.action(h.games.Surrender, true) }
func (h *Handler) Reset() gin.HandlerFunc     { return h.action(h.games.Reset, false) }

func (h *Handler) Move(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json")
		return
	}
	id := c.Param("id")
	if err := h.games.Move(c.Request.Context(), id, req.From, req.To); err != nil {
		h.fail(c, err)
		return
	}
	h.runBots(id)
	h.state(c, id)
}

func (h *Handler) Swap(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json")
		return
	}
	id := c.Param("id")
	if err := h.games.Swap(c.Request.Context(), id, req.From, req.To); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c, id)
}

func (h *Handler) Formation(c *gin.Context) {
	var req FormationRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Seat.Valid() {
		badRequest(c, "seat and name required")
		return
	}
	id := c.Param("id")
	if err := h.games.ApplyFormation(c.Request.Context(), id, req.Seat, req.Name); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c, id)
}

func (h *Handler) Mark(c *gin.Context) {
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "bad json")
		return
	}
	id := c.Param("id")
	if err := h.games.Mark(c.Request.Context(), id, req.Pos, req.Mark); err != nil {
		h.fail(c, err)
		return
	}
	h.state(c, id)
}

func (h *Handler) BotMove(c *gin.Context) {
	turn, err := h.games.BotMove(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

func (h *Handler) BotPlay(c *gin.Context) {
	var req BotPlayRequest
	// 请求体可以为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "bad json")
			return
		}
	}
	id := c.Param("id")
	turns, err := h.games.PlayBots(c.Request.Context(), id, req.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	st, err := h.games.State(id, junqi.NoSeat)
	if err != nil {
		h.fail(c, err)
		return
	}
	if turns == nil {
		turns = []game.BotTurn{}
	}
	c.JSON(http.StatusOK, BotPlayResponse{Turns: turns, State: st})
}

func (h *Handler) LegalMoves(c *gin.Context) {
	seat, ok := seatQuery(c, "seat")
	if !ok {
		return
	}
	seat, moves, err := h.games.LegalMoves(c.Param("id"), seat)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, LegalMovesResponse{Seat: seat, Moves: moves})
}

func (h *Handler) ScoredMoves(c *gin.Context) {
	seat, ok := seatQuery(c, "seat")
	if !ok {
		return
	}
	topN := 0
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "top_n must be a non-negative integer")
			return
		}
		topN = n
	}
	seat, moves, err := h.games.ScoredMoves(c.Param("id"), seat, topN)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ScoredMovesResponse{Seat: seat, Moves: moves})
}

func (h *Handler) Perspective(c *gin.Context) {
	seat, ok := junqi.ParseSeat(c.Param("seat"))
	if !ok || !seat.Valid() {
		badRequest(c, "unknown seat")
		return
	}
	p, clues, err := h.games.Perspective(c.Param("id"), seat)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, PerspectiveResponse{Perspective: p, LocationClues: clues})
}

// WS 连接建立后先推一份当前局面。
func (h *Handler) WS(c *gin.Context) {
	id := c.Param("id")
	st, err := h.games.State(id, junqi.NoSeat)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.hub.Serve(c, id, &ws.Message{Event: "state", Data: st})
}

func (h *Handler) Formations(c *gin.Context) {
	out := []FormationInfo{}
	for _, name := range junqi.Formations() {
		grid, _ := junqi.FormationGrid(name)
		out = append(out, FormationInfo{Name: name, Grid: grid})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Archive(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}
	recs, err := h.games.Archived(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ArchiveResponse{Games: recs})
}

func (h *Handler) ArchivedGame(c *gin.Context) {
	rec, err := h.games.ArchivedGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
