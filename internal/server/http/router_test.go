package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"junqi/internal/engine"
	"junqi/internal/junqi"
	"junqi/internal/server/game"
	"junqi/internal/server/store"
	"junqi/internal/server/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stateView 只解出测试关心的字段。
type stateView struct {
	Phase   string          `json:"phase"`
	Current string          `json:"current"`
	History json.RawMessage `json:"history"`
}

type rawList struct {
	Moves []json.RawMessage `json:"moves"`
	Turns []json.RawMessage `json:"turns"`
}

func newTestRouter(t *testing.T, webDir string, opts ...game.Option) http.Handler {
	t.Helper()
	cfg := engine.DefaultSearchConfig()
	cfg.Depth = 1
	cfg.BeamWidth = 4
	cfg.TimeLimit = 2 * time.Second
	hub := ws.NewHub(zerolog.Nop())
	base := []game.Option{
		game.WithSeed(5),
		game.WithEngine(engine.New(engine.WithSearchConfig(cfg), engine.WithTopN(4))),
		game.WithNotifier(hub),
		game.WithArchive(store.NewMemory()),
	}
	m, err := game.NewManager(append(base, opts...)...)
	require.NoError(t, err)
	return NewRouter(NewHandler(m, hub, zerolog.Nop(), false), webDir)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createGame(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		GameID string    `json:"game_id"`
		State  stateView `json:"state"`
	}](t, w)
	require.NotEmpty(t, resp.GameID)
	assert.Equal(t, "setup", resp.State.Phase)
	return resp.GameID
}

func TestPlayThroughTheAPI(t *testing.T) {
	h := newTestRouter(t, "")
	id := createGame(t, h)
	base := "/api/games/" + id

	w := do(t, h, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "playing", decode[stateView](t, w).Phase)

	w = do(t, h, http.MethodGet, base+"/legal_moves", nil)
	require.Equal(t, http.StatusOK, w.Code)
	legal := decode[LegalMovesResponse](t, w)
	require.True(t, legal.Seat.Valid())
	require.NotEmpty(t, legal.Moves)

	mv := legal.Moves[0]
	w = do(t, h, http.MethodPost, base+"/move", MoveRequest{From: mv.From, To: mv.To})
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[stateView](t, w)
	assert.NotEqual(t, legal.Seat.String(), st.Current)
	var hist []json.RawMessage
	require.NoError(t, json.Unmarshal(st.History, &hist))
	assert.Len(t, hist, 1)

	// 同一步再走一次已经不合法
	w = do(t, h, http.MethodPost, base+"/move", MoveRequest{From: mv.From, To: mv.To})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, base+"?viewer=south", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, base+"/scored_moves?top_n=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[rawList](t, w).Moves, 2)
}

func TestErrorsMapToStatus(t *testing.T) {
	h := newTestRouter(t, "", game.WithBots())
	id := createGame(t, h)
	base := "/api/games/" + id

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		code   int
	}{
		{"unknown game", http.MethodGet, "/api/games/nope", nil, http.StatusNotFound},
		{"unknown game action", http.MethodPost, "/api/games/nope/start", nil, http.StatusNotFound},
		{"bad viewer", http.MethodGet, base + "?viewer=up", nil, http.StatusBadRequest},
		{"bad seat", http.MethodGet, base + "/legal_moves?seat=middle", nil, http.StatusBadRequest},
		{"bad top_n", http.MethodGet, base + "/scored_moves?top_n=-1", nil, http.StatusBadRequest},
		{"skip during setup", http.MethodPost, base + "/skip", nil, http.StatusBadRequest},
		{"formation needs a name", http.MethodPost, base + "/formation", map[string]string{"seat": "south"}, http.StatusBadRequest},
		{"unknown formation", http.MethodPost, base + "/formation", FormationRequest{Seat: junqi.South, Name: "没有这个阵"}, http.StatusBadRequest},
		{"unknown archive", http.MethodGet, "/api/archive/nope", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, w).Error)
		})
	}

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start", nil).Code)
	w := do(t, h, http.MethodPost, base+"/bot_move", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "nobody is a bot")

	w = do(t, h, http.MethodPost, base+"/bot_play", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[rawList](t, w).Turns)
}

func TestFormationsAndSetup(t *testing.T) {
	h := newTestRouter(t, "")
	w := do(t, h, http.MethodGet, "/api/formations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]FormationInfo](t, w)
	require.NotEmpty(t, list)
	for _, f := range list {
		assert.NotEmpty(t, f.Name)
		assert.NotEmpty(t, f.Grid[0])
	}

	id := createGame(t, h)
	w = do(t, h, http.MethodPost, "/api/games/"+id+"/formation", FormationRequest{Seat: junqi.North, Name: list[0].Name})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBotsAndPerspective(t *testing.T) {
	h := newTestRouter(t, "")
	id := createGame(t, h)
	base := "/api/games/" + id

	w := do(t, h, http.MethodGet, base+"/perspective/west", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[struct {
		Perspective struct {
			ForFaction string                     `json:"for_faction"`
			IDCoords   map[string]json.RawMessage `json:"id_coords"`
		} `json:"perspective"`
		LocationClues []json.RawMessage `json:"location_clues"`
	}](t, w)
	assert.Equal(t, "west", p.Perspective.ForFaction)
	assert.Len(t, p.LocationClues, len(junqi.Cells()))

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, base+"/perspective/south", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, base+"/perspective/up", nil).Code)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start", nil).Code)
	legal := decode[LegalMovesResponse](t, do(t, h, http.MethodGet, base+"/legal_moves", nil))
	require.NotEmpty(t, legal.Moves)
	if legal.Seat == junqi.South {
		// 南方是人类，先走一步才轮到机器人
		require.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, base+"/bot_move", nil).Code)
		mv := legal.Moves[len(legal.Moves)-1]
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/move", MoveRequest{From: mv.From, To: mv.To}).Code)
	}

	w = do(t, h, http.MethodPost, base+"/bot_play", BotPlayRequest{Limit: 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[rawList](t, w).Turns, 1)
}

func TestArchiveListsSurrenderedGames(t *testing.T) {
	h := newTestRouter(t, "")
	id := createGame(t, h)
	base := "/api/games/" + id
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/start", nil).Code)

	for i := 0; i < junqi.NumSeats; i++ {
		st := decode[stateView](t, do(t, h, http.MethodGet, base, nil))
		if st.Phase == "finished" {
			break
		}
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, base+"/surrender", nil).Code)
	}

	w := do(t, h, http.MethodGet, "/api/archive?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	games := decode[ArchiveResponse](t, w).Games
	require.Len(t, games, 1)
	assert.Equal(t, id, games[0].SessionID)

	w = do(t, h, http.MethodGet, "/api/archive/"+games[0].ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/archive?limit=x", nil).Code)
}

func TestStaticRoutes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>军棋</h1>"), 0o644))
	h := newTestRouter(t, dir)

	w := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/web/", w.Header().Get("Location"))

	w = do(t, h, http.MethodGet, "/web/index.html", nil)
	// http.FileServer 会把 index.html 重定向到目录
	assert.Contains(t, []int{http.StatusOK, http.StatusMovedPermanently}, w.Code)

	w = do(t, newTestRouter(t, ""), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
