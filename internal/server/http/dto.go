package httpserver

import (
	"junqi/internal/engine"
	"junqi/internal/junqi"
	"junqi/internal/perspective"
	"junqi/internal/server/game"
	"junqi/internal/server/store"
)

// NewGameResponse 新建对局的返回
type NewGameResponse struct {
	GameID string            `json:"game_id"`
	State  junqi.PublicState `json:"state"`
}

// MoveRequest 走子 / 布阵换位都用这个
type MoveRequest struct {
	From junqi.Pos `json:"from"`
	To   junqi.Pos `json:"to"`
}

type FormationRequest struct {
	Seat junqi.Seat `json:"seat"`
	Name string     `json:"name" binding:"required"`
}

type MarkRequest struct {
	Pos  junqi.Pos `json:"pos"`
	Mark string    `json:"mark"`
}

type BotPlayRequest struct {
	// 0 表示一直走到轮到人类或者终局
	Limit int `json:"limit"`
}

type LegalMovesResponse struct {
	Seat  junqi.Seat   `json:"seat"`
	Moves []junqi.Move `json:"moves"`
}

type ScoredMovesResponse struct {
	Seat  junqi.Seat          `json:"seat"`
	Moves []engine.ScoredMove `json:"moves"`
}

type PerspectiveResponse struct {
	Perspective   perspective.Payload `json:"perspective"`
	LocationClues []perspective.Clue  `json:"location_clues"`
}

type BotPlayResponse struct {
	Turns []game.BotTurn    `json:"turns"`
	State junqi.PublicState `json:"state"`
}

type FormationInfo struct {
	Name string    `json:"name"`
	Grid [6]string `json:"grid"`
}

type ArchiveResponse struct {
	Games []store.Record `json:"games"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
