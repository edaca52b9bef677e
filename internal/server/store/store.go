// Package store archives finished games.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"junqi/internal/junqi"
)

var ErrNotFound = errors.New("archived game not found")

// Record 一局结束后的存档。
type Record struct {
	ID         string                `json:"id"`
	SessionID  string                `json:"session_id"`
	Winner     string                `json:"winner"`
	Turns      int                   `json:"turns"`
	History    []junqi.HistoryRecord `json:"history"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
}

// Store is implemented by every archive backend.
type Store interface {
	// Save assigns an id when the record has none and returns the stored record.
	Save(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Open 按驱动名创建存档后端。
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}
