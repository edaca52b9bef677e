package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"junqi/internal/junqi"
)

// archivedGame 存档表的一行，走子记录整体存成 JSON 列。
type archivedGame struct {
	ID         string `gorm:"primaryKey;size:36"`
	SessionID  string `gorm:"index;size:36"`
	Winner     string `gorm:"size:16"`
	Turns      int
	History    datatypes.JSON
	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index"`
}

func (archivedGame) TableName() string { return "archived_games" }

// SQLStore keeps the archive in a gorm database.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the sqlite file at dsn and migrates the schema.
func OpenSQLite(dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dsn, err)
	}
	return NewSQL(db)
}

// NewSQL wraps an already opened database.
func NewSQL(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&archivedGame{}); err != nil {
		return nil, fmt.Errorf("migrating archive schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	hist := rec.History
	if hist == nil {
		hist = []junqi.HistoryRecord{}
	}
	raw, err := json.Marshal(hist)
	if err != nil {
		return Record{}, fmt.Errorf("encoding history: %w", err)
	}
	row := archivedGame{
		ID:         rec.ID,
		SessionID:  rec.SessionID,
		Winner:     rec.Winner,
		Turns:      rec.Turns,
		History:    datatypes.JSON(raw),
		StartedAt:  rec.StartedAt.UTC(),
		FinishedAt: rec.FinishedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return Record{}, fmt.Errorf("saving archive %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	var row archivedGame
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading archive %s: %w", id, err)
	}
	return row.record()
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Record, error) {
	q := s.db.WithContext(ctx).Order("finished_at desc").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []archivedGame
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r archivedGame) record() (Record, error) {
	rec := Record{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Winner:     r.Winner,
		Turns:      r.Turns,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if len(r.History) > 0 {
		if err := json.Unmarshal(r.History, &rec.History); err != nil {
			return Record{}, fmt.Errorf("decoding history of %s: %w", r.ID, err)
		}
	}
	return rec, nil
}
