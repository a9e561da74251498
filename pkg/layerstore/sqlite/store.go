package sqlite

import (
	"codeberg.org/miketth/komoboard/pkg/komoboard"
	"codeberg.org/miketth/komoboard/pkg/layerstore/sqlite/migrations"
	"context"
	"database/sql"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"time"
)

type LayerStore struct {
	db      *sql.DB
	querier *Queries
	now     func() time.Time
}

func NewLayerStore(filename string, log *zap.SugaredLogger) (*LayerStore, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := migrations.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &LayerStore{
		db:      db,
		querier: New(db),
		now:     time.Now,
	}, nil
}

func (s *LayerStore) Close() error {
	return s.db.Close()
}

func (s *LayerStore) RecordLayer(ctx context.Context, layer string) error {
	if err := s.querier.InsertLayerChange(ctx, InsertLayerChangeParams{
		Layer:     layer,
		ChangedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("sqlite insert: %w", err)
	}

	return nil
}

// History returns up to limit changes, newest first. A limit <= 0 returns all of them.
func (s *LayerStore) History(ctx context.Context, limit int) ([]komoboard.LayerChange, error) {
	queryLimit := int64(limit)
	if queryLimit <= 0 {
		queryLimit = -1
	}

	changes, err := s.querier.ListLayerChanges(ctx, queryLimit)
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}

	out := make([]komoboard.LayerChange, 0, len(changes))
	for _, c := range changes {
		out = append(out, komoboard.LayerChange{
			Layer:     c.Layer,
			ChangedAt: c.ChangedAt,
		})
	}

	return out, nil
}
