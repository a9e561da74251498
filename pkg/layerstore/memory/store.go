package memory

import (
	"codeberg.org/miketth/komoboard/pkg/komoboard"
	"context"
	"sync"
	"time"
)

type LayerStore struct {
	lock    sync.Mutex
	changes []komoboard.LayerChange
	now     func() time.Time
}

func NewLayerStore() *LayerStore {
	return &LayerStore{now: time.Now}
}

func (s *LayerStore) RecordLayer(_ context.Context, layer string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.changes = append(s.changes, komoboard.LayerChange{Layer: layer, ChangedAt: s.now()})
	return nil
}

// History returns up to limit changes, newest first. A limit <= 0 returns all of them.
func (s *LayerStore) History(_ context.Context, limit int) ([]komoboard.LayerChange, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if limit <= 0 || limit > len(s.changes) {
		limit = len(s.changes)
	}

	out := make([]komoboard.LayerChange, 0, limit)
	for i := len(s.changes) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.changes[i])
	}
	return out, nil
}

func (s *LayerStore) Layers() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]string, 0, len(s.changes))
	for _, c := range s.changes {
		out = append(out, c.Layer)
	}
	return out
}
