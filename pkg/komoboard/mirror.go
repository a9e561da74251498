package komoboard

import (
	"context"
	"fmt"
	"sync"
)

// Mirror tracks the layer kanata last confirmed. It only observes, the
// resolver never reads from it.
type Mirror struct {
	lock      sync.RWMutex
	current   string
	recorders []LayerRecorder
}

func NewMirror(recorders ...LayerRecorder) *Mirror {
	return &Mirror{recorders: recorders}
}

func (m *Mirror) Observe(ctx context.Context, layer string) error {
	m.lock.Lock()
	m.current = layer
	m.lock.Unlock()

	for _, r := range m.recorders {
		if err := r.RecordLayer(ctx, layer); err != nil {
			return fmt.Errorf("record layer %q: %w", layer, err)
		}
	}

	return nil
}

func (m *Mirror) Current() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.current
}
