package komoboard

import (
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	"time"
)

type EventSource interface {
	Run(ctx context.Context, handle func(ctx context.Context, ev rules.Event) error) error
}

type LayerSwitcher interface {
	ChangeLayer(ctx context.Context, layer string) error
	Listen(ctx context.Context, onLayer func(ctx context.Context, layer string) error) error
}

type LinkStatus interface {
	Disconnected() bool
}

type LayerResolver interface {
	Resolve(ev rules.Event, defaultLayer string) (string, bool)
}

// LayerRecorder persists confirmed layer changes somewhere.
type LayerRecorder interface {
	RecordLayer(ctx context.Context, layer string) error
}

type LayerChange struct {
	Layer     string
	ChangedAt time.Time
}

type LayerHistory interface {
	History(ctx context.Context, limit int) ([]LayerChange, error)
}
