// Package komoboard switches kanata layers based on what komorebi reports
// about the focused window.
package komoboard

import (
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	"fmt"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Bridge struct {
	source       EventSource
	switcher     LayerSwitcher
	status       LinkStatus
	resolver     LayerResolver
	mirror       *Mirror
	defaultLayer string
	log          *zap.SugaredLogger

	// set after the first event dropped during an outage
	droppedLogged atomic.Bool
}

func NewBridge(
	source EventSource,
	switcher LayerSwitcher,
	status LinkStatus,
	resolver LayerResolver,
	mirror *Mirror,
	defaultLayer string,
	log *zap.SugaredLogger,
) *Bridge {
	return &Bridge{
		source:       source,
		switcher:     switcher,
		status:       status,
		resolver:     resolver,
		mirror:       mirror,
		defaultLayer: defaultLayer,
		log:          log,
	}
}

// Run reads komorebi events and kanata confirmations on their own
// goroutines until ctx is done or either of them fails.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.source.Run(ctx, b.HandleEvent); err != nil {
			return fmt.Errorf("komorebi: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := b.switcher.Listen(ctx, b.mirror.Observe); err != nil {
			return fmt.Errorf("kanata: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// HandleEvent resolves ev and sends the resulting layer to kanata. Events
// that resolve to nothing, or arrive while kanata is unreachable, are dropped.
func (b *Bridge) HandleEvent(ctx context.Context, ev rules.Event) error {
	defaultLayer := ""
	if ev.Kind == rules.FocusChange {
		defaultLayer = b.defaultLayer
	}

	layer, ok := b.resolver.Resolve(ev, defaultLayer)
	if !ok {
		return nil
	}

	if b.status.Disconnected() {
		if !b.droppedLogged.Swap(true) {
			b.log.Infow("kanata is currently disconnected, will not try to send ChangeLayer requests",
				"layer", layer,
				"exe", ev.Exe,
			)
		} else {
			b.log.Debugw("dropping layer change while kanata is disconnected", "layer", layer)
		}
		return nil
	}
	b.droppedLogged.Store(false)

	if err := b.switcher.ChangeLayer(ctx, layer); err != nil {
		return fmt.Errorf("change layer to %q: %w", layer, err)
	}

	return nil
}
