// Package komorebi subscribes to the komorebi window manager event feed.
package komorebi

import (
	"codeberg.org/miketth/komoboard/pkg/netutil"
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"io"
	"sync"
	"time"
)

// DefaultBufferSize bounds a single read from komorebi. Notifications carry
// the whole window manager state and are larger than kanata's.
const DefaultBufferSize = 64 * 1024

// Subscriber performs whatever is needed to make komorebi start sending
// notifications and returns the resulting stream.
type Subscriber interface {
	Subscribe(ctx context.Context) (io.ReadCloser, error)
}

type Option func(*Source)

func WithRetryInterval(interval time.Duration) Option {
	return func(s *Source) {
		s.retryInterval = interval
	}
}

func WithBufferSize(size int) Option {
	return func(s *Source) {
		s.bufferSize = size
	}
}

type Source struct {
	subscriber    Subscriber
	log           *zap.SugaredLogger
	retryInterval time.Duration
	bufferSize    int

	lock   sync.Mutex
	stream io.ReadCloser
}

// Connect subscribes to komorebi, retrying until it succeeds or ctx is done.
func Connect(ctx context.Context, subscriber Subscriber, log *zap.SugaredLogger, opts ...Option) (*Source, error) {
	s := &Source{
		subscriber:    subscriber,
		log:           log,
		retryInterval: netutil.DefaultRetryInterval,
		bufferSize:    DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	stream, err := s.subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	s.stream = stream

	log.Debug("connected to komorebi")
	return s, nil
}

func (s *Source) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stream == nil {
		return nil
	}
	return s.stream.Close()
}

// Run reads notifications until ctx is done or a fatal error occurs and
// calls handle for every Show and FocusChange event. Komorebi output is not
// trusted: notifications that fail to parse are logged and dropped.
func (s *Source) Run(ctx context.Context, handle func(ctx context.Context, ev rules.Event) error) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	chunks := netutil.NewChunkReader(s.bufferSize)

	s.log.Info("listening to komorebi")
	for {
		s.lock.Lock()
		stream := s.stream
		s.lock.Unlock()

		messages, readErr := chunks.Next(stream)
		for _, msg := range messages {
			n, err := ParseNotification(msg)
			if err != nil {
				s.log.Debugw("discarding malformed komorebi notification", "error", err)
				continue
			}

			ev, ok := n.RuleEvent()
			if !ok {
				continue
			}

			s.log.Debugw("processing komorebi notification", "kind", ev.Kind, "exe", ev.Exe)
			if err := handle(ctx, ev); err != nil {
				return fmt.Errorf("handle %s event: %w", ev.Kind, err)
			}
		}

		switch {
		case readErr == nil:
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		case !netutil.IsConnectionLost(readErr):
			return fmt.Errorf("read from komorebi: %w", readErr)
		}

		if err := s.reconnect(ctx); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}
}

func (s *Source) reconnect(ctx context.Context) error {
	s.log.Warn("komorebi is no longer running")
	if err := s.Close(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		s.log.Debugw("closing stale komorebi stream", "error", err)
	}

	stream, err := s.subscribe(ctx)
	if err != nil {
		return err
	}

	s.lock.Lock()
	s.stream = stream
	s.lock.Unlock()

	if ctx.Err() != nil {
		_ = stream.Close()
		return ctx.Err()
	}

	s.log.Warn("reconnected to komorebi")
	return nil
}

func (s *Source) subscribe(ctx context.Context) (io.ReadCloser, error) {
	var stream io.ReadCloser
	err := netutil.RetryForever(ctx, s.retryInterval, s.log, "subscribe to komorebi", func(ctx context.Context) error {
		var err error
		stream, err = s.subscriber.Subscribe(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}
