// Package kanata talks to the TCP server of the kanata keyboard remapper.
package kanata

import (
	"codeberg.org/miketth/komoboard/pkg/netutil"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"net"
	"strconv"
	"sync"
	"time"
)

type Dialer func(ctx context.Context) (net.Conn, error)

// TCPDialer dials the kanata TCP server listening on port on localhost.
func TCPDialer(port int) Dialer {
	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
}

type Option func(*Client)

func WithRetryInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = interval
	}
}

// Client owns the connection to kanata. The writer and the read loop start
// out on the same connection; after the read loop re-establishes its own
// connection, the writer lazily dials a fresh one on its next send.
type Client struct {
	dial          Dialer
	status        *Status
	log           *zap.SugaredLogger
	retryInterval time.Duration

	writeLock sync.Mutex
	writeConn net.Conn

	readLock sync.Mutex
	readConn net.Conn
}

func Connect(ctx context.Context, dial Dialer, status *Status, log *zap.SugaredLogger, opts ...Option) (*Client, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial kanata: %w", err)
	}

	c := &Client{
		dial:          dial,
		status:        status,
		log:           log,
		retryInterval: netutil.DefaultRetryInterval,
		writeConn:     conn,
		readConn:      conn,
	}
	for _, opt := range opts {
		opt(c)
	}

	log.Debug("connected to kanata")
	return c, nil
}

func (c *Client) Close() error {
	c.writeLock.Lock()
	writeConn := c.writeConn
	c.writeLock.Unlock()

	c.readLock.Lock()
	readConn := c.readConn
	c.readLock.Unlock()

	err := closeConn(writeConn)
	if readConn != writeConn {
		err = errors.Join(err, closeConn(readConn))
	}
	return err
}

// ChangeLayer asks kanata to switch to layer. A connection that dropped
// under the writer is not an error: the command is dropped and the next
// call reconnects.
func (c *Client) ChangeLayer(ctx context.Context, layer string) error {
	if c.status.ReconnectPending() {
		if err := c.reconnectWriter(ctx); err != nil {
			return fmt.Errorf("reconnect writer: %w", err)
		}
	}

	payload, err := json.Marshal(changeLayerRequest{ChangeLayer: changeLayer{New: layer}})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	c.writeLock.Lock()
	_, err = c.writeConn.Write(payload)
	c.writeLock.Unlock()

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case netutil.IsConnectionLost(err):
		c.status.markReconnectPending()
		c.log.Warnw("kanata connection lost while sending, dropping layer change",
			"layer", layer,
			"error", err,
		)
		return nil
	default:
		return fmt.Errorf("write to kanata: %w", err)
	}

	c.log.Debugw("request sent", "request", string(payload))
	return nil
}

// Listen reads notifications from kanata until ctx is done or a fatal
// error occurs, calling onLayer for every confirmed layer change. Kanata
// is a trusted peer, so a notification that cannot be decoded is fatal.
func (c *Client) Listen(ctx context.Context, onLayer func(ctx context.Context, layer string) error) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()

	chunks := netutil.NewChunkReader(netutil.ReadBufferSize)

	c.log.Info("listening to kanata")
	for {
		c.readLock.Lock()
		conn := c.readConn
		c.readLock.Unlock()

		messages, readErr := chunks.Next(conn)
		for _, msg := range messages {
			var n notification
			if err := json.Unmarshal(msg, &n); err != nil {
				return fmt.Errorf("decode kanata notification %q: %w", msg, err)
			}

			if n.LayerChange == nil || n.LayerChange.New == "" {
				continue
			}

			c.log.Infow("current layer", "layer", n.LayerChange.New)
			if err := onLayer(ctx, n.LayerChange.New); err != nil {
				return fmt.Errorf("observe layer change: %w", err)
			}
		}

		switch {
		case readErr == nil:
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		case !netutil.IsConnectionLost(readErr):
			return fmt.Errorf("read from kanata: %w", readErr)
		}

		if err := c.reconnectReader(ctx); err != nil {
			return fmt.Errorf("reconnect reader: %w", err)
		}
	}
}

func (c *Client) reconnectReader(ctx context.Context) error {
	c.status.markDisconnected()
	c.log.Warn("kanata tcp server is no longer running")

	conn, err := c.redial(ctx)
	if err != nil {
		return err
	}

	c.readLock.Lock()
	old := c.readConn
	c.readConn = conn
	c.readLock.Unlock()

	c.writeLock.Lock()
	shared := old == c.writeConn
	c.writeLock.Unlock()
	if !shared {
		_ = closeConn(old)
	}

	if ctx.Err() != nil {
		_ = closeConn(conn)
		return ctx.Err()
	}

	c.log.Info("reconnected to kanata on read thread")
	c.status.markReconnected()
	return nil
}

func (c *Client) reconnectWriter(ctx context.Context) error {
	conn, err := c.redial(ctx)
	if err != nil {
		return err
	}

	c.writeLock.Lock()
	old := c.writeConn
	c.writeConn = conn
	c.writeLock.Unlock()

	c.readLock.Lock()
	shared := old == c.readConn
	c.readLock.Unlock()
	if !shared {
		_ = closeConn(old)
	}

	c.status.clearReconnectPending()
	c.log.Info("reconnected to kanata on write thread")
	return nil
}

func (c *Client) redial(ctx context.Context) (net.Conn, error) {
	var conn net.Conn
	err := netutil.RetryForever(ctx, c.retryInterval, c.log, "connect to kanata", func(ctx context.Context) error {
		var err error
		conn, err = c.dial(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func closeConn(conn net.Conn) error {
	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
