package netutil

import (
	"context"
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

func TestIsConnectionLost(t *testing.T) {
	reset := &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", ErrConnectionReset)}
	pipe := &net.OpError{Op: "write", Net: "unix", Err: os.NewSyscallError("write", ErrBrokenPipe)}

	assert.True(t, IsConnectionLost(io.EOF))
	assert.True(t, IsConnectionLost(fmt.Errorf("read: %w", io.EOF)))
	assert.True(t, IsConnectionLost(reset))
	assert.True(t, IsConnectionLost(pipe))

	assert.False(t, IsConnectionLost(nil))
	assert.False(t, IsConnectionLost(net.ErrClosed))
	assert.False(t, IsConnectionLost(errors.New("boom")))
	assert.False(t, IsConnectionLost(io.ErrUnexpectedEOF))
}

func TestRetryForever(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	calls := 0
	err := RetryForever(context.Background(), time.Millisecond, log, "dial", func(context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestRetryForever_Interval(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	var stamps []time.Time
	err := RetryForever(context.Background(), 20*time.Millisecond, log, "dial", func(context.Context) error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 3 {
			return errors.New("refused")
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 20*time.Millisecond)
	}
}

func TestRetryForever_Canceled(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	err := RetryForever(ctx, time.Hour, log, "dial", func(context.Context) error {
		calls++
		return errors.New("refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestChunkReader(t *testing.T) {
	cr := NewChunkReader(0)

	msgs, err := cr.Next(strings.NewReader("\n"))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = cr.Next(strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"a":1}`, string(msgs[0]))

	msgs, err = cr.Next(strings.NewReader("{\"a\":1}\n\n{\"b\":2}\r\n"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, `{"b":2}`, string(msgs[1]))

	msgs, err = cr.Next(strings.NewReader(""))
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, msgs)
}

func TestChunkReader_Bounded(t *testing.T) {
	cr := NewChunkReader(4)

	r := strings.NewReader("abcdefgh")
	msgs, err := cr.Next(r)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "abcd", string(msgs[0]))
}
