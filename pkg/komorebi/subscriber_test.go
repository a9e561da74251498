//go:build unix

package komorebi

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func shortSocketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are limited to roughly a hundred bytes
	dir, err := os.MkdirTemp("", "kb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "komorebi", "komoboard")
}

func TestSocketSubscriber_Subscribe(t *testing.T) {
	path := shortSocketPath(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	sub, err := NewSocketSubscriber("komoboard", path, "true", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer sub.Close()

	// play komorebi: connect once the subscription is requested
	go func() {
		conn, err := net.Dial("unix", path)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(focusJSON("a.exe", "x")))
	}()

	stream, err := sub.Subscribe(context.Background())
	require.NoError(t, err)
	defer stream.Close()

	buf := make([]byte, 1024)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, focusJSON("a.exe", "x"), string(buf[:n]))
}

func TestSocketSubscriber_CommandFails(t *testing.T) {
	sub, err := NewSocketSubscriber("komoboard", shortSocketPath(t), "false", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer sub.Close()

	_, err = sub.Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrSubscribeFailed)
}

func TestSocketSubscriber_AcceptTimeout(t *testing.T) {
	sub, err := NewSocketSubscriber("komoboard", shortSocketPath(t), "true", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer sub.Close()
	sub.AcceptTimeout = 20 * time.Millisecond

	_, err = sub.Subscribe(context.Background())
	assert.ErrorContains(t, err, "accept komorebi connection")
}

func TestSocketPath(t *testing.T) {
	path := SocketPath("komoboard")
	assert.Equal(t, "komoboard", filepath.Base(path))
	assert.Equal(t, "komorebi", filepath.Base(filepath.Dir(path)))
}
