package komorebi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrSubscribeFailed = errors.New("komorebic subscribe failed")

const defaultAcceptTimeout = 10 * time.Second

// SocketPath is where komorebi connects to when asked to notify the
// subscriber called name.
func SocketPath(name string) string {
	return filepath.Join(xdg.DataHome, "komorebi", name)
}

// SocketSubscriber listens on a unix socket and asks komorebi, through
// komorebic, to connect to it and stream notifications.
type SocketSubscriber struct {
	Name          string
	Komorebic     string
	AcceptTimeout time.Duration

	listener *net.UnixListener
	log      *zap.SugaredLogger
}

func NewSocketSubscriber(name, socketPath, komorebic string, log *zap.SugaredLogger) (*SocketSubscriber, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}

	// a previous run may have left the socket behind
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	if komorebic == "" {
		komorebic = "komorebic"
	}

	return &SocketSubscriber{
		Name:          name,
		Komorebic:     komorebic,
		AcceptTimeout: defaultAcceptTimeout,
		listener:      listener,
		log:           log,
	}, nil
}

func (s *SocketSubscriber) Close() error {
	return s.listener.Close()
}

func (s *SocketSubscriber) Subscribe(ctx context.Context) (io.ReadCloser, error) {
	if err := s.runCommand(ctx, "subscribe-socket", s.Name); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(s.AcceptTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := s.listener.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set accept deadline: %w", err)
	}

	conn, err := s.listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("accept komorebi connection: %w", err)
	}

	s.log.Debugw("komorebi connected", "subscriber", s.Name)
	return conn, nil
}

func (s *SocketSubscriber) runCommand(ctx context.Context, args ...string) error {
	var stdout bytes.Buffer

	cmd := exec.CommandContext(ctx, s.Komorebic, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	err := cmd.Run()
	outStr := strings.TrimSpace(stdout.String())
	if err != nil {
		return fmt.Errorf("%w: %s: %v, output: %s", ErrSubscribeFailed, s.Komorebic, err, outStr)
	}

	return nil
}
