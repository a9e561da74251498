package komoboard_test

import (
	"codeberg.org/miketth/komoboard/pkg/kanata"
	"codeberg.org/miketth/komoboard/pkg/komoboard"
	"codeberg.org/miketth/komoboard/pkg/komorebi"
	"codeberg.org/miketth/komoboard/pkg/layerstore/tmpfile"
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"io"
	"net"
	"path/filepath"
	"time"
)

// pipeSubscriber plays komorebi: every subscription is a fresh in-memory pipe.
type pipeSubscriber struct {
	writers chan *io.PipeWriter
}

func (p *pipeSubscriber) Subscribe(context.Context) (io.ReadCloser, error) {
	r, w := io.Pipe()
	p.writers <- w
	return r, nil
}

func focusNotification(exe, title string) string {
	return `{"event":{"type":"FocusChange","content":["Mouse",{"exe":"` + exe + `","title":"` + title + `"}]},"state":{}}`
}

var _ = Describe("Bridge", func() {
	var (
		ctx        context.Context
		cancel     context.CancelFunc
		listener   net.Listener
		accepted   chan net.Conn
		subscriber *pipeSubscriber
		komorebiW  *io.PipeWriter
		kanataConn net.Conn
		status     *kanata.Status
		mirror     *komoboard.Mirror
		layerFile  *tmpfile.LayerStore
		done       chan error
	)

	readCommand := func(conn net.Conn) string {
		Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
		buf := make([]byte, 1024)
		n, err := conn.Read(buf)
		Expect(err).NotTo(HaveOccurred())
		return string(buf[:n])
	}

	nextConn := func() net.Conn {
		var conn net.Conn
		Eventually(accepted, 5*time.Second).Should(Receive(&conn))
		DeferCleanup(func() { _ = conn.Close() })
		return conn
	}

	send := func(data string) {
		_, err := komorebiW.Write([]byte(data))
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		log := zap.NewNop().Sugar()

		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		accepted = make(chan net.Conn, 8)
		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}
				accepted <- conn
			}
		}()

		addr := listener.Addr().String()
		dial := func(ctx context.Context) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		}

		status = kanata.NewStatus()
		client, err := kanata.Connect(ctx, dial, status, log, kanata.WithRetryInterval(10*time.Millisecond))
		Expect(err).NotTo(HaveOccurred())
		kanataConn = nextConn()

		subscriber = &pipeSubscriber{writers: make(chan *io.PipeWriter, 8)}
		source, err := komorebi.Connect(ctx, subscriber, log, komorebi.WithRetryInterval(10*time.Millisecond))
		Expect(err).NotTo(HaveOccurred())
		Eventually(subscriber.writers).Should(Receive(&komorebiW))

		layerFile = tmpfile.NewLayerStore(filepath.Join(GinkgoT().TempDir(), tmpfile.FileName))
		mirror = komoboard.NewMirror(layerFile)

		config := rules.Configuration{
			{Exe: "a.exe", TargetLayer: "base"},
			{
				Exe:         "a.exe",
				TargetLayer: "num",
				TitleOverrides: []rules.TitleOverride{
					{Title: "Calc", Strategy: rules.Equals, TargetLayer: "calc"},
				},
			},
		}

		bridge := komoboard.NewBridge(source, client, status, rules.NewResolver(config, nil), mirror, "default", log)

		done = make(chan error, 1)
		go func() {
			done <- bridge.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(MatchError(context.Canceled)))
		_ = komorebiW.Close()
		_ = listener.Close()
	})

	It("switches layers according to the rules", func() {
		send(focusNotification("a.exe", "Calc"))
		Expect(readCommand(kanataConn)).To(Equal(`{"ChangeLayer":{"new":"calc"}}`))

		send(focusNotification("a.exe", "Other"))
		Expect(readCommand(kanataConn)).To(Equal(`{"ChangeLayer":{"new":"num"}}`))

		send(focusNotification("b.exe", "Other"))
		Expect(readCommand(kanataConn)).To(Equal(`{"ChangeLayer":{"new":"default"}}`))
	})

	It("mirrors the layers kanata confirms", func() {
		_, err := kanataConn.Write([]byte(`{"LayerChange":{"new":"calc"}}` + "\n"))
		Expect(err).NotTo(HaveOccurred())

		Eventually(mirror.Current).Should(Equal("calc"))
		Eventually(func() (string, error) {
			return layerFile.CurrentLayer()
		}).Should(Equal("calc"))
	})

	It("keeps going after malformed notifications", func() {
		send(`{"event":{"type":"FocusChange","content":["Mouse",{"exe":"a.e`)
		send("\n")
		send(focusNotification("a.exe", "Calc"))
		Expect(readCommand(kanataConn)).To(Equal(`{"ChangeLayer":{"new":"calc"}}`))
	})

	It("reconnects to kanata after it goes away", func() {
		Expect(kanataConn.Close()).To(Succeed())

		reconnected := nextConn()
		Eventually(status.ReconnectPending).Should(BeTrue())
		Expect(status.Disconnected()).To(BeFalse())

		send(focusNotification("a.exe", "Calc"))
		writer := nextConn()
		Expect(readCommand(writer)).To(Equal(`{"ChangeLayer":{"new":"calc"}}`))
		Expect(status.ReconnectPending()).To(BeFalse())

		_, err := reconnected.Write([]byte(`{"LayerChange":{"new":"calc"}}`))
		Expect(err).NotTo(HaveOccurred())
		Eventually(mirror.Current).Should(Equal("calc"))
	})

	It("resubscribes when komorebi goes away", func() {
		Expect(komorebiW.Close()).To(Succeed())
		Eventually(subscriber.writers, 5*time.Second).Should(Receive(&komorebiW))

		send(focusNotification("a.exe", "Calc"))
		Expect(readCommand(kanataConn)).To(Equal(`{"ChangeLayer":{"new":"calc"}}`))
	})
})
