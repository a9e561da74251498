package main

import (
	"codeberg.org/miketth/komoboard/pkg/config"
	"codeberg.org/miketth/komoboard/pkg/kanata"
	"codeberg.org/miketth/komoboard/pkg/keystate"
	"codeberg.org/miketth/komoboard/pkg/komoboard"
	"codeberg.org/miketth/komoboard/pkg/komorebi"
	"codeberg.org/miketth/komoboard/pkg/layerstore/sqlite"
	"codeberg.org/miketth/komoboard/pkg/layerstore/tmpfile"
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	"errors"
	"fmt"
	"github.com/adrg/xdg"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("error: %+v", err)
	}
}

type options struct {
	kanataPort       int
	configuration    string
	defaultLayer     string
	tmpfile          bool
	history          bool
	subscriptionName string
	komorebic        string
	debug            bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "komoboard",
		Short: "Switch kanata layers based on the window focused in komorebi",
		Long: `komoboard subscribes to komorebi window manager events and tells the
kanata keyboard remapper which layer to switch to, based on a list of rules
matching the focused process and window title.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configuration, "configuration", "c", "", "path to the rules file (default ~/komokana.yaml or $XDG_CONFIG_HOME/komoboard/komoboard.yaml)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.Flags().IntVarP(&opts.kanataPort, "kanata-port", "p", 0, "port of the kanata TCP server")
	cmd.Flags().StringVarP(&opts.defaultLayer, "default-layer", "d", "", "layer to switch to when the focused window matches no rule")
	cmd.Flags().BoolVarP(&opts.tmpfile, "tmpfile", "t", false, "write the current layer to "+tmpfile.DefaultPath())
	cmd.Flags().BoolVar(&opts.history, "history", false, "record every layer change in the history database")
	cmd.Flags().StringVar(&opts.subscriptionName, "subscription-name", "komoboard", "name of the komorebi subscription socket")
	cmd.Flags().StringVar(&opts.komorebic, "komorebic", "komorebic", "path to the komorebic executable")
	_ = cmd.MarkFlagRequired("kanata-port")
	_ = cmd.MarkFlagRequired("default-layer")

	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func run(ctx context.Context, opts *options) error {
	log, err := newLogger(opts.debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.configuration)
	if err != nil {
		return err
	}
	log.Infow("loaded configuration", "rules", len(cfg))

	subscriber, err := komorebi.NewSocketSubscriber(
		opts.subscriptionName,
		komorebi.SocketPath(opts.subscriptionName),
		opts.komorebic,
		log,
	)
	if err != nil {
		return fmt.Errorf("create komorebi subscriber: %w", err)
	}
	defer subscriber.Close()

	source, err := komorebi.Connect(ctx, subscriber, log)
	if err != nil {
		return fmt.Errorf("connect komorebi: %w", err)
	}
	defer source.Close()

	status := kanata.NewStatus()
	client, err := kanata.Connect(ctx, kanata.TCPDialer(opts.kanataPort), status, log)
	if err != nil {
		return fmt.Errorf("connect kanata: %w", err)
	}
	defer client.Close()

	var recorders []komoboard.LayerRecorder
	if opts.tmpfile {
		recorders = append(recorders, tmpfile.NewLayerStore(tmpfile.DefaultPath()))
	}
	if opts.history {
		store, err := openHistory(log)
		if err != nil {
			return err
		}
		defer store.Close()
		recorders = append(recorders, store)
	}

	probe := keystate.New()
	if probe == nil {
		log.Debug("virtual key state is not available on this platform, ignoring virtual key rules")
	}

	bridge := komoboard.NewBridge(
		source,
		client,
		status,
		rules.NewResolver(cfg, probe),
		komoboard.NewMirror(recorders...),
		opts.defaultLayer,
		log,
	)

	log.Info("started komoboard")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bridge.Run(ctx)
	})
	g.Go(func() error {
		if err := systemdNotifyLoop(ctx); err != nil {
			return fmt.Errorf("systemd notify: %w", err)
		}
		return nil
	})

	err = g.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		return nil
	case err != nil:
		return err
	}

	return nil
}

func loadConfig(path string) (rules.Configuration, error) {
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("get config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func openHistory(log *zap.SugaredLogger) (*sqlite.LayerStore, error) {
	path, err := xdg.StateFile("komoboard/layers.db")
	if err != nil {
		return nil, fmt.Errorf("get history path: %w", err)
	}

	store, err := sqlite.NewLayerStore(path, log)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	return store, nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Following komorebi focus into kanata layers")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
