package main

import (
	"codeberg.org/miketth/komoboard/pkg/komoboard"
	"codeberg.org/miketth/komoboard/pkg/layerstore/tmpfile"
	"codeberg.org/miketth/komoboard/pkg/rules"
	"context"
	"fmt"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"
	"io"
	"strings"
	"time"
)

func newCheckCmd(root *options) *cobra.Command {
	var (
		exe          string
		title        string
		event        string
		defaultLayer string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the rules file and optionally resolve a window against it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root.configuration)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration ok: %d rules\n", len(cfg))

			if exe == "" {
				return nil
			}

			kind, ok := rules.ParseEventKind(event)
			if !ok {
				return fmt.Errorf("unknown event %q", event)
			}

			ev := rules.Event{Kind: kind, Exe: exe}
			if cmd.Flags().Changed("title") {
				ev.Title = &title
			}

			layer, ok := rules.NewResolver(cfg, nil).Resolve(ev, defaultLayer)
			if !ok {
				fmt.Fprintln(out, "no layer change")
				return nil
			}

			fmt.Fprintf(out, "layer: %s\n", layer)
			return nil
		},
	}

	cmd.Flags().StringVar(&exe, "exe", "", "executable name of the window to resolve")
	cmd.Flags().StringVar(&title, "title", "", "title of the window to resolve")
	cmd.Flags().StringVar(&event, "event", rules.FocusChange.String(), "komorebi event kind (FocusChange or Show)")
	cmd.Flags().StringVarP(&defaultLayer, "default-layer", "d", "", "layer used when no rule matches")

	return cmd
}

func newHistoryCmd(root *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the layer changes kanata confirmed while running with --history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(root.debug)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer log.Sync()

			store, err := openHistory(log)
			if err != nil {
				return err
			}
			defer store.Close()

			return printHistory(cmd.Context(), cmd.OutOrStdout(), store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of changes to show, 0 for all")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether komorebi and kanata are running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, name := range []string{"komorebi", "kanata"} {
				pids, err := findProcesses(name)
				if err != nil {
					return fmt.Errorf("list processes: %w", err)
				}

				if len(pids) == 0 {
					fmt.Fprintf(out, "%s: not running\n", name)
					continue
				}
				fmt.Fprintf(out, "%s: running (pid %s)\n", name, joinPids(pids))
			}

			layer, err := tmpfile.NewLayerStore(tmpfile.DefaultPath()).CurrentLayer()
			if err != nil {
				return fmt.Errorf("read layer file: %w", err)
			}
			if layer != "" {
				fmt.Fprintf(out, "last layer: %s\n", layer)
			}

			return nil
		},
	}
}

func printHistory(ctx context.Context, out io.Writer, history komoboard.LayerHistory, limit int) error {
	changes, err := history.History(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	for _, change := range changes {
		fmt.Fprintf(out, "%s\t%s\n", change.ChangedAt.Local().Format(time.DateTime), change.Layer)
	}

	return nil
}

// findProcesses returns the pids of processes whose executable is called
// name, with or without an .exe suffix.
func findProcesses(name string) ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int32
	for _, p := range procs {
		procName, err := p.Name()
		if err != nil {
			// exited while listing
			continue
		}

		if matchesProcess(procName, name) {
			found = append(found, p.Pid)
		}
	}

	return found, nil
}

func matchesProcess(procName, name string) bool {
	procName = strings.TrimSuffix(strings.ToLower(procName), ".exe")
	return procName == strings.ToLower(name)
}

func joinPids(pids []int32) string {
	parts := make([]string, 0, len(pids))
	for _, pid := range pids {
		parts = append(parts, fmt.Sprint(pid))
	}
	return strings.Join(parts, ", ")
}
