package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/httpapi"
	"github.com/lawrns/foco/realtime"
	"github.com/lawrns/foco/reminders"
	"github.com/lawrns/foco/types"
)

var (
	serveAddr     string
	serveSchedule string
	serveWindow   time.Duration
	servePoll     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Long: `Serve the board over HTTP: the REST API, a server-sent event
stream of board changes, a file watcher that picks up store rewrites by
other processes, and a reminder scanner that announces due and overdue
tasks on a schedule. Stops cleanly on SIGINT or SIGTERM.

Examples:
  foco serve --addr :8080
  foco serve --addr 127.0.0.1:8080 --reminder-window 48h
  foco serve --poll`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		hub := realtime.NewHub()
		defer hub.Close()

		store, err := board.New(storePath,
			board.WithNotifier(hub),
			board.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to open store %s: %w", storePath, err)
		}
		defer store.Close()

		boardCfg, err := types.LoadBoardConfig(boardConfigFile())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// One activity line per burst of changes instead of one per write.
		activity := realtime.NewCoalescer(func(batch []types.Change) {
			logger.Info("board activity",
				"changes", len(batch),
				"breakdown", summarizeChanges(batch))
		}, realtime.WithLogger(logger))
		changes, unsubscribe := hub.Subscribe(ctx)
		go func() {
			for change := range changes {
				activity.Add(change)
			}
		}()
		defer activity.Stop()
		defer unsubscribe()

		watchOpts := []realtime.Option{realtime.WithLogger(logger)}
		if servePoll {
			watchOpts = append(watchOpts, realtime.WithPolling())
		}
		watcher := realtime.NewWatcher(storePath, hub, watchOpts...)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("store watcher stopped", "error", err)
			}
		}()

		scanner := reminders.NewScanner(store, hub,
			reminders.WithSchedule(serveSchedule),
			reminders.WithWindow(serveWindow),
			reminders.WithLogger(logger))
		if err := scanner.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := scanner.Stop(stopCtx); err != nil {
				logger.Warn("reminder scanner shutdown", "error", err)
			}
		}()

		srv := httpapi.New(store, hub,
			httpapi.WithBoardConfig(boardCfg),
			httpapi.WithLogger(logger))
		if !quiet {
			fmt.Printf("Serving %s on %s\n", storePath, serveAddr)
		}
		return srv.ListenAndServe(ctx, serveAddr)
	},
}

// summarizeChanges renders a batch as "entity.op xN" pairs for the
// activity log.
func summarizeChanges(batch []types.Change) string {
	counts := make(map[string]int)
	for _, c := range batch {
		counts[fmt.Sprintf("%s.%s", c.Entity, c.Op)]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s x%d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveSchedule, "reminder-schedule", reminders.DefaultSchedule, "Cron schedule for reminder sweeps")
	serveCmd.Flags().DurationVar(&serveWindow, "reminder-window", reminders.DefaultWindow, "How far ahead a due date counts as due soon")
	serveCmd.Flags().BoolVar(&servePoll, "poll", false, "Poll the store file instead of watching it")
	rootCmd.AddCommand(serveCmd)
}
