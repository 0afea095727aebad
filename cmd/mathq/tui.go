package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/storage"
	"github.com/Veraticus/mathq/internal/tui"
	"github.com/Veraticus/mathq/internal/tui/themes"
	"github.com/Veraticus/mathq/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive session",
		Long: `Start the interactive session.

Type a question or load a screenshot (Ctrl+O to open a file, Ctrl+V to paste
from the clipboard) and press Ctrl+S to solve it. With --watch, screenshots
saved into the directory are picked up automatically.

Logs go to the file named by logging.file so they stay off the screen.`,
		Args: cobra.NoArgs,
		RunE: runTUI,
	}

	cmd.Flags().String("watch", "", "directory to watch for new screenshots")
	cmd.Flags().String("theme", "", fmt.Sprintf("color theme (%s)", strings.Join(themes.Names, ", ")))
	cmd.Flags().String("record", "", "write every rendered frame to this directory")

	_ = viper.BindPFlag("tui.watch_dir", cmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := common.OpenLogFile(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close log file: %v\n", err)
		}
	}()
	if err := setupLogging(logFile); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if err := startTelemetry(ctx, cfg, logFile); err != nil {
		return err
	}

	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close history", "error", err)
		}
	}()

	s, err := newSession(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []tui.Option{
		tui.WithSession(s),
		tui.WithHistory(store),
		tui.WithTheme(themes.GetTheme(cfg.TUI.Theme)),
	}

	if cfg.TUI.WatchDir != "" {
		w, err := watcher.New(nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Stop(); err != nil {
				slog.Warn("failed to stop watcher", "error", err)
			}
		}()
		paths, err := w.Watch(ctx, cfg.TUI.WatchDir)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithWatch(paths))
	}

	var rec *tui.Recorder
	if dir, _ := cmd.Flags().GetString("record"); dir != "" {
		if rec, err = tui.NewRecorder(dir); err != nil {
			return err
		}
		opts = append(opts, tui.WithRecorder(rec))
	}

	slog.Info("starting interactive session", "api", cfg.API.URL, "ocr", cfg.OCR.Engine)
	err = tui.Run(ctx, opts...)
	logSessionSummary(ctx, store)
	if rec != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Recorded %d frames to %s\n", rec.Frames(), rec.Dir())
	}
	return err
}

// logSessionSummary logs how the session's questions turned out.
func logSessionSummary(ctx context.Context, store *storage.SQLiteStorage) {
	counts, err := store.OutcomeCounts(context.WithoutCancel(ctx))
	if err != nil {
		common.LogError(err, "failed to summarize session", nil)
		return
	}

	fields := common.Fields{}
	total := 0
	for kind, n := range counts {
		fields[string(kind)] = n
		total += n
	}
	fields["questions"] = total
	common.LogInfo("session finished", fields)
}
