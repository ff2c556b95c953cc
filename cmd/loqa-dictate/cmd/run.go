package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
	"github.com/loqalabs/loqa-dictate/internal/runtime"
	"github.com/spf13/cobra"
)

var (
	runTUI  bool
	runMode string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dictation runtime",
	Long: `Starts the microphone, the push-to-talk listener, the bus bridge and the
HTTP surface (/healthz, /readyz, /status, /command, /ws, /metrics).

Examples:
  loqa-dictate run
  loqa-dictate run --tui
  loqa-dictate run --mode fast --config ./loqa-dictate.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "show the terminal UI (overrides ui.tui)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "start in this mode: fast|standard|context")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("tui") {
		cfg.UI.TUI = runTUI
	}
	if runMode != "" {
		mode, err := pipeline.ParseMode(runMode)
		if err != nil {
			return err
		}
		cfg.Pipeline.Mode = string(mode)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg, cfg.UI.TUI)
	if err != nil {
		return err
	}
	defer closer.Close()

	var traceOut io.Writer = os.Stderr
	if cfg.UI.TUI {
		traceOut = io.Discard
	}
	rt := runtime.New(cfg, runtime.Options{ConfigPath: path, TraceOutput: traceOut}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
