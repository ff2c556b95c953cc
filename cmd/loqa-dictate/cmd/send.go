package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loqalabs/loqa-dictate/internal/bus"
	"github.com/loqalabs/loqa-dictate/internal/protocol"
	"github.com/loqalabs/loqa-dictate/internal/router"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [mode]",
	Short: "Send a command to a running instance over the bus",
	Long: `Publishes a command on <bus.subject_prefix>.command.

Commands: record_start, record_stop, cancel, acknowledge, reset_context, mode

Examples:
  loqa-dictate send record_start
  loqa-dictate send mode context`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Bus.Enabled {
		return fmt.Errorf("bus is disabled in the configuration")
	}
	msg := protocol.Command{Command: args[0], Source: "cli"}
	if len(args) == 2 {
		msg.Mode = args[1]
	}
	if _, err := router.EventFor(msg); err != nil {
		return err
	}

	var url string
	if cfg.Bus.Embedded {
		url = fmt.Sprintf("nats://%s:%d", cfg.Bus.Host, cfg.Bus.Port)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := bus.Connect(ctx, cfg.Bus, url, quietLogger())
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	subject := protocol.NewSubjects(cfg.Bus.SubjectPrefix).Command
	if err := client.Conn().Publish(subject, data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if err := client.Conn().FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s to %s\n", msg.Command, subject)
	return nil
}
