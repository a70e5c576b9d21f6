package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/bookstore/internal/queue"
)

// NewWorkerCommand consumes order events into the order log.
func NewWorkerCommand(opts *RootOptions) *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Append order events from RabbitMQ to the order log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.load()
			if err != nil {
				return err
			}
			defer e.log.Sync() //nolint:errcheck
			if logPath == "" {
				logPath = e.cfg.OrderLogPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e.log.Info("order worker starting", zap.String("log_path", logPath))
			err = queue.NewConsumer(e.cfg.RabbitURL, logPath, e.log).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&logPath, "log-path", "", "file to append to (default ORDER_LOG_PATH)")
	return cmd
}
