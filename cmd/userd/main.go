package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devoops/user-service/internal/pkg/config"
	"github.com/devoops/user-service/internal/server"
	"github.com/devoops/user-service/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "userd",
	Short: "User identity service",
	Long: `Registers and authenticates users, gates requests by role and runs
the account deletion workflow. Usage:

	userd serve
`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}

		log := logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  cfg.IsDevelopment(),
			Service: "user-service",
		})

		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to start")
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
