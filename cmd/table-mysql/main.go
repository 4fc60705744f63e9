// Command table-mysql answers mail table requests from a SQL database.
//
// Requests are read from stdin one per line and answered on stdout. The
// configuration file named on the command line holds the connection
// parameters and one query per service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/table-mysql/internal/config"
	"github.com/koustreak/table-mysql/internal/database"
	"github.com/koustreak/table-mysql/internal/database/mysql"
	"github.com/koustreak/table-mysql/internal/database/postgres"
	"github.com/koustreak/table-mysql/internal/logger"
	"github.com/koustreak/table-mysql/internal/status"
	"github.com/koustreak/table-mysql/internal/table"
	"github.com/koustreak/table-mysql/internal/tableapi"
)

var rootCmd = &cobra.Command{
	Use:           "table-mysql <config-file>",
	Short:         "Mail table backend for MySQL",
	Long:          `Serves alias, domain, credentials and other mail table lookups from prepared SQL queries.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().String("log-format", "console", "Log format (console, json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "table-mysql: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, _ := cmd.Flags().GetString("log-format")

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log := logger.New(&logger.Config{
		Level:  cfg.LogLevel(),
		Format: format,
		Output: os.Stderr,
	}).With().Str("table", "mysql").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := table.New(path, cfg, table.Options{
		Dialer: database.Dialers{
			database.DriverMySQL:    mysql.Dialer{},
			database.DriverPostgres: postgres.Dialer{},
		},
		Logger: log,
	})
	defer func() { _ = backend.Close() }()

	if err := backend.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	log.Info("ready")

	if addr := cfg.StatusListen(); addr != "" {
		srv := status.New(addr, backend, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.ErrorWith("status server stopped", err, nil)
			}
		}()
	}

	// unblock the dispatcher's read on shutdown
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	err = tableapi.Serve(ctx, os.Stdin, os.Stdout, backend, log)
	if errors.Is(err, context.Canceled) {
		log.Info("shutting down")
		return nil
	}
	return err
}
