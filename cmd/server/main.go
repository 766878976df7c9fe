/*
main.go - Application entry point

PURPOSE:
  Starts the planning and reporting server, or prints a one-off month
  summary from the same database.

COMMANDS:
  serve    Run the HTTP API (default when no command is given)
  summary  Print the month summary and planned minutes
  reset    Delete all data (requires --yes)

FLAGS (persistent):
  --db         SQLite database path (default: witness.db)
               Use ":memory:" for in-memory database
  --log-level  debug, info, warn or error (default: info)

ENVIRONMENT:
  WITNESS_DB, WITNESS_PORT, WITNESS_LOG_LEVEL provide flag defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the cache warmer and flush the cache
  4. Close database connection

EXAMPLES:
  ./server serve --db="./data/witness.db" --port=3000
  ./server summary --year=2024 --month=1

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	dbPath   string
	logLevel string
	out      io.Writer
}

// NewRootCmd builds the command tree writing output to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:           "server",
		Short:         "Field service planning and reporting server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.dbPath, "db", envOr("WITNESS_DB", "witness.db"), "SQLite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("WITNESS_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	serve := newServeCmd(opts)
	root.AddCommand(
		serve,
		newSummaryCmd(opts),
		newResetCmd(opts),
	)
	root.RunE = serve.RunE

	return root
}

func (o *rootOptions) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", o.logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
