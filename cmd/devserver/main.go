package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/silpaChalmers/theCityLibrary/devserver"
)

func main() {
	var (
		addr        string
		dbPath      string
		requireAuth bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:           "devserver",
		Short:         "Serve the LMS API from a local SQLite file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			db, err := devserver.NewDatabase(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			srv := devserver.NewServer(db, devserver.Options{RequireAuth: requireAuth, Logger: logger})
			logger.Info("dev backend listening", "addr", addr, "db", dbPath, "require_auth", requireAuth)
			return http.ListenAndServe(addr, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "lms-dev.db", "SQLite database file")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "reject /admin and /borrow calls without a bearer token")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every request")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
