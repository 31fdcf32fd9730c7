package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/silpaChalmers/theCityLibrary/library"
)

// app carries what every subcommand needs.
type app struct {
	cfg     library.Config
	log     *slog.Logger
	manager *library.LibraryManager
	nav     *consoleNavigator
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		server  string
		token   string
		timeout time.Duration
		verbose bool
	)

	root := &cobra.Command{
		Use:           "lms",
		Short:         "Library management client",
		Long:          "lms lists, searches and edits books and borrow records and registers users against the LMS API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := library.ConfigFromEnv()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.BaseURL = strings.TrimRight(server, "/")
			}
			if flags.Changed("token") {
				cfg.Token = token
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			a.cfg = cfg
			a.nav = &consoleNavigator{out: cmd.OutOrStdout()}
			a.manager = library.NewLibraryManager(cfg, a.nav, consoleNotifier{out: cmd.OutOrStdout()}, a.log)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&server, "server", "", "backend base URL (env LMS_SERVER)")
	pf.StringVar(&token, "token", "", "bearer token (env LMS_TOKEN)")
	pf.DurationVar(&timeout, "timeout", 0, "per-request timeout (env LMS_TIMEOUT)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log every request")

	root.AddCommand(
		newBooksCmd(a),
		newBorrowCmd(a),
		newUsersCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newShellCmd(a),
	)
	return root
}
