package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"propfinder/internal/app"
	"propfinder/internal/config"
	"propfinder/internal/logging"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "propfinder",
		Short: "AI-assisted rental property search",
		Long: `propfinder searches agoda.com, airbnb.com and booking.com through Gemini
with Google Search grounding, and manages listings you submitted yourself.

Configuration is read from the environment (and an optional .env file),
the same way the server reads it.`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log", "",
		"Log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false,
		"Print results as JSON")

	root.AddCommand(
		newSearchCmd(opts),
		newListingsCmd(opts),
		newGeocodeCmd(opts),
		newVersionCmd(),
	)
	return root
}

// openApp loads configuration and wires the services for one command run
func (o *rootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	switch {
	case o.logLevel != "":
		cfg.Logging.Level = o.logLevel
	case os.Getenv("LOG_LEVEL") == "":
		cfg.Logging.Level = "warn"
	}
	if !o.jsonOut {
		cfg.Logging.Format = "console"
	}

	log := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	return app.New(cmd.Context(), cfg, log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "propfinder %s\n", Version)
		},
	}
}
