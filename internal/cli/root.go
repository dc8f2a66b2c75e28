package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables that back the global flags,
// e.g. SHEETQ_DB and SHEETQ_FORMAT.
const EnvPrefix = "SHEETQ"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // workbook database path
	Config   string // workbook config path; empty means sheetq.cue next to Database
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// globalFlags are bound to viper so each can also come from the environment.
var globalFlags = []string{"verbose", "format", "db", "config"}

// NewRootCommand creates the root command for the sheetq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	settings := viper.New()
	settings.SetEnvPrefix(EnvPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "sheetq",
		Short: "sheetq - query worksheets through generated SQL",
		Long: `Query worksheet data with query documents.

Worksheets are imported from CSV into a workbook database. A query document
is translated into one parameterized SQL statement, run against the
workbook, and its rows are materialized into typed items declared in a CUE
workbook config.

Global flags can also be set through the environment: SHEETQ_DB,
SHEETQ_CONFIG, SHEETQ_FORMAT and SHEETQ_VERBOSE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags win over the environment, the environment over defaults.
			opts.Verbose = settings.GetBool("verbose")
			opts.Format = settings.GetString("format")
			opts.Database = settings.GetString("db")
			opts.Config = settings.GetString("config")

			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logs to stderr)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Database, "db", "", "path to the workbook database")
	flags.StringVar(&opts.Config, "config", "", "path to the workbook config (default: sheetq.cue next to the database)")
	for _, name := range globalFlags {
		if err := settings.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	// Add subcommands
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSheetsCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger returns a text logger writing to w, at Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
