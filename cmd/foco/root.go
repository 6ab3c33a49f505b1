package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lawrns/foco/board"
	"github.com/lawrns/foco/types"
)

// Effective settings after flags, environment, and config file are
// merged. Every command reads these, never the raw flags.
var (
	storePath    string
	outputFormat string
	noColor      bool
	quiet        bool
	verbose      bool
)

// timeNow is swapped in tests for reproducible export names.
var timeNow = time.Now

var vconf = viper.New()

var rootCmd = &cobra.Command{
	Use:   "foco",
	Short: "Foco - project and task board management",
	Long: `Foco is a project board that lives in a single file. Tasks keep
their position in each column through fractional order keys, so moving
one task never rewrites its neighbors.

The store path points at a JSON file by default; a .db, .sqlite, or
.sqlite3 extension selects the SQLite backend instead. Column layout is
read from a board.yaml next to the store file when one exists.

Configuration sources, in order of precedence: command line flags,
FOCO_* environment variables, then a foco.yaml in the current directory
or under $XDG_CONFIG_HOME/foco.

Examples:
  foco project add "Website Revamp"
  foco task add "Design landing page" --project website --priority high
  foco task move 1a2b3c4d --status in_progress
  foco board --project website
  foco import csv backlog.csv --project website
  foco serve --addr :8080`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initConfig()
		if err := vconf.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}

		storePath = vconf.GetString("store")
		outputFormat = vconf.GetString("format")
		noColor = vconf.GetBool("no-color")
		quiet = vconf.GetBool("quiet")
		verbose = vconf.GetBool("verbose")

		switch outputFormat {
		case "table", "json", "yaml":
		default:
			return fmt.Errorf("unknown format %q (expected table, json, or yaml)", outputFormat)
		}
		if noColor {
			color.NoColor = true
		}
		return initLogging()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("store", "s", "foco.json", "Path to the board store file")
	flags.StringP("format", "f", "table", "Output format: table|json|yaml")
	flags.Bool("no-color", false, "Disable colored output")
	flags.BoolP("quiet", "q", false, "Suppress headers and confirmation lines")
	flags.BoolP("verbose", "v", false, "Enable verbose output and debug logging")
}

// initConfig wires viper's discovery chain. A FOCO_CONFIG environment
// variable names an explicit file; otherwise foco.yaml is looked up in
// the current directory and the user config directory. A missing file
// is not an error.
func initConfig() {
	if cfgFile := os.Getenv("FOCO_CONFIG"); cfgFile != "" {
		vconf.SetConfigFile(cfgFile)
	} else {
		vconf.SetConfigName("foco")
		vconf.SetConfigType("yaml")
		vconf.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			vconf.AddConfigPath(filepath.Join(xdg, "foco"))
		} else if home, err := os.UserHomeDir(); err == nil {
			vconf.AddConfigPath(filepath.Join(home, ".config", "foco"))
		}
	}

	vconf.SetEnvPrefix("FOCO")
	vconf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vconf.AutomaticEnv()
	_ = vconf.ReadInConfig()
}

// openStore opens the board behind the configured store path.
func openStore() (types.Store, error) {
	s, err := board.New(storePath, board.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", storePath, err)
	}
	return s, nil
}

// boardConfigFile is the column layout read by the board command and
// the server: a board.yaml next to the store file.
func boardConfigFile() string {
	return filepath.Join(filepath.Dir(storePath), "board.yaml")
}
