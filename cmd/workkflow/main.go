package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/5ALAM/workkflow/internal/config"
	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/layout"
	"github.com/5ALAM/workkflow/internal/store"
)

var (
	flagConfig    string
	flagStore     string
	flagJSON      bool
	flagLogLevel  string
	flagLogFormat string
	flagDirection string
	flagFilter    string
	flagOutput    string
	flagAddr      string
	flagServer    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "workkflow",
		Short: "Lay out workflow step graphs and gate status changes on dependencies",
		Long: `Workkflow loads a workflow of steps with dependencies, lays it out as a
layered graph, and only lets a step change status once every step it
directly depends on is finished.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			slog.SetDefault(initLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Workflow blob path (default "+store.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().StringVar(&flagDirection, "direction", "", "Layout direction: LR or TB")

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(layoutCmd())
	rootCmd.AddCommand(viewsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(eligibleCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(dotCmd())
	rootCmd.AddCommand(importDOTCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resetCmd())

	return rootCmd
}

// initLogger builds a slog logger from level and format names. Unknown
// levels fall back to info and unknown formats to text.
func initLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig reads the config file and applies flag overrides. An explicit
// --config must exist; the default path is optional.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flagStore != "" {
		cfg.Store.Path = flagStore
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
	if flagDirection != "" {
		cfg.Layout.Direction = flagDirection
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// openSession is shared logic for every command that reads the workflow.
func openSession() (*store.Session, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.Open(store.NewFileStore(cfg.Store.Path), cfg.LayoutOptions())
	if err != nil {
		return nil, nil, err
	}
	return sess, cfg, nil
}

// filteredLayout applies --filter, when set, and lays out the result. An
// unfiltered graph uses the session's cached layout.
func filteredLayout(sess *store.Session, cfg *config.Config) (*graph.Graph, *layout.Result, error) {
	g := sess.Graph()
	if flagFilter == "" {
		res, err := sess.Layout()
		return g, res, err
	}

	g, err := applyFilter(g, flagFilter)
	if err != nil {
		return nil, nil, fmt.Errorf("apply filter: %w", err)
	}
	res, err := layout.Compute(g, cfg.LayoutOptions())
	if err != nil {
		return nil, nil, err
	}
	return g, res, nil
}

// applyFilter parses simple filter expressions and returns a filtered graph.
func applyFilter(g *graph.Graph, filter string) (*graph.Graph, error) {
	// Supported formats: "status=X", "status!=X", "owner=X", "type=X"
	key, value, ok := strings.Cut(filter, "=")
	if !ok {
		return nil, fmt.Errorf("unsupported filter: %s (use status=X, status!=X, owner=X, or type=X)", filter)
	}
	switch key {
	case "status":
		return g.Filter(func(s graph.Step) bool { return string(s.Status) == value })
	case "status!":
		return g.Filter(func(s graph.Step) bool { return string(s.Status) != value })
	case "owner":
		return g.Filter(func(s graph.Step) bool { return s.Owner == value })
	case "type":
		return g.Filter(func(s graph.Step) bool { return s.Kind() == value })
	}
	return nil, fmt.Errorf("unsupported filter: %s (use status=X, status!=X, owner=X, or type=X)", filter)
}

// --- Output helpers ---

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
