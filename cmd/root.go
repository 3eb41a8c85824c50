package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/docidx/internal/config"
	"github.com/kamusis/docidx/internal/logging"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var (
	flagConfig string
	flagIndex  string
	flagJSON   bool

	// appCfg is resolved once per invocation by the root pre-run hook.
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "docidx",
	Short:        "docidx — query Sphinx searchindex.js files",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `docidx loads the searchindex.js a Sphinx documentation build emits and
answers term lookups, document lookups and ranked searches against it, from
the command line, over HTTP, or as MCP tools.`,
	PersistentPreRunE: loadAppConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.docidx/docidx.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagIndex, "index", "", "Index file, overrides index_path from the config")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of formatted text")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadAppConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadOrDefault(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if flagIndex != "" {
		p, err := config.ExpandPath(flagIndex)
		if err != nil {
			return err
		}
		cfg.IndexPath = p
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	appCfg = cfg
	return nil
}

// loadIndex loads the configured index file.
func loadIndex(ctx context.Context) (*searchindex.Index, error) {
	idx, err := searchindex.LoadFile(ctx, appCfg.IndexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w\nRun 'docidx install <searchindex.js>' or pass --index.", err)
		}
		return nil, err
	}
	return idx, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
