package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/docidx/internal/config"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var initCmd = &cobra.Command{
	Use:   "init [searchindex.js]",
	Short: "Create ~/.docidx and its config, optionally installing an index",
	Long: `Initialize docidx:

  1. create ~/.docidx/
  2. write docidx.yaml with defaults if it does not exist
  3. write a .env template listing the DOCIDX_* overrides
  4. when a searchindex.js is given, install it as the served index

Example:
  docidx init
  docidx init _build/html/searchindex.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// ── 1. Resolve ~/.docidx directory ────────────────────────────────────────
	dir, err := config.DocidxDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("docidx directory ready: %s", dir))

	// ── 2. Write docidx.yaml if missing ───────────────────────────────────────
	cfgPath := flagConfig
	if cfgPath == "" {
		if cfgPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if flagIndex != "" {
			cfg.IndexPath = appCfg.IndexPath
		}
		if err := config.SaveTo(cfgPath, cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. Write .env template ────────────────────────────────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, _ := config.DotEnvPath()
	printOK("", fmt.Sprintf("Environment overrides: %s", envPath))

	// ── 4. Reload config and install the index if given ───────────────────────
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	if flagIndex != "" {
		cfg.IndexPath = appCfg.IndexPath
	}
	appCfg = cfg

	if len(args) == 1 {
		src, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", args[0], err)
		}
		idx, err := searchindex.Install(cmd.Context(), src, cfg.IndexPath)
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Index installed: %s (%d documents)", cfg.IndexPath, idx.Len()))
	} else if _, err := os.Stat(cfg.IndexPath); errors.Is(err, fs.ErrNotExist) {
		printMiss("", fmt.Sprintf("No index at %s yet; run 'docidx install <searchindex.js>'", cfg.IndexPath))
	} else {
		printOK("", fmt.Sprintf("Index present: %s", cfg.IndexPath))
	}

	fmt.Println("\n✓  docidx init complete. Run 'docidx doctor' to verify your environment.")
	return nil
}
