package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/kamusis/docidx/internal/config"
	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that docidx's config, index file and listen address are usable.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("docidx doctor")
	fmt.Println()

	// ── Check 1: config file ──────────────────────────────────────────────────
	fmt.Println("[ docidx.yaml ]")
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		printWarn("", fmt.Sprintf("%s not found, using defaults (run 'docidx init')", cfgPath))
	} else if _, err := config.LoadFrom(cfgPath); err != nil {
		failD("cannot parse %s: %v", cfgPath, err)
	} else {
		printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
	}
	if appCfg.CacheSize == 0 {
		printInfo("", "result cache disabled (cache_size: 0)")
	}
	fmt.Println()

	// ── Check 2: index loads ──────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	idx, err := searchindex.LoadFile(ctx, appCfg.IndexPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		failD("no index at %s; run 'docidx install <searchindex.js>'", appCfg.IndexPath)
	case err != nil:
		failD("%v", err)
	default:
		stats := idx.Stats()
		printOK("", fmt.Sprintf("%s: %d documents, %d terms", appCfg.IndexPath, stats.Documents, stats.Terms))
		if stats.Documents == 0 {
			printWarn("", "index has no documents")
		}
		if untitled := countUntitled(idx); untitled > 0 {
			printWarn("", fmt.Sprintf("%d document(s) have no title", untitled))
		}
	}
	fmt.Println()

	// ── Check 3: lock file is writable ────────────────────────────────────────
	fmt.Println("[ Lock ]")
	lockPath := appCfg.IndexPath + ".lock"
	if _, err := os.Stat(filepath.Dir(lockPath)); err != nil {
		printSkip("", fmt.Sprintf("%s does not exist", filepath.Dir(lockPath)))
	} else {
		l := flock.New(lockPath)
		locked, err := l.TryLock()
		switch {
		case errors.Is(err, fs.ErrPermission):
			printWarn("", fmt.Sprintf("cannot create %s: installs will fail, reads run unlocked", lockPath))
		case err != nil:
			failD("cannot lock %s: %v", lockPath, err)
		case !locked:
			printWarn("", "index is locked by another process (install in progress?)")
		default:
			_ = l.Unlock()
			printOK("", fmt.Sprintf("lock available: %s", lockPath))
		}
	}
	fmt.Println()

	// ── Check 4: listen address ───────────────────────────────────────────────
	fmt.Println("[ Listen ]")
	if ln, err := net.Listen("tcp", appCfg.Listen); err != nil {
		printWarn("", fmt.Sprintf("cannot listen on %s: %v (is 'docidx serve' already running?)", appCfg.Listen, err))
	} else {
		_ = ln.Close()
		printOK("", fmt.Sprintf("%s is free", appCfg.Listen))
	}
	fmt.Println()

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("✓  All checks passed.")
	return nil
}

func countUntitled(idx *searchindex.Index) int {
	n := 0
	for _, d := range idx.Documents() {
		if d.Title == "" {
			n++
		}
	}
	return n
}
