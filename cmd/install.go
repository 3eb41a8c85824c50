package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var installCmd = &cobra.Command{
	Use:   "install <searchindex.js>",
	Short: "Validate an index file and install it as the served index",
	Long: `Validate a searchindex.js (optionally gzip or zstd compressed) and
atomically replace the configured index with it. A running 'docidx serve
--watch' picks up the new index without a restart.

Example:
  docidx install _build/html/searchindex.js`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

var (
	flagExportWrap   bool
	flagExportIndent bool
	flagExportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the loaded index back out as JSON or a Search.setIndex script",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&flagExportWrap, "wrap", false, "Wrap the output in Search.setIndex(...)")
	exportCmd.Flags().BoolVar(&flagExportIndent, "indent", false, "Indent the JSON output")
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(exportCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	src, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", args[0], err)
	}
	idx, err := searchindex.Install(cmd.Context(), src, appCfg.IndexPath)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Installed %s → %s", src, appCfg.IndexPath))
	printInfo("", fmt.Sprintf("%d documents, %d terms", idx.Len(), idx.Stats().Terms))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}

	out := os.Stdout
	if flagExportOutput != "" {
		f, err := os.Create(flagExportOutput)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", flagExportOutput, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("cannot close %s: %w", flagExportOutput, cerr)
			}
		}()
		out = f
	}

	bw := bufio.NewWriter(out)
	if err := searchindex.Encode(bw, idx, searchindex.EncodeOptions{Wrap: flagExportWrap, Indent: flagExportIndent}); err != nil {
		return err
	}
	return bw.Flush()
}
