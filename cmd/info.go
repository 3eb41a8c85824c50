package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize the loaded index",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var (
	flagTermsPrefix string
	flagTermsLimit  int
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List indexed terms",
	Long: `List the terms in the index in sorted order.

Example:
  docidx terms --prefix kube`,
	Args: cobra.NoArgs,
	RunE: runTerms,
}

func init() {
	termsCmd.Flags().StringVar(&flagTermsPrefix, "prefix", "", "Only list terms starting with this prefix")
	termsCmd.Flags().IntVar(&flagTermsLimit, "limit", 0, "Maximum number of terms to list (0 for all)")
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(termsCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}
	stats := idx.Stats()
	env := idx.EnvVersion()
	if flagJSON {
		return printJSON(struct {
			Path       string         `json:"path"`
			Stats      any            `json:"stats"`
			EnvVersion map[string]int `json:"envversion"`
		}{appCfg.IndexPath, stats, env})
	}

	printSection("Index")
	fmt.Printf("  Path:            %s\n", appCfg.IndexPath)
	fmt.Printf("  Digest:          %s\n", stats.Digest)
	fmt.Printf("  Documents:       %d\n", stats.Documents)
	fmt.Printf("  Terms:           %d (%d empty, %d anchored)\n", stats.Terms, stats.EmptyTerms, stats.AnchoredTerms)
	fmt.Printf("  Title terms:     %d\n", stats.TitleTerms)
	fmt.Printf("  Titled sections: %d\n", stats.Sections)

	if len(env) > 0 {
		printSection("Environment")
		keys := slices.Sorted(maps.Keys(env))
		width := 0
		for _, k := range keys {
			width = max(width, len(k))
		}
		for _, k := range keys {
			fmt.Printf("  %-*s  %d\n", width, k, env[k])
		}
	}
	return nil
}

func runTerms(cmd *cobra.Command, _ []string) error {
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}
	var out []string
	for t := range idx.AllTerms() {
		if !strings.HasPrefix(t, flagTermsPrefix) {
			continue
		}
		out = append(out, t)
		if flagTermsLimit > 0 && len(out) == flagTermsLimit {
			break
		}
	}
	if flagJSON {
		if out == nil {
			out = []string{}
		}
		return printJSON(out)
	}
	for _, t := range out {
		fmt.Println(t)
	}
	return nil
}
