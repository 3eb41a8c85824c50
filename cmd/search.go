package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/docidx/internal/search"
)

var (
	flagSearchK     int
	flagSearchDebug bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Ranked search over page titles and text",
	Long: `Search the index the way the documentation site's search box does.
Every word must match; prefix a word with '-' to exclude pages containing it.
Title matches rank above text matches.

Example:
  docidx search kubernetes deploy
  docidx search python -- -pandas`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 10, "Number of results to show (0 for all)")
	searchCmd.Flags().BoolVar(&flagSearchDebug, "debug", false, "Print the parsed query")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	if flagSearchDebug {
		q := search.Tokenize(query)
		for _, w := range q.Words {
			printInfo("", fmt.Sprintf("word %q → stem %q", w.Text, w.Stem))
		}
		for _, w := range q.Excluded {
			printInfo("", fmt.Sprintf("excluded %q → stem %q", w.Text, w.Stem))
		}
	}

	results := search.Search(idx, query, search.Options{Limit: flagSearchK})
	if flagJSON {
		return printJSON(results)
	}
	printSearchResults(query, results)
	return nil
}

func printSearchResults(query string, results []search.Result) {
	if len(results) == 0 {
		printMiss("", fmt.Sprintf("no results for %q", query))
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tPOS\tTITLE\tPATH")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.Score, r.ID, r.Title, r.Path)
		for _, a := range r.Anchors {
			if a.Title != "" {
				fmt.Fprintf(w, "\t\t  #%s\t%s\n", a.ID, a.Title)
			}
		}
	}
	_ = w.Flush()
}
