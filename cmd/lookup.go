package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	searchindex "github.com/kamusis/docidx/internal/search/index"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "List the documents an indexed term occurs in",
	Long: `Look up one term exactly as it is stored in the index. Sphinx stores
terms lowercased and stemmed, so "kubernetes" is indexed as "kubernet".
Use 'docidx search' for free-text queries.

Example:
  docidx lookup kubernet
  docidx lookup import --json`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

var docCmd = &cobra.Command{
	Use:   "doc <position>",
	Short: "Show the path and title of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDoc,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(docCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}
	term := args[0]
	matches := idx.LookupTerm(term)
	if flagJSON {
		return printJSON(matches)
	}

	if len(matches) == 0 {
		if idx.HasTerm(term) {
			printMiss("", fmt.Sprintf("%q is indexed but occurs in no document", term))
		} else {
			printMiss("", fmt.Sprintf("%q is not in the index", term))
		}
		return nil
	}
	printMatches(matches)
	return nil
}

func printMatches(matches []searchindex.DocumentMatch) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POS\tTITLE\tPATH")
	for _, m := range matches {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Title, m.Path)
		for _, a := range m.Anchors {
			title := a.Title
			if title == "" {
				title = "(untitled section)"
			}
			fmt.Fprintf(w, "\t  #%s\t%s\n", a.ID, title)
		}
	}
	_ = w.Flush()
}

func runDoc(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid position %q: must be an integer", args[0])
	}
	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return err
	}
	info, err := idx.ResolveDocument(searchindex.DocumentID(pos))
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(info)
	}
	fmt.Printf("Position: %d\n", info.ID)
	fmt.Printf("Title:    %s\n", emptyAsNA(info.Title))
	fmt.Printf("Path:     %s\n", info.Path)
	fmt.Printf("Filename: %s\n", emptyAsNA(info.Filename))
	return nil
}
