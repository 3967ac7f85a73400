package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/polyfaq/pkg/polyfaq/config"
	"github.com/cognicore/polyfaq/pkg/polyfaq/stoplist"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		dsn string
		top int
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show keyword statistics and stopword suggestions for an index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := a.loadIndex(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			s := ix.Stats()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "build:      %s (%s)\n", ix.BuildID, ix.BuiltAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "analysis:   stopwords=%t stemming=%t\n", ix.Analysis.Stopwords, ix.Analysis.Stemming)
			if ix.EmbeddingModel != "" {
				fmt.Fprintf(out, "embeddings: %s\n", ix.EmbeddingModel)
			}
			fmt.Fprintf(out, "languages:  %v\n", ix.Languages)
			fmt.Fprintf(out, "entries:    %d\n", s.Documents)
			fmt.Fprintf(out, "vocabulary: %d\n", s.Vocabulary)
			fmt.Fprintf(out, "keywords per entry: min %d, max %d, avg %.1f\n", s.MinKeywords, s.MaxKeywords, s.AvgKeywords)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\nKEYWORD\tDF\tIDF")
			for _, k := range s.Top(top) {
				fmt.Fprintf(tw, "%s\t%d\t%.3f\n", k.Keyword, k.DF, k.IDF)
			}
			tw.Flush()

			cands := ix.SuggestStopwords(a.stoplist(), a.cfg.Thresholds())
			if len(cands) > 0 {
				fmt.Fprintln(out, "\nstopword candidates:")
				for _, c := range cands {
					fmt.Fprintf(out, "  %s (%.0f%% of entries)\n", c.Token, c.Reason.DFPercent)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dsn, "index", "i", "", "index location, as given to build --out (required)")
	cmd.Flags().IntVarP(&top, "top", "n", 10, "number of keywords listed")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

// stoplist merges the configured stopwords of every served language.
func (a *app) stoplist() *stoplist.Manager {
	loader := &config.Loader{Config: a.cfg}
	merged := stoplist.NewManager(nil)
	for _, code := range a.cfg.Languages {
		for _, w := range loader.Stoplist(code).All() {
			merged.Add(w, stoplist.Reason{Configured: true})
		}
	}
	return merged
}
