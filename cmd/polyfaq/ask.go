package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cognicore/polyfaq/pkg/polyfaq"
	"github.com/cognicore/polyfaq/pkg/polyfaq/intent"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		dsn     string
		explain bool
		top     int
	)
	cmd := &cobra.Command{
		Use:   "ask [flags] QUESTION...",
		Short: "Answer one question",
		Example: `  polyfaq ask --index faq.db how do I save a status
  polyfaq ask --index faq.db --explain "स्टेटस कैसे सेव करें?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := joinArgs(args)
			if text == "" {
				return errors.New("empty question")
			}
			e, err := a.openEngine(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer e.Close()

			reply := e.Ask(cmd.Context(), text)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, reply.Text)
			if explain {
				res, ranked := e.Explain(cmd.Context(), text, top)
				writeExplain(out, e, reply, res, ranked)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dsn, "index", "i", "", "index location, as given to build --out (required)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print classification and score breakdowns")
	cmd.Flags().IntVar(&top, "top", 3, "number of candidates shown by --explain")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func writeExplain(w io.Writer, e *polyfaq.Engine, reply polyfaq.Reply, res intent.Result, ranked []rank.Match) {
	fmt.Fprintf(w, "\nreply %s\n", reply.ID)
	fmt.Fprintf(w, "language %s (%s), intent %s\n", res.Language, res.Source, res.Intent)
	if reply.Matched {
		fmt.Fprintf(w, "matched %s with score %.3f (threshold %.3f)\n", reply.MatchedID, reply.Score, e.Threshold())
	} else {
		fmt.Fprintf(w, "no match (threshold %.3f)\n", e.Threshold())
	}
	if len(ranked) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nENTRY\tSCORE\tLEXICAL\tSEMANTIC\tCOVERAGE\tTOKENS")
	for _, m := range ranked {
		tokens := make([]string, 0, len(m.Breakdown.MatchedTokens))
		for _, tm := range m.Breakdown.MatchedTokens {
			if tm.Token == tm.Keyword {
				tokens = append(tokens, tm.Token)
				continue
			}
			tokens = append(tokens, fmt.Sprintf("%s~%s(%.0f)", tm.Token, tm.Keyword, tm.Similarity))
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%d (%.0f%%)\t%s\n",
			m.Document.ID, m.Score, m.Breakdown.Lexical, m.Breakdown.Semantic,
			m.Breakdown.Coverage, 100*m.Breakdown.CoverageRatio, strings.Join(tokens, " "))
	}
	tw.Flush()
}
