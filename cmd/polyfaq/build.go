package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/cognicore/polyfaq/pkg/polyfaq/config"
	"github.com/cognicore/polyfaq/pkg/polyfaq/corpus"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/rank"
	"github.com/cognicore/polyfaq/pkg/polyfaq/store"
)

func newBuildCmd(a *app) *cobra.Command {
	var corpusPath, out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a search index from an FAQ corpus",
		Example: `  polyfaq build --corpus faq.json --out faq.db
  polyfaq build --corpus faq.json --out json:index.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, corpusPath, out)
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "FAQ corpus JSON file (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "index destination: path.db, sqlite:path, json:path or path.json (required)")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, corpusPath, out string) error {
	ctx := cmd.Context()

	c, err := corpus.Load(corpusPath, a.cfg.RequiredLanguages)
	if err != nil {
		return err
	}

	strategy, err := rank.ParseStrategy(a.cfg.Matcher.Strategy)
	if err != nil {
		return err
	}
	loader := &config.Loader{Config: a.cfg, Logger: a.log}
	pipeline, err := loader.Pipeline(strategy)
	if err != nil {
		return err
	}

	opts := []index.BuilderOption{index.WithLogger(a.log.Named("index"))}
	if strategy.UsesEmbeddings() {
		e, closer, err := loader.Embedder(ctx)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		opts = append(opts, index.WithEmbedder(e))
	}

	ix, err := index.NewBuilder(pipeline, opts...).Build(ctx, c)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, out)
	if err != nil {
		return errors.Wrapf(err, "open %s", out)
	}
	defer st.Close()
	if err := st.SaveIndex(ctx, ix); err != nil {
		return errors.Wrapf(err, "save %s", out)
	}

	for _, cand := range ix.SuggestStopwords(a.stoplist(), a.cfg.Thresholds()) {
		a.log.Warnw("keyword appears in most entries; consider adding it to the stopwords",
			"keyword", cand.Token, "df_percent", cand.Reason.DFPercent)
	}

	s := ix.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "built %s: %d entries, %d keywords, strategy %s -> %s\n",
		ix.BuildID, s.Documents, s.Vocabulary, strategy, out)
	return nil
}
