package main

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/polyfaq/internal/logger"
	"github.com/cognicore/polyfaq/pkg/polyfaq"
	"github.com/cognicore/polyfaq/pkg/polyfaq/config"
	"github.com/cognicore/polyfaq/pkg/polyfaq/index"
	"github.com/cognicore/polyfaq/pkg/polyfaq/store"
)

// app carries the state shared by all subcommands.
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "polyfaq",
		Short: "Multilingual FAQ matcher",
		Long: `polyfaq answers free-text questions in English, Hindi, Indonesian
and Hinglish from a fixed FAQ corpus. Build an index once with "build",
then query it with "ask" or "chat".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML); built-in defaults when empty")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(
		newBuildCmd(a),
		newAskCmd(a),
		newChatCmd(a),
		newStatsCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.cfgFile != "" {
		var err error
		if cfg, err = config.Load(a.cfgFile); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}

	log, err := logger.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return errors.Wrap(err, "logger")
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// loadIndex reads the index stored at dsn.
func (a *app) loadIndex(ctx context.Context, dsn string) (*index.SearchIndex, error) {
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open index %s", dsn)
	}
	defer st.Close()

	ix, err := st.LoadIndex(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "load index %s", dsn)
	}
	a.log.Debugw("index loaded", "dsn", dsn, "build_id", ix.BuildID, "documents", ix.Len())
	return ix, nil
}

// openEngine loads the index and wires an engine around it. The caller
// closes the engine.
func (a *app) openEngine(ctx context.Context, dsn string) (*polyfaq.Engine, error) {
	ix, err := a.loadIndex(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return polyfaq.Open(ctx, polyfaq.Setup{
		Config: a.cfg,
		Index:  ix,
		Logger: a.log,
	})
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
