package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hungpv1995/postboard/internal/board"
	"github.com/hungpv1995/postboard/internal/config"
	"github.com/hungpv1995/postboard/internal/logging"
	"github.com/hungpv1995/postboard/internal/navigation"
	"github.com/hungpv1995/postboard/internal/remote"
	"github.com/hungpv1995/postboard/internal/search"
	"github.com/hungpv1995/postboard/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

var (
	// Global flags
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "postboard",
	Short: "A paginated, searchable post board with a persisted snapshot",
	Long: `postboard keeps a collection of posts seeded from a remote service,
persists every change as a snapshot, and serves it over HTTP or an
interactive shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the postboard version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "postboard version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "postboard.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd, shellCmd, snapshotCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the collaborators shared by serve and shell.
type app struct {
	board  *board.Board
	store  storage.Store
	search *search.ElasticSearch
}

func (a *app) Close() error {
	return a.store.Close()
}

// openApp builds the board over the configured store. The search mirror is
// optional; when it cannot be reached the board runs without it.
func openApp(ctx context.Context, nav navigation.Navigator) (*app, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	a := &app{store: store}
	opts := board.Options{
		PersistEmpty:      cfg.Board.PersistEmpty,
		ResetPageOnSearch: cfg.Board.ResetPageOnSearch,
		MirrorTimeout:     cfg.SearchTimeout(),
		Logger:            logger,
	}

	if cfg.Search.Enabled {
		es, err := search.Dial(ctx, cfg.Search.URL, cfg.Search.Index)
		if err != nil {
			logger.Warn("Search mirror unavailable, continuing without it",
				zap.String("url", cfg.Search.URL), zap.Error(err))
		} else {
			a.search = es
			opts.Indexer = es
		}
	}

	fetcher := remote.NewClient(cfg.Remote.URL, cfg.RemoteTimeout())
	a.board = board.New(store, fetcher, nav, opts)

	logger.Info("Board configured",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("remote", cfg.Remote.URL),
		zap.Bool("search", a.search != nil))
	return a, nil
}
