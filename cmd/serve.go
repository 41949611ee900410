package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pr-pathways/internal/catalog"
	"github.com/spigell/pr-pathways/internal/eligibility"
	"github.com/spigell/pr-pathways/internal/metrics"
	"github.com/spigell/pr-pathways/internal/secrets"
	"github.com/spigell/pr-pathways/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the eligibility engine over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("watch", false, "reload the catalog file when it changes")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("catalog.watch", serveCmd.Flags().Lookup("watch"))
}

func serve(cmd *cobra.Command) error {
	l, cfg, err := setup()
	if err != nil {
		return err
	}
	defer l.Sync()

	ctx := cmd.Context()

	l.Info("starting the pr-pathways server", zap.String("version", version))

	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "server api key",
		Value: cfg.Server.APIKey,
		File:  cfg.Server.APIKeyFile,
	})
	if err != nil {
		return err
	}
	if apiKey == "" {
		l.Warn("api is not protected", zap.String("hint", "set server.api-key-file or PR_PATHWAYS_SERVER_API_KEY"))
	}

	cat, err := loadCatalog(cfg, l)
	if err != nil {
		return err
	}
	store := catalog.NewStore(cat)

	recorder, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	if cfg.Catalog.Watch {
		watcher := catalog.NewWatcher(store, catalog.WatcherConfig{
			Path:     cfg.Catalog.Path,
			Debounce: cfg.Catalog.WatchDebounce,
			Options:  catalogOptions(cfg),
			Logger:   l,
			OnReload: recorder.CatalogReloaded,
		})
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				l.Error("catalog watcher stopped", zap.Error(err))
			}
		}()
	}

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		APIKey:       apiKey,
	}, server.Deps{
		Evaluator: newEvaluator(cfg, store, l, eligibility.WithRecorder(recorder)),
		Catalog:   store,
		Tables:    tables,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    l,
	})

	return srv.Run(ctx)
}
