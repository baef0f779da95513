// cmd/tools/menu-seeder/main.go
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quickbite/internal/common/config"
	"quickbite/internal/common/database"
	"quickbite/internal/common/logger"
	"quickbite/internal/repository"
	"quickbite/internal/search"
	"quickbite/internal/seed"
)

var (
	cfgFile   string
	generated int
	fakeSeed  int64
	skipIndex bool
)

var rootCmd = &cobra.Command{
	Use:   "menu-seeder",
	Short: "Creates the QuickBite schema and loads the starter menu",
	Long: `menu-seeder applies the Postgres schema, upserts the fixed starter menu
plus any generated items, and indexes everything in Elasticsearch when search
is enabled. Running it again updates items in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/config.yaml)")
	rootCmd.Flags().IntVar(&generated, "generate", 0, "Number of extra fake menu items to add")
	rootCmd.Flags().Int64Var(&fakeSeed, "seed", 42, "Random seed for generated items")
	rootCmd.Flags().BoolVar(&skipIndex, "skip-index", false, "Do not touch Elasticsearch")
}

func run(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	zapLog := logger.New(cfg.Logging.Level, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	if err := repository.ApplySchema(ctx, pg); err != nil {
		return err
	}
	zapLog.Info("schema applied")

	var indexer seed.Indexer
	if cfg.Database.Elasticsearch.Enabled && !skipIndex {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		index := search.NewMenuIndex(es.Client, cfg.Database.Elasticsearch.MenuIndex, log)
		if err := index.EnsureIndex(ctx); err != nil {
			return err
		}
		indexer = index
	}

	items := seed.Catalog()
	if generated > 0 {
		items = append(items, seed.Generate(faker.NewWithSeed(rand.NewSource(fakeSeed)), generated)...)
	}

	res, err := seed.Run(ctx, repository.NewMenuRepository(pg, log), indexer, items, log)
	if err != nil {
		return err
	}
	zapLog.Info("done", zap.Int("upserted", res.Upserted), zap.Int("indexed", res.Indexed))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
