package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"local-marketplace/internal/config"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/seed"
	"local-marketplace/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load cities, catalog and terms from a YAML seed file",
	Long: `Validates every document in the seed file, then creates them in dependency order.
Documents whose slug already exists are skipped, so the same file can be applied again.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed file to load")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	registry, err := schema.New(cfg.Site.ImageHosts)
	if err != nil {
		return err
	}

	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	plan, err := seed.Load(f, registry)
	if err != nil {
		return err
	}

	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	pg := store.NewPostgresStore(db)
	defer pg.Close()

	report, err := plan.Apply(cmd.Context(), seedTargets(pg), logger)
	if err != nil {
		return err
	}

	kinds := make([]string, 0, len(report.Created)+len(report.Skipped))
	seen := map[domain.Kind]bool{}
	for _, m := range []map[domain.Kind]int{report.Created, report.Skipped} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, string(k))
			}
		}
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		kind := domain.Kind(k)
		logger.Info("seeded", zap.String("kind", k), zap.Int("created", report.Created[kind]), zap.Int("skipped", report.Skipped[kind]))
	}
	return nil
}

func seedTargets(pg *store.PostgresStore) seed.Targets {
	t := seed.Targets{}
	seed.Register[domain.City](t, domain.KindCity, pg.Cities)
	seed.Register[domain.Business](t, domain.KindBusiness, pg.Businesses)
	seed.Register[domain.Product](t, domain.KindProduct, pg.Products)
	seed.Register[domain.ProductCategory](t, domain.KindProductCategory, pg.Categories)
	seed.Register[domain.ProductTag](t, domain.KindProductTag, pg.Tags)
	seed.Register[domain.Service](t, domain.KindService, pg.Services)
	seed.Register[domain.LocationProfile](t, domain.KindLocationProfile, pg.LocationProfiles)
	seed.Register[domain.TermsAndConditions](t, domain.KindTerms, pg.Terms)
	return t
}
