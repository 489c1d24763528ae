package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/config"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/scraper/otodom"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/services"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/storage"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

const usage = `usage: warsaw-property <command> [flags]

commands:
  scrape     scrape every district/listing type into raw CSV files
  clean      clean raw CSV files
  combine    combine clean CSV files per listing type
  insights   print statistics: insights <file.csv> | insights -db <sale|rent>
  all        scrape, clean and combine
`

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithConfig(utils.LoggerConfig{
		Level:      cfg.LogLevel,
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
	})
	defer logger.Close()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, cmd string, args []string) error {
	switch cmd {
	case "scrape":
		return runScrape(ctx, cfg, logger, args)
	case "clean":
		return runClean(ctx, cfg, logger)
	case "combine":
		return runCombine(ctx, cfg, logger)
	case "insights":
		return runInsights(ctx, cfg, logger, args)
	case "all":
		if err := runScrape(ctx, cfg, logger, args); err != nil {
			return err
		}
		if err := runClean(ctx, cfg, logger); err != nil {
			return err
		}
		return runCombine(ctx, cfg, logger)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runScrape(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	districtsFlag := fs.String("districts", "all", "comma-separated district names, or all")
	typesFlag := fs.String("types", "sale,rent", "comma-separated listing types")
	propertyFlag := fs.String("property", string(models.Apartment), "property type: mieszkanie or dom")
	maxFlag := fs.Int("max", cfg.MaxProperties, "maximum properties per district and listing type")
	limitFlag := fs.Int("limit", cfg.ResultLimit, "results per page: 24, 36, 48 or 72")
	if err := fs.Parse(args); err != nil {
		return err
	}

	districts, err := parseDistricts(*districtsFlag)
	if err != nil {
		return err
	}
	listingTypes, err := parseListingTypes(*typesFlag)
	if err != nil {
		return err
	}

	logger.Info("=== Warsaw property scrape starting ===")
	logger.Info("Config: backend %s | concurrency %d | rate %dms | page delay %dms | max %d",
		cfg.FetchBackend, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.PageDelayMs, *maxFlag)

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	parser, err := otodom.NewParser(cfg.BaseURL, cfg.Dictionary)
	if err != nil {
		return err
	}

	scraper := otodom.New(cfg, fetcher, parser, logger)
	batch := otodom.NewBatchScraper(scraper, storage.RawCSVSink{}, cfg.RawDir,
		time.Duration(cfg.CombinationDelayMs)*time.Millisecond, logger)

	stats, err := batch.Run(ctx, otodom.BatchOptions{
		Districts:     districts,
		ListingTypes:  listingTypes,
		PropertyType:  models.PropertyType(*propertyFlag),
		Limit:         models.ResultLimit(*limitFlag),
		MaxProperties: *maxFlag,
	})
	logger.Info("Scrape finished: %d properties, %d/%d combinations succeeded",
		stats.Total, stats.Succeeded, stats.Succeeded+stats.Failed)
	return err
}

func newFetcher(cfg *config.Config) (otodom.Fetcher, func(), error) {
	switch cfg.FetchBackend {
	case "browser":
		b := otodom.NewBrowserFetcher(cfg.ChromeBin, 0)
		return b, b.Close, nil
	case "http", "":
		f, err := otodom.NewHTTPFetcher(otodom.HTTPFetcherConfig{Parallelism: cfg.MaxConcurrency})
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown FETCH_BACKEND %q (want http or browser)", cfg.FetchBackend)
	}
}

func runClean(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	var store storage.PropertyWriter
	if cfg.StorePostgres {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			return err
		}
		defer pg.Close()
		store = pg
	}

	b := newBatchCleaner(cfg, logger, store)
	stats := b.CleanAll(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.Succeeded == 0 && stats.Failed > 0 {
		return errors.New("no raw file could be cleaned")
	}
	return nil
}

func runCombine(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reports := newBatchCleaner(cfg, logger, nil).CombineAll()
	for lt, r := range reports {
		logger.Info("Combined %s: %d files, %d rows, %d unreadable",
			lt.Dir(), len(r.Loaded), r.Rows, len(r.Failed))
	}
	return nil
}

func runInsights(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ContinueOnError)
	dbFlag := fs.String("db", "", "read stored properties of this listing type from PostgreSQL instead of a CSV file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		props []*models.Property
		err   error
	)
	if *dbFlag != "" {
		props, err = loadStored(ctx, cfg, logger, *dbFlag)
	} else {
		if fs.NArg() != 1 {
			return errors.New("insights needs exactly one clean CSV file or -db <listing type>")
		}
		props, err = loadCleanCSV(fs.Arg(0))
	}
	if err != nil {
		return err
	}

	svc := services.NewInsightService(logger)
	svc.Print(svc.Generate(props))
	return nil
}

func loadCleanCSV(path string) ([]*models.Property, error) {
	t, err := storage.ReadTable(path)
	if err != nil {
		return nil, err
	}
	props := make([]*models.Property, 0, t.Len())
	for _, row := range t.Rows {
		props = append(props, models.PropertyFromRow(t.Columns, row))
	}
	return props, nil
}

func loadStored(ctx context.Context, cfg *config.Config, logger *utils.Logger, listing string) ([]*models.Property, error) {
	lt, err := models.ParseListingType(listing)
	if err != nil {
		return nil, err
	}
	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	var reader storage.PropertyReader = pg
	return reader.FetchAll(ctx, lt)
}

func newBatchCleaner(cfg *config.Config, logger *utils.Logger, store storage.PropertyWriter) *services.BatchCleaner {
	cleaner := services.NewCleaner(cfg.Dictionary, logger)
	return services.NewBatchCleaner(
		services.NewNormalizer(cleaner, logger),
		services.NewAssembler(logger),
		cfg.RawDir, cfg.CleanDir, cfg.CombinedDir,
		store, logger,
	)
}

func parseDistricts(value string) ([]models.District, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") {
		return models.AllDistricts(), nil
	}
	var out []models.District
	for _, name := range strings.Split(value, ",") {
		d, err := models.ParseDistrict(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func parseListingTypes(value string) ([]models.ListingType, error) {
	var out []models.ListingType
	for _, name := range strings.Split(value, ",") {
		lt, err := models.ParseListingType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, nil
}
