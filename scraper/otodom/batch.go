package otodom

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

// RawSink persists the raw records of one district/listing-type combination.
type RawSink interface {
	SaveRaw(path string, records []models.RawProperty) error
}

// BatchOptions selects what a BatchScraper covers.
type BatchOptions struct {
	Districts     []models.District
	ListingTypes  []models.ListingType
	PropertyType  models.PropertyType
	Limit         models.ResultLimit
	MaxProperties int
}

// CombinationStats describes one scraped district/listing-type pair.
type CombinationStats struct {
	District    models.District
	ListingType models.ListingType
	Properties  int
	Path        string
	Err         error
}

// BatchStats summarises a BatchScraper run.
type BatchStats struct {
	Combinations []CombinationStats
	Succeeded    int
	Failed       int
	Total        int
}

// BatchScraper scrapes every district for every listing type and writes one
// raw file per combination.
type BatchScraper struct {
	scraper *Scraper
	sink    RawSink
	rawDir  string
	delay   time.Duration
	logger  *utils.Logger
}

// NewBatchScraper creates a BatchScraper writing below rawDir.
func NewBatchScraper(scraper *Scraper, sink RawSink, rawDir string, delay time.Duration, logger *utils.Logger) *BatchScraper {
	return &BatchScraper{
		scraper: scraper,
		sink:    sink,
		rawDir:  rawDir,
		delay:   delay,
		logger:  logger,
	}
}

// PagesFor returns how many result pages to walk to gather maxProperties.
func PagesFor(maxProperties int, limit models.ResultLimit) int {
	if limit <= 0 {
		return 1
	}
	return maxProperties/int(limit) + 1
}

// RawPath returns the raw file path of a combination, for example
// raw/sales/mokotow_sales.csv.
func RawPath(rawDir string, district models.District, listingType models.ListingType) string {
	name := fmt.Sprintf("%s_%ss.csv", district.Name(), listingType.Name())
	return filepath.Join(rawDir, listingType.Dir(), name)
}

// Run scrapes all combinations in opts. A failing combination is recorded
// and the run moves on; cancellation stops the run and returns ctx.Err()
// after saving what the interrupted combination completed.
func (b *BatchScraper) Run(ctx context.Context, opts BatchOptions) (BatchStats, error) {
	var stats BatchStats
	if opts.MaxProperties < 1 {
		return stats, fmt.Errorf("otodom: max properties must be positive, got %d", opts.MaxProperties)
	}

	total := len(opts.Districts) * len(opts.ListingTypes)
	b.logger.Info("[batch] Scraping %d districts x %d listing types (%d combinations), max %d properties each",
		len(opts.Districts), len(opts.ListingTypes), total, opts.MaxProperties)

	n := 0
	for _, d := range opts.Districts {
		for _, lt := range opts.ListingTypes {
			n++
			cs := b.runOne(ctx, opts, d, lt)
			stats.Combinations = append(stats.Combinations, cs)
			if cs.Err != nil {
				stats.Failed++
			} else {
				stats.Succeeded++
			}
			stats.Total += cs.Properties

			if err := ctx.Err(); err != nil {
				b.logger.Warn("[batch] Cancelled after %d/%d combinations", n, total)
				return stats, err
			}

			if n < total && b.delay > 0 {
				b.logger.Debug("[batch] Waiting %v before next combination", b.delay)
				select {
				case <-time.After(b.delay):
				case <-ctx.Done():
					return stats, ctx.Err()
				}
			}
		}
	}

	b.logger.Info("[batch] Done: %d succeeded, %d failed, %d properties in total",
		stats.Succeeded, stats.Failed, stats.Total)
	return stats, nil
}

func (b *BatchScraper) runOne(ctx context.Context, opts BatchOptions, d models.District, lt models.ListingType) CombinationStats {
	cs := CombinationStats{District: d, ListingType: lt}
	log := b.logger.With("district", d.Name(), "listing", lt.Name())

	criteria, err := models.NewSearchCriteria(models.SearchOptions{
		Locations:    []models.District{d},
		PropertyType: opts.PropertyType,
		ListingType:  lt,
		Limit:        opts.Limit,
	})
	if err != nil {
		cs.Err = err
		log.Error("[batch] Invalid criteria: %v", err)
		return cs
	}

	res, err := b.scraper.ScrapePages(ctx, criteria, PagesFor(opts.MaxProperties, criteria.Limit()))
	if err != nil {
		cs.Err = err
		if !interrupted(err) || len(res.Properties) == 0 {
			log.Error("[batch] Scrape failed: %v", err)
			return cs
		}
		log.Warn("[batch] Scrape interrupted, keeping %d properties from completed pages", len(res.Properties))
	}

	props := res.Properties
	if len(props) > opts.MaxProperties {
		props = props[:opts.MaxProperties]
	}
	if len(props) == 0 {
		log.Warn("[batch] No properties found")
		return cs
	}

	cs.Path = RawPath(b.rawDir, d, lt)
	if err := b.sink.SaveRaw(cs.Path, props); err != nil {
		cs.Err = errors.Join(cs.Err, err)
		log.Error("[batch] Save failed: %v", err)
		return cs
	}
	cs.Properties = len(props)
	log.Info("[batch] Saved %d properties to %s", cs.Properties, cs.Path)
	return cs
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
