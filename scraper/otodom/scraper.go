package otodom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/config"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

// Result is the outcome of scraping the pages of one search.
type Result struct {
	Properties []models.RawProperty
	Pages      int
	Links      int
	Failed     int

	// FailedPages counts results pages that could not be fetched or parsed.
	FailedPages int
}

// Scraper walks result pages and collects the listings they link to.
type Scraper struct {
	cfg        *config.Config
	fetcher    Fetcher
	parser     *Parser
	logger     *utils.Logger
	pool       *utils.WorkerPool
	retry      *utils.RetryConfig
	visitedURL *utils.URLSet
	pageDelay  time.Duration
}

// New creates a Scraper that downloads through fetcher.
func New(cfg *config.Config, fetcher Fetcher, parser *Parser, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:        cfg,
		fetcher:    fetcher,
		parser:     parser,
		logger:     logger,
		pool:       utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		visitedURL: utils.NewURLSet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		pageDelay: time.Duration(cfg.PageDelayMs) * time.Millisecond,
	}
}

// ScrapePages scrapes result pages 1..maxPages of criteria. Pages run one
// after another with a pause in between; the detail pages of one results
// page are fetched concurrently. When ctx is cancelled the properties of
// completed pages are returned together with ctx.Err(). A results page that
// fails is counted and skipped; only a page with no new listings ends the
// walk early.
func (s *Scraper) ScrapePages(ctx context.Context, criteria models.SearchCriteria, maxPages int) (Result, error) {
	var res Result
	if maxPages < 1 {
		return res, fmt.Errorf("%w: max pages %d", models.ErrInvalidPage, maxPages)
	}

	query := NewSearchQuery(s.cfg.BaseURL, criteria)
	s.logger.Info("[otodom] Scraping %s (up to %d pages)", criteria, maxPages)

pages:
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		links, err := s.PageLinks(ctx, query, page)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		if errors.Is(err, models.ErrInvalidPage) {
			return res, err
		}
		res.Pages++

		switch {
		case err != nil:
			res.FailedPages++
			s.logger.Error("[otodom] Page %d unavailable, moving on: %v", page, err)
		case len(links) == 0:
			s.logger.Warn("[otodom] Page %d returned 0 listings, stopping", page)
			break pages
		default:
			props := utils.Collect(ctx, s.pool, links, s.Property)
			res.Links += len(links)
			res.Failed += len(links) - len(props)
			res.Properties = append(res.Properties, props...)
			if err := ctx.Err(); err != nil {
				return res, err
			}
			s.logger.Info("[otodom] Page %d done: %d/%d listings, %d collected so far",
				page, len(props), len(links), len(res.Properties))
		}

		if page < maxPages {
			select {
			case <-time.After(s.pageDelay):
			case <-ctx.Done():
				return res, ctx.Err()
			}
		}
	}

	s.logger.Info("[otodom] Scrape complete: %d properties from %d pages (%d failed listings, %d failed pages)",
		len(res.Properties), res.Pages, res.Failed, res.FailedPages)
	return res, nil
}

// PageLinks returns the new listing links on one results page. A fetch or
// parse failure is returned as an error so callers can tell it apart from a
// page that simply has no new listings.
func (s *Scraper) PageLinks(ctx context.Context, query *SearchQuery, page int) ([]string, error) {
	pageURL, err := query.URL(page)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("[otodom] Fetching page %d, URL: %s", page, pageURL)
	body, err := s.fetch(ctx, fmt.Sprintf("results-page-%d", page), pageURL)
	if err != nil {
		return nil, fmt.Errorf("otodom: results page %d: %w", page, err)
	}

	found, err := s.parser.ListingLinks(body)
	if err != nil {
		return nil, fmt.Errorf("otodom: results page %d: %w", page, err)
	}

	links := make([]string, 0, len(found))
	for _, link := range found {
		if !s.visitedURL.Add(link) {
			s.logger.Debug("[otodom] Skipping duplicate: %s", link)
			continue
		}
		links = append(links, link)
	}
	s.logger.Info("[otodom] Page %d: found %d listings (%d new)", page, len(found), len(links))
	return links, nil
}

// Property fetches and parses one detail page. Failures are logged and
// reported as ok=false so the rest of the batch carries on.
func (s *Scraper) Property(ctx context.Context, link string) (models.RawProperty, bool) {
	body, err := s.fetch(ctx, "detail-page", link)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("[otodom] Detail page failed for %s: %v", link, err)
		}
		return models.RawProperty{}, false
	}

	raw, err := s.parser.DetailFields(link, body)
	if err != nil {
		s.logger.Warn("[otodom] %v", err)
		return models.RawProperty{}, false
	}
	s.logger.Debug("[otodom] Scraped %s (%d fields)", link, len(raw.Fields))
	return raw, true
}

func (s *Scraper) fetch(ctx context.Context, op, pageURL string) ([]byte, error) {
	var body []byte
	err := s.retry.Do(ctx, op, func() error {
		b, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) && !fe.Retryable() {
				return utils.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	})
	return body, err
}
