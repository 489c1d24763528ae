package otodom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Fetcher retrieves the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError reports a failed page retrieval. Status is 0 when no HTTP
// response was received.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable is false for client errors other than 429, which will not
// succeed on a second attempt.
func (e *FetchError) Retryable() bool {
	if e.Status == http.StatusTooManyRequests {
		return true
	}
	return e.Status < 400 || e.Status >= 500
}

var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Cache-Control":             "max-age=0",
}

// HTTPFetcher downloads pages with a shared colly collector. Clones share the
// parent's backend, so its limit rules apply across requests; callbacks are
// not copied and are registered per clone.
type HTTPFetcher struct {
	collector *colly.Collector
}

// HTTPFetcherConfig tunes the underlying collector.
type HTTPFetcherConfig struct {
	Parallelism int
	RandomDelay time.Duration
	Timeout     time.Duration
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(cfg.Timeout)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("otodom: failed to set limit rule: %w", err)
	}

	return &HTTPFetcher{collector: c}, nil
}

// Fetch performs one GET request and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	c := f.collector.Clone()
	c.Context = ctx
	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	var (
		body     []byte
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &FetchError{URL: pageURL, Status: status, Err: err}
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = &FetchError{URL: pageURL, Err: err}
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if body == nil {
		return nil, &FetchError{URL: pageURL, Err: errors.New("empty response")}
	}
	return body, nil
}
