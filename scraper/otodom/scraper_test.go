package otodom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/config"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  map[string]int
	onCall func(url string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	body, ok := f.pages[url]
	err := f.errs[url]
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &FetchError{URL: url, Status: http.StatusNotFound, Err: errors.New("not found")}
	}
	return []byte(body), nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func resultsHTML(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a data-cy="listing-item-link" href="%s">x</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func detailHTML(price string) string {
	return `<html><body><strong data-cy="adPageHeaderPrice">` + price + `</strong></body></html>`
}

func newTestLogger() *utils.Logger {
	return utils.NewLoggerWithConfig(utils.LoggerConfig{Level: "error", Writer: io.Discard, NoColor: true})
}

func newTestScraper(t *testing.T, f Fetcher) *Scraper {
	t.Helper()
	cfg := &config.Config{
		BaseURL:        testBaseURL,
		MaxConcurrency: 3,
		MaxRetries:     3,
	}
	return New(cfg, f, newTestParser(t), newTestLogger())
}

func pageURL(t *testing.T, c models.SearchCriteria, page int) string {
	t.Helper()
	u, err := NewSearchQuery(testBaseURL, c).URL(page)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func offer(id string) string { return testBaseURL + "/pl/oferta/" + id }

func TestScrapePagesCollectsInOrder(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Mokotow}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a", "/pl/oferta/b", "/pl/oferta/c")
	f.pages[pageURL(t, c, 2)] = resultsHTML("/pl/oferta/c", "/pl/oferta/d")
	f.pages[offer("a")] = detailHTML("100 zł")
	f.pages[offer("b")] = detailHTML("200 zł")
	f.pages[offer("c")] = detailHTML("300 zł")
	f.pages[offer("d")] = detailHTML("400 zł")

	res, err := newTestScraper(t, f).ScrapePages(context.Background(), c, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{offer("a"), offer("b"), offer("c"), offer("d")}
	if len(res.Properties) != len(want) {
		t.Fatalf("got %d properties; want %d", len(res.Properties), len(want))
	}
	for i, link := range want {
		if res.Properties[i].Link != link {
			t.Errorf("Properties[%d].Link = %s; want %s", i, res.Properties[i].Link, link)
		}
	}
	if res.Pages != 2 || res.Links != 4 || res.Failed != 0 {
		t.Errorf("stats = %+v; want 2 pages, 4 links, 0 failed", res)
	}
	if n := f.count(offer("c")); n != 1 {
		t.Errorf("duplicate listing fetched %d times; want 1", n)
	}
}

func TestScrapePagesSkipsFailedDetails(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a", "/pl/oferta/missing", "/pl/oferta/b")
	f.pages[offer("a")] = detailHTML("1 zł")
	f.pages[offer("b")] = detailHTML("2 zł")

	res, err := newTestScraper(t, f).ScrapePages(context.Background(), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Properties) != 2 || res.Failed != 1 {
		t.Errorf("got %d properties, %d failed; want 2 and 1", len(res.Properties), res.Failed)
	}
	if n := f.count(offer("missing")); n != 1 {
		t.Errorf("404 page fetched %d times; want exactly 1", n)
	}
}

func TestScrapePagesStopsOnEmptyPage(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a")
	f.pages[pageURL(t, c, 2)] = resultsHTML()
	f.pages[offer("a")] = detailHTML("1 zł")

	res, err := newTestScraper(t, f).ScrapePages(context.Background(), c, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d; want 2", res.Pages)
	}
	if n := f.count(pageURL(t, c, 3)); n != 0 {
		t.Errorf("page 3 fetched %d times after an empty page", n)
	}
}

func TestScrapePagesContinuesPastFailedPage(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a")
	f.pages[pageURL(t, c, 3)] = resultsHTML("/pl/oferta/c")
	f.pages[offer("a")] = detailHTML("1 zł")
	f.pages[offer("c")] = detailHTML("3 zł")

	res, err := newTestScraper(t, f).ScrapePages(context.Background(), c, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n := f.count(pageURL(t, c, 3)); n != 1 {
		t.Fatalf("page 3 fetched %d times after page 2 failed; want 1", n)
	}
	if len(res.Properties) != 2 || res.Properties[1].Link != offer("c") {
		t.Errorf("got %d properties; want a and c", len(res.Properties))
	}
	if res.Pages != 3 || res.FailedPages != 1 {
		t.Errorf("stats = %+v; want 3 pages, 1 failed page", res)
	}
}

func TestScrapePagesCancelled(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a")
	f.pages[pageURL(t, c, 2)] = resultsHTML("/pl/oferta/b")
	f.pages[offer("a")] = detailHTML("1 zł")
	f.pages[offer("b")] = detailHTML("2 zł")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.onCall = func(url string) {
		if url == offer("a") {
			cancel()
		}
	}

	res, err := newTestScraper(t, f).ScrapePages(ctx, c, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
	if f.count(pageURL(t, c, 2)) != 0 {
		t.Error("page 2 fetched after cancellation")
	}
	if len(res.Properties) != 0 {
		t.Errorf("got %d properties from a cancelled page", len(res.Properties))
	}
}

func TestScrapePagesRejectsZeroPages(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	_, err := newTestScraper(t, newFakeFetcher()).ScrapePages(context.Background(), c, 0)
	if !errors.Is(err, models.ErrInvalidPage) {
		t.Errorf("err = %v; want ErrInvalidPage", err)
	}
}

type recordingSink struct {
	mu    sync.Mutex
	saved map[string][]models.RawProperty
	err   error
}

func (s *recordingSink) SaveRaw(path string, records []models.RawProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = make(map[string][]models.RawProperty)
	}
	s.saved[path] = records
	return nil
}

func TestBatchScraperRun(t *testing.T) {
	mokotow := mustCriteria(t, models.SearchOptions{
		Locations: []models.District{models.Mokotow}, ListingType: models.Rent, Limit: models.LimitSmall,
	})
	praga := mustCriteria(t, models.SearchOptions{
		Locations: []models.District{models.PragaPoludnie}, ListingType: models.Rent, Limit: models.LimitSmall,
	})

	f := newFakeFetcher()
	f.pages[pageURL(t, mokotow, 1)] = resultsHTML("/pl/oferta/m1", "/pl/oferta/m2", "/pl/oferta/m3")
	f.pages[pageURL(t, praga, 1)] = resultsHTML()
	for _, id := range []string{"m1", "m2", "m3"} {
		f.pages[offer(id)] = detailHTML("3 000 zł")
	}

	sink := &recordingSink{}
	rawDir := t.TempDir()
	b := NewBatchScraper(newTestScraper(t, f), sink, rawDir, 0, newTestLogger())

	stats, err := b.Run(context.Background(), BatchOptions{
		Districts:     []models.District{models.Mokotow, models.PragaPoludnie},
		ListingTypes:  []models.ListingType{models.Rent},
		Limit:         models.LimitSmall,
		MaxProperties: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if stats.Succeeded != 2 || stats.Failed != 0 || stats.Total != 2 {
		t.Errorf("stats = %+v; want 2 succeeded, 0 failed, 2 total", stats)
	}

	path := filepath.Join(rawDir, "rents", "mokotow_rents.csv")
	if got := len(sink.saved[path]); got != 2 {
		t.Errorf("saved %d records to %s; want 2 (truncated)", got, path)
	}
	if _, ok := sink.saved[filepath.Join(rawDir, "rents", "praga_poludnie_rents.csv")]; ok {
		t.Error("empty combination should not be written")
	}
}

func TestBatchScraperRecordsSaveFailure(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/w1")
	f.pages[offer("w1")] = detailHTML("1 zł")

	sink := &recordingSink{err: errors.New("disk full")}
	b := NewBatchScraper(newTestScraper(t, f), sink, t.TempDir(), 0, newTestLogger())

	stats, err := b.Run(context.Background(), BatchOptions{
		Districts:     []models.District{models.Wola},
		ListingTypes:  []models.ListingType{models.Sale},
		MaxProperties: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.Combinations[0].Err == nil {
		t.Errorf("stats = %+v; want the combination recorded as failed", stats)
	}
}

func TestBatchScraperKeepsPagesCompletedBeforeCancel(t *testing.T) {
	c := mustCriteria(t, models.SearchOptions{Locations: []models.District{models.Wola}, Limit: models.LimitSmall})
	f := newFakeFetcher()
	f.pages[pageURL(t, c, 1)] = resultsHTML("/pl/oferta/a")
	f.pages[pageURL(t, c, 2)] = resultsHTML("/pl/oferta/b")
	f.pages[offer("a")] = detailHTML("1 zł")
	f.pages[offer("b")] = detailHTML("2 zł")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.onCall = func(url string) {
		if url == offer("b") {
			cancel()
		}
	}

	sink := &recordingSink{}
	rawDir := t.TempDir()
	b := NewBatchScraper(newTestScraper(t, f), sink, rawDir, 0, newTestLogger())

	stats, err := b.Run(ctx, BatchOptions{
		Districts:     []models.District{models.Wola},
		ListingTypes:  []models.ListingType{models.Sale},
		Limit:         models.LimitSmall,
		MaxProperties: 30,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}

	saved := sink.saved[RawPath(rawDir, models.Wola, models.Sale)]
	if len(saved) != 1 || saved[0].Link != offer("a") {
		t.Fatalf("saved %d records; want the page 1 listing", len(saved))
	}
	cs := stats.Combinations[0]
	if cs.Properties != 1 || !errors.Is(cs.Err, context.Canceled) {
		t.Errorf("combination = %+v; want 1 property and the cancellation recorded", cs)
	}
	if stats.Total != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v; want total 1, 1 failed", stats)
	}
}

func TestPagesForAndRawPath(t *testing.T) {
	if got := PagesFor(500, models.LimitXLarge); got != 7 {
		t.Errorf("PagesFor(500, 72) = %d; want 7", got)
	}
	if got := PagesFor(10, models.LimitMedium); got != 1 {
		t.Errorf("PagesFor(10, 36) = %d; want 1", got)
	}
	got := RawPath("data/raw", models.PragaPoludnie, models.Sale)
	want := filepath.Join("data/raw", "sales", "praga_poludnie_sales.csv")
	if got != want {
		t.Errorf("RawPath = %s; want %s", got, want)
	}
}
