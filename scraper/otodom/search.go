package otodom

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

const (
	resultsPath          = "/pl/wyniki"
	multiLocationSegment = "wiele-lokalizacji"
)

type param struct {
	key   string
	value string
}

// SearchQuery builds result-page URLs for one set of search criteria.
// It holds no mutable state; equal inputs always produce equal URLs.
type SearchQuery struct {
	baseURL  string
	criteria models.SearchCriteria
}

// NewSearchQuery binds criteria to a site base URL such as "https://www.otodom.pl".
func NewSearchQuery(baseURL string, criteria models.SearchCriteria) *SearchQuery {
	return &SearchQuery{baseURL: strings.TrimRight(baseURL, "/"), criteria: criteria}
}

// Criteria returns the criteria the query was built from.
func (q *SearchQuery) Criteria() models.SearchCriteria { return q.criteria }

// URL returns the results URL for a 1-based page number.
func (q *SearchQuery) URL(page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("%w: got %d", models.ErrInvalidPage, page)
	}

	params := q.params(page)
	pairs := make([]string, len(params))
	for i, p := range params {
		pairs[i] = p.key + "=" + p.value
	}
	return q.basePath() + "?" + strings.Join(pairs, "&"), nil
}

// URLs returns the URLs of pages 1..maxPages in order.
func (q *SearchQuery) URLs(maxPages int) ([]string, error) {
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: max pages %d", models.ErrInvalidPage, maxPages)
	}
	urls := make([]string, 0, maxPages)
	for page := 1; page <= maxPages; page++ {
		u, err := q.URL(page)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

func (q *SearchQuery) basePath() string {
	c := q.criteria
	locations := c.Locations()
	last := multiLocationSegment
	if len(locations) == 1 {
		last = locations[0].Slug()
	}
	return fmt.Sprintf("%s%s/%s/%s/%s", q.baseURL, resultsPath, c.ListingType(), c.PropertyType(), last)
}

// params returns the query parameters in their canonical order:
// ownerTypeSingleSelect, by, direction, limit, locations, priceMin,
// priceMax, page. An explicit direction replaces the default in place.
func (q *SearchQuery) params(page int) []param {
	c := q.criteria

	direction := string(models.Desc)
	if d, ok := c.Direction(); ok {
		direction = string(d)
	}

	params := []param{
		{"ownerTypeSingleSelect", "ALL"},
		{"by", "DEFAULT"},
		{"direction", direction},
		{"limit", strconv.Itoa(int(c.Limit()))},
	}

	if locations := c.Locations(); len(locations) > 1 {
		slugs := make([]string, len(locations))
		for i, loc := range locations {
			slugs[i] = loc.Slug()
		}
		params = append(params, param{"locations", quote("[" + strings.Join(slugs, ",") + "]")})
	}

	if v, ok := c.PriceMin(); ok {
		params = append(params, param{"priceMin", strconv.Itoa(v)})
	}
	if v, ok := c.PriceMax(); ok {
		params = append(params, param{"priceMax", strconv.Itoa(v)})
	}
	if page > 1 {
		params = append(params, param{"page", strconv.Itoa(page)})
	}
	return params
}

// quote percent-encodes s but leaves '/' intact, matching how the site
// writes slug lists.
func quote(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "%2F", "/")
}
