package models

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Search criteria validation errors.
var (
	ErrNoLocations        = errors.New("at least one location must be specified")
	ErrNegativePrice      = errors.New("price cannot be negative")
	ErrPriceRange         = errors.New("minimum price cannot be greater than maximum price")
	ErrInvalidLimit       = errors.New("result limit must be one of 24, 36, 48, 72")
	ErrInvalidProperty    = errors.New("property type must be mieszkanie or dom")
	ErrInvalidListing     = errors.New("listing type must be sprzedaz or wynajem")
	ErrInvalidDirection   = errors.New("sort direction must be DESC or ASC")
	ErrInvalidPage        = errors.New("page number must be 1 or greater")
	ErrUnknownDistrict    = errors.New("unknown district")
	ErrUnknownListingType = errors.New("unknown listing type")
)

// ValidationError reports a SearchCriteria field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search criteria: %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// District is a location slug understood by the search endpoint.
type District string

// Warsaw districts.
const (
	Srodmiescie   District = "mazowieckie/warszawa/warszawa/warszawa/srodmiescie"
	Mokotow       District = "mazowieckie/warszawa/warszawa/warszawa/mokotow"
	Ochota        District = "mazowieckie/warszawa/warszawa/warszawa/ochota"
	Wola          District = "mazowieckie/warszawa/warszawa/warszawa/wola"
	Zoliborz      District = "mazowieckie/warszawa/warszawa/warszawa/zoliborz"
	PragaPoludnie District = "mazowieckie/warszawa/warszawa/warszawa/praga--poludnie"
	PragaPolnoc   District = "mazowieckie/warszawa/warszawa/warszawa/praga--polnoc"
	Bemowo        District = "mazowieckie/warszawa/warszawa/warszawa/bemowo"
	Bialoleka     District = "mazowieckie/warszawa/warszawa/warszawa/bialoleka"
	Bielany       District = "mazowieckie/warszawa/warszawa/warszawa/bielany"
	Rembertow     District = "mazowieckie/warszawa/warszawa/warszawa/rembertow"
	Targowek      District = "mazowieckie/warszawa/warszawa/warszawa/targowek"
	Ursus         District = "mazowieckie/warszawa/warszawa/warszawa/ursus"
	Ursynow       District = "mazowieckie/warszawa/warszawa/warszawa/ursynow"
	Wawer         District = "mazowieckie/warszawa/warszawa/warszawa/wawer"
	Wesola        District = "mazowieckie/warszawa/warszawa/warszawa/wesola"
	Wilanow       District = "mazowieckie/warszawa/warszawa/warszawa/wilanow"
	Wlochy        District = "mazowieckie/warszawa/warszawa/warszawa/wlochy"
)

var warsawDistricts = []District{
	Srodmiescie, Mokotow, Ochota, Wola, Zoliborz, PragaPoludnie, PragaPolnoc,
	Bemowo, Bialoleka, Bielany, Rembertow, Targowek, Ursus, Ursynow, Wawer,
	Wesola, Wilanow, Wlochy,
}

// AllDistricts returns every Warsaw district in a fixed order.
func AllDistricts() []District {
	out := make([]District, len(warsawDistricts))
	copy(out, warsawDistricts)
	return out
}

// Slug returns the URL path segment for the district.
func (d District) Slug() string { return string(d) }

// Name returns a file-name friendly identifier, e.g. "praga_poludnie".
func (d District) Name() string {
	base := path.Base(string(d))
	return strings.ReplaceAll(base, "--", "_")
}

// ParseDistrict resolves a district by its Name (case-insensitive).
func ParseDistrict(name string) (District, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, d := range warsawDistricts {
		if d.Name() == want {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDistrict, name)
}

// ResultLimit is the number of results per search page.
type ResultLimit int

const (
	LimitSmall  ResultLimit = 24
	LimitMedium ResultLimit = 36
	LimitLarge  ResultLimit = 48
	LimitXLarge ResultLimit = 72
)

// Valid reports whether the limit is one the site accepts.
func (l ResultLimit) Valid() bool {
	switch l {
	case LimitSmall, LimitMedium, LimitLarge, LimitXLarge:
		return true
	}
	return false
}

// PropertyType is the kind of property searched for.
type PropertyType string

const (
	Apartment PropertyType = "mieszkanie"
	House     PropertyType = "dom"
)

// ListingType is the transaction kind.
type ListingType string

const (
	Sale ListingType = "sprzedaz"
	Rent ListingType = "wynajem"
)

// ListingTypes returns the transaction kinds in scrape order.
func ListingTypes() []ListingType { return []ListingType{Sale, Rent} }

// Name returns the singular English name used in file names ("sale", "rent").
func (t ListingType) Name() string {
	switch t {
	case Sale:
		return "sale"
	case Rent:
		return "rent"
	}
	return strings.ToLower(string(t))
}

// Dir returns the output directory name for the listing type ("sales", "rents").
func (t ListingType) Dir() string { return t.Name() + "s" }

// ParseListingType accepts "sale", "rent" or the site values.
func ParseListingType(s string) (ListingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "sales", string(Sale):
		return Sale, nil
	case "rent", "rents", string(Rent):
		return Rent, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownListingType, s)
}

// SortDirection orders search results by the default sort field.
type SortDirection string

const (
	Desc SortDirection = "DESC"
	Asc  SortDirection = "ASC"
)

// SearchOptions is the mutable input for NewSearchCriteria.
// Zero values select the defaults: apartment, sale, 36 results per page.
type SearchOptions struct {
	Locations    []District
	PropertyType PropertyType
	ListingType  ListingType
	Limit        ResultLimit
	PriceMin     *int
	PriceMax     *int
	Direction    SortDirection
}

// SearchCriteria is a validated, immutable search request.
type SearchCriteria struct {
	locations    []District
	propertyType PropertyType
	listingType  ListingType
	limit        ResultLimit
	priceMin     *int
	priceMax     *int
	direction    SortDirection
}

// NewSearchCriteria validates opts and returns the criteria.
// Invalid input is rejected, never coerced.
func NewSearchCriteria(opts SearchOptions) (SearchCriteria, error) {
	if len(opts.Locations) == 0 {
		return SearchCriteria{}, &ValidationError{Field: "locations", Err: ErrNoLocations}
	}
	for i, loc := range opts.Locations {
		if strings.TrimSpace(string(loc)) == "" {
			return SearchCriteria{}, &ValidationError{Field: fmt.Sprintf("locations[%d]", i), Err: ErrNoLocations}
		}
	}

	if opts.PropertyType == "" {
		opts.PropertyType = Apartment
	}
	if opts.PropertyType != Apartment && opts.PropertyType != House {
		return SearchCriteria{}, &ValidationError{Field: "property_type", Err: ErrInvalidProperty}
	}

	if opts.ListingType == "" {
		opts.ListingType = Sale
	}
	if opts.ListingType != Sale && opts.ListingType != Rent {
		return SearchCriteria{}, &ValidationError{Field: "listing_type", Err: ErrInvalidListing}
	}

	if opts.Limit == 0 {
		opts.Limit = LimitMedium
	}
	if !opts.Limit.Valid() {
		return SearchCriteria{}, &ValidationError{Field: "limit", Err: ErrInvalidLimit}
	}

	if opts.PriceMin != nil && *opts.PriceMin < 0 {
		return SearchCriteria{}, &ValidationError{Field: "price_min", Err: ErrNegativePrice}
	}
	if opts.PriceMax != nil && *opts.PriceMax < 0 {
		return SearchCriteria{}, &ValidationError{Field: "price_max", Err: ErrNegativePrice}
	}
	if opts.PriceMin != nil && opts.PriceMax != nil && *opts.PriceMin > *opts.PriceMax {
		return SearchCriteria{}, &ValidationError{Field: "price_min", Err: ErrPriceRange}
	}

	if opts.Direction != "" && opts.Direction != Desc && opts.Direction != Asc {
		return SearchCriteria{}, &ValidationError{Field: "direction", Err: ErrInvalidDirection}
	}

	locations := make([]District, len(opts.Locations))
	copy(locations, opts.Locations)

	return SearchCriteria{
		locations:    locations,
		propertyType: opts.PropertyType,
		listingType:  opts.ListingType,
		limit:        opts.Limit,
		priceMin:     copyInt(opts.PriceMin),
		priceMax:     copyInt(opts.PriceMax),
		direction:    opts.Direction,
	}, nil
}

// Locations returns a copy of the locations in input order.
func (c SearchCriteria) Locations() []District {
	out := make([]District, len(c.locations))
	copy(out, c.locations)
	return out
}

func (c SearchCriteria) PropertyType() PropertyType { return c.propertyType }
func (c SearchCriteria) ListingType() ListingType   { return c.listingType }
func (c SearchCriteria) Limit() ResultLimit         { return c.limit }

// PriceMin returns the lower price bound and whether it is set.
func (c SearchCriteria) PriceMin() (int, bool) { return derefInt(c.priceMin) }

// PriceMax returns the upper price bound and whether it is set.
func (c SearchCriteria) PriceMax() (int, bool) { return derefInt(c.priceMax) }

// Direction returns the explicit sort direction, if one was requested.
func (c SearchCriteria) Direction() (SortDirection, bool) {
	return c.direction, c.direction != ""
}

func (c SearchCriteria) String() string {
	return fmt.Sprintf("SearchCriteria(locations=%d, type=%s, listing=%s, limit=%d)",
		len(c.locations), c.propertyType, c.listingType, c.limit)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func derefInt(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
