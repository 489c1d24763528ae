package models

import (
	"errors"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestNewSearchCriteriaDefaults(t *testing.T) {
	c, err := NewSearchCriteria(SearchOptions{Locations: []District{Wola}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.PropertyType() != Apartment || c.ListingType() != Sale || c.Limit() != LimitMedium {
		t.Errorf("defaults = %s/%s/%d; want mieszkanie/sprzedaz/36", c.PropertyType(), c.ListingType(), c.Limit())
	}
	if _, ok := c.Direction(); ok {
		t.Error("direction should be unset by default")
	}
	if _, ok := c.PriceMin(); ok {
		t.Error("price_min should be unset by default")
	}
}

func TestNewSearchCriteriaValidation(t *testing.T) {
	tests := []struct {
		name  string
		opts  SearchOptions
		field string
		want  error
	}{
		{"no locations", SearchOptions{}, "locations", ErrNoLocations},
		{"blank location", SearchOptions{Locations: []District{Wola, " "}}, "locations[1]", ErrNoLocations},
		{"property type", SearchOptions{Locations: []District{Wola}, PropertyType: "kawalerka"}, "property_type", ErrInvalidProperty},
		{"listing type", SearchOptions{Locations: []District{Wola}, ListingType: "lease"}, "listing_type", ErrInvalidListing},
		{"limit", SearchOptions{Locations: []District{Wola}, Limit: 50}, "limit", ErrInvalidLimit},
		{"negative min", SearchOptions{Locations: []District{Wola}, PriceMin: intPtr(-1)}, "price_min", ErrNegativePrice},
		{"negative max", SearchOptions{Locations: []District{Wola}, PriceMax: intPtr(-5)}, "price_max", ErrNegativePrice},
		{"range", SearchOptions{Locations: []District{Wola}, PriceMin: intPtr(500), PriceMax: intPtr(100)}, "price_min", ErrPriceRange},
		{"direction", SearchOptions{Locations: []District{Wola}, Direction: "UP"}, "direction", ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchCriteria(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v; want %v", err, tt.want)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field = %v; want %s", err, tt.field)
			}
		})
	}
}

func TestNewSearchCriteriaAcceptsEqualPrices(t *testing.T) {
	c, err := NewSearchCriteria(SearchOptions{
		Locations: []District{Wola},
		PriceMin:  intPtr(0),
		PriceMax:  intPtr(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := c.PriceMax(); !ok || v != 0 {
		t.Errorf("PriceMax = %d, %v; want 0, true", v, ok)
	}
}

func TestSearchCriteriaIsImmutable(t *testing.T) {
	locs := []District{Wola, Mokotow}
	lo := 100
	c, err := NewSearchCriteria(SearchOptions{Locations: locs, PriceMin: &lo})
	if err != nil {
		t.Fatal(err)
	}

	locs[0] = Bemowo
	lo = 999
	got := c.Locations()
	got[1] = Ursus

	if c.Locations()[0] != Wola || c.Locations()[1] != Mokotow {
		t.Errorf("locations changed to %v", c.Locations())
	}
	if v, _ := c.PriceMin(); v != 100 {
		t.Errorf("PriceMin = %d; want 100", v)
	}
}

func TestDistrictNames(t *testing.T) {
	if len(AllDistricts()) != 18 {
		t.Fatalf("got %d districts; want 18", len(AllDistricts()))
	}
	if PragaPoludnie.Name() != "praga_poludnie" {
		t.Errorf("Name = %q; want praga_poludnie", PragaPoludnie.Name())
	}
	for _, d := range AllDistricts() {
		got, err := ParseDistrict(d.Name())
		if err != nil || got != d {
			t.Errorf("ParseDistrict(%q) = %q, %v", d.Name(), got, err)
		}
	}
	if _, err := ParseDistrict("Pruszkow"); !errors.Is(err, ErrUnknownDistrict) {
		t.Errorf("err = %v; want ErrUnknownDistrict", err)
	}
	if d, _ := ParseDistrict(" WOLA "); d != Wola {
		t.Errorf("ParseDistrict is case sensitive")
	}
}

func TestListingTypeNames(t *testing.T) {
	tests := []struct {
		in   string
		want ListingType
		dir  string
	}{
		{"sale", Sale, "sales"},
		{"sprzedaz", Sale, "sales"},
		{"Rents", Rent, "rents"},
		{"wynajem", Rent, "rents"},
	}
	for _, tt := range tests {
		got, err := ParseListingType(tt.in)
		if err != nil || got != tt.want || got.Dir() != tt.dir {
			t.Errorf("ParseListingType(%q) = %q (%s), %v; want %q (%s)", tt.in, got, got.Dir(), err, tt.want, tt.dir)
		}
	}
	if _, err := ParseListingType("lease"); !errors.Is(err, ErrUnknownListingType) {
		t.Errorf("err = %v; want ErrUnknownListingType", err)
	}
}
