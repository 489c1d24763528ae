package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/config"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

const locationSeparator = ", "

var (
	// nonDigitRegexp strips everything but digits from a price
	nonDigitRegexp = regexp.MustCompile(`\D+`)
	// integerRegexp captures the first run of digits
	integerRegexp = regexp.MustCompile(`\d+`)
	// decimalRegexp captures a number with an optional dot fraction
	decimalRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// yearRegexp captures a standalone year from 1900 to 2099
	yearRegexp = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Location is the address split into its parts. Street is only known when
// the address has five comma-separated parts.
type Location struct {
	District     *string
	Neighborhood *string
	Street       *string
}

// Floor is a "current/total" floor value split in two.
type Floor struct {
	Current *int
	Total   *int
}

// Cleaner turns raw label text into typed values. Every method maps input
// it cannot interpret to nil rather than failing.
type Cleaner struct {
	dict   config.Dictionary
	lang   language.Tag
	logger *utils.Logger
}

// NewCleaner creates a Cleaner using the vocabulary in dict.
func NewCleaner(dict config.Dictionary, logger *utils.Logger) *Cleaner {
	return &Cleaner{dict: dict, lang: language.Polish, logger: logger}
}

// CleanPrice keeps only the digits of raw, so "1 234 567 zł" becomes 1234567.
func (c *Cleaner) CleanPrice(raw *string) *int64 {
	if raw == nil {
		return nil
	}
	digits := nonDigitRegexp.ReplaceAllString(*raw, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		c.logger.Debug("[cleaner] Price out of range: %q", *raw)
		return nil
	}
	return &v
}

// CleanMaintenanceFee returns the first integer in raw.
func (c *Cleaner) CleanMaintenanceFee(raw *string) *int64 {
	if raw == nil {
		return nil
	}
	m := integerRegexp.FindString(*raw)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// CleanArea returns the first decimal number in raw.
func (c *Cleaner) CleanArea(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	m := decimalRegexp.FindString(*raw)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// CleanRooms returns the first integer in raw.
func (c *Cleaner) CleanRooms(raw *string) *int {
	return firstInt(raw)
}

// CleanYearBuilt returns the first standalone year between 1900 and 2099.
func (c *Cleaner) CleanYearBuilt(raw *string) *int {
	if raw == nil {
		return nil
	}
	m := yearRegexp.FindString(*raw)
	if m == "" {
		return nil
	}
	v, _ := strconv.Atoi(m)
	return &v
}

// CleanElevator maps the dictionary's yes/no tokens to a bool.
func (c *Cleaner) CleanElevator(raw *string) *bool {
	if raw == nil {
		return nil
	}
	switch c.lower(strings.TrimSpace(*raw)) {
	case c.lower(c.dict.ElevatorYes):
		v := true
		return &v
	case c.lower(c.dict.ElevatorNo):
		v := false
		return &v
	}
	return nil
}

// SplitLocation splits "neighborhood, district, city, region" or
// "street, neighborhood, district, city, region". Other shapes are unknown.
func (c *Cleaner) SplitLocation(raw *string) Location {
	if raw == nil {
		return Location{}
	}
	parts := strings.Split(*raw, locationSeparator)
	switch len(parts) {
	case 4:
		return Location{
			Neighborhood: nonEmpty(parts[0]),
			District:     nonEmpty(parts[1]),
		}
	case 5:
		return Location{
			Street:       nonEmpty(parts[0]),
			Neighborhood: nonEmpty(parts[1]),
			District:     nonEmpty(parts[2]),
		}
	default:
		return Location{}
	}
}

// SplitFloor splits "current/total" on "/"; parts after the second are
// ignored. The ground floor literal counts as 0 and each side is parsed on
// its own.
func (c *Cleaner) SplitFloor(raw *string) Floor {
	if raw == nil {
		return Floor{}
	}
	parts := strings.Split(*raw, "/")

	f := Floor{Current: c.floorNumber(parts[0])}
	if len(parts) > 1 {
		f.Total = c.floorNumber(parts[1])
	}
	return f
}

func (c *Cleaner) floorNumber(s string) *int {
	s = strings.TrimSpace(s)
	if c.lower(s) == c.lower(c.dict.GroundFloor) {
		v := 0
		return &v
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// ExtractFlags evaluates every feature rule bound to source against raw.
// A missing source leaves all of its flags missing; otherwise each flag is
// true exactly when its phrase occurs in the lower-cased text.
func (c *Cleaner) ExtractFlags(source string, raw *string) map[string]*bool {
	flags := make(map[string]*bool)
	var text string
	if raw != nil {
		text = c.lower(*raw)
	}
	for _, rule := range c.dict.Features {
		if rule.Source != source {
			continue
		}
		if raw == nil {
			flags[rule.Column] = nil
			continue
		}
		v := strings.Contains(text, c.lower(rule.Phrase))
		flags[rule.Column] = &v
	}
	return flags
}

// CleanText collapses whitespace; blank text is missing.
func (c *Cleaner) CleanText(raw *string) *string {
	if raw == nil {
		return nil
	}
	return nonEmpty(normaliseText(*raw))
}

// lower builds a fresh Caser per call; a Caser must not be shared between goroutines.
func (c *Cleaner) lower(s string) string {
	return cases.Lower(c.lang).String(s)
}

func firstInt(raw *string) *int {
	if raw == nil {
		return nil
	}
	m := integerRegexp.FindString(*raw)
	if m == "" {
		return nil
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &v
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
