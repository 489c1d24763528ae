package models

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Raw field names as produced by the detail-page parser.
const (
	FieldLink               = "link"
	FieldPrice              = "price"
	FieldLocation           = "location"
	FieldArea               = "area"
	FieldRooms              = "rooms"
	FieldHeating            = "heating"
	FieldFloor              = "floor"
	FieldMaintenanceFee     = "maintenance_fee"
	FieldCondition          = "condition"
	FieldMarket             = "market"
	FieldOwnership          = "ownership"
	FieldAdvertiserType     = "advertiser_type"
	FieldYearBuilt          = "year_built"
	FieldElevator           = "elevator"
	FieldBuildingType       = "building_type"
	FieldWindows            = "windows"
	FieldSecurity           = "security"
	FieldAdditionalFeatures = "additional_features"
)

// Derived column names.
const (
	ColumnID           = "id"
	ColumnDistrict     = "district"
	ColumnNeighborhood = "neighborhood"
	ColumnStreet       = "street"
	ColumnCurrentFloor = "current_floor"
	ColumnTotalFloors  = "total_floors"
)

// RawColumns is the column order of scraped (uncleaned) CSV files.
var RawColumns = []string{
	FieldLink, FieldPrice, FieldLocation, FieldArea, FieldRooms, FieldHeating,
	FieldFloor, FieldMaintenanceFee, FieldCondition, FieldMarket, FieldOwnership,
	FieldAdvertiserType, FieldYearBuilt, FieldElevator, FieldBuildingType,
	FieldWindows, FieldSecurity, FieldAdditionalFeatures,
}

// baseColumns precede the feature flag columns in clean output.
var baseColumns = []string{
	FieldLink, ColumnID, FieldPrice, FieldArea, FieldRooms, FieldHeating,
	FieldMaintenanceFee, FieldYearBuilt, FieldElevator, FieldBuildingType,
	FieldWindows, FieldCondition, FieldMarket, FieldOwnership, FieldAdvertiserType,
	ColumnDistrict, ColumnNeighborhood, ColumnStreet, ColumnCurrentFloor, ColumnTotalFloors,
}

// RawProperty holds the label->text values scraped from one listing page.
// A field that was not found on the page is absent from Fields.
type RawProperty struct {
	Link   string
	Fields map[string]string
}

// NewRawProperty returns an empty record for link.
func NewRawProperty(link string) RawProperty {
	return RawProperty{Link: link, Fields: make(map[string]string)}
}

// Set stores a raw value for the named field.
func (r RawProperty) Set(name, value string) {
	r.Fields[name] = value
}

// Value returns the raw value of a field or nil when it is absent.
func (r RawProperty) Value(name string) *string {
	if name == FieldLink {
		if r.Link == "" {
			return nil
		}
		link := r.Link
		return &link
	}
	v, ok := r.Fields[name]
	if !ok {
		return nil
	}
	return &v
}

// Row renders the record in RawColumns order; absent fields become Missing.
func (r RawProperty) Row() []string {
	row := make([]string, len(RawColumns))
	for i, col := range RawColumns {
		if v := r.Value(col); v != nil {
			row[i] = *v
		}
	}
	return row
}

// Property is a cleaned listing. Every optional field is nil when missing.
type Property struct {
	Link string
	ID   string

	Price          *int64
	Area           *float64
	Rooms          *int
	Heating        *string
	MaintenanceFee *int64
	YearBuilt      *int
	Elevator       *bool
	BuildingType   *string
	Windows        *string
	Condition      *string
	Market         *string
	Ownership      *string
	AdvertiserType *string

	District     *string
	Neighborhood *string
	Street       *string

	CurrentFloor *int
	TotalFloors  *int

	// Flags holds boolean feature flags keyed by column name.
	Flags map[string]*bool
}

// ShortID derives an 8-character identifier from a listing link.
// The same link always yields the same ID; a record without a link has no ID.
func ShortID(link string) string {
	if link == "" {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()[:8]
}

// PropertyColumns returns the clean CSV header for the given flag columns.
func PropertyColumns(flagColumns []string) []string {
	cols := make([]string, 0, len(baseColumns)+len(flagColumns))
	cols = append(cols, baseColumns...)
	return append(cols, flagColumns...)
}

// Row renders p in PropertyColumns(flagColumns) order.
func (p *Property) Row(flagColumns []string) []string {
	row := []string{
		p.Link,
		p.ID,
		formatInt64(p.Price),
		formatFloat(p.Area),
		formatInt(p.Rooms),
		formatString(p.Heating),
		formatInt64(p.MaintenanceFee),
		formatInt(p.YearBuilt),
		FormatBool(p.Elevator),
		formatString(p.BuildingType),
		formatString(p.Windows),
		formatString(p.Condition),
		formatString(p.Market),
		formatString(p.Ownership),
		formatString(p.AdvertiserType),
		formatString(p.District),
		formatString(p.Neighborhood),
		formatString(p.Street),
		formatInt(p.CurrentFloor),
		formatInt(p.TotalFloors),
	}
	for _, col := range flagColumns {
		row = append(row, FormatBool(p.Flags[col]))
	}
	return row
}

// PropertyFromRow rebuilds a Property from a clean CSV row. Columns the
// table does not carry stay nil; unparsable cells are treated as missing.
func PropertyFromRow(columns, row []string) *Property {
	cell := func(name string) string {
		for i, c := range columns {
			if c == name && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return Missing
	}

	p := &Property{
		Link:           cell(FieldLink),
		ID:             cell(ColumnID),
		Price:          parseInt64(cell(FieldPrice)),
		Area:           parseFloat(cell(FieldArea)),
		Rooms:          parseInt(cell(FieldRooms)),
		Heating:        parseString(cell(FieldHeating)),
		MaintenanceFee: parseInt64(cell(FieldMaintenanceFee)),
		YearBuilt:      parseInt(cell(FieldYearBuilt)),
		Elevator:       ParseBool(cell(FieldElevator)),
		BuildingType:   parseString(cell(FieldBuildingType)),
		Windows:        parseString(cell(FieldWindows)),
		Condition:      parseString(cell(FieldCondition)),
		Market:         parseString(cell(FieldMarket)),
		Ownership:      parseString(cell(FieldOwnership)),
		AdvertiserType: parseString(cell(FieldAdvertiserType)),
		District:       parseString(cell(ColumnDistrict)),
		Neighborhood:   parseString(cell(ColumnNeighborhood)),
		Street:         parseString(cell(ColumnStreet)),
		CurrentFloor:   parseInt(cell(ColumnCurrentFloor)),
		TotalFloors:    parseInt(cell(ColumnTotalFloors)),
		Flags:          make(map[string]*bool),
	}

	base := make(map[string]struct{}, len(baseColumns))
	for _, c := range baseColumns {
		base[c] = struct{}{}
	}
	for _, c := range columns {
		if _, ok := base[c]; ok {
			continue
		}
		if b := ParseBool(cell(c)); b != nil {
			p.Flags[c] = b
		}
	}
	return p
}

// FormatBool renders a nullable bool the way pandas writes a boolean column.
func FormatBool(b *bool) string {
	if b == nil {
		return Missing
	}
	if *b {
		return "True"
	}
	return "False"
}

// ParseBool accepts True/False in any case; anything else is missing.
func ParseBool(s string) *bool {
	switch strings.ToLower(s) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

func formatInt(v *int) string {
	if v == nil {
		return Missing
	}
	return strconv.Itoa(*v)
}

func formatInt64(v *int64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatInt(*v, 10)
}

func formatFloat(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return Missing
	}
	return *v
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseInt64(s string) *int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseString(s string) *string {
	if s == Missing {
		return nil
	}
	return &s
}
