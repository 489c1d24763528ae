package services

import (
	"strings"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

// Normalizer converts raw records into cleaned Properties.
type Normalizer struct {
	cleaner *Cleaner
	flags   []string
	logger  *utils.Logger
}

// NewNormalizer creates a Normalizer whose flag columns follow the
// cleaner's feature rules.
func NewNormalizer(cleaner *Cleaner, logger *utils.Logger) *Normalizer {
	return &Normalizer{cleaner: cleaner, flags: cleaner.dict.FeatureColumns(), logger: logger}
}

// FlagColumns returns the feature flag columns in output order.
func (n *Normalizer) FlagColumns() []string {
	out := make([]string, len(n.flags))
	copy(out, n.flags)
	return out
}

// Columns returns the full clean header.
func (n *Normalizer) Columns() []string {
	return models.PropertyColumns(n.flags)
}

// Normalize cleans one record. Fields that cannot be interpreted are left
// nil without affecting the rest of the record.
func (n *Normalizer) Normalize(raw models.RawProperty) *models.Property {
	c := n.cleaner
	link := strings.TrimSpace(raw.Link)

	p := &models.Property{
		Link:           link,
		ID:             models.ShortID(link),
		Price:          c.CleanPrice(raw.Value(models.FieldPrice)),
		Area:           c.CleanArea(raw.Value(models.FieldArea)),
		Rooms:          c.CleanRooms(raw.Value(models.FieldRooms)),
		Heating:        c.CleanText(raw.Value(models.FieldHeating)),
		MaintenanceFee: c.CleanMaintenanceFee(raw.Value(models.FieldMaintenanceFee)),
		YearBuilt:      c.CleanYearBuilt(raw.Value(models.FieldYearBuilt)),
		Elevator:       c.CleanElevator(raw.Value(models.FieldElevator)),
		BuildingType:   c.CleanText(raw.Value(models.FieldBuildingType)),
		Windows:        c.CleanText(raw.Value(models.FieldWindows)),
		Condition:      c.CleanText(raw.Value(models.FieldCondition)),
		Market:         c.CleanText(raw.Value(models.FieldMarket)),
		Ownership:      c.CleanText(raw.Value(models.FieldOwnership)),
		AdvertiserType: c.CleanText(raw.Value(models.FieldAdvertiserType)),
		Flags:          make(map[string]*bool, len(n.flags)),
	}

	loc := c.SplitLocation(raw.Value(models.FieldLocation))
	p.District, p.Neighborhood, p.Street = loc.District, loc.Neighborhood, loc.Street

	floor := c.SplitFloor(raw.Value(models.FieldFloor))
	p.CurrentFloor, p.TotalFloors = floor.Current, floor.Total

	for _, source := range n.flagSources() {
		for col, v := range c.ExtractFlags(source, raw.Value(source)) {
			p.Flags[col] = v
		}
	}
	return p
}

// NormalizeAll cleans a batch, keeping the first record for each link.
func (n *Normalizer) NormalizeAll(raw []models.RawProperty) []*models.Property {
	seen := make(map[string]struct{}, len(raw))
	result := make([]*models.Property, 0, len(raw))

	for _, r := range raw {
		p := n.Normalize(r)
		if p.Link != "" {
			if _, dup := seen[p.Link]; dup {
				n.logger.Debug("[cleaner] Duplicate link skipped: %s", p.Link)
				continue
			}
			seen[p.Link] = struct{}{}
		}
		result = append(result, p)
	}

	if dropped := len(raw) - len(result); dropped > 0 {
		n.logger.Info("[cleaner] Cleaned %d → %d properties (dropped %d duplicates)",
			len(raw), len(result), dropped)
	}
	return result
}

// Table renders properties as a clean table.
func (n *Normalizer) Table(name string, props []*models.Property) *models.Table {
	t := models.NewTable(name, n.Columns())
	for _, p := range props {
		t.Append(p.Row(n.flags))
	}
	return t
}

func (n *Normalizer) flagSources() []string {
	var sources []string
	seen := make(map[string]struct{})
	for _, r := range n.cleaner.dict.Features {
		if _, ok := seen[r.Source]; ok {
			continue
		}
		seen[r.Source] = struct{}{}
		sources = append(sources, r.Source)
	}
	return sources
}
