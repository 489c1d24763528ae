package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

// Dictionary validation errors.
var (
	ErrNoLabels           = errors.New("dictionary: at least one detail label is required")
	ErrIncompleteRule     = errors.New("dictionary: feature rule needs source, column and phrase")
	ErrDuplicateColumn    = errors.New("dictionary: duplicate feature column")
	ErrMissingElevator    = errors.New("dictionary: elevator yes/no tokens are required")
	ErrMissingGroundFloor = errors.New("dictionary: ground floor literal is required")
)

// DetailLabel maps a raw field to the label printed next to it on a detail page.
type DetailLabel struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// FeatureRule turns a phrase found in a raw source field into a boolean column.
type FeatureRule struct {
	Source string `yaml:"source"`
	Column string `yaml:"column"`
	Phrase string `yaml:"phrase"`
}

// Dictionary is the site-language vocabulary used by the parser and cleaner.
// It is built once and passed by value.
type Dictionary struct {
	DetailLabels  []DetailLabel `yaml:"detail_labels"`
	FeaturesLabel string        `yaml:"features_label"`
	Features      []FeatureRule `yaml:"features"`
	ElevatorYes   string        `yaml:"elevator_yes"`
	ElevatorNo    string        `yaml:"elevator_no"`
	GroundFloor   string        `yaml:"ground_floor"`
}

// DefaultDictionary returns the Polish vocabulary of the listing site.
func DefaultDictionary() Dictionary {
	return Dictionary{
		DetailLabels: []DetailLabel{
			{Field: models.FieldArea, Label: "Powierzchnia:"},
			{Field: models.FieldRooms, Label: "Liczba pokoi:"},
			{Field: models.FieldHeating, Label: "Ogrzewanie:"},
			{Field: models.FieldFloor, Label: "Piętro:"},
			{Field: models.FieldMaintenanceFee, Label: "Czynsz:"},
			{Field: models.FieldCondition, Label: "Stan wykończenia:"},
			{Field: models.FieldMarket, Label: "Rynek:"},
			{Field: models.FieldOwnership, Label: "Forma własności:"},
			{Field: models.FieldAdvertiserType, Label: "Typ ogłoszeniodawcy:"},
			{Field: models.FieldYearBuilt, Label: "Rok budowy:"},
			{Field: models.FieldElevator, Label: "Winda:"},
			{Field: models.FieldBuildingType, Label: "Rodzaj zabudowy:"},
			{Field: models.FieldWindows, Label: "Okna:"},
			{Field: models.FieldSecurity, Label: "Bezpieczeństwo:"},
		},
		FeaturesLabel: "Informacje dodatkowe:",
		Features: []FeatureRule{
			{Source: models.FieldSecurity, Column: "gated_area", Phrase: "teren zamknięty"},
			{Source: models.FieldSecurity, Column: "monitoring", Phrase: "monitoring"},
			{Source: models.FieldSecurity, Column: "security_guard", Phrase: "ochrona"},
			{Source: models.FieldAdditionalFeatures, Column: "balcony", Phrase: "balkon"},
			{Source: models.FieldAdditionalFeatures, Column: "parking", Phrase: "garaż/miejsce parkingowe"},
			{Source: models.FieldAdditionalFeatures, Column: "terrace", Phrase: "taras"},
			{Source: models.FieldAdditionalFeatures, Column: "garden", Phrase: "ogródek"},
			{Source: models.FieldAdditionalFeatures, Column: "basement", Phrase: "piwnica"},
			{Source: models.FieldAdditionalFeatures, Column: "utility_rooms", Phrase: "pom. użytkowe"},
			{Source: models.FieldAdditionalFeatures, Column: "non_smokers_only", Phrase: "tylko dla niepalących"},
			{Source: models.FieldAdditionalFeatures, Column: "students_allowed", Phrase: "wynajmę również studentom"},
			{Source: models.FieldAdditionalFeatures, Column: "separate_kitchen", Phrase: "oddzielna kuchnia"},
		},
		ElevatorYes: "tak",
		ElevatorNo:  "nie",
		GroundFloor: "parter",
	}
}

// LoadDictionary reads a YAML dictionary. Sections left empty in the file
// keep their built-in values.
func LoadDictionary(path string) (Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dictionary{}, fmt.Errorf("dictionary: cannot read %s: %w", path, err)
	}

	var fileDict Dictionary
	if err := yaml.Unmarshal(raw, &fileDict); err != nil {
		return Dictionary{}, fmt.Errorf("dictionary: cannot parse %s: %w", path, err)
	}

	dict := mergeDictionary(DefaultDictionary(), fileDict)
	if err := dict.Validate(); err != nil {
		return Dictionary{}, err
	}
	return dict, nil
}

// Validate checks that the dictionary can drive parsing and cleaning.
func (d Dictionary) Validate() error {
	if len(d.DetailLabels) == 0 {
		return ErrNoLabels
	}
	seen := make(map[string]struct{}, len(d.Features))
	for _, r := range d.Features {
		if r.Source == "" || r.Column == "" || r.Phrase == "" {
			return fmt.Errorf("%w: %+v", ErrIncompleteRule, r)
		}
		if _, dup := seen[r.Column]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, r.Column)
		}
		seen[r.Column] = struct{}{}
	}
	if d.ElevatorYes == "" || d.ElevatorNo == "" {
		return ErrMissingElevator
	}
	if d.GroundFloor == "" {
		return ErrMissingGroundFloor
	}
	return nil
}

// FeatureColumns returns the flag column names in rule order.
func (d Dictionary) FeatureColumns() []string {
	cols := make([]string, 0, len(d.Features))
	for _, r := range d.Features {
		cols = append(cols, r.Column)
	}
	return cols
}

func mergeDictionary(base, override Dictionary) Dictionary {
	if len(override.DetailLabels) > 0 {
		base.DetailLabels = override.DetailLabels
	}
	if override.FeaturesLabel != "" {
		base.FeaturesLabel = override.FeaturesLabel
	}
	if len(override.Features) > 0 {
		base.Features = override.Features
	}
	if override.ElevatorYes != "" {
		base.ElevatorYes = override.ElevatorYes
	}
	if override.ElevatorNo != "" {
		base.ElevatorNo = override.ElevatorNo
	}
	if override.GroundFloor != "" {
		base.GroundFloor = override.GroundFloor
	}
	return base
}
