package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultDictionaryIsValid(t *testing.T) {
	d := DefaultDictionary()
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := len(d.FeatureColumns()); got != 12 {
		t.Errorf("FeatureColumns has %d entries; want 12", got)
	}
}

func TestLoadDictionaryMergesSections(t *testing.T) {
	path := writeYAML(t, `
ground_floor: "ground"
features:
  - source: additional_features
    column: balcony
    phrase: balcony
`)

	d, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("LoadDictionary: %v", err)
	}
	if d.GroundFloor != "ground" {
		t.Errorf("GroundFloor = %q; want ground", d.GroundFloor)
	}
	if len(d.Features) != 1 || d.Features[0].Phrase != "balcony" {
		t.Errorf("Features = %+v", d.Features)
	}
	if d.ElevatorYes != "tak" || len(d.DetailLabels) != len(DefaultDictionary().DetailLabels) {
		t.Error("sections absent from the file should keep their defaults")
	}
}

func TestLoadDictionaryErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"duplicate column", `
features:
  - {source: security, column: x, phrase: a}
  - {source: security, column: x, phrase: b}
`, ErrDuplicateColumn},
		{"incomplete rule", `
features:
  - {source: security, column: x}
`, ErrIncompleteRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDictionary(writeYAML(t, tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v; want %v", err, tt.want)
			}
		})
	}

	if _, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := LoadDictionary(writeYAML(t, "features: [")); err == nil {
		t.Error("malformed YAML should fail")
	}
}

func TestValidateRequiresTokens(t *testing.T) {
	d := DefaultDictionary()
	d.ElevatorNo = ""
	if err := d.Validate(); !errors.Is(err, ErrMissingElevator) {
		t.Errorf("err = %v; want ErrMissingElevator", err)
	}

	d = DefaultDictionary()
	d.DetailLabels = nil
	if err := d.Validate(); !errors.Is(err, ErrNoLabels) {
		t.Errorf("err = %v; want ErrNoLabels", err)
	}
}
