package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

func i64(v int64) *int64 { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }
func intp(v int) *int { return &v }
func boolp(v bool) *bool { return &v }

func sampleProperties() []*models.Property {
	return []*models.Property{
		{Link: "https://www.otodom.pl/pl/oferta/1", Price: i64(800000), Area: f64(40), District: str("Mokotów")},
		{Link: "https://www.otodom.pl/pl/oferta/2", Price: i64(1200000), Area: f64(60), District: str("Mokotów")},
		{Link: "https://www.otodom.pl/pl/oferta/3", Price: i64(500000), Area: f64(25), District: str("Wola")},
		{Link: "https://www.otodom.pl/pl/oferta/4", Area: f64(120), District: str("Wilanów")},
		{Link: "https://www.otodom.pl/pl/oferta/5", Price: i64(0)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleProperties())
	if r.TotalProperties != 5 {
		t.Errorf("TotalProperties: got %d, want 5", r.TotalProperties)
	}
	if r.PricedProperties != 3 {
		t.Errorf("PricedProperties: got %d, want 3", r.PricedProperties)
	}
	if r.ByDistrict["Mokotów"] != 2 || r.ByDistrict["Wola"] != 1 {
		t.Errorf("ByDistrict: got %v", r.ByDistrict)
	}
}

func TestInsightPriceStats(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleProperties())

	if r.MinPrice != 500000 {
		t.Errorf("MinPrice: got %d, want 500000", r.MinPrice)
	}
	if r.MaxPrice != 1200000 {
		t.Errorf("MaxPrice: got %d, want 1200000", r.MaxPrice)
	}
	if r.AveragePrice != 833333.33 {
		t.Errorf("AveragePrice: got %.2f, want 833333.33", r.AveragePrice)
	}
	// (20000 + 20000 + 20000) / 3
	if r.AveragePricePerSqm != 20000 {
		t.Errorf("AveragePricePerSqm: got %.2f, want 20000", r.AveragePricePerSqm)
	}
	if r.MostExpensive == nil || r.MostExpensive.Link != "https://www.otodom.pl/pl/oferta/2" {
		t.Errorf("MostExpensive: got %+v", r.MostExpensive)
	}
}

func TestInsightLargest(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(sampleProperties())

	if len(r.Largest) != 4 {
		t.Fatalf("Largest: got %d entries, want 4", len(r.Largest))
	}
	if *r.Largest[0].Area != 120 || *r.Largest[3].Area != 25 {
		t.Errorf("Largest not sorted by area: first %.0f, last %.0f", *r.Largest[0].Area, *r.Largest[3].Area)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalProperties != 0 {
		t.Errorf("expected 0 total properties for empty input")
	}
	var buf bytes.Buffer
	svc.Fprint(&buf, r)
	if !strings.Contains(buf.String(), "No price data available") {
		t.Errorf("empty report should say there is no price data:\n%s", buf.String())
	}
}

func TestInsightPrintAlignsWideNames(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	var buf bytes.Buffer
	svc.Fprint(&buf, svc.Generate(sampleProperties()))

	out := buf.String()
	for _, want := range []string{"Mokotów", "Maximum price : 1200000", "Wilanów / -"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
