package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

const topLargest = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(props []*models.Property) *models.InsightReport {
	report := &models.InsightReport{
		ByDistrict: make(map[string]int),
	}

	if len(props) == 0 {
		return report
	}

	report.TotalProperties = len(props)

	var (
		priced   []*models.Property
		withArea []*models.Property
		sqmTotal float64
		sqmCount int
		priceSum float64
	)

	for _, p := range props {
		if p.Price != nil && *p.Price > 0 {
			priced = append(priced, p)
			priceSum += float64(*p.Price)
			if p.Area != nil && *p.Area > 0 {
				sqmTotal += float64(*p.Price) / *p.Area
				sqmCount++
			}
		}
		if p.Area != nil && *p.Area > 0 {
			withArea = append(withArea, p)
		}
		if p.District != nil {
			report.ByDistrict[*p.District]++
		}
	}

	// Price stats (only properties with a positive price)
	if len(priced) > 0 {
		report.PricedProperties = len(priced)
		report.MinPrice = *priced[0].Price
		report.MaxPrice = *priced[0].Price
		report.MostExpensive = priced[0]
		for _, p := range priced {
			if *p.Price < report.MinPrice {
				report.MinPrice = *p.Price
			}
			if *p.Price > report.MaxPrice {
				report.MaxPrice = *p.Price
				report.MostExpensive = p
			}
		}
		report.AveragePrice = round2(priceSum / float64(len(priced)))
	}
	if sqmCount > 0 {
		report.AveragePricePerSqm = round2(sqmTotal / float64(sqmCount))
	}

	sort.SliceStable(withArea, func(i, j int) bool {
		return *withArea[i].Area > *withArea[j].Area
	})
	if len(withArea) > topLargest {
		withArea = withArea[:topLargest]
	}
	report.Largest = withArea

	s.logger.Debug("[insights] Analysed %d properties (%d priced, %d districts)",
		report.TotalProperties, report.PricedProperties, len(report.ByDistrict))
	return report
}

// Print writes the report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	s.Fprint(os.Stdout, r)
}

// Fprint writes the report to w.
func (s *InsightService) Fprint(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  WARSAW PROPERTY INSIGHTS\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	// Overview
	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total properties : %d\n", r.TotalProperties)
	fmt.Fprintf(w, "  With a price     : %d\n", r.PricedProperties)
	fmt.Fprintln(w)

	// Price Stats
	fmt.Fprintf(w, "  Price Statistics (PLN)\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedProperties > 0 {
		fmt.Fprintf(w, "  Average price : %.2f\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : %d\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : %d\n", r.MaxPrice)
		if r.AveragePricePerSqm > 0 {
			fmt.Fprintf(w, "  Average / m²  : %.2f\n", r.AveragePricePerSqm)
		}
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	// Most Expensive
	if r.MostExpensive != nil {
		fmt.Fprintf(w, "  Most Expensive Property\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.MostExpensive.Link, 50))
		fmt.Fprintf(w, "  District : %s\n", orDash(r.MostExpensive.District))
		fmt.Fprintf(w, "  Price    : %d\n", *r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Largest Properties\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Largest) == 0 {
		fmt.Fprintf(w, "  No area data\n")
	} else {
		for i, p := range r.Largest {
			label := orDash(p.Neighborhood)
			if p.District != nil {
				label = *p.District + " / " + label
			}
			fmt.Fprintf(w, "  %d. %s %8.1f m²\n", i+1, pad(truncate(label, 38), 40), *p.Area)
		}
	}
	fmt.Fprintln(w)

	// Properties by District
	fmt.Fprintf(w, "  Properties by District\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByDistrict) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type districtCount struct {
			name  string
			count int
		}
		var counts []districtCount
		for name, cnt := range r.ByDistrict {
			counts = append(counts, districtCount{name, cnt})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].name < counts[j].name
		})
		for _, dc := range counts {
			bar := strings.Repeat("█", min(dc.count, 40))
			fmt.Fprintf(w, "  %s %s (%d)\n", pad(truncate(dc.name, 28), 30), bar, dc.count)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// truncate shortens s to max display columns.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

// pad right-fills s to width display columns.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
