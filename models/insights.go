package models

// InsightReport holds analytics computed over a cleaned dataset.
type InsightReport struct {
	TotalProperties    int
	PricedProperties   int
	AveragePrice       float64
	MinPrice           int64
	MaxPrice           int64
	AveragePricePerSqm float64
	MostExpensive      *Property
	Largest            []*Property
	ByDistrict         map[string]int
}
