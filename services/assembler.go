package services

import (
	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

// TableSource is one input of a combine step, usually a clean CSV file.
type TableSource interface {
	Name() string
	Load() (*models.Table, error)
}

// LoadFailure records a source that could not be read.
type LoadFailure struct {
	Source string
	Err    error
}

// CombineReport describes what went into a combined table.
type CombineReport struct {
	Loaded []string
	Failed []LoadFailure
	Rows   int
}

// Assembler concatenates tables that may not share the same columns.
type Assembler struct {
	logger *utils.Logger
}

// NewAssembler creates an Assembler.
func NewAssembler(logger *utils.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Combine loads every source and stacks their rows in source order. The
// header is the union of all headers in first-seen order; cells a source
// does not have are Missing. A source that fails to load is logged, listed
// in the report and skipped.
func (a *Assembler) Combine(name string, sources []TableSource) (*models.Table, CombineReport) {
	var (
		report CombineReport
		tables []*models.Table
	)

	for _, src := range sources {
		t, err := src.Load()
		if err != nil {
			a.logger.Error("[assembler] Failed to read %s: %v", src.Name(), err)
			report.Failed = append(report.Failed, LoadFailure{Source: src.Name(), Err: err})
			continue
		}
		a.logger.Info("[assembler] Added %d rows from %s", t.Len(), src.Name())
		report.Loaded = append(report.Loaded, src.Name())
		tables = append(tables, t)
	}

	out := models.NewTable(name, unionColumns(tables))
	for _, t := range tables {
		idx := make([]int, len(out.Columns))
		for i, col := range out.Columns {
			idx[i] = t.ColumnIndex(col)
		}
		for _, row := range t.Rows {
			cells := make([]string, len(out.Columns))
			for i, j := range idx {
				if j >= 0 && j < len(row) {
					cells[i] = row[j]
				} else {
					cells[i] = models.Missing
				}
			}
			out.Append(cells)
		}
	}

	report.Rows = out.Len()
	return out, report
}

func unionColumns(tables []*models.Table) []string {
	var cols []string
	seen := make(map[string]struct{})
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}
