package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/storage"
	"github.com/bartlomiej-milosz/warsaw-property-analysis/utils"
)

// FileResult is the outcome of cleaning one raw file.
type FileResult struct {
	Input       string
	Output      string
	ListingType models.ListingType
	Rows        int
	Err         error
}

// CleanStats summarises a CleanAll run.
type CleanStats struct {
	Files     []FileResult
	Succeeded int
	Failed    int
	Rows      int
}

// BatchCleaner cleans every raw file per listing type and combines the
// results into one file per listing type.
type BatchCleaner struct {
	normalizer  *Normalizer
	assembler   *Assembler
	rawDir      string
	cleanDir    string
	combinedDir string
	store       storage.PropertyWriter
	logger      *utils.Logger
}

// NewBatchCleaner creates a BatchCleaner. store may be nil.
func NewBatchCleaner(normalizer *Normalizer, assembler *Assembler, rawDir, cleanDir, combinedDir string,
	store storage.PropertyWriter, logger *utils.Logger) *BatchCleaner {
	return &BatchCleaner{
		normalizer:  normalizer,
		assembler:   assembler,
		rawDir:      rawDir,
		cleanDir:    cleanDir,
		combinedDir: combinedDir,
		store:       store,
		logger:      logger,
	}
}

// CombinedPath returns the combined file of a listing type, for example
// combined/warsaw_all_rents.csv.
func CombinedPath(combinedDir string, lt models.ListingType) string {
	return filepath.Join(combinedDir, fmt.Sprintf("warsaw_all_%s.csv", lt.Dir()))
}

// CleanAll cleans raw/<type>/*.csv into clean/<type>/ under the same file
// names. A file that fails is recorded and the run continues.
func (b *BatchCleaner) CleanAll(ctx context.Context) CleanStats {
	var stats CleanStats

	for _, lt := range models.ListingTypes() {
		inDir := filepath.Join(b.rawDir, lt.Dir())
		files, err := storage.ListCSV(inDir)
		if err != nil {
			b.logger.Error("[cleaner] %v", err)
			continue
		}
		if len(files) == 0 {
			b.logger.Warn("[cleaner] No CSV files found in %s", inDir)
			continue
		}
		b.logger.Info("[cleaner] Found %d files to clean in %s", len(files), inDir)

		for _, in := range files {
			if ctx.Err() != nil {
				return stats
			}
			out := filepath.Join(b.cleanDir, lt.Dir(), filepath.Base(in))
			res := FileResult{Input: in, Output: out, ListingType: lt}
			res.Rows, res.Err = b.CleanFile(ctx, lt, in, out)

			stats.Files = append(stats.Files, res)
			if res.Err != nil {
				b.logger.Error("[cleaner] Failed to clean %s: %v", in, res.Err)
				stats.Failed++
				continue
			}
			stats.Succeeded++
			stats.Rows += res.Rows
		}
	}

	b.logger.Info("[cleaner] Cleaned %d files (%d failed), %d rows", stats.Succeeded, stats.Failed, stats.Rows)
	return stats
}

// CleanFile cleans one raw file into out and returns the number of rows
// written. When a store is configured the rows are also stored there; a
// store failure is logged but does not fail the file.
func (b *BatchCleaner) CleanFile(ctx context.Context, lt models.ListingType, in, out string) (int, error) {
	raw, err := storage.ReadRawCSV(in)
	if err != nil {
		return 0, err
	}

	props := b.normalizer.NormalizeAll(raw)
	if err := storage.WriteTable(out, b.normalizer.Table(filepath.Base(out), props)); err != nil {
		return 0, err
	}
	b.logger.Info("[cleaner] Cleaned data saved to %s (%d rows)", out, len(props))

	if b.store != nil {
		if err := b.store.Write(ctx, lt, props); err != nil {
			b.logger.Error("[cleaner] Storing %s failed: %v", in, err)
		}
	}
	return len(props), nil
}

// CombineAll merges clean/<type>/*.csv into one combined file per listing
// type. Listing types without clean files are skipped.
func (b *BatchCleaner) CombineAll() map[models.ListingType]CombineReport {
	reports := make(map[models.ListingType]CombineReport)

	for _, lt := range models.ListingTypes() {
		dir := filepath.Join(b.cleanDir, lt.Dir())
		files, err := storage.ListCSV(dir)
		if err != nil {
			b.logger.Error("[cleaner] %v", err)
			continue
		}
		if len(files) == 0 {
			b.logger.Warn("[cleaner] No CSV files found in %s", dir)
			continue
		}

		sources := make([]TableSource, len(files))
		for i, f := range files {
			sources[i] = storage.CSVFile{Path: f}
		}

		out := CombinedPath(b.combinedDir, lt)
		combined, report := b.assembler.Combine(filepath.Base(out), sources)
		reports[lt] = report

		if len(report.Loaded) == 0 {
			b.logger.Warn("[cleaner] No readable files for %s, nothing written", lt.Dir())
			continue
		}
		if err := storage.WriteTable(out, combined); err != nil {
			b.logger.Error("[cleaner] Failed to write %s: %v", out, err)
			continue
		}
		b.logger.Info("[cleaner] Combined %d files → %s (%d rows)", len(report.Loaded), out, report.Rows)
	}
	return reports
}
