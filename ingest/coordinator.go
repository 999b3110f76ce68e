package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/models"
	"github.com/bansang/pricebook_backend/utils"
)

const (
	// sheet reading gets a soft cap per file
	sheetReadTimeout = 60 * time.Second
	// a crashed batch frees its supplier lease after this long
	supplierLockTTL = 10 * time.Minute
	// failure details reported per reason category
	maxFailureDetails = 10
)

// Options configure one ingestion run.
type Options struct {
	FilePath   string
	SheetName  string
	SupplierId int // 0: infer from filename tokens
	DryRun     bool
}

// Report is the user-visible outcome of one batch.
type Report struct {
	BatchId      int
	SupplierId   int
	SupplierName string
	Filename     string
	Status       models.BatchStatus
	DryRun       bool
	WouldCommit  bool
	FatalReason  string
	Counts       models.BatchCounts
	Failures     map[models.RowFailReason][]string
	Delisted     []string
}

// Coordinator orchestrates one upload: batch record, row streaming through
// reader -> mapper -> normalizer -> extractor -> upserter, aggregation, and
// the commit/rollback decision.
type Coordinator struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewCoordinator() *Coordinator {
	return &Coordinator{
		db:     config.GetDB(),
		logger: config.GetLogger(),
	}
}

// Run executes one batch. Row-level failures are aggregated into the report;
// only batch-fatal conditions come back as an error, and those always leave
// the batch rolled back with zero row writes applied.
func (c *Coordinator) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		Filename: filepath.Base(opts.FilePath),
		DryRun:   opts.DryRun,
		Failures: make(map[models.RowFailReason][]string),
	}

	supplier, err := c.resolveSupplier(ctx, opts)
	if err != nil {
		report.Status = models.BatchStatusRolledBack
		report.FatalReason = err.Error()
		return report, err
	}
	report.SupplierId = supplier.ID
	report.SupplierName = supplier.Name

	batch, err := models.CreateUploadBatch(ctx, supplier.ID, report.Filename)
	if err != nil {
		report.Status = models.BatchStatusRolledBack
		report.FatalReason = err.Error()
		return report, err
	}
	report.BatchId = batch.ID

	holder := fmt.Sprintf("batch-%d", batch.ID)
	if err := models.AcquireSupplierLock(ctx, supplier.ID, holder, supplierLockTTL); err != nil {
		return c.abort(ctx, report, err)
	}
	defer func() {
		if err := models.ReleaseSupplierLock(context.Background(), supplier.ID, holder); err != nil {
			config.LogError(c.logger, "ingest", "Run", "release supplier lock", supplier.ID, err)
		}
	}()

	sheetCtx, cancel := context.WithTimeout(ctx, sheetReadTimeout)
	data, err := ReadSheet(sheetCtx, opts.FilePath, opts.SheetName)
	cancel()
	if err != nil {
		return c.abort(ctx, report, err)
	}

	colmap, err := ResolveColumns(data.Headers)
	if err != nil {
		return c.abort(ctx, report, err)
	}
	for _, w := range colmap.Warnings {
		config.LogWarn(c.logger, "ingest", "Run", report.Filename, w)
	}

	patterns, err := models.SnapshotPatterns(c.db)
	if err != nil {
		return c.abort(ctx, report, err)
	}
	extractor := NewExtractor(patterns)

	tx := c.db.Begin()
	if tx.Error != nil {
		return c.abort(ctx, report, tx.Error)
	}
	upserter := NewUpserter(tx, supplier.ID, batch.ID)

	counts := &report.Counts
	for _, raw := range data.Rows {
		// cancellation forces rolled_back
		if err := ctx.Err(); err != nil {
			tx.Rollback()
			return c.abort(ctx, report, err)
		}
		counts.Read++

		mapped, rowErr := colmap.MapRow(raw)
		if rowErr != nil {
			counts.MappingFailed++
			c.recordFailure(report, rowErr)
			continue
		}
		counts.MappedOK++

		row, rowErr := NormalizeRow(mapped)
		if rowErr != nil {
			counts.NormalizeFailed++
			c.recordFailure(report, rowErr)
			continue
		}
		counts.NormalizedOK++

		extractor.Apply(row)

		outcome, ingredientId, err := upserter.Apply(row)
		if err != nil {
			tx.Rollback()
			return c.abort(ctx, report, err)
		}
		switch outcome {
		case OutcomeInserted:
			counts.Inserted++
		case OutcomeUpdated:
			counts.Updated++
		case OutcomeUnchanged:
			counts.Unchanged++
		case OutcomeDuplicate:
			counts.DuplicateInBatch++
			c.recordFailure(report, &RowError{Index: row.Index, Reason: models.FailDuplicateInBatch,
				Detail: fmt.Sprintf("code %s already seen in this batch", row.Code)})
			continue
		}

		if row.ExtractionFailed {
			c.recordFailure(report, &RowError{Index: row.Index, Reason: models.FailExtraction,
				Detail: fmt.Sprintf("no unit-price derivation for %q (%s)", row.Specification, row.Unit)})
			feedback := models.CalculationFeedback{
				IngredientId:          ingredientId,
				OriginalSpecification: row.Specification,
				OriginalUnit:          row.Unit,
				OriginalPrice:         row.SellingPrice,
				FeedbackType:          models.FeedbackTypeNoPattern,
			}
			if err := models.CreateCalculationFeedback(tx, &feedback); err != nil {
				tx.Rollback()
				return c.abort(ctx, report, err)
			}
		}
	}

	delisted, err := upserter.SweepDelisted(config.DelistGraceBatches())
	if err != nil {
		tx.Rollback()
		return c.abort(ctx, report, err)
	}
	counts.Delisted = len(delisted)
	for _, d := range delisted {
		report.Delisted = append(report.Delisted, fmt.Sprintf("%s %s", d.Code, d.Name))
	}

	report.WouldCommit = counts.MappingFailed == 0 &&
		counts.Read > 0 &&
		counts.NormalizeFailed*2 < counts.Read

	if !report.WouldCommit || opts.DryRun {
		tx.Rollback()
		report.Status = models.BatchStatusRolledBack
		if !report.WouldCommit {
			report.FatalReason = "row failure threshold exceeded"
			if counts.Read == 0 {
				report.FatalReason = "sheet has no data rows"
			}
		}
	} else {
		if err := tx.Commit().Error; err != nil {
			tx.Rollback()
			return c.abort(ctx, report, err)
		}
		report.Status = models.BatchStatusCommitted
		c.flushLearning(ctx, extractor)
		c.archiveFile(opts.FilePath)
	}

	if err := models.FinalizeUploadBatch(ctx, batch.ID, report.Status, *counts); err != nil {
		config.LogError(c.logger, "ingest", "Run", "finalize batch", batch.ID, err)
	}
	return report, nil
}

func (c *Coordinator) resolveSupplier(ctx context.Context, opts Options) (*models.Supplier, error) {
	if opts.SupplierId > 0 {
		supplier, err := models.GetSupplier(ctx, opts.SupplierId)
		if err == utils.ErrorRecordNotFound {
			return nil, fmt.Errorf("%w: no supplier with id %d", ErrSupplierUnknown, opts.SupplierId)
		}
		return supplier, err
	}
	name := InferSupplierName(opts.FilePath)
	if name == "" {
		return nil, fmt.Errorf("%w: filename %q matches no known supplier; pass an explicit supplier id",
			ErrSupplierUnknown, filepath.Base(opts.FilePath))
	}
	return models.FindOrCreateSupplier(ctx, name)
}

// abort finalizes the batch as rolled_back and surfaces the fatal error.
func (c *Coordinator) abort(ctx context.Context, report *Report, fatal error) (*Report, error) {
	report.Status = models.BatchStatusRolledBack
	report.FatalReason = fatal.Error()
	if report.BatchId > 0 {
		if err := models.FinalizeUploadBatch(context.WithoutCancel(ctx), report.BatchId, models.BatchStatusRolledBack, report.Counts); err != nil {
			config.LogError(c.logger, "ingest", "abort", "finalize batch", report.BatchId, err)
		}
	}
	config.LogError(c.logger, "ingest", "Run", report.Filename, report.Counts, fatal)
	return report, fatal
}

// flushLearning persists pattern counters and learned patterns in short
// transactions outside the batch transaction and the supplier lock.
// Last-writer-wins between concurrent batches is acceptable here.
func (c *Coordinator) flushLearning(ctx context.Context, ex *Extractor) {
	if err := models.ApplyPatternUsage(ctx, ex.Hits, ex.Misses); err != nil {
		config.LogError(c.logger, "ingest", "flushLearning", "pattern counters", nil, err)
	}
	for _, lp := range ex.Learned {
		if err := models.LearnPattern(ctx, lp.Specification, lp.Unit, lp.Method, lp.Value); err != nil {
			config.LogError(c.logger, "ingest", "flushLearning", "learn pattern", lp, err)
		}
	}
}

func (c *Coordinator) recordFailure(report *Report, rowErr *RowError) {
	if len(report.Failures[rowErr.Reason]) >= maxFailureDetails {
		return
	}
	report.Failures[rowErr.Reason] = append(report.Failures[rowErr.Reason], rowErr.Error())
}

// archiveFile copies a committed source file into the upload dir under a
// unique name. Best-effort: archiving failures never fail the batch.
func (c *Coordinator) archiveFile(path string) {
	dir := config.UploadDir()
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		config.LogError(c.logger, "ingest", "archiveFile", dir, nil, err)
		return
	}
	src, err := os.Open(path)
	if err != nil {
		config.LogError(c.logger, "ingest", "archiveFile", path, nil, err)
		return
	}
	defer src.Close()

	dstPath := filepath.Join(dir, utils.GenerateUniqueFilename()+"_"+filepath.Base(path))
	dst, err := os.Create(dstPath)
	if err != nil {
		config.LogError(c.logger, "ingest", "archiveFile", dstPath, nil, err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		config.LogError(c.logger, "ingest", "archiveFile", dstPath, nil, err)
	}
}
