package models

type TaxType string

const (
	TaxTypeTaxable TaxType = "taxable"
	TaxTypeTaxFree TaxType = "tax_free"
)

type PostingStatus string

const (
	PostingStatusListed   PostingStatus = "listed"
	PostingStatusDelisted PostingStatus = "delisted"
	// Empty posting cells are "unknown": the prior value is preserved on
	// update; inserts default to listed.
	PostingStatusUnknown PostingStatus = ""
)

type BatchStatus string

const (
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCommitted  BatchStatus = "committed"
	BatchStatusRolledBack BatchStatus = "rolled_back"
)

type ExtractionMethod string

const (
	MethodDirectKg     ExtractionMethod = "direct_kg"
	MethodDirectG      ExtractionMethod = "direct_g"
	MethodDirectMl     ExtractionMethod = "direct_ml"
	MethodDirectL      ExtractionMethod = "direct_L"
	MethodCountPerPack ExtractionMethod = "count_per_pack"
	MethodPackWeight   ExtractionMethod = "pack_weight"
	MethodRegexGroup   ExtractionMethod = "regex_group"
)

type FeedbackType string

const (
	FeedbackTypeNoPattern  FeedbackType = "no_pattern"
	FeedbackTypeCorrection FeedbackType = "correction"
)

// RowFailReason classifies per-row failures. These are counted and reported,
// never fatal for the batch.
type RowFailReason string

const (
	FailMissingCode      RowFailReason = "missing_code"
	FailBadPrice         RowFailReason = "bad_price"
	FailDuplicateInBatch RowFailReason = "duplicate_in_batch"
	FailNormalize        RowFailReason = "normalize_failed"
	FailExtraction       RowFailReason = "extraction_failed"
	FailMapping          RowFailReason = "mapping_failed"
)
