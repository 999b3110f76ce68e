package models

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/utils"
)

// ExtractionPattern is a learned rule mapping (specification shape, unit) to a
// unit-price derivation method. Success/failure counters decide whether a
// pattern is still trusted: a pattern with success_count - failure_count < 0
// is skipped by lookup.
type ExtractionPattern struct {
	ID                   int              `gorm:"primary_key" json:"id"`
	SpecificationPattern string           `gorm:"size:300;not null" json:"specification_pattern"`
	UnitPattern          string           `gorm:"size:30;not null" json:"unit_pattern"`
	Method               ExtractionMethod `gorm:"size:30;not null" json:"method"`
	ExtractionValue      decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"extraction_value"`
	SuccessCount         int              `gorm:"not null;default:0" json:"success_count"`
	FailureCount         int              `gorm:"not null;default:0" json:"failure_count"`
	LastUsed             *time.Time       `json:"last_used"`
	Notes                string           `gorm:"size:300" json:"notes"`
}

type NewExtractionPattern struct {
	SpecificationPattern string          `json:"specification_pattern" validate:"required,max=300"`
	UnitPattern          string          `json:"unit_pattern" validate:"required,max=30"`
	Method               string          `json:"method" validate:"required,oneof=direct_kg direct_g direct_ml direct_L count_per_pack pack_weight regex_group"`
	ExtractionValue      decimal.Decimal `json:"extraction_value"`
	Notes                string          `json:"notes" validate:"max=300"`
}

// Matches reports whether the pattern covers (specification, unit).
// specification_pattern supports * as prefix/suffix wildcard; unit_pattern
// "*" matches any unit. regex_group patterns match by compiling the pattern.
func (p *ExtractionPattern) Matches(spec, unit string) bool {
	if p.UnitPattern != "*" && p.UnitPattern != unit {
		return false
	}
	if p.Method == MethodRegexGroup {
		re, err := regexp.Compile(p.SpecificationPattern)
		if err != nil {
			return false
		}
		return re.MatchString(spec)
	}
	sp := p.SpecificationPattern
	switch {
	case strings.HasPrefix(sp, "*") && strings.HasSuffix(sp, "*") && len(sp) >= 2:
		return strings.Contains(spec, strings.Trim(sp, "*"))
	case strings.HasPrefix(sp, "*"):
		return strings.HasSuffix(spec, strings.TrimPrefix(sp, "*"))
	case strings.HasSuffix(sp, "*"):
		return strings.HasPrefix(spec, strings.TrimSuffix(sp, "*"))
	default:
		return spec == sp
	}
}

// Score is the pattern's trust level.
func (p *ExtractionPattern) Score() int {
	return p.SuccessCount - p.FailureCount
}

// PatternSet is the snapshot of extraction_patterns captured at batch start.
// Concurrent batches never observe each other's in-flight counter updates.
type PatternSet struct {
	patterns []ExtractionPattern
}

func SnapshotPatterns(tx *gorm.DB) (*PatternSet, error) {
	var patterns []ExtractionPattern
	if err := tx.Order("id").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return &PatternSet{patterns: patterns}, nil
}

func NewPatternSet(patterns []ExtractionPattern) *PatternSet {
	return &PatternSet{patterns: patterns}
}

// Lookup returns the trusted pattern with the longest specification_pattern
// matching (spec, unit), or nil.
func (s *PatternSet) Lookup(spec, unit string) *ExtractionPattern {
	var best *ExtractionPattern
	for i := range s.patterns {
		p := &s.patterns[i]
		if p.Score() < 0 || !p.Matches(spec, unit) {
			continue
		}
		if best == nil || len(p.SpecificationPattern) > len(best.SpecificationPattern) {
			best = p
		}
	}
	return best
}

// seedPatterns are the base rules: a bare kg/g/ml/L unit with no quantity in
// the specification converts directly.
var seedPatterns = []ExtractionPattern{
	{SpecificationPattern: "", UnitPattern: "kg", Method: MethodDirectKg, Notes: "seed: per-kg price"},
	{SpecificationPattern: "", UnitPattern: "g", Method: MethodDirectG, Notes: "seed: per-g price"},
	{SpecificationPattern: "", UnitPattern: "ml", Method: MethodDirectMl, Notes: "seed: per-ml price"},
	{SpecificationPattern: "", UnitPattern: "l", Method: MethodDirectL, Notes: "seed: per-L price"},
}

func SeedExtractionPatterns(db *gorm.DB) error {
	for _, p := range seedPatterns {
		var existing ExtractionPattern
		err := db.Where("specification_pattern = ? AND unit_pattern = ? AND method = ?",
			p.SpecificationPattern, p.UnitPattern, p.Method).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&p).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyPatternUsage flushes per-batch counter deltas in one short
// read-modify-write transaction per pattern, outside the supplier lock.
func ApplyPatternUsage(ctx context.Context, hits map[int]int, misses map[int]int) error {
	db := config.GetDB()
	now := time.Now()
	for id, n := range hits {
		err := db.WithContext(ctx).Model(&ExtractionPattern{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"success_count": gorm.Expr("success_count + ?", n),
				"last_used":     now,
			}).Error
		if err != nil {
			return err
		}
	}
	for id, n := range misses {
		err := db.WithContext(ctx).Model(&ExtractionPattern{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"failure_count": gorm.Expr("failure_count + ?", n),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// LearnPattern records a heuristic success as a reusable exact pattern so the
// next batch resolves the same specification without re-deriving.
func LearnPattern(ctx context.Context, spec, unit string, method ExtractionMethod, value decimal.Decimal) error {
	db := config.GetDB()
	var existing ExtractionPattern
	err := db.WithContext(ctx).
		Where("specification_pattern = ? AND unit_pattern = ? AND method = ?", spec, unit, method).
		First(&existing).Error
	now := time.Now()
	if err == gorm.ErrRecordNotFound {
		return db.WithContext(ctx).Create(&ExtractionPattern{
			SpecificationPattern: spec,
			UnitPattern:          unit,
			Method:               method,
			ExtractionValue:      value,
			SuccessCount:         1,
			LastUsed:             &now,
			Notes:                "learned from structural heuristic",
		}).Error
	}
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&existing).
		Updates(map[string]interface{}{
			"success_count": gorm.Expr("success_count + 1"),
			"last_used":     now,
		}).Error
}

func CreateExtractionPattern(ctx context.Context, input *NewExtractionPattern) (*ExtractionPattern, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if ExtractionMethod(input.Method) == MethodRegexGroup {
		if _, err := regexp.Compile(input.SpecificationPattern); err != nil {
			return nil, err
		}
	}
	pattern := ExtractionPattern{
		SpecificationPattern: input.SpecificationPattern,
		UnitPattern:          input.UnitPattern,
		Method:               ExtractionMethod(input.Method),
		ExtractionValue:      input.ExtractionValue,
		Notes:                input.Notes,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&pattern).Error; err != nil {
		return nil, err
	}
	return &pattern, nil
}

func ListExtractionPatterns(ctx context.Context) ([]*ExtractionPattern, error) {
	var patterns []*ExtractionPattern
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("id").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

// DisableExtractionPattern demotes a pattern below the trust threshold so
// lookup skips it. Counters are kept; there is no hard delete.
func DisableExtractionPattern(ctx context.Context, id int) (*ExtractionPattern, error) {
	db := config.GetDB()
	var pattern ExtractionPattern
	err := db.WithContext(ctx).Where("id = ?", id).First(&pattern).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).Model(&pattern).
		Update("failure_count", pattern.SuccessCount+1).Error
	if err != nil {
		return nil, err
	}
	return &pattern, nil
}
