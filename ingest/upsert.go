package ingest

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/models"
	"github.com/bansang/pricebook_backend/utils"
)

// RowOutcome is the upsert result for one normalized row.
type RowOutcome string

const (
	OutcomeInserted  RowOutcome = "inserted"
	OutcomeUpdated   RowOutcome = "updated"
	OutcomeUnchanged RowOutcome = "unchanged"
	OutcomeDuplicate RowOutcome = "duplicate_in_batch"
)

// Upserter applies normalized rows to the canonical ingredients table inside
// the batch transaction. It never partially applies: the caller commits or
// rolls back the whole transaction.
type Upserter struct {
	tx         *gorm.DB
	supplierId int
	batchId    int
	seenCodes  map[string]bool
}

func NewUpserter(tx *gorm.DB, supplierId, batchId int) *Upserter {
	return &Upserter{
		tx:         tx,
		supplierId: supplierId,
		batchId:    batchId,
		seenCodes:  make(map[string]bool),
	}
}

// Apply locates the ingredient by identity key (supplier_id, ingredient_code)
// and inserts, updates or leaves it unchanged. A price change versus the
// latest history entry appends a PriceHistory row. last_seen_batch_id is
// bumped in every case. Duplicate codes within one batch: first wins.
func (u *Upserter) Apply(row *NormalizedRow) (RowOutcome, int, error) {
	if u.seenCodes[row.Code] {
		return OutcomeDuplicate, 0, nil
	}
	u.seenCodes[row.Code] = true

	existing, err := models.GetIngredientByKey(u.tx, u.supplierId, row.Code)
	if err != nil {
		return "", 0, err
	}
	if existing == nil {
		return u.insert(row)
	}
	return u.update(existing, row)
}

func (u *Upserter) insert(row *NormalizedRow) (RowOutcome, int, error) {
	posting := row.PostingStatus
	if posting == models.PostingStatusUnknown {
		posting = models.PostingStatusListed
	}
	ing := models.Ingredient{
		SupplierId:      u.supplierId,
		IngredientCode:  row.Code,
		Name:            row.Name,
		Category:        row.Category,
		SubCategory:     row.SubCategory,
		Specification:   row.Specification,
		Origin:          row.Origin,
		Unit:            row.Unit,
		TaxType:         row.TaxType,
		PostingStatus:   posting,
		DeliveryDays:    row.DeliveryDays,
		PurchasePrice:   row.PurchasePrice,
		SellingPrice:    row.SellingPrice,
		PricePerGram:    row.PricePerGram,
		PricePerMl:      row.PricePerMl,
		Notes:           row.Notes,
		LastSeenBatchId: u.batchId,
		IsActive:        boolPtr(posting != models.PostingStatusDelisted),
	}
	if err := u.tx.Create(&ing).Error; err != nil {
		return "", 0, err
	}

	// anchor the price timeline with the first observation
	if row.PurchasePrice != nil || row.SellingPrice != nil {
		history := models.PriceHistory{
			IngredientId:  ing.ID,
			BatchId:       u.batchId,
			PurchasePrice: row.PurchasePrice,
			SellingPrice:  row.SellingPrice,
		}
		if err := models.CreatePriceHistory(u.tx, &history); err != nil {
			return "", 0, err
		}
	}
	return OutcomeInserted, ing.ID, nil
}

func (u *Upserter) update(existing *models.Ingredient, row *NormalizedRow) (RowOutcome, int, error) {
	posting := row.PostingStatus
	if posting == models.PostingStatusUnknown {
		posting = existing.PostingStatus
	}

	next := *existing
	next.Name = row.Name
	next.Category = row.Category
	next.SubCategory = row.SubCategory
	next.Specification = row.Specification
	next.Origin = row.Origin
	next.Unit = row.Unit
	next.TaxType = row.TaxType
	next.PostingStatus = posting
	next.DeliveryDays = row.DeliveryDays
	next.PurchasePrice = row.PurchasePrice
	next.SellingPrice = row.SellingPrice
	next.PricePerGram = row.PricePerGram
	next.PricePerMl = row.PricePerMl
	next.Notes = row.Notes
	next.IsActive = boolPtr(posting != models.PostingStatusDelisted)

	changed := existing.Name != next.Name ||
		existing.Category != next.Category ||
		existing.SubCategory != next.SubCategory ||
		existing.Specification != next.Specification ||
		existing.Origin != next.Origin ||
		existing.Unit != next.Unit ||
		!taxEqual(existing.TaxType, next.TaxType) ||
		existing.PostingStatus != next.PostingStatus ||
		!intEqual(existing.DeliveryDays, next.DeliveryDays) ||
		!decEqual(existing.PurchasePrice, next.PurchasePrice) ||
		!decEqual(existing.SellingPrice, next.SellingPrice) ||
		!decEqual(existing.PricePerGram, next.PricePerGram) ||
		!decEqual(existing.PricePerMl, next.PricePerMl) ||
		existing.Notes != next.Notes ||
		*existing.IsActive != *next.IsActive

	priceChanged, err := u.priceChanged(existing.ID, row)
	if err != nil {
		return "", 0, err
	}

	next.LastSeenBatchId = u.batchId
	if changed {
		if err := u.tx.Save(&next).Error; err != nil {
			return "", 0, err
		}
	} else {
		err := u.tx.Model(&models.Ingredient{}).Where("id = ?", existing.ID).
			Update("last_seen_batch_id", u.batchId).Error
		if err != nil {
			return "", 0, err
		}
	}

	if priceChanged {
		history := models.PriceHistory{
			IngredientId:  existing.ID,
			BatchId:       u.batchId,
			PurchasePrice: row.PurchasePrice,
			SellingPrice:  row.SellingPrice,
		}
		if err := models.CreatePriceHistory(u.tx, &history); err != nil {
			return "", 0, err
		}
	}

	if changed {
		return OutcomeUpdated, existing.ID, nil
	}
	return OutcomeUnchanged, existing.ID, nil
}

// priceChanged compares the row's prices against the latest history entry.
func (u *Upserter) priceChanged(ingredientId int, row *NormalizedRow) (bool, error) {
	if row.PurchasePrice == nil && row.SellingPrice == nil {
		return false, nil
	}
	latest, err := models.LatestPriceHistory(u.tx, ingredientId)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}
	return !decEqual(latest.PurchasePrice, row.PurchasePrice) ||
		!decEqual(latest.SellingPrice, row.SellingPrice), nil
}

// DelistedIngredient is one row turned inactive by the end-of-batch sweep.
type DelistedIngredient struct {
	ID   int
	Code string
	Name string
}

// SweepDelisted marks every ingredient of this batch's supplier that the
// batch did not observe as unavailable. Ingredients last seen within
// graceBatches prior committed batches are preserved. Nothing is hard-deleted.
func (u *Upserter) SweepDelisted(graceBatches int) ([]DelistedIngredient, error) {
	threshold := u.batchId
	if graceBatches > 0 {
		priorIds, err := models.PriorBatchIds(u.tx, u.supplierId, u.batchId, graceBatches)
		if err != nil {
			return nil, err
		}
		if len(priorIds) > 0 {
			// priorIds is newest-first; anything seen in the window survives
			threshold = priorIds[len(priorIds)-1]
		}
	}

	var stale []models.Ingredient
	err := u.tx.Where("supplier_id = ? AND last_seen_batch_id < ? AND is_active = ?",
		u.supplierId, threshold, true).Find(&stale).Error
	if err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(stale))
	delisted := make([]DelistedIngredient, 0, len(stale))
	for _, ing := range stale {
		ids = append(ids, ing.ID)
		delisted = append(delisted, DelistedIngredient{ID: ing.ID, Code: ing.IngredientCode, Name: ing.Name})
	}
	err = u.tx.Model(&models.Ingredient{}).Where("id IN ?", ids).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}
	return delisted, nil
}

func boolPtr(b bool) *bool {
	if b {
		return utils.NewTrue()
	}
	return utils.NewFalse()
}

func decEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func taxEqual(a, b *models.TaxType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
