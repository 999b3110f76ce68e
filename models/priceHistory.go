package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceHistory is append-only. One entry per (ingredient, batch), written only
// when a price changed versus the prior entry. The "latest price" is always a
// query, never a back-pointer on Ingredient.
type PriceHistory struct {
	ID            int              `gorm:"primary_key" json:"id"`
	IngredientId  int              `gorm:"not null;index" json:"ingredient_id"`
	BatchId       int              `gorm:"not null;index" json:"batch_id"`
	ObservedAt    time.Time        `gorm:"autoCreateTime" json:"observed_at"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(20,2)" json:"purchase_price"`
	SellingPrice  *decimal.Decimal `gorm:"type:decimal(20,2)" json:"selling_price"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientId" json:"-"`
}

func CreatePriceHistory(tx *gorm.DB, history *PriceHistory) error {
	return tx.Create(history).Error
}

// LatestPriceHistory returns the newest entry for an ingredient, or (nil, nil)
// if none exists. Entries are totally ordered by (batch_id, id).
func LatestPriceHistory(tx *gorm.DB, ingredientId int) (*PriceHistory, error) {
	var ph PriceHistory
	err := tx.Where("ingredient_id = ?", ingredientId).
		Order("batch_id DESC, id DESC").Limit(1).First(&ph).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ph, nil
}
