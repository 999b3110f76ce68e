package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalculationFeedback records unit-price derivations that need operator
// attention: rows no pattern could serve, and manual corrections that may
// suggest a new pattern.
type CalculationFeedback struct {
	ID                    int              `gorm:"primary_key" json:"id"`
	IngredientId          int              `gorm:"not null;index" json:"ingredient_id"`
	OriginalSpecification string           `gorm:"size:300" json:"original_specification"`
	OriginalUnit          string           `gorm:"size:30" json:"original_unit"`
	OriginalPrice         *decimal.Decimal `gorm:"type:decimal(20,2)" json:"original_price"`
	CalculatedUnitPrice   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"calculated_unit_price"`
	CorrectedUnitPrice    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"corrected_unit_price"`
	FeedbackType          FeedbackType     `gorm:"size:30;not null" json:"feedback_type"`
	PatternSuggestion     string           `gorm:"size:300" json:"pattern_suggestion"`
	CreatedAt             time.Time        `gorm:"autoCreateTime" json:"created_at"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientId" json:"-"`
}

func CreateCalculationFeedback(tx *gorm.DB, feedback *CalculationFeedback) error {
	return tx.Create(feedback).Error
}

func ListFeedbackForIngredient(tx *gorm.DB, ingredientId int) ([]*CalculationFeedback, error) {
	var rows []*CalculationFeedback
	if err := tx.Where("ingredient_id = ?", ingredientId).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
