package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient is the canonical row a supplier price list normalizes into.
// Identity is (supplier_id, ingredient_code) and survives re-uploads.
type Ingredient struct {
	ID             int    `gorm:"primary_key" json:"id"`
	SupplierId     int    `gorm:"not null;uniqueIndex:uniq_supplier_code" json:"supplier_id"`
	IngredientCode string `gorm:"size:100;not null;uniqueIndex:uniq_supplier_code" json:"ingredient_code"`
	Name           string `gorm:"size:200;not null" json:"name"`
	Category       string `gorm:"size:100" json:"category"`
	SubCategory    string `gorm:"size:100" json:"sub_category"`
	Specification  string `gorm:"size:300" json:"specification"`
	Origin         string `gorm:"size:100" json:"origin"`
	Unit           string `gorm:"size:30" json:"unit"`
	TaxType        *TaxType         `gorm:"size:20" json:"tax_type"`
	PostingStatus  PostingStatus    `gorm:"size:20;not null;default:listed" json:"posting_status"`
	DeliveryDays   *int             `json:"delivery_days"`
	PurchasePrice  *decimal.Decimal `gorm:"type:decimal(20,2)" json:"purchase_price"`
	SellingPrice   *decimal.Decimal `gorm:"type:decimal(20,2)" json:"selling_price"`
	PricePerGram   *decimal.Decimal `gorm:"type:decimal(20,4)" json:"price_per_gram"`
	PricePerMl     *decimal.Decimal `gorm:"type:decimal(20,4)" json:"price_per_ml"`
	Notes          string           `gorm:"type:text" json:"notes"`

	LastSeenBatchId int       `gorm:"index" json:"last_seen_batch_id"`
	IsActive        *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Supplier Supplier `gorm:"foreignKey:SupplierId" json:"-"`
}

// GetIngredientByKey looks up by identity key inside the caller's transaction.
// Returns (nil, nil) when the ingredient does not exist yet.
func GetIngredientByKey(tx *gorm.DB, supplierId int, code string) (*Ingredient, error) {
	var ing Ingredient
	err := tx.Where("supplier_id = ? AND ingredient_code = ?", supplierId, code).First(&ing).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func ListIngredientsBySupplier(tx *gorm.DB, supplierId int) ([]*Ingredient, error) {
	var ings []*Ingredient
	if err := tx.Where("supplier_id = ?", supplierId).Order("ingredient_code").Find(&ings).Error; err != nil {
		return nil, err
	}
	return ings, nil
}
