package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/utils"
)

type Supplier struct {
	ID             int       `gorm:"primary_key" json:"id"`
	Name           string    `gorm:"size:100;not null;index" json:"name" binding:"required"`
	BusinessNumber string    `gorm:"size:20" json:"business_number"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewSupplier struct {
	Name           string `json:"name" validate:"required,max=100"`
	BusinessNumber string `json:"business_number" validate:"max=20"`
}

func (input *NewSupplier) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	// name unique within the active set; a deactivated supplier may be
	// shadowed by a fresh row of the same name
	count, err := utils.ResourceCountWhere[Supplier](ctx, "name = ? AND is_active = ?", input.Name, true)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate name")
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:           input.Name,
		BusinessNumber: input.BusinessNumber,
		IsActive:       utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	var supplier Supplier
	db := config.GetDB()
	err := db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplierByName(ctx context.Context, name string) (*Supplier, error) {
	var supplier Supplier
	db := config.GetDB()
	err := db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&supplier).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// FindOrCreateSupplier resolves a supplier by active name, creating the row on
// first ingestion that references it.
func FindOrCreateSupplier(ctx context.Context, name string) (*Supplier, error) {
	supplier, err := GetSupplierByName(ctx, name)
	if err == nil {
		return supplier, nil
	}
	if err != utils.ErrorRecordNotFound {
		return nil, err
	}
	return CreateSupplier(ctx, &NewSupplier{Name: name})
}

func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	var suppliers []*Supplier
	db := config.GetDB()
	if err := db.WithContext(ctx).Order("id").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Suppliers are never hard-deleted; deactivation only.
func ToggleActiveSupplier(ctx context.Context, id int, isActive bool) (*Supplier, error) {
	supplier, err := GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}
