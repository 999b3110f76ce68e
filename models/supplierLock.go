package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/config"
)

// SupplierLock serializes batches of the same supplier across processes.
// A batch holds the lease for its whole duration; batches for different
// suppliers proceed in parallel. Stale leases (crashed batch) are taken over
// after expiry.
type SupplierLock struct {
	SupplierId int       `gorm:"primary_key" json:"supplier_id"`
	Holder     string    `gorm:"size:100;not null" json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

var ErrSupplierLocked = errors.New("supplier is locked by another batch")

func AcquireSupplierLock(ctx context.Context, supplierId int, holder string, ttl time.Duration) error {
	db := config.GetDB()
	now := time.Now()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lock SupplierLock
		err := tx.Where("supplier_id = ?", supplierId).First(&lock).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&SupplierLock{
				SupplierId: supplierId,
				Holder:     holder,
				AcquiredAt: now,
				ExpiresAt:  now.Add(ttl),
			}).Error
		}
		if err != nil {
			return err
		}
		if lock.Holder != holder && lock.ExpiresAt.After(now) {
			return ErrSupplierLocked
		}
		return tx.Model(&SupplierLock{}).Where("supplier_id = ?", supplierId).
			Updates(map[string]interface{}{
				"holder":      holder,
				"acquired_at": now,
				"expires_at":  now.Add(ttl),
			}).Error
	})
}

func ReleaseSupplierLock(ctx context.Context, supplierId int, holder string) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("supplier_id = ? AND holder = ?", supplierId, holder).
		Delete(&SupplierLock{}).Error
}
