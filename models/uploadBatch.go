package models

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/utils"
)

// BatchCounts aggregates per-row outcomes of one upload. Persisted as JSON in
// upload_batches.counts_json.
type BatchCounts struct {
	Read             int `json:"read"`
	MappedOK         int `json:"mapped_ok"`
	MappingFailed    int `json:"mapping_failed"`
	NormalizedOK     int `json:"normalized_ok"`
	NormalizeFailed  int `json:"normalize_failed"`
	Inserted         int `json:"inserted"`
	Updated          int `json:"updated"`
	Unchanged        int `json:"unchanged"`
	Delisted         int `json:"delisted"`
	DuplicateInBatch int `json:"duplicate_in_batch"`
}

type UploadBatch struct {
	ID         int         `gorm:"primary_key" json:"id"`
	SupplierId int         `gorm:"not null;index" json:"supplier_id"`
	Filename   string      `gorm:"size:300;not null" json:"filename"`
	UploadedAt time.Time   `gorm:"autoCreateTime" json:"uploaded_at"`
	Status     BatchStatus `gorm:"size:20;not null;default:in_progress" json:"status"`
	Counts     BatchCounts `gorm:"serializer:json;column:counts_json" json:"counts"`

	Supplier Supplier `gorm:"foreignKey:SupplierId" json:"-"`
}

// CreateUploadBatch opens a batch record in in_progress. The row is written
// outside the batch transaction so a rolled-back batch still leaves its trace.
func CreateUploadBatch(ctx context.Context, supplierId int, filename string) (*UploadBatch, error) {
	batch := UploadBatch{
		SupplierId: supplierId,
		Filename:   filename,
		Status:     BatchStatusInProgress,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FinalizeUploadBatch moves the batch to its terminal state and stores counts.
func FinalizeUploadBatch(ctx context.Context, id int, status BatchStatus, counts BatchCounts) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&UploadBatch{}).Where("id = ?", id).
		Select("status", "counts_json").
		Updates(UploadBatch{Status: status, Counts: counts}).Error
}

func GetUploadBatch(ctx context.Context, id int) (*UploadBatch, error) {
	var batch UploadBatch
	db := config.GetDB()
	err := db.WithContext(ctx).Where("id = ?", id).First(&batch).Error
	if err == gorm.ErrRecordNotFound {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// PriorBatchIds returns the ids of the most recent committed batches of a
// supplier before the given batch, newest first. Used by the delisting sweep's
// grace window.
func PriorBatchIds(tx *gorm.DB, supplierId int, beforeBatchId int, limit int) ([]int, error) {
	var ids []int
	err := tx.Model(&UploadBatch{}).
		Where("supplier_id = ? AND id < ? AND status = ?", supplierId, beforeBatchId, BatchStatusCommitted).
		Order("id DESC").Limit(limit).Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
