package models_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bansang/pricebook_backend/config"
	"github.com/bansang/pricebook_backend/models"
)

func lockDB(t *testing.T) {
	t.Helper()
	t.Setenv("PRICEBOOK_DB", filepath.Join(t.TempDir(), "test.db"))
	if err := config.ConnectDatabase(); err != nil {
		t.Fatalf("ConnectDatabase: %v", err)
	}
	models.MigrateTable()
}

func TestSupplierLockExclusive(t *testing.T) {
	lockDB(t)
	ctx := context.Background()

	if err := models.AcquireSupplierLock(ctx, 1, "batch-1", time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	err := models.AcquireSupplierLock(ctx, 1, "batch-2", time.Minute)
	if !errors.Is(err, models.ErrSupplierLocked) {
		t.Fatalf("expected ErrSupplierLocked, got %v", err)
	}

	// a different supplier is independent
	if err := models.AcquireSupplierLock(ctx, 2, "batch-2", time.Minute); err != nil {
		t.Fatalf("other supplier: %v", err)
	}

	if err := models.ReleaseSupplierLock(ctx, 1, "batch-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := models.AcquireSupplierLock(ctx, 1, "batch-2", time.Minute); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestSupplierLockReentrantForHolder(t *testing.T) {
	lockDB(t)
	ctx := context.Background()

	if err := models.AcquireSupplierLock(ctx, 1, "batch-1", time.Minute); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := models.AcquireSupplierLock(ctx, 1, "batch-1", time.Minute); err != nil {
		t.Fatalf("re-acquire by holder: %v", err)
	}
}

func TestSupplierLockExpiredLeaseTakenOver(t *testing.T) {
	lockDB(t)
	ctx := context.Background()

	if err := models.AcquireSupplierLock(ctx, 1, "crashed-batch", -time.Second); err != nil {
		t.Fatalf("acquire with expired ttl: %v", err)
	}
	if err := models.AcquireSupplierLock(ctx, 1, "batch-2", time.Minute); err != nil {
		t.Fatalf("takeover of expired lease: %v", err)
	}
}

func TestSupplierLockReleaseWrongHolderKeepsLock(t *testing.T) {
	lockDB(t)
	ctx := context.Background()

	if err := models.AcquireSupplierLock(ctx, 1, "batch-1", time.Minute); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := models.ReleaseSupplierLock(ctx, 1, "batch-9"); err != nil {
		t.Fatalf("release by non-holder should be a no-op, got %v", err)
	}
	err := models.AcquireSupplierLock(ctx, 1, "batch-2", time.Minute)
	if !errors.Is(err, models.ErrSupplierLocked) {
		t.Fatalf("lock should still be held, got %v", err)
	}
}
