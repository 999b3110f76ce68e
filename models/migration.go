package models

import (
	"log"

	"github.com/bansang/pricebook_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Supplier{},
		&UploadBatch{},
		&Ingredient{},
		&PriceHistory{},
		&ExtractionPattern{},
		&CalculationFeedback{},
		&SupplierLock{},
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := SeedExtractionPatterns(db); err != nil {
		log.Fatal(err)
	}
}
