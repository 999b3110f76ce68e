package config

import (
	"os"
	"strconv"
	"strings"
)

// UploadDir is where committed source files are archived. Empty disables archiving.
func UploadDir() string {
	return strings.TrimSpace(os.Getenv("PRICEBOOK_UPLOAD_DIR"))
}

// DelistGraceBatches: ingredients last seen within this many prior batches
// are not delisted by the end-of-batch sweep. Default 0 (sweep everything
// not seen in the current batch).
func DelistGraceBatches() int {
	return intFromEnv("DELIST_GRACE_BATCHES", 0)
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
