package ingest

import (
	"path/filepath"
	"strings"

	"github.com/bansang/pricebook_backend/utils"
)

// supplierTokens maps filename tokens to canonical supplier display names.
// Ordered so longer/more specific tokens match first. Data-driven: adding a
// supplier is a catalog entry, not a code change.
var supplierTokens = []struct {
	token     string
	canonical string
}{
	{"현대그린푸드", "현대그린푸드"},
	{"신세계푸드", "신세계푸드"},
	{"웰스토리", "웰스토리"},
	{"푸디스트", "푸디스트"},
	{"아워홈", "아워홈"},
	{"동원", "동원"},
	{"씨제이", "CJ"},
	{"CJ", "CJ"},
}

// InferSupplierName resolves a supplier display name from a price-list
// filename ("동원단가표_2월.xlsx" -> 동원). Returns "" when no catalog token
// matches; callers must then require an explicit supplier id.
func InferSupplierName(filename string) string {
	base := strings.ToUpper(utils.FoldWidth(filepath.Base(filename)))
	for _, entry := range supplierTokens {
		if strings.Contains(base, strings.ToUpper(entry.token)) {
			return entry.canonical
		}
	}
	return ""
}
