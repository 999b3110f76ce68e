package ingest

import (
	"fmt"
	"strings"

	"github.com/bansang/pricebook_backend/models"
	"github.com/bansang/pricebook_backend/utils"
)

// CanonicalField is one of the fixed internal column names the pipeline
// targets. The set is closed.
type CanonicalField string

const (
	FieldCategory      CanonicalField = "category"
	FieldSubCategory   CanonicalField = "sub_category"
	FieldCode          CanonicalField = "ingredient_code"
	FieldName          CanonicalField = "ingredient_name"
	FieldBrandName     CanonicalField = "brand_name"
	FieldOrigin        CanonicalField = "origin"
	FieldPostingStatus CanonicalField = "posting_status"
	FieldSpecification CanonicalField = "specification"
	FieldUnit          CanonicalField = "unit"
	FieldTaxType       CanonicalField = "tax_type"
	FieldDeliveryDays  CanonicalField = "delivery_days"
	FieldPurchasePrice CanonicalField = "purchase_price"
	FieldSellingPrice  CanonicalField = "selling_price"
	FieldSupplierName  CanonicalField = "supplier_name"
	FieldNotes         CanonicalField = "notes"
)

// canonicalFields in resolution order. Sub-category resolves before category
// so 소분류-style headers are claimed before the looser 분류 keyword runs.
var canonicalFields = []CanonicalField{
	FieldSubCategory, FieldCategory, FieldCode, FieldName, FieldBrandName,
	FieldOrigin, FieldPostingStatus, FieldSpecification, FieldUnit,
	FieldTaxType, FieldDeliveryDays, FieldPurchasePrice, FieldSellingPrice,
	FieldSupplierName, FieldNotes,
}

// exactSynonyms: static catalog of Korean header names per canonical field,
// in priority order. Data-driven so new suppliers land without code changes.
var exactSynonyms = map[CanonicalField][]string{
	FieldCategory:      {"분류", "대분류", "카테고리"},
	FieldSubCategory:   {"소분류", "세분류", "기본식자재"},
	FieldCode:          {"식자재코드", "코드", "품목코드", "상품코드"},
	FieldName:          {"식자재명", "품목명", "입고명", "상품명"},
	FieldBrandName:     {"브랜드명", "브랜드"},
	FieldOrigin:        {"원산지", "산지"},
	FieldPostingStatus: {"게시여부", "게시상태", "게시"},
	FieldSpecification: {"규격", "스펙", "사양"},
	FieldUnit:          {"단위", "규격단위"},
	FieldTaxType:       {"과세구분", "면세여부", "과세여부"},
	FieldDeliveryDays:  {"선발주일", "배송일"},
	FieldPurchasePrice: {"입고가", "입고단가", "매입가"},
	FieldSellingPrice:  {"판매가", "판매단가", "단가"},
	FieldSupplierName:  {"거래처명", "거래처", "판매처", "업체명"},
	FieldNotes:         {"비고", "메모"},
}

// keywordRules: substring fallback when no exact synonym matched. Ordered;
// first hit wins.
var keywordRules = []struct {
	keyword string
	field   CanonicalField
}{
	{"소분류", FieldSubCategory},
	{"세분류", FieldSubCategory},
	{"기본식자재", FieldSubCategory},
	{"분류", FieldCategory},
	{"게시", FieldPostingStatus},
	{"면세", FieldTaxType},
	{"과세", FieldTaxType},
	{"선발주", FieldDeliveryDays},
	{"배송일", FieldDeliveryDays},
	{"입고가", FieldPurchasePrice},
	{"판매가", FieldSellingPrice},
	{"단가", FieldSellingPrice},
	{"거래처", FieldSupplierName},
	{"판매처", FieldSupplierName},
	{"업체", FieldSupplierName},
	{"코드", FieldCode},
	{"규격", FieldSpecification},
	{"원산지", FieldOrigin},
}

// ColumnMap resolves supplier-specific headers to canonical fields. Computed
// once per batch.
type ColumnMap struct {
	fields   map[CanonicalField]string // canonical field -> sheet header
	Warnings []string
}

// MappedRow is the structured record the rest of the pipeline consumes.
// A field absent from Values is null for this row.
type MappedRow struct {
	Index  int
	Values map[CanonicalField]string
}

func normalizeHeader(h string) string {
	folded := utils.FoldWidth(h)
	folded = strings.Join(strings.Fields(folded), "")
	return strings.ToLower(folded)
}

// ResolveColumns maps the header row to canonical fields: exact synonym
// match first, keyword-substring fallback second, warning when unresolved.
// ingredient_code and ingredient_name are mandatory; their absence is fatal
// for the whole batch.
func ResolveColumns(headers []string) (*ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	m := &ColumnMap{fields: make(map[CanonicalField]string)}
	claimed := make(map[int]bool)

	// pass 1: exact synonyms, per-field priority order
	for _, field := range canonicalFields {
		for _, syn := range exactSynonyms[field] {
			want := normalizeHeader(syn)
			for i, h := range normalized {
				if claimed[i] || h != want {
					continue
				}
				m.fields[field] = headers[i]
				claimed[i] = true
				break
			}
			if _, ok := m.fields[field]; ok {
				break
			}
		}
	}

	// pass 2: keyword substrings for still-unresolved fields
	for _, rule := range keywordRules {
		if _, ok := m.fields[rule.field]; ok {
			continue
		}
		for i, h := range normalized {
			if claimed[i] || h == "" || !strings.Contains(h, rule.keyword) {
				continue
			}
			m.fields[rule.field] = headers[i]
			claimed[i] = true
			break
		}
	}

	for _, field := range canonicalFields {
		if _, ok := m.fields[field]; !ok {
			m.Warnings = append(m.Warnings, fmt.Sprintf("no header resolved for %s; field will be null", field))
		}
	}

	if _, ok := m.fields[FieldCode]; !ok {
		return nil, fmt.Errorf("%w: ingredient_code", ErrMappingIncomplete)
	}
	if _, ok := m.fields[FieldName]; !ok {
		return nil, fmt.Errorf("%w: ingredient_name", ErrMappingIncomplete)
	}
	return m, nil
}

// Header returns the sheet header resolved for a canonical field.
func (m *ColumnMap) Header(field CanonicalField) (string, bool) {
	h, ok := m.fields[field]
	return h, ok
}

// MapRow projects a raw row onto the canonical fields. A row whose cells
// cover none of the resolved headers cannot be mapped.
func (m *ColumnMap) MapRow(raw RawRow) (MappedRow, *RowError) {
	row := MappedRow{Index: raw.Index, Values: make(map[CanonicalField]string)}
	for field, header := range m.fields {
		if v, ok := raw.Cells[header]; ok {
			row.Values[field] = v
		}
	}
	if len(row.Values) == 0 {
		return row, &RowError{Index: raw.Index, Reason: models.FailMapping, Detail: "no mapped column has a value"}
	}
	return row, nil
}
