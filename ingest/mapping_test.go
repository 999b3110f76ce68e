package ingest_test

import (
	"errors"
	"testing"

	"github.com/bansang/pricebook_backend/ingest"
)

func TestResolveColumnsExactSynonyms(t *testing.T) {
	headers := []string{"분류", "소분류", "식자재코드", "식자재명", "규격", "단위", "원산지", "판매가", "입고가", "비고"}
	m, err := ingest.ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	expect := map[ingest.CanonicalField]string{
		ingest.FieldCategory:      "분류",
		ingest.FieldSubCategory:   "소분류",
		ingest.FieldCode:          "식자재코드",
		ingest.FieldName:          "식자재명",
		ingest.FieldSpecification: "규격",
		ingest.FieldUnit:          "단위",
		ingest.FieldOrigin:        "원산지",
		ingest.FieldSellingPrice:  "판매가",
		ingest.FieldPurchasePrice: "입고가",
		ingest.FieldNotes:         "비고",
	}
	for field, header := range expect {
		got, ok := m.Header(field)
		if !ok || got != header {
			t.Fatalf("field %s: expected %q, got %q (ok=%t)", field, header, got, ok)
		}
	}
}

func TestResolveColumnsKeywordFallback(t *testing.T) {
	// code and name resolve exactly; the rest only through keyword substrings
	headers := []string{"상품코드", "품목명", "월단가", "공급업체", "게시구분", "면세구분", "선발주(일)"}
	m, err := ingest.ResolveColumns(headers)
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	cases := map[ingest.CanonicalField]string{
		ingest.FieldSellingPrice:  "월단가",
		ingest.FieldSupplierName:  "공급업체",
		ingest.FieldPostingStatus: "게시구분",
		ingest.FieldTaxType:       "면세구분",
		ingest.FieldDeliveryDays:  "선발주(일)",
	}
	for field, header := range cases {
		got, ok := m.Header(field)
		if !ok || got != header {
			t.Fatalf("field %s: expected %q, got %q (ok=%t)", field, header, got, ok)
		}
	}
}

func TestResolveColumnsSubCategoryClaimsBeforeCategory(t *testing.T) {
	m, err := ingest.ResolveColumns([]string{"코드", "품목명", "세분류명", "상품분류", "판매가"})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if h, _ := m.Header(ingest.FieldSubCategory); h != "세분류명" {
		t.Fatalf("sub_category should claim 세분류명, got %q", h)
	}
	if h, _ := m.Header(ingest.FieldCategory); h != "상품분류" {
		t.Fatalf("category should fall back to 상품분류, got %q", h)
	}
}

func TestResolveColumnsMandatoryFields(t *testing.T) {
	_, err := ingest.ResolveColumns([]string{"식자재명", "단위", "판매가"})
	if !errors.Is(err, ingest.ErrMappingIncomplete) {
		t.Fatalf("missing code column should be fatal, got %v", err)
	}

	_, err = ingest.ResolveColumns([]string{"식자재코드", "단위", "판매가"})
	if !errors.Is(err, ingest.ErrMappingIncomplete) {
		t.Fatalf("missing name column should be fatal, got %v", err)
	}
}

func TestResolveColumnsUnresolvedWarns(t *testing.T) {
	m, err := ingest.ResolveColumns([]string{"코드", "식자재명", "판매가"})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if len(m.Warnings) == 0 {
		t.Fatal("expected warnings for unresolved fields")
	}
	if _, ok := m.Header(ingest.FieldOrigin); ok {
		t.Fatal("origin should be unresolved")
	}
}

func TestMapRowNullVsMissing(t *testing.T) {
	m, err := ingest.ResolveColumns([]string{"코드", "식자재명", "단위", "규격", "판매가"})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}

	raw := ingest.RawRow{Index: 5, Cells: map[string]string{
		"코드": "A001", "식자재명": "쌀", "판매가": "40000",
	}}
	row, rowErr := m.MapRow(raw)
	if rowErr != nil {
		t.Fatalf("MapRow: %v", rowErr)
	}
	if row.Values[ingest.FieldCode] != "A001" {
		t.Fatalf("code not mapped: %+v", row.Values)
	}
	if _, ok := row.Values[ingest.FieldUnit]; ok {
		t.Fatal("unit should be absent (null)")
	}
}

func TestMapRowNoMappedValues(t *testing.T) {
	m, err := ingest.ResolveColumns([]string{"코드", "식자재명", "단위", "규격", "판매가"})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	_, rowErr := m.MapRow(ingest.RawRow{Index: 9, Cells: map[string]string{"기타": "x"}})
	if rowErr == nil {
		t.Fatal("expected per-row mapping error")
	}
}
