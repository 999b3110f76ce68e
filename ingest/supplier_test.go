package ingest_test

import (
	"testing"

	"github.com/bansang/pricebook_backend/ingest"
)

func TestInferSupplierName(t *testing.T) {
	cases := map[string]string{
		"동원단가표_2월.xlsx":     "동원",
		"/tmp/웰스토리 3월.xlsx":  "웰스토리",
		"씨제이 단가.csv":         "CJ",
		"cj프레시웨이.xlsx":       "CJ",
		"ＣＪ단가표.xlsx":         "CJ", // full-width latin folds
		"현대그린푸드_단가표.xlsx":    "현대그린푸드",
		"신세계푸드2026.xlsx":      "신세계푸드",
		"푸디스트.xlsx":          "푸디스트",
		"아워홈_2월.xlsx":        "아워홈",
		"수기작성.xlsx":          "",
		"price_list_02.xlsx": "",
	}
	for in, want := range cases {
		if got := ingest.InferSupplierName(in); got != want {
			t.Fatalf("InferSupplierName(%q): expected %q, got %q", in, want, got)
		}
	}
}
