package ingest_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bansang/pricebook_backend/ingest"
	"github.com/bansang/pricebook_backend/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedSet() *models.PatternSet {
	return models.NewPatternSet([]models.ExtractionPattern{
		{ID: 1, SpecificationPattern: "", UnitPattern: "kg", Method: models.MethodDirectKg},
		{ID: 2, SpecificationPattern: "", UnitPattern: "g", Method: models.MethodDirectG},
		{ID: 3, SpecificationPattern: "", UnitPattern: "ml", Method: models.MethodDirectMl},
		{ID: 4, SpecificationPattern: "", UnitPattern: "l", Method: models.MethodDirectL},
	})
}

func extractRow(t *testing.T, e *ingest.Extractor, spec, unit, price string) *ingest.NormalizedRow {
	t.Helper()
	p := dec(price)
	row := &ingest.NormalizedRow{
		Code: "A001", Name: "쌀",
		Specification: spec,
		Unit:          unit,
		SellingPrice:  &p,
	}
	e.Apply(row)
	return row
}

func TestExtractPackWeightBeatsUnitKg(t *testing.T) {
	// 20kg sack priced per sack: 40000 / 20000g = 2.0 per gram
	e := ingest.NewExtractor(seedSet())
	row := extractRow(t, e, "쌀 20kg", "kg", "40000")
	if row.PricePerGram == nil || !row.PricePerGram.Equal(dec("2")) {
		t.Fatalf("price_per_gram: %v", row.PricePerGram)
	}
	if row.ExtractionMethod != models.MethodPackWeight {
		t.Fatalf("method: %s", row.ExtractionMethod)
	}
}

func TestExtractDirectUnits(t *testing.T) {
	cases := []struct {
		unit, price, perGram, perMl string
		method                      models.ExtractionMethod
	}{
		{"kg", "2000", "2", "", models.MethodDirectKg},
		{"g", "3", "3", "", models.MethodDirectG},
		{"ml", "5", "", "5", models.MethodDirectMl},
		{"l", "4500", "", "4.5", models.MethodDirectL},
	}
	for _, c := range cases {
		e := ingest.NewExtractor(seedSet())
		row := extractRow(t, e, "", c.unit, c.price)
		if row.ExtractionMethod != c.method {
			t.Fatalf("unit %s: method %s", c.unit, row.ExtractionMethod)
		}
		if c.perGram != "" && (row.PricePerGram == nil || !row.PricePerGram.Equal(dec(c.perGram))) {
			t.Fatalf("unit %s: price_per_gram %v", c.unit, row.PricePerGram)
		}
		if c.perMl != "" && (row.PricePerMl == nil || !row.PricePerMl.Equal(dec(c.perMl))) {
			t.Fatalf("unit %s: price_per_ml %v", c.unit, row.PricePerMl)
		}
	}
}

func TestExtractDirectWithDigitlessSpecLearns(t *testing.T) {
	e := ingest.NewExtractor(seedSet())
	row := extractRow(t, e, "국산 햅쌀", "kg", "3000")
	if row.PricePerGram == nil || !row.PricePerGram.Equal(dec("3")) {
		t.Fatalf("price_per_gram: %v", row.PricePerGram)
	}
	if len(e.Learned) != 1 || e.Learned[0].Method != models.MethodDirectKg {
		t.Fatalf("expected learned direct_kg pattern, got %+v", e.Learned)
	}
}

func TestExtractCountPerPack(t *testing.T) {
	e := ingest.NewExtractor(seedSet())
	row := extractRow(t, e, "두부 10개입", "개", "8000")
	if row.ExtractionMethod != models.MethodCountPerPack {
		t.Fatalf("method: %s", row.ExtractionMethod)
	}
	// per-piece, never per-gram
	if row.PricePerGram != nil || row.PricePerMl != nil {
		t.Fatalf("count_per_pack must not set per-gram/ml: %v %v", row.PricePerGram, row.PricePerMl)
	}
	if len(e.Learned) != 1 || !e.Learned[0].Value.Equal(dec("10")) {
		t.Fatalf("learned: %+v", e.Learned)
	}
}

func TestExtractPackVolumeMl(t *testing.T) {
	e := ingest.NewExtractor(seedSet())
	row := extractRow(t, e, "간장 900ml", "병", "4500")
	if row.PricePerMl == nil || !row.PricePerMl.Equal(dec("5")) {
		t.Fatalf("price_per_ml: %v", row.PricePerMl)
	}
	if row.ExtractionMethod != models.MethodPackWeight {
		t.Fatalf("method: %s", row.ExtractionMethod)
	}
}

func TestExtractPackVolumeLiters(t *testing.T) {
	e := ingest.NewExtractor(seedSet())
	row := extractRow(t, e, "맛술 1.8L", "병", "5400")
	if row.PricePerMl == nil || !row.PricePerMl.Equal(dec("3")) {
		t.Fatalf("price_per_ml: %v", row.PricePerMl)
	}
}

func TestExtractFailureFlagOnlyForConvertibleUnits(t *testing.T) {
	e := ingest.NewExtractor(seedSet())

	row := extractRow(t, e, "특품 3호", "kg", "9000")
	if !row.ExtractionFailed {
		t.Fatal("kg row with opaque spec should flag extraction failure")
	}

	row = extractRow(t, e, "특품 3호", "box", "9000")
	if row.ExtractionFailed {
		t.Fatal("box row should not flag extraction failure")
	}
}

func TestExtractSkipsRowsWithoutPrice(t *testing.T) {
	e := ingest.NewExtractor(seedSet())
	row := &ingest.NormalizedRow{Code: "A001", Name: "쌀", Unit: "kg"}
	e.Apply(row)
	if row.PricePerGram != nil || row.ExtractionFailed {
		t.Fatalf("no-price row must be untouched: %+v", row)
	}
}

func TestExtractStoredPatternWins(t *testing.T) {
	set := models.NewPatternSet([]models.ExtractionPattern{
		{ID: 1, SpecificationPattern: "", UnitPattern: "kg", Method: models.MethodDirectKg},
		{ID: 7, SpecificationPattern: "*20kg*", UnitPattern: "*", Method: models.MethodPackWeight,
			ExtractionValue: dec("20000"), SuccessCount: 3},
	})
	e := ingest.NewExtractor(set)
	row := extractRow(t, e, "쌀 20kg 포대", "kg", "40000")
	if row.PricePerGram == nil || !row.PricePerGram.Equal(dec("2")) {
		t.Fatalf("price_per_gram: %v", row.PricePerGram)
	}
	if e.Hits[7] != 1 {
		t.Fatalf("pattern 7 should be credited, hits=%v", e.Hits)
	}
}

func TestExtractPackWeightPatternKeepsVolumeFamily(t *testing.T) {
	// learned from a 900ml bottle: re-application must stay per-ml even though
	// the unit column (병) is not a volume unit
	set := models.NewPatternSet([]models.ExtractionPattern{
		{ID: 5, SpecificationPattern: "900ml", UnitPattern: "병",
			Method: models.MethodPackWeight, ExtractionValue: dec("900"), SuccessCount: 1},
	})
	e := ingest.NewExtractor(set)
	row := extractRow(t, e, "900ml", "병", "4500")
	if row.PricePerMl == nil || !row.PricePerMl.Equal(dec("5")) {
		t.Fatalf("price_per_ml: %v", row.PricePerMl)
	}
	if row.PricePerGram != nil {
		t.Fatalf("price_per_gram should stay null, got %v", row.PricePerGram)
	}
}

func TestExtractDistrustedPatternSkipped(t *testing.T) {
	set := models.NewPatternSet([]models.ExtractionPattern{
		{ID: 9, SpecificationPattern: "*20kg*", UnitPattern: "*", Method: models.MethodPackWeight,
			ExtractionValue: dec("99"), SuccessCount: 1, FailureCount: 5},
	})
	e := ingest.NewExtractor(set)
	row := extractRow(t, e, "쌀 20kg", "kg", "40000")
	// heuristic still resolves it, the distrusted pattern's value (99) must not
	if row.PricePerGram == nil || !row.PricePerGram.Equal(dec("2")) {
		t.Fatalf("price_per_gram: %v", row.PricePerGram)
	}
	if e.Hits[9] != 0 {
		t.Fatalf("distrusted pattern must not be credited: %v", e.Hits)
	}
}

func TestExtractRegexGroupPattern(t *testing.T) {
	set := models.NewPatternSet([]models.ExtractionPattern{
		{ID: 11, SpecificationPattern: `묶음\s*(\d+)g`, UnitPattern: "*",
			Method: models.MethodRegexGroup, SuccessCount: 1},
	})
	e := ingest.NewExtractor(set)
	row := extractRow(t, e, "묶음 500g", "봉", "2500")
	if row.PricePerGram == nil || !row.PricePerGram.Equal(dec("5")) {
		t.Fatalf("price_per_gram: %v", row.PricePerGram)
	}
	if e.Hits[11] != 1 {
		t.Fatalf("hits: %v", e.Hits)
	}
}

func TestExtractPatternMissRecorded(t *testing.T) {
	set := models.NewPatternSet([]models.ExtractionPattern{
		{ID: 13, SpecificationPattern: `없는\s*(\d+)g`, UnitPattern: "봉",
			Method: models.MethodRegexGroup, SuccessCount: 1},
	})
	e := ingest.NewExtractor(set)
	// regex matches by Matches() but the capture group yields zero rows here
	row := extractRow(t, e, "없는 0g", "봉", "2500")
	if e.Misses[13] != 1 {
		t.Fatalf("expected miss recorded, misses=%v", e.Misses)
	}
	if row.PricePerGram != nil {
		t.Fatalf("price_per_gram should stay null, got %v", row.PricePerGram)
	}
}
