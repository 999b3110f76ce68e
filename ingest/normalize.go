package ingest

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bansang/pricebook_backend/models"
	"github.com/bansang/pricebook_backend/utils"
)

// NormalizedRow carries the cleaned canonical values of one sheet row.
// String fields use "" for null; parsed fields use nil.
type NormalizedRow struct {
	Index int

	Code          string
	Name          string
	Category      string
	SubCategory   string
	Specification string
	Origin        string
	Unit          string
	BrandName     string
	SupplierName  string
	Notes         string

	TaxType       *models.TaxType
	PostingStatus models.PostingStatus
	DeliveryDays  *int
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal

	// set by the unit-price extractor
	PricePerGram     *decimal.Decimal
	PricePerMl       *decimal.Decimal
	ExtractionMethod models.ExtractionMethod
	ExtractionFailed bool
}

// recognizedUnits is the closed set of units the pipeline understands.
// Unrecognized units are kept as-is (lowercased ASCII portion only).
var recognizedUnits = map[string]bool{
	"kg": true, "g": true, "mg": true, "l": true, "ml": true,
	"ea": true, "box": true,
	"개": true, "포": true, "팩": true, "봉": true, "병": true, "캔": true, "통": true,
}

var (
	// embedded supplier-name noise inside specification strings
	specCompanyPrefix = regexp.MustCompile(`[^,\s]*(업체|회사)\s*,\s*`)
	specCorpMark      = regexp.MustCompile(`\(주\)\s*[^\s,]*`)
)

// NormalizeRow applies the per-field cleaning contracts. Rows failing a
// required rule come back as a RowError and are skipped by the upsert engine.
func NormalizeRow(row MappedRow) (*NormalizedRow, *RowError) {
	get := func(f CanonicalField) string {
		return strings.TrimSpace(row.Values[f])
	}

	out := &NormalizedRow{Index: row.Index}

	out.Code = utils.FoldWidth(get(FieldCode))
	if out.Code == "" {
		return nil, &RowError{Index: row.Index, Reason: models.FailMissingCode, Detail: "ingredient_code is empty"}
	}

	out.Name = utils.CollapseWhitespace(get(FieldName))
	if out.Name == "" {
		return nil, &RowError{Index: row.Index, Reason: models.FailNormalize, Detail: "ingredient_name is empty"}
	}

	out.Category = utils.CollapseWhitespace(get(FieldCategory))
	out.SubCategory = utils.CollapseWhitespace(get(FieldSubCategory))
	out.Origin = utils.CollapseWhitespace(get(FieldOrigin))
	out.BrandName = utils.CollapseWhitespace(get(FieldBrandName))
	out.SupplierName = utils.CollapseWhitespace(get(FieldSupplierName))
	out.Notes = utils.CollapseWhitespace(get(FieldNotes))
	out.Specification = cleanSpecification(get(FieldSpecification))
	out.Unit = normalizeUnit(get(FieldUnit))
	out.TaxType = normalizeTaxType(get(FieldTaxType))
	out.PostingStatus = normalizePostingStatus(get(FieldPostingStatus))
	out.DeliveryDays = utils.ParseLeadingInt(get(FieldDeliveryDays))

	var rowErr *RowError
	out.PurchasePrice, rowErr = normalizePrice(row.Index, get(FieldPurchasePrice))
	if rowErr != nil {
		return nil, rowErr
	}
	out.SellingPrice, rowErr = normalizePrice(row.Index, get(FieldSellingPrice))
	if rowErr != nil {
		return nil, rowErr
	}

	return out, nil
}

// cleanSpecification strips embedded supplier-name patterns
// ("...업체,", "...회사,", "(주)...") and collapses inner whitespace.
func cleanSpecification(spec string) string {
	spec = utils.FoldWidth(spec)
	spec = specCompanyPrefix.ReplaceAllString(spec, "")
	spec = specCorpMark.ReplaceAllString(spec, "")
	return utils.CollapseWhitespace(spec)
}

// normalizeUnit lowercases the ASCII portion (KG -> kg, L -> l) and keeps
// Korean counters untouched.
func normalizeUnit(unit string) string {
	unit = utils.FoldWidth(strings.TrimSpace(unit))
	var b strings.Builder
	for _, r := range unit {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsRecognizedUnit reports whether the pipeline understands a unit string.
func IsRecognizedUnit(u string) bool {
	return recognizedUnits[u]
}

func normalizeTaxType(v string) *models.TaxType {
	switch strings.ToUpper(utils.FoldWidth(v)) {
	case "면세", "비과세", "Y":
		t := models.TaxTypeTaxFree
		return &t
	case "과세", "N", "TAXABLE":
		t := models.TaxTypeTaxable
		return &t
	default:
		return nil
	}
}

func normalizePostingStatus(v string) models.PostingStatus {
	switch strings.ToUpper(utils.FoldWidth(v)) {
	case "미게시", "무", "N":
		return models.PostingStatusDelisted
	case "유", "게시", "Y", "LISTED":
		return models.PostingStatusListed
	default:
		// empty/unrecognized is unknown: preserve prior value on update,
		// default listed on insert
		return models.PostingStatusUnknown
	}
}

// normalizePrice maps empty to null, strips currency noise, and rejects
// negatives as BadPrice. Non-empty garbage ("-", "별도문의") also maps to
// null rather than killing the row.
func normalizePrice(index int, v string) (*decimal.Decimal, *RowError) {
	if v == "" {
		return nil, nil
	}
	dec, err := utils.ParsePrice(v)
	if err != nil {
		return nil, nil
	}
	if dec.IsNegative() {
		return nil, &RowError{Index: index, Reason: models.FailBadPrice, Detail: "negative price " + v}
	}
	return &dec, nil
}
