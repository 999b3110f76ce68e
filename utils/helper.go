package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

var priceNoise = strings.NewReplacer(
	",", "",
	"₩", "",
	"원", "",
	"KRW", "",
	"krw", "",
	" ", "",
	" ", "",
)

// ParsePrice parses supplier-written price cells: thousand separators,
// currency marks (₩, 원, KRW) and stray spaces are stripped before the
// decimal conversion. Full-width digits are folded to ASCII first.
func ParsePrice(value string) (decimal.Decimal, error) {
	cleaned := priceNoise.Replace(FoldWidth(strings.TrimSpace(value)))
	if cleaned == "" {
		return decimal.Zero, errors.New("empty price string")
	}
	dec, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable price %q: %w", value, err)
	}
	return dec, nil
}

// FoldWidth normalizes full-width characters (１２３ＫＧ) to their
// half-width ASCII forms. Supplier sheets mix the two freely.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

var innerSpace = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims and squeezes runs of inner whitespace to one space.
func CollapseWhitespace(s string) string {
	return innerSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

var leadingInt = regexp.MustCompile(`^\s*(\d+)`)

// ParseLeadingInt extracts a leading non-negative integer ("3일" -> 3).
// Returns nil when the string does not start with digits.
func ParseLeadingInt(s string) *int {
	m := leadingInt.FindStringSubmatch(FoldWidth(s))
	if m == nil {
		return nil
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return &n
}

func GenerateUniqueFilename() string {
	return uuid.NewString()
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}
