package utils_test

import (
	"testing"

	"github.com/bansang/pricebook_backend/utils"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"40,000":   "40000",
		"₩1,234":   "1234",
		"2000원":    "2000",
		"1 500":    "1500",
		"12000KRW": "12000",
		"１２３":      "123", // full-width digits
		"-500":     "-500",
	}
	for in, want := range cases {
		got, err := utils.ParsePrice(in)
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("ParsePrice(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestParsePriceRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "-", "별도문의", "시가"} {
		if _, err := utils.ParsePrice(in); err == nil {
			t.Fatalf("ParsePrice(%q) should fail", in)
		}
	}
}

func TestFoldWidth(t *testing.T) {
	if got := utils.FoldWidth("２０ｋｇ"); got != "20kg" {
		t.Fatalf("FoldWidth: %q", got)
	}
	if got := utils.FoldWidth("쌀 20kg"); got != "쌀 20kg" {
		t.Fatalf("FoldWidth should keep hangul: %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := utils.CollapseWhitespace("  쌀   20kg \t포대 "); got != "쌀 20kg 포대" {
		t.Fatalf("CollapseWhitespace: %q", got)
	}
}

func TestParseLeadingInt(t *testing.T) {
	if n := utils.ParseLeadingInt("3일전"); n == nil || *n != 3 {
		t.Fatalf("ParseLeadingInt(3일전): %v", n)
	}
	if n := utils.ParseLeadingInt("１２일"); n == nil || *n != 12 {
		t.Fatalf("ParseLeadingInt(１２일): %v", n)
	}
	if n := utils.ParseLeadingInt("당일"); n != nil {
		t.Fatalf("ParseLeadingInt(당일): %v", n)
	}
}
