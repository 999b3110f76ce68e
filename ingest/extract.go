package ingest

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bansang/pricebook_backend/models"
)

// unitPriceScale: derived per-gram / per-ml prices keep 4 decimal places.
const unitPriceScale = 4

var (
	countPerPackRe = regexp.MustCompile(`(\d+)\s*개입`)
	packQuantityRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|g|ml|l)\b`)
	anyDigitRe     = regexp.MustCompile(`\d`)
)

// LearnedPattern is a heuristic success waiting to be persisted as a
// reusable extraction pattern after the batch commits.
type LearnedPattern struct {
	Specification string
	Unit          string
	Method        models.ExtractionMethod
	Value         decimal.Decimal
}

// Extractor derives price_per_gram / price_per_ml from specification text,
// unit and package price. It works off the pattern snapshot captured at
// batch start; counter deltas and learned patterns are accumulated here and
// flushed by the coordinator only when the batch commits.
type Extractor struct {
	patterns *models.PatternSet

	Hits    map[int]int // pattern id -> confirmed derivations
	Misses  map[int]int // pattern id -> failed applications
	Learned []LearnedPattern
}

func NewExtractor(patterns *models.PatternSet) *Extractor {
	return &Extractor{
		patterns: patterns,
		Hits:     make(map[int]int),
		Misses:   make(map[int]int),
	}
}

// weightFamily decides whether a derived unit price is per-gram or per-ml.
func weightFamily(unit string) string {
	switch unit {
	case "ml", "l":
		return "ml"
	default:
		return "g"
	}
}

// specFamily refines the family using the quantity token in the specification
// ("900ml" with unit 병 is a volume, not a weight). Falls back to the unit.
func specFamily(spec, unit string) string {
	if m := packQuantityRe.FindStringSubmatch(strings.ToLower(spec)); m != nil {
		if m[2] == "ml" || m[2] == "l" {
			return "ml"
		}
		return "g"
	}
	return weightFamily(unit)
}

// Apply attempts a unit-price derivation for the row. On success the derived
// field is set and the responsible pattern is credited; on failure for a
// convertible unit the row is flagged so a no_pattern feedback row can be
// written once the ingredient id is known.
func (e *Extractor) Apply(row *NormalizedRow) {
	if row.SellingPrice == nil {
		return
	}
	price := *row.SellingPrice
	spec := strings.TrimSpace(row.Specification)
	unit := row.Unit

	if p := e.patterns.Lookup(spec, unit); p != nil {
		if e.applyPattern(p, row, price, spec, unit) {
			e.Hits[p.ID]++
			return
		}
		e.Misses[p.ID]++
	}

	if e.applyHeuristics(row, price, spec, unit) {
		return
	}

	if unit == "kg" || unit == "g" || unit == "ml" || unit == "l" {
		row.ExtractionFailed = true
	}
}

func (e *Extractor) applyPattern(p *models.ExtractionPattern, row *NormalizedRow, price decimal.Decimal, spec, unit string) bool {
	switch p.Method {
	case models.MethodDirectKg:
		setPerGram(row, price.Div(decimal.NewFromInt(1000)), p.Method)
	case models.MethodDirectG:
		setPerGram(row, price, p.Method)
	case models.MethodDirectMl:
		setPerMl(row, price, p.Method)
	case models.MethodDirectL:
		setPerMl(row, price.Div(decimal.NewFromInt(1000)), p.Method)
	case models.MethodCountPerPack:
		n := p.ExtractionValue
		if n.IsZero() {
			m := countPerPackRe.FindStringSubmatch(spec)
			if m == nil {
				return false
			}
			n, _ = decimal.NewFromString(m[1])
		}
		if n.IsZero() {
			return false
		}
		// per-piece price, not per-gram: derived fields stay null
		row.ExtractionMethod = p.Method
	case models.MethodPackWeight:
		w := p.ExtractionValue
		if w.IsZero() {
			return false
		}
		setPerFamily(row, specFamily(spec, unit), price.Div(w), p.Method)
	case models.MethodRegexGroup:
		re, err := regexp.Compile(p.SpecificationPattern)
		if err != nil {
			return false
		}
		m := re.FindStringSubmatch(spec)
		if len(m) < 2 {
			return false
		}
		w, err := decimal.NewFromString(m[1])
		if err != nil || w.IsZero() {
			return false
		}
		if !p.ExtractionValue.IsZero() {
			w = w.Mul(p.ExtractionValue)
		}
		setPerFamily(row, specFamily(spec, unit), price.Div(w), p.Method)
	default:
		return false
	}
	return true
}

// applyHeuristics runs the structural fallbacks in order:
//  1. pure unit (no quantity in the specification, unit itself convertible)
//  2. N개입 -> count per pack
//  3. quantity token in the specification -> pack weight
//
// Every success is recorded as a learned pattern for future batches.
func (e *Extractor) applyHeuristics(row *NormalizedRow, price decimal.Decimal, spec, unit string) bool {
	if !anyDigitRe.MatchString(spec) {
		var method models.ExtractionMethod
		switch unit {
		case "kg":
			setPerGram(row, price.Div(decimal.NewFromInt(1000)), models.MethodDirectKg)
			method = models.MethodDirectKg
		case "g":
			setPerGram(row, price, models.MethodDirectG)
			method = models.MethodDirectG
		case "ml":
			setPerMl(row, price, models.MethodDirectMl)
			method = models.MethodDirectMl
		case "l":
			setPerMl(row, price.Div(decimal.NewFromInt(1000)), models.MethodDirectL)
			method = models.MethodDirectL
		default:
			return false
		}
		if spec != "" {
			e.Learned = append(e.Learned, LearnedPattern{Specification: spec, Unit: unit, Method: method})
		}
		return true
	}

	if m := countPerPackRe.FindStringSubmatch(spec); m != nil {
		n, err := decimal.NewFromString(m[1])
		if err == nil && !n.IsZero() {
			row.ExtractionMethod = models.MethodCountPerPack
			e.Learned = append(e.Learned, LearnedPattern{Specification: spec, Unit: unit, Method: models.MethodCountPerPack, Value: n})
			return true
		}
	}

	if m := packQuantityRe.FindStringSubmatch(strings.ToLower(spec)); m != nil {
		q, err := decimal.NewFromString(m[1])
		if err == nil && !q.IsZero() {
			family := "g"
			switch m[2] {
			case "kg":
				q = q.Mul(decimal.NewFromInt(1000))
			case "g":
			case "ml":
				family = "ml"
			case "l":
				q = q.Mul(decimal.NewFromInt(1000))
				family = "ml"
			}
			setPerFamily(row, family, price.Div(q), models.MethodPackWeight)
			e.Learned = append(e.Learned, LearnedPattern{Specification: spec, Unit: unit, Method: models.MethodPackWeight, Value: q})
			return true
		}
	}

	return false
}

func setPerGram(row *NormalizedRow, v decimal.Decimal, method models.ExtractionMethod) {
	r := v.Round(unitPriceScale)
	row.PricePerGram = &r
	row.ExtractionMethod = method
}

func setPerMl(row *NormalizedRow, v decimal.Decimal, method models.ExtractionMethod) {
	r := v.Round(unitPriceScale)
	row.PricePerMl = &r
	row.ExtractionMethod = method
}

func setPerFamily(row *NormalizedRow, family string, v decimal.Decimal, method models.ExtractionMethod) {
	if family == "ml" {
		setPerMl(row, v, method)
		return
	}
	setPerGram(row, v, method)
}
