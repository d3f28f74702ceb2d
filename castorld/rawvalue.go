package castorld

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/boutros/castor/store"
)

// rawValue is an RDF term before string/value interning: every string
// field is held inline rather than as a heap id, since the dictionary
// sort pass that assigns ids is exactly what needs to compare rawValues
// against each other first (spec.md §3.2, §4.3). It otherwise mirrors
// store.Value field for field, and compareRaw/rdfEqualRaw below
// necessarily duplicate store's compareValues/rdfEquals: the builder has
// no heap yet to resolve a StringRef through.
type rawValue struct {
	Category store.Category
	Numeric  store.NumericKind

	Lexical     string
	DatatypeLex string // datatype IRI's own lexical form, for typed literals
	LanguageTag string

	Bool    bool
	Int     int64
	Float   float64
	Decimal decimal.Decimal
}

const typeErrorResult = -2

func compareRaw(a, b rawValue) int {
	if a.Category != b.Category {
		rank := func(c store.Category) int {
			switch c {
			case store.CatBlank:
				return 0
			case store.CatIRI:
				return 1
			default:
				return 2
			}
		}
		ra, rb := rank(a.Category), rank(b.Category)
		if ra != rb {
			return cmpInt(ra, rb)
		}
		return typeErrorResult
	}

	switch a.Category {
	case store.CatBlank, store.CatIRI, store.CatPlainString, store.CatTypedString:
		return strings.Compare(a.Lexical, b.Lexical)
	case store.CatPlainStringWithLang:
		if c := strings.Compare(a.Lexical, b.Lexical); c != 0 {
			return c
		}
		return strings.Compare(a.LanguageTag, b.LanguageTag)
	case store.CatBoolean:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	case store.CatNumeric:
		return compareNumericRaw(a, b)
	case store.CatDateTime:
		return typeErrorResult // open-question #2, see SPEC_FULL.md
	case store.CatOtherTyped:
		if a.DatatypeLex != b.DatatypeLex {
			return typeErrorResult
		}
		return strings.Compare(a.Lexical, b.Lexical)
	default:
		return typeErrorResult
	}
}

func compareNumericRaw(a, b rawValue) int {
	widest := func(k store.NumericKind) int {
		switch k {
		case store.NumInteger:
			return 0
		case store.NumDecimal:
			return 1
		default:
			return 2
		}
	}
	w := widest(a.Numeric)
	if wb := widest(b.Numeric); wb > w {
		w = wb
	}
	switch w {
	case 0:
		return cmpInt64(a.Int, b.Int)
	case 1:
		return decimalOfRaw(a).Cmp(decimalOfRaw(b))
	default:
		return cmpFloat(floatOfRaw(a), floatOfRaw(b))
	}
}

func decimalOfRaw(v rawValue) decimal.Decimal {
	switch v.Numeric {
	case store.NumInteger:
		return decimal.NewFromInt(v.Int)
	case store.NumDecimal:
		return v.Decimal
	default:
		return decimal.NewFromFloat(v.Float)
	}
}

func floatOfRaw(v rawValue) float64 {
	switch v.Numeric {
	case store.NumInteger:
		return float64(v.Int)
	case store.NumDecimal:
		f, _ := v.Decimal.Float64()
		return f
	default:
		return v.Float
	}
}

// rdfEqualRaw mirrors store.rdfEquals: 0 equal, 1 unequal, -1 type error.
func rdfEqualRaw(a, b rawValue) int {
	if a.Category != b.Category {
		if isStringLikeRaw(a.Category) && isStringLikeRaw(b.Category) {
			if a.Lexical == b.Lexical {
				return 0
			}
			return 1
		}
		return -1
	}
	c := compareRaw(a, b)
	if c == typeErrorResult {
		return -1
	}
	if c == 0 {
		return 0
	}
	return 1
}

func isStringLikeRaw(c store.Category) bool {
	return c == store.CatPlainString || c == store.CatTypedString
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
