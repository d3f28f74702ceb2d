package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the top-level kind of an RDF term (spec.md §3.2).
type Category int

const (
	CatBlank Category = iota
	CatIRI
	CatPlainString
	CatPlainStringWithLang
	CatTypedString // xsd:string
	CatBoolean
	CatNumeric
	CatDateTime
	CatOtherTyped
	catCount
)

// CategoryCount is the number of value categories; categoryStart carries one
// extra sentinel entry beyond this (spec.md §3.5).
const CategoryCount = int(catCount)

// NumericKind is the numeric subcategory, only meaningful when
// Category == CatNumeric.
type NumericKind int

const (
	NumInteger NumericKind = iota
	NumDecimal
	NumFloat
	NumDouble
)

// StringRef points at an interned string on the string heap.
type StringRef uint32

// Value is a tagged RDF term record (spec.md §3.2). Lexical/datatype/
// language fields are string ids into the heap; Bool/Int/Float/Decimal carry
// the parsed representation for booleans, numerics (and, best-effort, for
// datetimes, which per SPEC_FULL.md decision #2 never participate in
// compareValues).
type Value struct {
	ID       uint32 // 0 if not interned
	Category Category
	Numeric  NumericKind

	Lexical      StringRef
	DatatypeID   uint32 // value-id of the datatype IRI, for typed literals
	DatatypeLex  StringRef
	LanguageTag  StringRef

	Bool    bool
	Int     int64
	Float   float64
	Decimal decimal.Decimal
	Time    time.Time
}

// typeErrorResult is the sentinel returned by compareValues when two values
// are not comparable under SPARQL order (spec.md §3.2, §4.3).
const typeErrorResult = -2

// compareValues implements the full SPARQL order of spec.md §4.3.
// Returns -1, 0, 1, or typeErrorResult.
func compareValues(a, b Value, lookupLex func(StringRef) string) int {
	if a.Category != b.Category {
		// blank < IRI < any literal
		rank := func(c Category) int {
			switch c {
			case CatBlank:
				return 0
			case CatIRI:
				return 1
			default:
				return 2
			}
		}
		ra, rb := rank(a.Category), rank(b.Category)
		if ra != rb {
			return cmpInt(ra, rb)
		}
		// Plain-no-lang and xsd:string share one ordering (spec.md §4.3 item
		// 3), the same pair rdfEquals/isStringLike already treats as
		// lexically comparable despite the differing Category tag.
		if isStringLike(a.Category) && isStringLike(b.Category) {
			return cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical))
		}
		// literals of differing categories never compare under SPARQL order
		return typeErrorResult
	}

	switch a.Category {
	case CatBlank, CatIRI:
		return cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical))
	case CatPlainString:
		return cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical))
	case CatPlainStringWithLang:
		if c := cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical)); c != 0 {
			return c
		}
		return cmpString(lookupLex(a.LanguageTag), lookupLex(b.LanguageTag))
	case CatTypedString:
		return cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical))
	case CatBoolean:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case CatNumeric:
		return compareNumeric(a, b)
	case CatDateTime:
		// Open question #2: DATETIME is deliberately excluded from the
		// total order; see SPEC_FULL.md.
		return typeErrorResult
	case CatOtherTyped:
		if a.DatatypeID != b.DatatypeID {
			return typeErrorResult
		}
		return cmpString(lookupLex(a.Lexical), lookupLex(b.Lexical))
	default:
		return typeErrorResult
	}
}

// compareNumeric promotes both operands to the wider of their numeric
// subcategories (integer < decimal < double/float) and compares as that
// type.
func compareNumeric(a, b Value) int {
	widest := func(k NumericKind) int {
		switch k {
		case NumInteger:
			return 0
		case NumDecimal:
			return 1
		default: // NumFloat, NumDouble
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
		da := decimalOf(a)
		db := decimalOf(b)
		return da.Cmp(db)
	default:
		return cmpFloat(floatOf(a), floatOf(b))
	}
}

func decimalOf(v Value) decimal.Decimal {
	switch v.Numeric {
	case NumInteger:
		return decimal.NewFromInt(v.Int)
	case NumDecimal:
		return v.Decimal
	default:
		return decimal.NewFromFloat(v.Float)
	}
}

func floatOf(v Value) float64 {
	switch v.Numeric {
	case NumInteger:
		return float64(v.Int)
	case NumDecimal:
		f, _ := v.Decimal.Float64()
		return f
	default:
		return v.Float
	}
}

// rdfEquals implements SPARQL RDF-term-equality (spec.md §4.3): 0 on equal,
// 1 on unequal, -1 on type error.
func rdfEquals(a, b Value, lookupLex func(StringRef) string) int {
	if a.Category != b.Category {
		if isStringLike(a.Category) && isStringLike(b.Category) {
			if lookupLex(a.Lexical) == lookupLex(b.Lexical) {
				return 0
			}
			return 1
		}
		return -1
	}
	c := compareValues(a, b, lookupLex)
	if c == typeErrorResult {
		return -1
	}
	if c == 0 {
		return 0
	}
	return 1
}

func isStringLike(c Category) bool {
	return c == CatPlainString || c == CatTypedString
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

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}
