package store

import (
	"testing"

	"github.com/shopspring/decimal"
)

// lexTable is a minimal lookupLex stand-in for compareValues/rdfEquals:
// tests build Values whose Lexical/LanguageTag fields are indices into it
// rather than going through a real string heap.
type lexTable []string

func (t lexTable) lookup(r StringRef) string {
	if int(r) >= len(t) {
		return ""
	}
	return t[r]
}

func TestCompareValuesCategoryOrdering(t *testing.T) {
	lex := lexTable{"", "x"}
	blank := Value{Category: CatBlank, Lexical: 1}
	iri := Value{Category: CatIRI, Lexical: 1}
	str := Value{Category: CatPlainString, Lexical: 1}

	if c := compareValues(blank, iri, lex.lookup); c != -1 {
		t.Errorf("compareValues(blank, iri) = %d, want -1", c)
	}
	if c := compareValues(iri, str, lex.lookup); c != -1 {
		t.Errorf("compareValues(iri, string) = %d, want -1", c)
	}
	if c := compareValues(str, blank, lex.lookup); c != 1 {
		t.Errorf("compareValues(string, blank) = %d, want 1", c)
	}
}

func TestCompareValuesSymmetry(t *testing.T) {
	lex := lexTable{"", "abc", "abd", "en", "no"}
	pairs := []struct{ a, b Value }{
		{Value{Category: CatIRI, Lexical: 1}, Value{Category: CatIRI, Lexical: 2}},
		{Value{Category: CatPlainString, Lexical: 1}, Value{Category: CatPlainString, Lexical: 1}},
		{
			Value{Category: CatPlainStringWithLang, Lexical: 1, LanguageTag: 3},
			Value{Category: CatPlainStringWithLang, Lexical: 1, LanguageTag: 4},
		},
		{Value{Category: CatBoolean, Bool: false}, Value{Category: CatBoolean, Bool: true}},
		{
			Value{Category: CatNumeric, Numeric: NumInteger, Int: 1},
			Value{Category: CatNumeric, Numeric: NumDecimal, Decimal: decimal.NewFromInt(1)},
		},
		{
			Value{Category: CatNumeric, Numeric: NumInteger, Int: 2},
			Value{Category: CatNumeric, Numeric: NumInteger, Int: 1},
		},
	}

	for _, p := range pairs {
		ab := compareValues(p.a, p.b, lex.lookup)
		ba := compareValues(p.b, p.a, lex.lookup)
		if ab != -ba {
			t.Errorf("compareValues(a,b)=%d, compareValues(b,a)=%d; want negation", ab, ba)
		}
		if (ab == 0) != (rdfEquals(p.a, p.b, lex.lookup) == 0) {
			t.Errorf("compare==0 (%v) disagrees with rdfEquals==0 (%v) for %+v / %+v",
				ab == 0, rdfEquals(p.a, p.b, lex.lookup) == 0, p.a, p.b)
		}
	}
}

func TestCompareValuesTypeError(t *testing.T) {
	lex := lexTable{""}
	a := Value{Category: CatDateTime, Lexical: 0}
	b := Value{Category: CatDateTime, Lexical: 0}
	if c := compareValues(a, b, lex.lookup); c != typeErrorResult {
		t.Errorf("compareValues(dateTime, dateTime) = %d, want typeErrorResult", c)
	}
	if e := rdfEquals(a, b, lex.lookup); e != -1 {
		t.Errorf("rdfEquals(dateTime, dateTime) = %d, want -1 (type error)", e)
	}

	c := Value{Category: CatOtherTyped, DatatypeID: 5, Lexical: 0}
	d := Value{Category: CatOtherTyped, DatatypeID: 6, Lexical: 0}
	if got := compareValues(c, d, lex.lookup); got != typeErrorResult {
		t.Errorf("compareValues across datatypes = %d, want typeErrorResult", got)
	}
}

func TestCompareNumericPromotion(t *testing.T) {
	lex := lexTable{""}
	i := Value{Category: CatNumeric, Numeric: NumInteger, Int: 1}
	d := Value{Category: CatNumeric, Numeric: NumDecimal, Decimal: decimal.NewFromInt(1)}
	if c := compareValues(i, d, lex.lookup); c != 0 {
		t.Errorf("compareValues(1, 1.0) = %d, want 0 (widened to decimal)", c)
	}
}
