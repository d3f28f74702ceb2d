package store

import (
	"math"

	"github.com/shopspring/decimal"
)

// Value record tag byte layout (fixed valueRecordStride footprint):
//   [0]      category
//   [1]      numeric subcategory (only meaningful for CatNumeric)
//   [2:6]    lexical string id
//   [6:10]   datatype value id (0 if untyped)
//   [10:14]  datatype lexical string id
//   [14:18]  language tag string id
//   [18:26]  interpreted bits: bool(1) / int64(8) / float64 bits(8)
//   [26:32]  reserved
//
// Decimal values store their interpreted form out-of-line on the string
// heap (via Lexical, re-parsed on demand) since decimal.Decimal has no fixed
// width; this keeps every dictionary record the same fixed stride so the
// dictionary can be addressed as a flat array (spec.md §4.3).
func decodeValueRecord(c *cursor) (Value, error) {
	var v Value
	catB, err := c.readByte()
	if err != nil {
		return v, err
	}
	numB, err := c.readByte()
	if err != nil {
		return v, err
	}
	lex, err := c.readInt()
	if err != nil {
		return v, err
	}
	dtID, err := c.readInt()
	if err != nil {
		return v, err
	}
	dtLex, err := c.readInt()
	if err != nil {
		return v, err
	}
	lang, err := c.readInt()
	if err != nil {
		return v, err
	}

	v.Category = Category(catB)
	v.Numeric = NumericKind(numB)
	v.Lexical = StringRef(lex)
	v.DatatypeID = dtID
	v.DatatypeLex = StringRef(dtLex)
	v.LanguageTag = StringRef(lang)

	switch v.Category {
	case CatBoolean:
		b, err := c.readByte()
		if err != nil {
			return v, err
		}
		v.Bool = b != 0
		if _, err := c.readBytes(7); err != nil { // reserved padding to interpreted width
			return v, err
		}
	case CatNumeric:
		switch v.Numeric {
		case NumInteger:
			hi, err := c.readInt()
			if err != nil {
				return v, err
			}
			lo, err := c.readInt()
			if err != nil {
				return v, err
			}
			v.Int = int64(uint64(hi)<<32 | uint64(lo))
		case NumFloat, NumDouble:
			hi, err := c.readInt()
			if err != nil {
				return v, err
			}
			lo, err := c.readInt()
			if err != nil {
				return v, err
			}
			v.Float = float64FromBits(uint64(hi)<<32 | uint64(lo))
		case NumDecimal:
			// Decimal is parsed lazily from the lexical string by the
			// caller (Store.LookupValue re-parses via decimalFromLexical);
			// nothing further to read here.
			if _, err := c.readBytes(8); err != nil {
				return v, err
			}
		}
	default:
		if _, err := c.readBytes(8); err != nil {
			return v, err
		}
	}
	if _, err := c.readBytes(6); err != nil { // reserved tail to valueRecordStride
		return v, err
	}
	return v, nil
}

func float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// decimalFromLexical parses the DECIMAL interpreted value from its lexical
// string form, used by Store.LookupValue after the heap lookup.
func decimalFromLexical(lex string) (decimal.Decimal, error) {
	return decimal.NewFromString(lex)
}
