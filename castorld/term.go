package castorld

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/boutros/castor/rdf"
	"github.com/boutros/castor/store"
)

// classify maps a decoded RDF term (rdf.URI or rdf.Literal -- an rdf.URI
// prefixed "_:" is classified as a blank node; rdf's scanner itself has no
// blank-node syntax) into the category/numeric-subcategory model
// store/value.go's Value expects (spec.md §3.2). Grounded on
// rdf/term.go's Literal.Value() type switch, generalized from "return a Go
// value" into "classify and extract the interned-string candidates".
func classify(term rdf.Term) (rawValue, error) {
	switch t := term.(type) {
	case rdf.URI:
		s := string(t)
		cat := store.CatIRI
		if len(s) >= 2 && s[0] == '_' && s[1] == ':' {
			cat = store.CatBlank
		}
		return rawValue{Category: cat, Lexical: s}, nil
	case rdf.Literal:
		return classifyLiteral(t)
	default:
		return rawValue{}, errors.New("castorld: unsupported RDF term kind")
	}
}

func classifyLiteral(l rdf.Literal) (rawValue, error) {
	lex := l.String()
	if lang := l.Lang(); lang != "" {
		return rawValue{Category: store.CatPlainStringWithLang, Lexical: lex, LanguageTag: lang}, nil
	}

	dt := l.DataType()
	switch dt {
	case rdf.XSDstring, "":
		// The scanner doesn't distinguish a bare literal from one
		// explicitly typed ^^xsd:string (both produce this datatype);
		// RDF 1.1 treats them as the same term anyway, so both become
		// CatPlainString.
		return rawValue{Category: store.CatPlainString, Lexical: lex}, nil
	case rdf.XSDboolean:
		b, err := strconv.ParseBool(lex)
		if err != nil {
			return rawValue{}, errors.Wrap(err, "castorld: parse xsd:boolean literal")
		}
		// Lexical carries the literal's own text even for interpreted
		// categories: store.Store.FindValueID/valuesFullyEqual resolve and
		// compare Value.Lexical regardless of Category, so every value
		// needs one to be findable by the hash index.
		return rawValue{Category: store.CatBoolean, Bool: b, Lexical: lex}, nil
	case rdf.XSDinteger, rdf.XSDint, rdf.XSDlong, rdf.XSDshort, rdf.XSDbyte,
		rdf.XSDunsignedInt, rdf.XSDunsignedLong, rdf.XSDunsignedShort, rdf.XSDunsignedByte:
		n, err := strconv.ParseInt(lex, 10, 64)
		if err != nil {
			return rawValue{}, errors.Wrap(err, "castorld: parse integer literal")
		}
		return rawValue{Category: store.CatNumeric, Numeric: store.NumInteger, Int: n, Lexical: lex}, nil
	case rdf.XSDdecimal:
		d, err := decimal.NewFromString(lex)
		if err != nil {
			return rawValue{}, errors.Wrap(err, "castorld: parse xsd:decimal literal")
		}
		return rawValue{Category: store.CatNumeric, Numeric: store.NumDecimal, Decimal: d, Lexical: lex}, nil
	case rdf.XSDfloat:
		f, err := strconv.ParseFloat(lex, 32)
		if err != nil {
			return rawValue{}, errors.Wrap(err, "castorld: parse xsd:float literal")
		}
		return rawValue{Category: store.CatNumeric, Numeric: store.NumFloat, Float: f, Lexical: lex}, nil
	case rdf.XSDdouble:
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return rawValue{}, errors.Wrap(err, "castorld: parse xsd:double literal")
		}
		return rawValue{Category: store.CatNumeric, Numeric: store.NumDouble, Float: f, Lexical: lex}, nil
	case rdf.XSDdateTime, rdf.XSDdateTimeStamp:
		// Open question #2: DATETIME never participates in compareRaw's
		// total order; it is still stored and interned like any other
		// typed literal.
		return rawValue{Category: store.CatDateTime, Lexical: lex, DatatypeLex: string(dt)}, nil
	default:
		return rawValue{Category: store.CatOtherTyped, Lexical: lex, DatatypeLex: string(dt)}, nil
	}
}
