package ledger

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/razao/internal/types"
)

// NumberFormat describes how monetary text is written in the source.
//
// The parsing rule is the same for every locale: every character that is not
// a digit or the decimal separator is dropped (thousands separators, currency
// symbols, signs, spaces), the decimal separator becomes '.', and the result
// is parsed. Anything that still fails to parse is 0.
type NumberFormat struct {
	// Decimal is the decimal separator, ',' for pt-BR exports.
	Decimal rune
}

// Brazilian is the default format: "1.234,56".
var Brazilian = NumberFormat{Decimal: ','}

// International reads "1,234.56".
var International = NumberFormat{Decimal: '.'}

// NumberFormatFor maps a locale name to a format. Unknown names get Brazilian.
func NumberFormatFor(locale string) NumberFormat {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en_us", "us", "international", "dot":
		return International
	default:
		return Brazilian
	}
}

// Normalize converts a cell to a float. It never fails.
func (f NumberFormat) Normalize(c types.Cell) float64 {
	switch c.Kind {
	case types.CellNumber:
		return c.Number
	case types.CellText:
		return f.ParseText(c.Text)
	default:
		return 0
	}
}

// ParseText parses locale formatted monetary text, returning 0 for blank or
// unparseable input.
func (f NumberFormat) ParseText(s string) float64 {
	dec := f.decimal()
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		if r == dec {
			return '.'
		}
		return -1
	}, s)
	if cleaned == "" || cleaned == "." {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// Format renders v with the format's decimal separator and no grouping, so
// that ParseText(Format(v)) == v.
func (f NumberFormat) Format(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dec := f.decimal(); dec != '.' {
		s = strings.Replace(s, ".", string(dec), 1)
	}
	return s
}

func (f NumberFormat) decimal() rune {
	if f.Decimal == 0 {
		return ','
	}
	return f.Decimal
}

// NormalizeAmount normalizes a cell with the Brazilian format.
func NormalizeAmount(c types.Cell) float64 {
	return Brazilian.Normalize(c)
}
