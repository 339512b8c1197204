// internal/catalog/format.go
package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownMarker is the explicit placeholder used wherever a record has
// no value for a field. It is never blank and never absent.
const UnknownMarker = "unknown"

var currencyPrinter = message.NewPrinter(language.English)

// dateLayouts covers the formats seen in vendor quote sheets, tried in
// order. Parsed dates are re-emitted in ISO form.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
}

// FormatValue renders a raw stored value per the field's type. The
// unknown marker passes through untouched so callers can detect it.
func FormatValue(f Field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, UnknownMarker) {
		return UnknownMarker
	}

	switch f.Type {
	case TypeCurrency:
		return formatCurrency(raw)
	case TypeNumber:
		return formatNumber(raw)
	case TypeDate:
		return formatDate(raw)
	default:
		return raw
	}
}

// formatCurrency renders "$1,234.50" style: dollar symbol, thousands
// grouping, always two decimals.
func formatCurrency(raw string) string {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(raw)
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return raw
	}
	return currencyPrinter.Sprintf("$%.2f", v)
}

// formatNumber drops a spurious fractional part on integral quantities
// ("25.0" renders as "25") and keeps real fractions as-is.
func formatNumber(raw string) string {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return raw
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDate normalizes to ISO (2006-01-02); unparseable input is
// returned unchanged rather than guessed at.
func formatDate(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
