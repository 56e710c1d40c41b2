package generic

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// AMOUNT PARSING - user-entered numbers
// =============================================================================

// ParseAmount reads a whole-unit amount typed by a user. Arabic-Indic and
// Eastern Arabic-Indic digits are mapped to ASCII, then every non-digit
// (grouping separators, spaces, currency marks) is dropped. Returns false
// when no digit remains.
func ParseAmount(s string) (Money, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// =============================================================================
// AMOUNT FORMATTING
// =============================================================================

// DisplayLocale is the locale reports are rendered in.
var DisplayLocale = language.MustParse("ar-IQ")

// FormatAmount renders the whole-unit part of m with the grouping rules of
// the given locale.
func FormatAmount(m Money, tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%d", m.IntPart())
}

// FormatCount renders an integer count with locale grouping.
func FormatCount(n int, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf("%d", n)
}

// FormatForDisplay renders zero as "-" and everything else with
// FormatAmount.
func FormatForDisplay(m Money, tag language.Tag) string {
	if m.IsZero() {
		return "-"
	}
	return FormatAmount(m, tag)
}
