package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength bounds DescriptionRaw, in characters.
const MaxDescriptionLength = 500

// EmptyDescription replaces a description that is blank after cleanup.
const EmptyDescription = "(no description)"

// parseAmount converts strings like "1,234.56" or "฿1,234.56" to a decimal
// rounded to two places. Blank input is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(
		"฿", "",
		"THB", "",
		"บาท", "",
		",", "",
		" ", "",
		"\u00A0", "",
	).Replace(s)

	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// cleanDescription collapses whitespace, truncates, and substitutes a
// placeholder for empty text.
func cleanDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return EmptyDescription
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:MaxDescriptionLength]))
	}
	return s
}
