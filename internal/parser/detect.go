package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

// monthNames maps every accepted month spelling to its number.
var monthNames = map[string]int{
	"มกราคม": 1, "กุมภาพันธ์": 2, "มีนาคม": 3, "เมษายน": 4,
	"พฤษภาคม": 5, "มิถุนายน": 6, "กรกฎาคม": 7, "สิงหาคม": 8,
	"กันยายน": 9, "ตุลาคม": 10, "พฤศจิกายน": 11, "ธันวาคม": 12,

	"ม.ค.": 1, "ก.พ.": 2, "มี.ค.": 3, "เม.ย.": 4, "พ.ค.": 5, "มิ.ย.": 6,
	"ก.ค.": 7, "ส.ค.": 8, "ก.ย.": 9, "ต.ค.": 10, "พ.ย.": 11, "ธ.ค.": 12,

	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7, "aug": 8,
	"sep": 9, "sept": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	thaiMonthPattern    = monthNamePattern(true)
	englishMonthPattern = monthNamePattern(false)

	dateRangePattern = regexp.MustCompile(
		`(\d{1,2}/\d{1,2}/\d{4})\s*(?:-|–|ถึง|to)\s*(\d{1,2}/\d{1,2}/\d{4})`,
	)
)

// monthNamePattern builds "NAME YYYY". Thai text has no word spacing, so only
// English names need a boundary.
func monthNamePattern(thai bool) *regexp.Regexp {
	var names []string
	for name := range monthNames {
		isThai := name[0] >= 0x80
		if isThai == thai {
			names = append(names, regexp.QuoteMeta(name))
		}
	}
	// Longest first so "january" beats "jan".
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	alt := strings.Join(names, "|")
	if thai {
		return regexp.MustCompile(`(` + alt + `)\s*(\d{4})\b`)
	}
	return regexp.MustCompile(`(?i)\b(` + alt + `)\.?,?\s+(\d{4})\b`)
}

// DetectStatementMonth returns the YYYY-MM the statement covers, trying in
// order a month name with a year, a DD/MM/YYYY - DD/MM/YYYY range, and the
// most common month among txns. It returns "" when nothing applies.
func DetectStatementMonth(text string, txns []models.ParsedTransaction) string {
	if month, ok := monthFromName(text); ok {
		return month
	}
	if m := dateRangePattern.FindStringSubmatch(text); m != nil {
		if ts, err := ParseDateTime(m[1], ""); err == nil {
			return ts.Format("2006-01")
		}
	}
	return modeMonth(txns)
}

func monthFromName(text string) (string, bool) {
	best := -1
	var bestMatch []string
	for _, re := range []*regexp.Regexp{thaiMonthPattern, englishMonthPattern} {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil || (best >= 0 && loc[0] >= best) {
			continue
		}
		best = loc[0]
		bestMatch = []string{text[loc[2]:loc[3]], text[loc[4]:loc[5]]}
	}
	if bestMatch == nil {
		return "", false
	}

	month := monthNames[strings.ToLower(bestMatch[0])]
	year := ToGregorian(atoi(bestMatch[1]))
	return fmt.Sprintf("%04d-%02d", year, month), true
}

// modeMonth returns the month with the most transactions; ties go to the
// latest month.
func modeMonth(txns []models.ParsedTransaction) string {
	counts := make(map[string]int)
	for _, t := range txns {
		counts[t.DateTime.Format("2006-01")]++
	}

	best, bestCount := "", 0
	for month, n := range counts {
		if n > bestCount || (n == bestCount && month > best) {
			best, bestCount = month, n
		}
	}
	return best
}

// accountPatterns are tried in order; the first match wins.
var accountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:account\s*(?:no\.?|number)|a/c\s*no\.?|เลขที่บัญชี|บัญชีเลขที่)\s*[:.]?\s*([0-9xX][0-9xX-]{8,}[0-9xX])`),
	regexp.MustCompile(`\b(\d{3}-\d-\d{5}-\d)\b`),
	regexp.MustCompile(`\b(\d{3}-\d{6}-\d)\b`),
	regexp.MustCompile(`\b(\d{10})\b`),
}

// DetectAccountNumber returns the first account-number-like digit group.
func DetectAccountNumber(text string) string {
	for _, re := range accountPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
