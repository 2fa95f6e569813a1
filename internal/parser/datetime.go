package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadDate marks a date or time token that cannot be normalized.
var ErrBadDate = errors.New("unparseable date")

// buddhistEraOffset converts a Buddhist Era year to Gregorian.
const buddhistEraOffset = 543

// Years above this are treated as Buddhist Era.
const buddhistEraThreshold = 2500

var (
	dayFirstPattern  = regexp.MustCompile(`^(\d{1,2})([/-])(\d{1,2})([/-])(\d{2}|\d{4})$`)
	yearFirstPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	timePattern      = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?$`)
)

// civil is the carrier location for statement timestamps. Statements print
// local wall-clock time and no offset is ever applied.
var civil = time.UTC

// ParseDateTime normalizes statement date and optional time tokens.
// Day-first D/M/Y and D-M-Y, and year-first YYYY-MM-DD are accepted.
func ParseDateTime(dateToken, timeToken string) (time.Time, error) {
	year, month, day, err := parseDate(strings.TrimSpace(dateToken))
	if err != nil {
		return time.Time{}, err
	}

	var hour, minute, second int
	if tt := strings.TrimSpace(timeToken); tt != "" {
		if hour, minute, second, err = parseTime(tt); err != nil {
			return time.Time{}, err
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, civil), nil
}

func parseDate(token string) (year, month, day int, err error) {
	if m := dayFirstPattern.FindStringSubmatch(token); m != nil {
		if m[2] != m[4] {
			return 0, 0, 0, fmt.Errorf("%w: mixed separators in %q", ErrBadDate, token)
		}
		day, month, year = atoi(m[1]), atoi(m[3]), atoi(m[5])
		if len(m[5]) == 2 {
			year = expandTwoDigitYear(year)
		}
	} else if m := yearFirstPattern.FindStringSubmatch(token); m != nil {
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	} else {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrBadDate, token)
	}

	year = ToGregorian(year)
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, month) {
		return 0, 0, 0, fmt.Errorf("%w: %q out of range", ErrBadDate, token)
	}
	return year, month, day, nil
}

func parseTime(token string) (hour, minute, second int, err error) {
	m := timePattern.FindStringSubmatch(token)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: time %q", ErrBadDate, token)
	}
	hour, minute = atoi(m[1]), atoi(m[2])
	if m[3] != "" {
		second = atoi(m[3])
	}
	if hour > 23 || minute > 59 || second > 59 {
		return 0, 0, 0, fmt.Errorf("%w: time %q out of range", ErrBadDate, token)
	}
	return hour, minute, second, nil
}

// expandTwoDigitYear maps 51-99 to the 1900s and 00-50 to the 2000s.
func expandTwoDigitYear(y int) int {
	if y > 50 {
		return 1900 + y
	}
	return 2000 + y
}

// ToGregorian converts Buddhist Era years (above 2500) to Gregorian.
func ToGregorian(year int) int {
	if year > buddhistEraThreshold {
		return year - buddhistEraOffset
	}
	return year
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// atoi is only called on regexp-validated digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
