// Package fingerprint derives stable identities for statement rows and
// uploaded files so re-imports can be detected.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the civil ISO-8601 form hashed into a fingerprint.
const TimestampLayout = "2006-01-02T15:04:05"

const delimiter = "|"

// Transaction returns the hex SHA-256 of timestamp, amount, channel and the
// normalized description. Rows that differ only in case, whitespace or
// punctuation share a fingerprint.
func Transaction(dateTime time.Time, amount decimal.Decimal, channel, description string) string {
	payload := strings.Join([]string{
		dateTime.Format(TimestampLayout),
		amount.StringFixed(2),
		channel,
		NormalizeDescription(description),
	}, delimiter)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// File returns the hex SHA-256 of the raw document bytes.
func File(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NormalizeDescription lowercases s, drops everything except Thai script,
// ASCII letters and digits and whitespace, then collapses whitespace runs.
func NormalizeDescription(s string) string {
	s = strings.ToLower(s)
	kept := strings.Map(func(r rune) rune {
		switch {
		case isThai(r), r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(kept), " ")
}

func isThai(r rune) bool {
	return r >= 0x0E00 && r <= 0x0E7F
}
