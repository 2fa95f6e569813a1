package extractor

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExtractor decodes a delimited-text export. Thai bank exports that are
// not UTF-8 are decoded as Windows-874 (a TIS-620 superset).
type CSVExtractor struct{}

// Extract ignores password; CSV exports are never encrypted.
func (CSVExtractor) Extract(ctx context.Context, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := DecodeText(data)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnreadable)
	}
	return text, nil
}

// DecodeText returns data as a UTF-8 string without a byte order mark.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows874.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: decode Windows-874: %v", ErrUnreadable, err)
	}
	return string(out), nil
}
