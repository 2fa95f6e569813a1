package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads text-based PDF statements with ledongthuc/pdf.
// Scanned statements without a text layer are reported as ErrUnreadable.
type PDFExtractor struct{}

// Extract opens the document, decrypting it with password when needed, and
// returns the text of all pages joined by newlines.
func (PDFExtractor) Extract(ctx context.Context, data []byte, password string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: PDF library crashed: %v", ErrUnreadable, r)
		}
	}()

	r, err := openReader(data, password)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("%w: PDF has no pages", ErrUnreadable)
	}

	// Row grouping first (best layout preservation), then coordinate-based
	// reconstruction, then whole-document plain text.
	pages := extractByRow(r, numPages)
	if !isReadableText(pages) {
		pages = extractByContent(r, numPages)
	}
	if !isReadableText(pages) {
		pages = []string{extractByReaderPlainText(r)}
	}
	if !isReadableText(pages) {
		return "", fmt.Errorf("%w: the PDF may be image-based or use custom font encodings", ErrUnreadable)
	}

	return strings.Join(pages, "\n"), nil
}

func openReader(data []byte, password string) (*pdf.Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadable)
	}

	tried := false
	prompt := func() string {
		if tried {
			return ""
		}
		tried = true
		return password
	}

	r, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), prompt)
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, pdf.ErrInvalidPassword) && password == "":
		return nil, ErrPasswordRequired
	case errors.Is(err, pdf.ErrInvalidPassword):
		return nil, ErrPasswordIncorrect
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
}

// textQuality returns the share of characters that are ASCII letters, digits,
// common punctuation, whitespace, or Thai script. Garbage from identity-encoded
// fonts scores low.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				(r >= 0x0E00 && r <= 0x0E7F) ||
				strings.ContainsRune(".,-/:;()'\"฿$%&@#!?+=*", r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear in virtually all bank statements, in English or Thai.
var commonWords = []string{
	"bank", "account", "balance", "date", "payment", "statement",
	"total", "amount", "credit", "debit", "transaction", "transfer",
	"withdrawal", "deposit", "page", "period",
	"บัญชี", "ยอดเงิน", "วันที่", "รายการ", "ถอน", "ฝาก", "โอน",
}

func containsCommonWords(pages []string) bool {
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// isReadableText requires more than 50 characters, over 60% readable
// characters, and at least one statement word.
func isReadableText(pages []string) bool {
	if totalTextLen(pages) <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to rebuild rows,
// then orders each row by X.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		// PDF Y grows upwards
		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var sb strings.Builder
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					sb.WriteString(" ")
				}
				sb.WriteString(item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(sb.String())
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func extractByReaderPlainText(r *pdf.Reader) string {
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func totalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
