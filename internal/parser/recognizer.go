package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

// RawRow is a recognized statement row before flow classification.
type RawRow struct {
	Line     int
	DateTime time.Time
	Amount   decimal.Decimal
	// Deposit is set when only the money-in column carried an amount.
	Deposit bool
	Text    string
	// Explicit column values from layouts that carry them.
	TypeText    string
	ChannelText string
}

// pdfRowPattern matches "DATE [TIME] REST" where REST starts with the amount.
//
//	"15/01/2567 10:30 1,250.00 5,320.75 K PLUS ชำระเงิน 7-ELEVEN"
//	"2024-01-15 89.00 NETFLIX.COM"
var pdfRowPattern = regexp.MustCompile(
	`^(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2})` +
		`(?:\s+(\d{1,2}[:.]\d{2}(?:[:.]\d{2})?))?` +
		`\s+(.+)$`,
)

// amountPattern matches a money token with exactly two decimals.
var amountPattern = regexp.MustCompile(`(?:^|\s)-?฿?((?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})(?:\s|$)`)

// RecognizePDFLines scans extracted text line by line. Lines that do not
// look like transactions are skipped silently.
func RecognizePDFLines(text string, log zerolog.Logger) []RawRow {
	var rows []RawRow
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		m := pdfRowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		ts, err := ParseDateTime(m[1], m[2])
		if err != nil {
			log.Debug().Int("line", i+1).Err(err).Msg("skipping row with bad date")
			continue
		}

		amount, rest, ok := takeAmounts(m[3])
		if !ok {
			log.Debug().Int("line", i+1).Msg("skipping row without a positive amount")
			continue
		}

		rows = append(rows, RawRow{
			Line:     i + 1,
			DateTime: ts,
			Amount:   amount,
			Text:     rest,
		})
	}
	return rows
}

// takeAmounts returns the first positive amount in s and s with every
// amount token (the running balance included) removed.
func takeAmounts(s string) (decimal.Decimal, string, bool) {
	var amount decimal.Decimal
	found := false

	// Tokens are separated by single spaces so adjacent amounts each match.
	padded := " " + strings.Join(strings.Fields(s), "  ") + " "
	for _, loc := range amountPattern.FindAllStringSubmatchIndex(padded, -1) {
		if found {
			break
		}
		d, err := parseAmount(padded[loc[2]:loc[3]])
		if err == nil && d.IsPositive() {
			amount, found = d, true
		}
	}
	if !found {
		return decimal.Zero, "", false
	}

	rest := amountPattern.ReplaceAllString(padded, "  ")
	return amount, strings.Join(strings.Fields(rest), " "), true
}

// Column positions of the standard 8-field export.
const (
	stdDate = iota
	stdTime
	stdType
	stdChannel
	stdDescription
	stdWithdrawal
	stdDeposit
	stdBalance
	stdFieldCount
)

// Column positions of the minimal 4-6 field export.
const (
	minDateTime = iota
	minDescription
	minWithdrawal
	minDeposit
	minBalance
	minChannel
)

const minFieldCount = 4

// ErrUnknownBankFormat is returned for a layout hint that is neither
// standard nor minimal.
var ErrUnknownBankFormat = errors.New("unknown bank format")

// ReadCSVRecords splits text into records. Quoted fields may contain commas,
// and "" escapes a literal quote. Malformed lines are skipped.
func ReadCSVRecords(text string, log zerolog.Logger) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Debug().Err(err).Msg("skipping malformed CSV line")
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		records = append(records, rec)
	}
	return records
}

// DetectBankFormat picks the layout from the first data row: eight or more
// fields select the standard layout, anything else the minimal one.
func DetectBankFormat(records [][]string) models.BankFormat {
	for _, rec := range records {
		if len(rec) < minFieldCount {
			continue
		}
		date, _ := splitDateTime(rec[0])
		if _, err := ParseDateTime(date, ""); err != nil {
			continue
		}
		if len(rec) >= stdFieldCount {
			return models.BankStandard
		}
		return models.BankMinimal
	}
	return models.BankMinimal
}

// RecognizeCSVRows converts records of the given layout into raw rows.
// Header rows fail the date check and are skipped like any bad row.
func RecognizeCSVRows(records [][]string, format models.BankFormat, log zerolog.Logger) ([]RawRow, error) {
	var recognize func([]string) (RawRow, error)
	switch format {
	case models.BankStandard:
		recognize = recognizeStandard
	case models.BankMinimal:
		recognize = recognizeMinimal
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBankFormat, format)
	}

	var rows []RawRow
	for i, rec := range records {
		if len(rec) < minFieldCount {
			continue
		}
		row, err := recognize(rec)
		if err != nil {
			log.Debug().Int("line", i+1).Err(err).Msg("skipping CSV row")
			continue
		}
		row.Line = i + 1
		rows = append(rows, row)
	}
	return rows, nil
}

var errNoAmount = errors.New("no positive amount")

func recognizeStandard(rec []string) (RawRow, error) {
	if len(rec) < stdFieldCount {
		return RawRow{}, fmt.Errorf("standard layout needs %d fields, got %d", stdFieldCount, len(rec))
	}
	ts, err := ParseDateTime(rec[stdDate], rec[stdTime])
	if err != nil {
		return RawRow{}, err
	}
	amount, deposit, err := resolveAmount(rec[stdWithdrawal], rec[stdDeposit])
	if err != nil {
		return RawRow{}, err
	}
	return RawRow{
		DateTime:    ts,
		Amount:      amount,
		Deposit:     deposit,
		Text:        rec[stdDescription],
		TypeText:    rec[stdType],
		ChannelText: rec[stdChannel],
	}, nil
}

func recognizeMinimal(rec []string) (RawRow, error) {
	date, clock := splitDateTime(rec[minDateTime])
	ts, err := ParseDateTime(date, clock)
	if err != nil {
		return RawRow{}, err
	}
	amount, deposit, err := resolveAmount(rec[minWithdrawal], rec[minDeposit])
	if err != nil {
		return RawRow{}, err
	}
	row := RawRow{
		DateTime: ts,
		Amount:   amount,
		Deposit:  deposit,
		Text:     rec[minDescription],
	}
	if len(rec) > minChannel {
		row.ChannelText = rec[minChannel]
	}
	return row, nil
}

// resolveAmount prefers the withdrawal column; a deposit-only row is
// returned with deposit set so flow classification can drop it.
func resolveAmount(withdrawal, deposit string) (decimal.Decimal, bool, error) {
	w, werr := parseAmount(withdrawal)
	if werr == nil && w.IsPositive() {
		return w, false, nil
	}
	d, derr := parseAmount(deposit)
	if derr == nil && d.IsPositive() {
		return d, true, nil
	}
	return decimal.Zero, false, errNoAmount
}

// splitDateTime separates "15/01/2024 10:30" into its date and time parts.
func splitDateTime(field string) (string, string) {
	parts := strings.Fields(field)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], parts[1]
	}
}
