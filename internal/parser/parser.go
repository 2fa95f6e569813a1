// Package parser turns bank statement exports into expense transactions.
//
// A parse extracts text, recognizes transaction rows, drops inflows,
// normalizes dates, fingerprints each row and detects the statement month
// and account number. It holds no mutable state and is safe for concurrent use.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-ingest/internal/extractor"
	"github.com/insightdelivered/statement-ingest/internal/fingerprint"
	"github.com/insightdelivered/statement-ingest/internal/logger"
	"github.com/insightdelivered/statement-ingest/internal/models"
)

// Options describes one uploaded document.
type Options struct {
	Format   models.SourceFormat // empty sniffs the content
	Bank     models.BankFormat   // CSV layout; empty detects it
	Password string
}

// StatementParser is the ingestion entry point.
type StatementParser struct {
	pdf      extractor.Extractor
	csv      extractor.Extractor
	patterns *Patterns
}

// New returns a parser using the built-in extractors. A nil patterns uses
// the built-in tables.
func New(patterns *Patterns) *StatementParser {
	return NewWithExtractors(extractor.PDFExtractor{}, extractor.CSVExtractor{}, patterns)
}

// NewWithExtractors returns a parser using the given extractors.
func NewWithExtractors(pdf, csv extractor.Extractor, patterns *Patterns) *StatementParser {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &StatementParser{pdf: pdf, csv: csv, patterns: patterns}
}

// ParseFormat maps user input such as "PDF" or ".csv" to a SourceFormat.
func ParseFormat(s string) (models.SourceFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "":
		return "", nil
	case "pdf":
		return models.FormatPDF, nil
	case "csv", "txt":
		return models.FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported source format %q. Supported: pdf, csv", s)
}

// ParseBankFormat maps user input to a CSV layout.
func ParseBankFormat(s string) (models.BankFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "standard":
		return models.BankStandard, nil
	case "minimal":
		return models.BankMinimal, nil
	}
	return "", fmt.Errorf("%w: %q. Supported: standard, minimal", ErrUnknownBankFormat, s)
}

// Parse processes one document end to end. Failures are reported in the
// result, never as a partial batch.
func (p *StatementParser) Parse(ctx context.Context, data []byte, opts Options) (result *models.ParseResult) {
	log := logger.FromContext(ctx)
	result = &models.ParseResult{FileHash: fingerprint.File(data)}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("statement parse crashed")
			result = &models.ParseResult{
				FileHash:     fingerprint.File(data),
				ErrorCode:    models.ErrInternal,
				ErrorMessage: fmt.Sprintf("internal error while parsing statement: %v", rec),
			}
		}
	}()

	format := opts.Format
	if format == "" {
		format = sniffFormat(data)
	}

	var ext extractor.Extractor
	switch format {
	case models.FormatPDF:
		ext = p.pdf
	case models.FormatCSV:
		ext = p.csv
		if opts.Bank != "" && opts.Bank != models.BankStandard && opts.Bank != models.BankMinimal {
			return fail(result, models.ErrUnknownBankFormat, fmt.Sprintf("unknown bank format %q", opts.Bank))
		}
	default:
		return fail(result, models.ErrUnsupportedFormat, fmt.Sprintf("unsupported source format %q", format))
	}

	text, err := ext.Extract(ctx, data, opts.Password)
	if err != nil {
		log.Warn().Err(err).Str("format", string(format)).Msg("text extraction failed")
		return fail(result, extractionCode(err), err.Error())
	}

	var rows []RawRow
	if format == models.FormatPDF {
		rows = RecognizePDFLines(text, log)
	} else {
		records := ReadCSVRecords(text, log)
		bank := opts.Bank
		if bank == "" {
			bank = DetectBankFormat(records)
		}
		if rows, err = RecognizeCSVRows(records, bank, log); err != nil {
			return fail(result, models.ErrUnknownBankFormat, err.Error())
		}
	}

	result.RawRowCount = len(rows)
	txns := make([]models.ParsedTransaction, 0, len(rows))
	depositOnly := 0
	for _, row := range rows {
		if p.patterns.Classify(row.Text+" "+row.TypeText) == Inflow {
			result.FilteredOutCount++
			continue
		}
		if row.Deposit {
			// Money-in column with no inflow phrase: kept, but worth a look.
			depositOnly++
			log.Debug().Int("line", row.Line).Str("text", row.Text).Msg("keeping deposit-only row as expense")
		}
		txns = append(txns, p.buildTransaction(row))
	}
	SortTransactions(txns)

	result.Transactions = txns
	result.StatementMonth = DetectStatementMonth(text, txns)
	result.AccountNumber = DetectAccountNumber(text)

	log.Info().
		Str("format", string(format)).
		Int("raw_rows", result.RawRowCount).
		Int("filtered_out", result.FilteredOutCount).
		Int("transactions", len(txns)).
		Int("deposit_only_kept", depositOnly).
		Str("statement_month", result.StatementMonth).
		Msg("statement parsed")

	if len(txns) == 0 {
		return fail(result, models.ErrNoTransactions, "no expense transactions found in document")
	}
	result.Success = true
	return result
}

func (p *StatementParser) buildTransaction(row RawRow) models.ParsedTransaction {
	desc := cleanDescription(row.Text)
	if desc == EmptyDescription && row.TypeText != "" {
		desc = cleanDescription(row.TypeText)
	}

	channel := models.DefaultChannel
	if c, ok := p.patterns.Channel(row.ChannelText); ok {
		channel = c
	} else if row.ChannelText != "" {
		channel = row.ChannelText
	} else if c, ok := p.patterns.Channel(row.Text); ok {
		channel = c
	}

	itemType := models.ItemOther
	if t, ok := p.patterns.ItemType(row.TypeText); ok {
		itemType = t
	} else if t, ok := p.patterns.ItemType(row.Text); ok {
		itemType = t
	}

	return models.ParsedTransaction{
		DateTime:       row.DateTime,
		Amount:         row.Amount,
		ItemType:       itemType,
		Channel:        channel,
		DescriptionRaw: desc,
		Fingerprint:    fingerprint.Transaction(row.DateTime, row.Amount, channel, desc),
	}
}

// SortTransactions orders txns newest first. Equal timestamps are ordered
// by fingerprint so the result does not depend on input order.
func SortTransactions(txns []models.ParsedTransaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].DateTime.Equal(txns[j].DateTime) {
			return txns[i].DateTime.After(txns[j].DateTime)
		}
		return txns[i].Fingerprint < txns[j].Fingerprint
	})
}

func sniffFormat(data []byte) models.SourceFormat {
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF")) {
		return models.FormatPDF
	}
	return models.FormatCSV
}

func extractionCode(err error) models.ErrorCode {
	switch {
	case errors.Is(err, extractor.ErrPasswordRequired):
		return models.ErrPasswordRequired
	case errors.Is(err, extractor.ErrPasswordIncorrect):
		return models.ErrPasswordIncorrect
	case errors.Is(err, extractor.ErrUnreadable):
		return models.ErrUnreadable
	}
	return models.ErrInternal
}

func fail(result *models.ParseResult, code models.ErrorCode, msg string) *models.ParseResult {
	result.Success = false
	result.ErrorCode = code
	result.ErrorMessage = msg
	return result
}
