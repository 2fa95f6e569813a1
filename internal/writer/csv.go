package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/statement-ingest/internal/fingerprint"
	"github.com/insightdelivered/statement-ingest/internal/models"
)

// CSVWriter writes parsed transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// Statement is what gets written: one parse result, optionally with the
// category decided for each transaction (index-aligned).
type Statement struct {
	Result     *models.ParseResult
	Categories []models.CategorizeResult
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, st Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, st); err != nil {
		return err
	}
	return f.Close()
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, st Statement) error {
	if st.Result == nil {
		return fmt.Errorf("no parse result to write")
	}
	if st.Categories != nil && len(st.Categories) != len(st.Result.Transactions) {
		return fmt.Errorf("got %d categories for %d transactions", len(st.Categories), len(st.Result.Transactions))
	}

	writer := csv.NewWriter(out)
	info := st.Result

	// Write metadata as comments (CSV header rows)
	if w.IncludeHeader {
		if info.StatementMonth != "" {
			writer.Write([]string{"# Statement Month", info.StatementMonth})
		}
		if info.AccountNumber != "" {
			writer.Write([]string{"# Account Number", info.AccountNumber})
		}
		if info.FileHash != "" {
			writer.Write([]string{"# File Hash", info.FileHash})
		}
	}

	header := []string{"DateTime", "Amount", "ItemType", "Channel", "Description", "Fingerprint"}
	if st.Categories != nil {
		header = append(header, "CategoryID", "CategorySource")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, txn := range info.Transactions {
		row := []string{
			txn.DateTime.Format(fingerprint.TimestampLayout),
			txn.Amount.StringFixed(2),
			string(txn.ItemType),
			txn.Channel,
			txn.DescriptionRaw,
			txn.Fingerprint,
		}
		if st.Categories != nil {
			row = append(row, st.Categories[i].CategoryID, string(st.Categories[i].Source))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
