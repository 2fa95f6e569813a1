package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

func sampleResult() *models.ParseResult {
	return &models.ParseResult{
		Success:        true,
		StatementMonth: "2024-01",
		AccountNumber:  "123-4-56789-0",
		FileHash:       "abc123",
		Transactions: []models.ParsedTransaction{
			{
				DateTime:       time.Date(2024, 1, 17, 12, 15, 30, 0, time.UTC),
				Amount:         decimal.RequireFromString("300"),
				ItemType:       models.ItemTransfer,
				Channel:        "ATM",
				DescriptionRaw: `ร้าน "ป้าแดง"`,
				Fingerprint:    "fp-1",
			},
			{
				DateTime:       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
				Amount:         decimal.RequireFromString("120.5"),
				ItemType:       models.ItemPayment,
				Channel:        "Mobile App",
				DescriptionRaw: "7-ELEVEN, สาขา 123",
				Fingerprint:    "fp-2",
			},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, Statement{Result: sampleResult()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Statement Month,2024-01") {
		t.Error("expected statement month metadata")
	}
	if !strings.Contains(output, "# Account Number,123-4-56789-0") {
		t.Error("expected account number metadata")
	}
	if !strings.Contains(output, "DateTime,Amount,ItemType,Channel,Description,Fingerprint\n") {
		t.Error("expected column headers")
	}
	if !strings.Contains(output, `2024-01-17T12:15:30,300.00,TRANSFER,ATM,"ร้าน ""ป้าแดง""",fp-1`) {
		t.Errorf("expected quoted first row, got:\n%s", output)
	}
	if !strings.Contains(output, `"7-ELEVEN, สาขา 123"`) {
		t.Error("expected comma in description to be quoted")
	}
	if !strings.Contains(output, ",120.50,") {
		t.Error("amounts are written with two decimals")
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 3 metadata lines + 1 header + 2 transactions = 6
	if len(lines) != 6 {
		t.Errorf("expected 6 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, Statement{Result: sampleResult()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "#") {
		t.Error("should not contain metadata headers when IncludeHeader=false")
	}
	if !strings.HasPrefix(output, "DateTime,") {
		t.Error("expected column headers first")
	}
}

func TestCSVWriter_WithCategories(t *testing.T) {
	st := Statement{
		Result: sampleResult(),
		Categories: []models.CategorizeResult{
			{CategoryID: "cat-1", Source: models.SourceRule},
			{Source: models.SourceNone},
		},
	}

	var buf bytes.Buffer
	if err := (&CSVWriter{}).Write(&buf, st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, ",CategoryID,CategorySource\n") {
		t.Error("expected category columns")
	}
	if !strings.Contains(output, "fp-1,cat-1,RULE\n") || !strings.Contains(output, "fp-2,,NONE\n") {
		t.Errorf("unexpected category cells:\n%s", output)
	}

	st.Categories = st.Categories[:1]
	if err := (&CSVWriter{}).Write(&bytes.Buffer{}, st); err == nil {
		t.Error("expected error for misaligned categories")
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (&CSVWriter{IncludeHeader: true}).WriteToFile(path, Statement{Result: sampleResult()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Statement Month") {
		t.Errorf("unexpected file content:\n%s", data)
	}
}
