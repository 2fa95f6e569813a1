package parser

import (
	"testing"
	"time"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

func txnAt(year int, month time.Month, day int) models.ParsedTransaction {
	return models.ParsedTransaction{DateTime: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func TestDetectStatementMonth(t *testing.T) {
	someJanuary := []models.ParsedTransaction{txnAt(2024, 1, 3), txnAt(2024, 1, 9)}

	tests := []struct {
		name     string
		text     string
		txns     []models.ParsedTransaction
		expected string
	}{
		{"thai full name BE", "รายการเดินบัญชีประจำเดือนมีนาคม 2567", nil, "2024-03"},
		{"thai abbreviation", "งวด ก.พ. 2567", nil, "2024-02"},
		{"english full name", "Statement for January 2024", nil, "2024-01"},
		{"english abbreviation", "Period: Sep. 2023", nil, "2023-09"},
		{"earliest name wins", "December 2023 ... มกราคม 2567", nil, "2023-12"},
		{"date range", "Period 01/02/2567 - 29/02/2567", nil, "2024-02"},
		{"date range thai", "ตั้งแต่ 15/01/2024 ถึง 14/02/2024", nil, "2024-01"},
		{"mode fallback", "no header here", []models.ParsedTransaction{
			txnAt(2024, 1, 31), txnAt(2024, 2, 1), txnAt(2024, 2, 2),
		}, "2024-02"},
		{"mode tie goes to latest", "", []models.ParsedTransaction{
			txnAt(2024, 1, 31), txnAt(2024, 2, 1),
		}, "2024-02"},
		{"name beats transactions", "March 2024", someJanuary, "2024-03"},
		{"nothing", "", nil, ""},
		{"word without year", "summary of may payments", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectStatementMonth(tt.text, tt.txns)
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDetectAccountNumber(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"thai label", "เลขที่บัญชี: 123-4-56789-0", "123-4-56789-0"},
		{"english label masked", "Account No. xxx-x-x1234-x", "xxx-x-x1234-x"},
		{"dashed without label", "ออมทรัพย์ 987-6-54321-0 สาขาสีลม", "987-6-54321-0"},
		{"three six one", "A/C 111-222333-4", "111-222333-4"},
		{"ten digits", "acct 1234567890 savings", "1234567890"},
		{"labeled wins over earlier digits", "ref 5555555555\nAccount Number: 222-3-44444-5", "222-3-44444-5"},
		{"none", "no numbers here 12345", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectAccountNumber(tt.text); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
