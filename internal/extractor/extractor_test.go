package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDecodeText_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("วันที่,รายการ\n")...)
	got, err := DecodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "วันที่,รายการ\n" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeText_Windows874(t *testing.T) {
	// "โอน" in TIS-620 / Windows-874
	data := []byte{0xE2, 0xCD, 0xB9, ',', '1', '0', '0'}
	got, err := DecodeText(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "โอน,100" {
		t.Errorf("got %q, want %q", got, "โอน,100")
	}
}

func TestCSVExtractor_Empty(t *testing.T) {
	_, err := CSVExtractor{}.Extract(context.Background(), []byte("  \n"), "")
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestPDFExtractor_NotAPDF(t *testing.T) {
	_, err := PDFExtractor{}.Extract(context.Background(), []byte("definitely not a pdf document"), "")
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestPDFExtractor_Empty(t *testing.T) {
	_, err := PDFExtractor{}.Extract(context.Background(), nil, "")
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("expected ErrUnreadable, got %v", err)
	}
}

func TestIsReadableText(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  bool
	}{
		{"too short", []string{"Balance 10.00"}, false},
		{"english statement", []string{strings.Repeat("Statement date 01/01/2024 balance 100.00\n", 3)}, true},
		{"thai statement", []string{strings.Repeat("วันที่ 01/01/2567 รายการ โอนเงิน 100.00\n", 3)}, true},
		{"garbage", []string{strings.Repeat("éÃ©þð", 30)}, false},
		{"no statement words", []string{strings.Repeat("lorem ipsum dolor sit amet ", 4)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isReadableText(tt.pages); got != tt.want {
				t.Errorf("isReadableText: got %v, want %v", got, tt.want)
			}
		})
	}
}
