package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType is the coarse kind of a statement line.
type ItemType string

const (
	ItemTransfer    ItemType = "TRANSFER"
	ItemPayment     ItemType = "PAYMENT"
	ItemWithdrawal  ItemType = "WITHDRAWAL"
	ItemPurchase    ItemType = "PURCHASE"
	ItemBillPayment ItemType = "BILL_PAYMENT"
	ItemOther       ItemType = "OTHER"
)

// DefaultChannel is used when no channel pattern matches.
const DefaultChannel = "Other"

// ParsedTransaction is one expense line recognized in a statement.
// It is never mutated after the parser returns it.
type ParsedTransaction struct {
	// DateTime is the printed civil date and time. The location carries no
	// meaning; only the wall clock fields are used.
	DateTime       time.Time
	Amount         decimal.Decimal // always positive, two decimal places
	ItemType       ItemType
	Channel        string
	DescriptionRaw string
	Fingerprint    string
}

// SourceFormat is the kind of document uploaded.
type SourceFormat string

const (
	FormatPDF SourceFormat = "pdf"
	FormatCSV SourceFormat = "csv"
)

// BankFormat selects the CSV column layout.
type BankFormat string

const (
	// BankStandard is the 8-column export:
	// date, time, type, channel, description, withdrawal, deposit, balance.
	BankStandard BankFormat = "standard"
	// BankMinimal is the 4-6 column export:
	// date[ time], description, withdrawal, deposit[, balance[, channel]].
	BankMinimal BankFormat = "minimal"
)

// ErrorCode is a structured failure reason callers branch on.
type ErrorCode string

const (
	ErrPasswordRequired  ErrorCode = "PASSWORD_REQUIRED"
	ErrPasswordIncorrect ErrorCode = "PASSWORD_INCORRECT"
	ErrUnreadable        ErrorCode = "UNREADABLE_DOCUMENT"
	ErrUnknownBankFormat ErrorCode = "UNKNOWN_BANK_FORMAT"
	ErrNoTransactions    ErrorCode = "NO_TRANSACTIONS"
	ErrUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// ParseResult is the outcome of parsing one document.
type ParseResult struct {
	Success        bool
	Transactions   []ParsedTransaction
	StatementMonth string // YYYY-MM, empty when unknown
	AccountNumber  string
	FileHash       string
	ErrorCode      ErrorCode
	ErrorMessage   string

	RawRowCount      int
	FilteredOutCount int
}
