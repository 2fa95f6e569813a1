package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-ingest/internal/categorizer"
	"github.com/insightdelivered/statement-ingest/internal/fingerprint"
	"github.com/insightdelivered/statement-ingest/internal/models"
	"github.com/insightdelivered/statement-ingest/internal/store"
)

// TransactionRecord is the wire form of a parsed transaction. DateTime is
// civil ISO-8601 without offset and Amount a two-decimal string.
type TransactionRecord struct {
	DateTime    string          `json:"dateTime"`
	Amount      string          `json:"amount"`
	ItemType    models.ItemType `json:"itemType"`
	Channel     string          `json:"channel"`
	Description string          `json:"description"`
	Fingerprint string          `json:"fingerprint"`
	Duplicate   bool            `json:"duplicate,omitempty"`
}

// NewTransactionRecord converts a parsed transaction for the wire.
func NewTransactionRecord(t models.ParsedTransaction) TransactionRecord {
	return TransactionRecord{
		DateTime:    t.DateTime.Format(fingerprint.TimestampLayout),
		Amount:      t.Amount.StringFixed(2),
		ItemType:    t.ItemType,
		Channel:     t.Channel,
		Description: t.DescriptionRaw,
		Fingerprint: t.Fingerprint,
	}
}

// Transaction converts the record back. The fingerprint is recomputed from
// the fields and must match the one supplied, if any.
func (r TransactionRecord) Transaction() (models.ParsedTransaction, error) {
	dt, err := time.Parse(fingerprint.TimestampLayout, r.DateTime)
	if err != nil {
		return models.ParsedTransaction{}, fmt.Errorf("invalid dateTime %q", r.DateTime)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || !amount.IsPositive() {
		return models.ParsedTransaction{}, fmt.Errorf("invalid amount %q", r.Amount)
	}
	amount = amount.Round(2)

	channel := r.Channel
	if channel == "" {
		channel = models.DefaultChannel
	}
	itemType := r.ItemType
	if itemType == "" {
		itemType = models.ItemOther
	}

	fp := fingerprint.Transaction(dt, amount, channel, r.Description)
	if r.Fingerprint != "" && r.Fingerprint != fp {
		return models.ParsedTransaction{}, fmt.Errorf("fingerprint does not match transaction fields")
	}
	return models.ParsedTransaction{
		DateTime:       dt,
		Amount:         amount,
		ItemType:       itemType,
		Channel:        channel,
		DescriptionRaw: r.Description,
		Fingerprint:    fp,
	}, nil
}

// ParseResponse is the JSON response from /api/parse.
type ParseResponse struct {
	Success          bool                `json:"success"`
	ErrorCode        models.ErrorCode    `json:"errorCode,omitempty"`
	Error            string              `json:"error,omitempty"`
	StatementMonth   string              `json:"statementMonth,omitempty"`
	AccountNumber    string              `json:"accountNumber,omitempty"`
	FileHash         string              `json:"fileHash,omitempty"`
	DuplicateFile    bool                `json:"duplicateFile"`
	RawRowCount      int                 `json:"rawRowCount"`
	FilteredOutCount int                 `json:"filteredOutCount"`
	Count            int                 `json:"count"`
	Transactions     []TransactionRecord `json:"transactions"`
}

// ImportRequest commits a previewed parse for a family.
type ImportRequest struct {
	FamilyID     string              `json:"familyId"`
	FileHash     string              `json:"fileHash"`
	Transactions []TransactionRecord `json:"transactions"`
}

// ImportResponse is the JSON response from /api/import.
type ImportResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	store.ImportResult
}

// CategorizeItem is one transaction to categorize.
type CategorizeItem struct {
	Description string          `json:"description"`
	Channel     string          `json:"channel"`
	ItemType    models.ItemType `json:"itemType"`
}

// CategorizeRequest asks for categories of a batch of transactions.
type CategorizeRequest struct {
	FamilyID     string           `json:"familyId"`
	Transactions []CategorizeItem `json:"transactions"`
}

// CategorizeRecord is the wire form of one decision.
type CategorizeRecord struct {
	CategoryID  string             `json:"categoryId,omitempty"`
	Source      models.MatchSource `json:"source"`
	Explanation string             `json:"explanation"`
}

// CategorizeResponse is the JSON response from /api/categorize.
type CategorizeResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Results []CategorizeRecord `json:"results"`
}

// CategoryRequest creates a category.
type CategoryRequest struct {
	Name string `json:"name"`
}

// RuleRequest creates a categorization rule.
type RuleRequest struct {
	CategoryID string           `json:"categoryId"`
	Pattern    string           `json:"pattern"`
	MatchType  models.MatchType `json:"matchType"`
	Channel    string           `json:"channel"`
	Priority   int              `json:"priority"`
	Enabled    *bool            `json:"enabled"` // defaults to true
}

// ErrorResponse is the body of every non-parse failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func toInputs(items []CategorizeItem) []categorizer.Input {
	ins := make([]categorizer.Input, len(items))
	for i, it := range items {
		ins[i] = categorizer.Input{Description: it.Description, Channel: it.Channel, ItemType: it.ItemType}
	}
	return ins
}

// decodeJSON decodes the request body strictly into v.
func decodeJSON(c *fiber.Ctx, v any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
