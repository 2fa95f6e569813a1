// Package api exposes statement parsing, import and categorization over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/statement-ingest/internal/categorizer"
	"github.com/insightdelivered/statement-ingest/internal/logger"
	"github.com/insightdelivered/statement-ingest/internal/models"
	"github.com/insightdelivered/statement-ingest/internal/parser"
	"github.com/insightdelivered/statement-ingest/internal/store"
)

const Version = "2.0.0"

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Parser *parser.StatementParser
	Engine *categorizer.Engine
	Store  *store.Memory
	Log    zerolog.Logger
}

// NewHandler wires a handler over a store. Nil parser or hints use the
// built-in tables.
func NewHandler(p *parser.StatementParser, st *store.Memory, hints *categorizer.Hints, log zerolog.Logger) *Handler {
	if p == nil {
		p = parser.New(nil)
	}
	return &Handler{
		Parser: p,
		Engine: categorizer.NewEngine(st, hints),
		Store:  st,
		Log:    log,
	}
}

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *Handler, maxUploadBytes int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "statement-ingest " + Version,
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(h.Log))
	app.Use(fiberrecover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/parse", h.HandleParse)
	api.Post("/import", h.HandleImport)
	api.Post("/categorize", h.HandleCategorize)

	fam := api.Group("/families/:familyId")
	fam.Get("/config", h.HandleFamilyConfig)
	fam.Post("/categories", h.HandleAddCategory)
	fam.Post("/rules", h.HandleAddRule)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleParse previews one uploaded statement. Form fields: file (required),
// password, format, bank, familyId. With a familyId, rows and the file are
// marked when they were imported before.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}

	formatParam := c.FormValue("format")
	if formatParam == "" {
		// The extension is only a hint; unknown ones fall back to sniffing.
		if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext == ".pdf" || ext == ".csv" {
			formatParam = ext
		}
	}
	format, err := parser.ParseFormat(formatParam)
	if err != nil {
		return writeParseFailure(c, models.ErrUnsupportedFormat, err.Error())
	}
	bank, err := parser.ParseBankFormat(c.FormValue("bank"))
	if err != nil {
		return writeParseFailure(c, models.ErrUnknownBankFormat, err.Error())
	}

	ctx := logger.WithContext(c.UserContext(), h.requestLog(c))
	result := h.Parser.Parse(ctx, data, parser.Options{
		Format:   format,
		Bank:     bank,
		Password: c.FormValue("password"),
	})
	if !result.Success {
		return writeParseFailure(c, result.ErrorCode, result.ErrorMessage)
	}

	resp := ParseResponse{
		Success:          true,
		StatementMonth:   result.StatementMonth,
		AccountNumber:    result.AccountNumber,
		FileHash:         result.FileHash,
		RawRowCount:      result.RawRowCount,
		FilteredOutCount: result.FilteredOutCount,
		Count:            len(result.Transactions),
		Transactions:     make([]TransactionRecord, 0, len(result.Transactions)),
	}

	known := map[string]bool{}
	if familyID := c.FormValue("familyId"); familyID != "" {
		fps := make([]string, len(result.Transactions))
		for i, t := range result.Transactions {
			fps[i] = t.Fingerprint
		}
		for _, fp := range h.Store.KnownFingerprints(ctx, familyID, fps) {
			known[fp] = true
		}
		resp.DuplicateFile = h.Store.HasFile(ctx, familyID, result.FileHash)
	}
	for _, t := range result.Transactions {
		rec := NewTransactionRecord(t)
		rec.Duplicate = known[t.Fingerprint]
		resp.Transactions = append(resp.Transactions, rec)
	}
	return c.JSON(resp)
}

// HandleImport records previewed transactions for a family.
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	var req ImportRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.FamilyID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "familyId is required")
	}

	txns := make([]models.ParsedTransaction, 0, len(req.Transactions))
	for i, rec := range req.Transactions {
		t, err := rec.Transaction()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("transactions[%d]: %v", i, err))
		}
		txns = append(txns, t)
	}

	res := h.Store.ImportTransactions(c.UserContext(), req.FamilyID, req.FileHash, txns)
	log := h.requestLog(c)
	log.Info().
		Str("family_id", req.FamilyID).
		Str("import_id", res.ImportID).
		Int("imported", res.Imported).
		Int("duplicates", res.Duplicates).
		Msg("transactions imported")
	return c.JSON(ImportResponse{Success: true, ImportResult: res})
}

// HandleCategorize runs the batch categorizer for a family.
func (h *Handler) HandleCategorize(c *fiber.Ctx) error {
	var req CategorizeRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if req.FamilyID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "familyId is required")
	}

	results, err := h.Engine.CategorizeBatch(c.UserContext(), req.FamilyID, toInputs(req.Transactions))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	resp := CategorizeResponse{Success: true, Results: make([]CategorizeRecord, len(results))}
	for i, r := range results {
		resp.Results[i] = CategorizeRecord{CategoryID: r.CategoryID, Source: r.Source, Explanation: r.Explanation}
	}
	return c.JSON(resp)
}

func (h *Handler) HandleFamilyConfig(c *fiber.Ctx) error {
	cfg, err := h.Store.FamilyConfig(c.UserContext(), c.Params("familyId"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	categories, rules := cfg.Categories, cfg.Rules
	if categories == nil {
		categories = []models.Category{}
	}
	if rules == nil {
		rules = []models.CategoryRule{}
	}
	return c.JSON(fiber.Map{"categories": categories, "rules": rules})
}

func (h *Handler) HandleAddCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	cat, err := h.Store.AddCategory(c.Params("familyId"), req.Name)
	if err != nil {
		return storeError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *Handler) HandleAddRule(c *fiber.Ctx) error {
	var req RuleRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	enabled := req.Enabled == nil || *req.Enabled
	rule, err := h.Store.AddRule(c.Params("familyId"), models.CategoryRule{
		CategoryID: req.CategoryID,
		Pattern:    req.Pattern,
		MatchType:  models.MatchType(strings.ToUpper(string(req.MatchType))),
		Channel:    req.Channel,
		Priority:   req.Priority,
		Enabled:    enabled,
	})
	if err != nil {
		return storeError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (h *Handler) requestLog(c *fiber.Ctx) zerolog.Logger {
	id, _ := c.Locals("requestid").(string)
	return h.Log.With().Str("request_id", id).Logger()
}

func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrCategoryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidRule), errors.Is(err, store.ErrInvalidCategory):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// statusFor maps a parse failure to an HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.ErrUnsupportedFormat, models.ErrUnknownBankFormat:
		return fiber.StatusBadRequest
	case models.ErrPasswordRequired, models.ErrPasswordIncorrect:
		return fiber.StatusUnauthorized
	case models.ErrInternal:
		return fiber.StatusInternalServerError
	}
	return fiber.StatusUnprocessableEntity
}

func writeParseFailure(c *fiber.Ctx, code models.ErrorCode, msg string) error {
	return c.Status(statusFor(code)).JSON(ParseResponse{
		Success:      false,
		ErrorCode:    code,
		Error:        msg,
		Transactions: []TransactionRecord{},
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{Success: false, Error: err.Error()})
}

// requestLogger writes one line per request once the handler chain and the
// error handler have run.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		id, _ := c.Locals("requestid").(string)
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().AnErr("error", chainErr)
		}
		ev.Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.IP()).
			Msg("HTTP request")
		return nil
	}
}
