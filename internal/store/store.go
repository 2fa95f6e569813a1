// Package store keeps family categories, rules and imported fingerprints in
// memory. It is safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidCategory  = errors.New("invalid category")
)

type family struct {
	categories   []models.Category
	rules        []models.CategoryRule
	fingerprints map[string]struct{}
	files        map[string]struct{}
}

// Memory is an in-memory family store.
type Memory struct {
	mu       sync.RWMutex
	families map[string]*family
	now      func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		families: make(map[string]*family),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// familyLocked returns the family, creating it. Caller holds mu for writing.
func (m *Memory) familyLocked(id string) *family {
	f, ok := m.families[id]
	if !ok {
		f = &family{
			fingerprints: make(map[string]struct{}),
			files:        make(map[string]struct{}),
		}
		m.families[id] = f
	}
	return f
}

// FamilyConfig returns a copy of the family's categories and rules. An
// unknown family has an empty configuration.
func (m *Memory) FamilyConfig(_ context.Context, familyID string) (*models.FamilyConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg := &models.FamilyConfig{}
	if f, ok := m.families[familyID]; ok {
		cfg.Categories = append([]models.Category(nil), f.categories...)
		cfg.Rules = append([]models.CategoryRule(nil), f.rules...)
	}
	return cfg, nil
}

// SetFamilyConfig replaces the family's categories and rules.
func (m *Memory) SetFamilyConfig(familyID string, cfg models.FamilyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.familyLocked(familyID)
	f.categories = append([]models.Category(nil), cfg.Categories...)
	f.rules = append([]models.CategoryRule(nil), cfg.Rules...)
}

// AddCategory creates an active category and returns it.
func (m *Memory) AddCategory(familyID, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := models.Category{ID: uuid.NewString(), Name: name, Active: true}
	f := m.familyLocked(familyID)
	f.categories = append(f.categories, c)
	return c, nil
}

// AddRule validates and stores a rule, assigning its id and creation time.
func (m *Memory) AddRule(familyID string, r models.CategoryRule) (models.CategoryRule, error) {
	if !r.MatchType.Valid() {
		return models.CategoryRule{}, fmt.Errorf("%w: unknown match type %q", ErrInvalidRule, r.MatchType)
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return models.CategoryRule{}, fmt.Errorf("%w: pattern is required", ErrInvalidRule)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.familyLocked(familyID)
	found := false
	for _, c := range f.categories {
		if c.ID == r.CategoryID {
			found = true
			break
		}
	}
	if !found {
		return models.CategoryRule{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, r.CategoryID)
	}

	r.ID = uuid.NewString()
	r.CreatedAt = m.now()
	f.rules = append(f.rules, r)
	return r, nil
}

// KnownFingerprints returns the candidates already imported for the family,
// in candidate order.
func (m *Memory) KnownFingerprints(_ context.Context, familyID string, candidates []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.families[familyID]
	if !ok {
		return nil
	}
	var known []string
	for _, fp := range candidates {
		if _, dup := f.fingerprints[fp]; dup {
			known = append(known, fp)
		}
	}
	return known
}

// HasFile reports whether a file with this hash was imported before.
func (m *Memory) HasFile(_ context.Context, familyID, fileHash string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.families[familyID]
	if !ok {
		return false
	}
	_, seen := f.files[fileHash]
	return seen
}

// ImportResult summarizes one import.
type ImportResult struct {
	ImportID   string `json:"importId"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
}

// ImportTransactions records the fingerprints of txns and the file hash.
// Rows whose fingerprint is already known, including repeats within txns,
// count as duplicates.
func (m *Memory) ImportTransactions(_ context.Context, familyID, fileHash string, txns []models.ParsedTransaction) ImportResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := m.familyLocked(familyID)
	res := ImportResult{ImportID: uuid.NewString()}
	for _, t := range txns {
		if _, dup := f.fingerprints[t.Fingerprint]; dup {
			res.Duplicates++
			continue
		}
		f.fingerprints[t.Fingerprint] = struct{}{}
		res.Imported++
	}
	if fileHash != "" {
		f.files[fileHash] = struct{}{}
	}
	return res
}
