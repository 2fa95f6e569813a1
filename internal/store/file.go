package store

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

// fileEpoch stamps rules from a family file. Later entries are newer, so
// equal-priority ties go to the rule written further down.
var fileEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type categoryEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
}

type ruleEntry struct {
	ID         string           `yaml:"id"`
	CategoryID string           `yaml:"categoryId"`
	Pattern    string           `yaml:"pattern"`
	MatchType  models.MatchType `yaml:"matchType"`
	Channel    string           `yaml:"channel"`
	Priority   int              `yaml:"priority"`
	Enabled    *bool            `yaml:"enabled"`
}

type familyFile struct {
	Categories []categoryEntry `yaml:"categories"`
	Rules      []ruleEntry     `yaml:"rules"`
}

// LoadFamilyConfigFile reads a family's categories and rules from YAML.
func LoadFamilyConfigFile(path string) (models.FamilyConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FamilyConfig{}, fmt.Errorf("failed to open family config %q: %w", path, err)
	}
	defer f.Close()
	return LoadFamilyConfig(f)
}

// LoadFamilyConfig decodes categories and rules. Active and enabled default
// to true; missing ids are generated. Among rules of equal priority, the one
// listed later wins.
func LoadFamilyConfig(r io.Reader) (models.FamilyConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw familyFile
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return models.FamilyConfig{}, fmt.Errorf("decode family config: %w", err)
	}

	var cfg models.FamilyConfig
	ids := make(map[string]bool, len(raw.Categories))
	for i, c := range raw.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return models.FamilyConfig{}, fmt.Errorf("categories[%d]: %w: name is required", i, ErrInvalidCategory)
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids[id] = true
		cfg.Categories = append(cfg.Categories, models.Category{ID: id, Name: name, Active: c.Active == nil || *c.Active})
	}

	for i, r := range raw.Rules {
		mt := models.MatchType(strings.ToUpper(string(r.MatchType)))
		if !mt.Valid() {
			return models.FamilyConfig{}, fmt.Errorf("rules[%d]: %w: unknown match type %q", i, ErrInvalidRule, r.MatchType)
		}
		if !ids[r.CategoryID] {
			return models.FamilyConfig{}, fmt.Errorf("rules[%d]: %w: %s", i, ErrCategoryNotFound, r.CategoryID)
		}
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		cfg.Rules = append(cfg.Rules, models.CategoryRule{
			ID:         id,
			CategoryID: r.CategoryID,
			Pattern:    r.Pattern,
			MatchType:  mt,
			Channel:    r.Channel,
			Priority:   r.Priority,
			Enabled:    r.Enabled == nil || *r.Enabled,
			CreatedAt:  fileEpoch.Add(time.Duration(i) * time.Second),
		})
	}
	return cfg, nil
}
