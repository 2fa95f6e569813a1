// Package categorizer assigns spending categories to parsed transactions.
//
// Family rules are tried first in priority order, then the built-in
// merchant keyword hints; the first match wins.
package categorizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

// Input is the part of a transaction categorization looks at.
type Input struct {
	Description string
	Channel     string
	ItemType    models.ItemType
}

// Engine categorizes transactions against a family's configuration,
// loaded fresh on every call.
type Engine struct {
	provider ConfigProvider
	hints    *Hints
}

// NewEngine returns an engine. A nil hints uses the built-in table.
func NewEngine(provider ConfigProvider, hints *Hints) *Engine {
	if hints == nil {
		hints = DefaultHints()
	}
	return &Engine{provider: provider, hints: hints}
}

// Categorize decides the category of one transaction.
func (e *Engine) Categorize(ctx context.Context, familyID string, in Input) (models.CategorizeResult, error) {
	snap, err := e.Snapshot(ctx, familyID)
	if err != nil {
		return models.CategorizeResult{}, err
	}
	return snap.Match(in), nil
}

// CategorizeBatch loads the family configuration once and decides every
// input against it. Results are index-aligned with ins.
func (e *Engine) CategorizeBatch(ctx context.Context, familyID string, ins []Input) ([]models.CategorizeResult, error) {
	snap, err := e.Snapshot(ctx, familyID)
	if err != nil {
		return nil, err
	}
	out := make([]models.CategorizeResult, len(ins))
	for i, in := range ins {
		out[i] = snap.Match(in)
	}
	return out, nil
}

// Snapshot loads and compiles the family configuration.
func (e *Engine) Snapshot(ctx context.Context, familyID string) (*Snapshot, error) {
	cfg, err := e.provider.FamilyConfig(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("load family config %s: %w", familyID, err)
	}
	if cfg == nil {
		cfg = &models.FamilyConfig{}
	}
	return NewSnapshot(*cfg, e.hints), nil
}

type compiledRule struct {
	models.CategoryRule
	pattern string         // lowercased, trimmed
	channel string         // lowercased, trimmed
	re      *regexp.Regexp // REGEX rules only; nil when the pattern is invalid
}

// Snapshot is an immutable, compiled view of one family's rules and
// categories.
type Snapshot struct {
	rules          []compiledRule
	categoryByName map[string]string
	hints          *Hints
}

// NewSnapshot orders enabled rules by priority, newest first on ties, and
// indexes active categories by name for hint resolution.
func NewSnapshot(cfg models.FamilyConfig, hints *Hints) *Snapshot {
	if hints == nil {
		hints = DefaultHints()
	}
	s := &Snapshot{
		categoryByName: make(map[string]string, len(cfg.Categories)),
		hints:          hints,
	}

	for _, c := range cfg.Categories {
		if c.Active {
			if _, dup := s.categoryByName[c.Name]; !dup {
				s.categoryByName[c.Name] = c.ID
			}
		}
	}

	for _, r := range cfg.Rules {
		if !r.Enabled {
			continue
		}
		cr := compiledRule{
			CategoryRule: r,
			pattern:      strings.ToLower(strings.TrimSpace(r.Pattern)),
			channel:      strings.ToLower(strings.TrimSpace(r.Channel)),
		}
		if r.MatchType == models.MatchRegex {
			// A malformed pattern leaves re nil and the rule never matches.
			cr.re, _ = regexp.Compile("(?i)" + r.Pattern)
		}
		s.rules = append(s.rules, cr)
	}

	sort.SliceStable(s.rules, func(i, j int) bool {
		a, b := s.rules[i], s.rules[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return s
}

// Match runs the rule, hint, none decision for one input.
func (s *Snapshot) Match(in Input) models.CategorizeResult {
	desc := strings.ToLower(strings.TrimSpace(in.Description))
	channel := strings.ToLower(in.Channel)

	for _, r := range s.rules {
		if r.channel != "" && !strings.Contains(channel, r.channel) {
			continue
		}
		if r.matches(desc) {
			return models.CategorizeResult{
				CategoryID:  r.CategoryID,
				Source:      models.SourceRule,
				Explanation: fmt.Sprintf("rule %s %q (priority %d)", r.MatchType, r.Pattern, r.Priority),
			}
		}
	}

	upper := strings.ToUpper(in.Description)
	for _, group := range s.hints.groups {
		id, ok := s.categoryByName[group.Category]
		if !ok {
			continue
		}
		for _, kw := range group.Keywords {
			if strings.Contains(upper, kw) {
				return models.CategorizeResult{
					CategoryID:  id,
					Source:      models.SourceHint,
					Explanation: fmt.Sprintf("keyword %q suggests %s", kw, group.Category),
				}
			}
		}
	}

	return models.CategorizeResult{
		Source:      models.SourceNone,
		Explanation: "no rule or keyword matched",
	}
}

func (r compiledRule) matches(desc string) bool {
	if r.pattern == "" {
		return false
	}
	switch r.MatchType {
	case models.MatchContains:
		return strings.Contains(desc, r.pattern)
	case models.MatchStartsWith:
		return strings.HasPrefix(desc, r.pattern)
	case models.MatchEndsWith:
		return strings.HasSuffix(desc, r.pattern)
	case models.MatchExact:
		return desc == r.pattern
	case models.MatchRegex:
		return r.re != nil && r.re.MatchString(desc)
	}
	return false
}
