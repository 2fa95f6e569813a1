package parser

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/statement-ingest/internal/models"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// LabelPattern pairs a regular expression with the label it assigns.
type LabelPattern struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// PatternFile is the YAML layout of the pattern tables.
type PatternFile struct {
	Inflow    []string       `yaml:"inflow"`
	Channels  []LabelPattern `yaml:"channels"`
	ItemTypes []LabelPattern `yaml:"itemTypes"`
}

type compiledLabel struct {
	re    *regexp.Regexp
	label string
}

// Patterns holds the compiled tables used to classify statement rows.
// It is immutable and safe for concurrent use.
type Patterns struct {
	inflow    []string
	channels  []compiledLabel
	itemTypes []compiledLabel
}

// DefaultPatterns returns the built-in tables.
func DefaultPatterns() *Patterns {
	p, err := LoadPatterns(strings.NewReader(string(defaultPatternsYAML)))
	if err != nil {
		panic(fmt.Sprintf("built-in patterns: %v", err))
	}
	return p
}

// LoadPatternsFile reads tables from a YAML file.
func LoadPatternsFile(path string) (*Patterns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patterns file %q: %w", path, err)
	}
	defer f.Close()
	return LoadPatterns(f)
}

// LoadPatterns decodes and compiles tables from YAML. Unknown keys and
// invalid regular expressions are rejected.
func LoadPatterns(r io.Reader) (*Patterns, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file PatternFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	return file.Compile()
}

// Compile validates the table entries.
func (f PatternFile) Compile() (*Patterns, error) {
	p := &Patterns{}
	for _, phrase := range f.Inflow {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if phrase != "" {
			p.inflow = append(p.inflow, phrase)
		}
	}

	var err error
	if p.channels, err = compileLabels("channels", f.Channels); err != nil {
		return nil, err
	}
	if p.itemTypes, err = compileLabels("itemTypes", f.ItemTypes); err != nil {
		return nil, err
	}
	for _, it := range p.itemTypes {
		if !validItemType(models.ItemType(it.label)) {
			return nil, fmt.Errorf("itemTypes: unknown label %q", it.label)
		}
	}
	return p, nil
}

func compileLabels(section string, entries []LabelPattern) ([]compiledLabel, error) {
	out := make([]compiledLabel, 0, len(entries))
	for i, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("%s[%d]: label is required", section, i)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %q: %w", section, i, e.Pattern, err)
		}
		out = append(out, compiledLabel{re: re, label: e.Label})
	}
	return out, nil
}

func validItemType(t models.ItemType) bool {
	switch t {
	case models.ItemTransfer, models.ItemPayment, models.ItemWithdrawal,
		models.ItemPurchase, models.ItemBillPayment, models.ItemOther:
		return true
	}
	return false
}

// Channel returns the label of the first channel pattern matching text.
func (p *Patterns) Channel(text string) (string, bool) {
	return firstLabel(p.channels, text)
}

// ItemType returns the first item type pattern matching text.
func (p *Patterns) ItemType(text string) (models.ItemType, bool) {
	label, ok := firstLabel(p.itemTypes, text)
	return models.ItemType(label), ok
}

func firstLabel(table []compiledLabel, text string) (string, bool) {
	for _, entry := range table {
		if entry.re.MatchString(text) {
			return entry.label, true
		}
	}
	return "", false
}
