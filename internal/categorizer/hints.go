package categorizer

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed hints.yaml
var defaultHintsYAML string

// Hint maps a category name to merchant keywords.
type Hint struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Hints is an ordered, immutable keyword table.
type Hints struct {
	groups []Hint
}

// DefaultHints returns the built-in keyword table.
func DefaultHints() *Hints {
	h, err := LoadHints(strings.NewReader(defaultHintsYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in hints: %v", err))
	}
	return h
}

// LoadHintsFile reads a keyword table from a YAML file.
func LoadHintsFile(path string) (*Hints, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hints file %q: %w", path, err)
	}
	defer f.Close()
	return LoadHints(f)
}

// LoadHints decodes a YAML list of {category, keywords}.
func LoadHints(r io.Reader) (*Hints, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw []Hint
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode hints: %w", err)
	}

	h := &Hints{}
	for i, group := range raw {
		name := strings.TrimSpace(group.Category)
		if name == "" {
			return nil, fmt.Errorf("hints[%d]: category is required", i)
		}
		g := Hint{Category: name}
		for _, kw := range group.Keywords {
			if kw = strings.ToUpper(strings.TrimSpace(kw)); kw != "" {
				g.Keywords = append(g.Keywords, kw)
			}
		}
		h.groups = append(h.groups, g)
	}
	return h, nil
}

// Groups returns a copy of the table.
func (h *Hints) Groups() []Hint {
	out := make([]Hint, len(h.groups))
	copy(out, h.groups)
	return out
}
