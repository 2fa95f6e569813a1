package parser

import "strings"

// Flow is the direction of money on a statement row.
type Flow int

const (
	Expense Flow = iota
	Inflow
)

func (f Flow) String() string {
	if f == Inflow {
		return "INFLOW"
	}
	return "EXPENSE"
}

// Classify reports Inflow when text contains any inflow phrase. Everything
// else is an expense: a missed expense costs more than a kept inflow.
func (p *Patterns) Classify(text string) Flow {
	lower := strings.ToLower(text)
	for _, phrase := range p.inflow {
		if strings.Contains(lower, phrase) {
			return Inflow
		}
	}
	return Expense
}
