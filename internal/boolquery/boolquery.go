// Package boolquery parses AND/OR/NOT term expressions into an evaluable AST.
package boolquery

import "strings"

// Operator joins two adjacent terms in a boolean query.
type Operator string

// Boolean operators, matched case-sensitively as whole words.
const (
	And Operator = "AND"
	Or  Operator = "OR"
	Not Operator = "NOT"
)

// AST is a parsed boolean query: terms joined left-to-right by operators.
// There is no precedence and no parenthesization; operators apply strictly
// in order of appearance.
type AST struct {
	terms     []string
	operators []Operator
	structure string
}

// Terms returns the extracted terms in order.
func (a *AST) Terms() []string { return a.terms }

// Operators returns the operators between adjacent terms.
// len(Operators()) == len(Terms())-1 for any non-empty AST.
func (a *AST) Operators() []Operator { return a.operators }

// Structure returns a canonical re-serialization for logging.
func (a *AST) Structure() string { return a.structure }

// IsSingle reports whether the query reduced to a single term with no
// operators; callers short-circuit this into plain fuzzy search.
func (a *AST) IsSingle() bool { return len(a.terms) == 1 && len(a.operators) == 0 }

// HasOperators detects the literal tokens AND, OR, NOT inside a raw term.
// Matching is case-sensitive and whole-word: "android" does not count.
func HasOperators(term string) bool {
	for _, tok := range strings.Fields(term) {
		if isOperator(tok) {
			return true
		}
	}
	return false
}

// Parse splits a raw term on boolean operators, preserving order and
// trimming whitespace from each extracted term. A term without operators
// yields a single-element AST. Leading and trailing operators, and empty
// terms between consecutive operators, are dropped.
func Parse(term string) *AST {
	tokens := strings.Fields(term)

	var (
		terms   []string
		ops     []Operator
		current []string
	)

	flush := func() bool {
		if len(current) == 0 {
			return false
		}
		terms = append(terms, strings.Join(current, " "))
		current = current[:0]
		return true
	}

	for _, tok := range tokens {
		if !isOperator(tok) {
			current = append(current, tok)
			continue
		}
		if flush() && len(ops) < len(terms) {
			ops = append(ops, Operator(tok))
		}
	}
	flush()

	// Drop a trailing operator with no right-hand term.
	if len(ops) > 0 && len(ops) >= len(terms) {
		ops = ops[:len(terms)-1]
	}
	if len(terms) == 0 {
		terms = []string{strings.TrimSpace(term)}
	}

	return &AST{terms: terms, operators: ops, structure: serialize(terms, ops)}
}

// Evaluate applies the boolean semantics left-to-right over per-term match
// outcomes: AND requires both sides, OR requires either, NOT requires the
// left side and the absence of the right. matches must align with Terms().
func (a *AST) Evaluate(matches []bool) bool {
	if len(matches) != len(a.terms) || len(matches) == 0 {
		return false
	}
	acc := matches[0]
	for i, op := range a.operators {
		next := matches[i+1]
		switch op {
		case And:
			acc = acc && next
		case Or:
			acc = acc || next
		case Not:
			acc = acc && !next
		}
	}
	return acc
}

func isOperator(tok string) bool {
	return tok == string(And) || tok == string(Or) || tok == string(Not)
}

func serialize(terms []string, ops []Operator) string {
	var b strings.Builder
	for i, t := range terms {
		if i > 0 && i-1 < len(ops) {
			b.WriteByte(' ')
			b.WriteString(string(ops[i-1]))
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}
