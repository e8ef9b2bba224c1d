package assets

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/zerr"
)

// Lint rules.
const (
	RuleEqeqeq     = "eqeqeq"
	RuleNoDebugger = "no-debugger"
	RuleNoWith     = "no-with"
	RuleNoEval     = "no-eval"

	ruleSyntax = "syntax"
)

// Rules lists every supported lint rule.
var Rules = []string{RuleEqeqeq, RuleNoDebugger, RuleNoWith, RuleNoEval}

// Finding is a single lint violation. Line and Column are 1-based; zero when unknown.
type Finding struct {
	File    string
	Line    int
	Column  int
	Rule    string
	Message string
}

func (f Finding) String() string {
	if f.Line == 0 {
		return fmt.Sprintf("%s: %s (%s)", f.File, f.Message, f.Rule)
	}
	return fmt.Sprintf("%s:%d:%d: %s (%s)", f.File, f.Line, f.Column, f.Message, f.Rule)
}

// Linter checks application scripts against a fixed rule set.
type Linter struct {
	enabled map[string]bool
}

// NewLinter enables the given rules; an empty list enables all of them.
func NewLinter(rules []string) (*Linter, error) {
	if len(rules) == 0 {
		rules = Rules
	}

	enabled := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if !slices.Contains(Rules, rule) {
			return nil, zerr.With(domain.ErrUnknownLintRule, "rule", rule)
		}
		enabled[rule] = true
	}
	return &Linter{enabled: enabled}, nil
}

// Lint parses a script and returns its findings in source order.
// A parse error is a finding.
func (l *Linter) Lint(file string, src []byte) []Finding {
	ast, err := js.Parse(parse.NewInputBytes(src), js.Options{})
	if err != nil {
		f := Finding{File: file, Rule: ruleSyntax, Message: err.Error()}
		var perr *parse.Error
		if errors.As(err, &perr) {
			f.Line, f.Column, f.Message = perr.Line, perr.Column, perr.Message
		}
		return []Finding{f}
	}

	v := &ruleVisitor{file: file, enabled: l.enabled}
	js.Walk(v, &ast.BlockStmt)
	if len(v.findings) == 0 {
		return nil
	}

	// The AST carries no offsets and js.Walk does not visit in source order.
	// Findings of one kind are interchangeable, so each kind takes the
	// positions of its tokens in the order the lexer meets them.
	positions := tokenPositions(src)
	for i := range v.findings {
		k := v.kinds[i]
		if len(positions[k]) == 0 {
			continue
		}
		v.findings[i].Line, v.findings[i].Column = positions[k][0].line, positions[k][0].column
		positions[k] = positions[k][1:]
	}

	slices.SortStableFunc(v.findings, compareFindings)
	return v.findings
}

func compareFindings(a, b Finding) int {
	if (a.Line == 0) != (b.Line == 0) {
		if a.Line == 0 {
			return 1
		}
		return -1
	}
	return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.Column, b.Column))
}

type findingKind int

const (
	kindEqEq findingKind = iota
	kindNotEq
	kindDebugger
	kindWith
	kindEval
)

type ruleVisitor struct {
	file     string
	enabled  map[string]bool
	findings []Finding
	kinds    []findingKind
}

func (v *ruleVisitor) report(kind findingKind, rule, msg string) {
	if v.enabled[rule] {
		v.findings = append(v.findings, Finding{File: v.file, Rule: rule, Message: msg})
		v.kinds = append(v.kinds, kind)
	}
}

func (v *ruleVisitor) Enter(n js.INode) js.IVisitor {
	switch node := n.(type) {
	case *js.BinaryExpr:
		switch node.Op {
		case js.EqEqToken:
			v.report(kindEqEq, RuleEqeqeq, "expected === instead of ==")
		case js.NotEqToken:
			v.report(kindNotEq, RuleEqeqeq, "expected !== instead of !=")
		}
	case *js.DebuggerStmt:
		v.report(kindDebugger, RuleNoDebugger, "unexpected debugger statement")
	case *js.WithStmt:
		v.report(kindWith, RuleNoWith, "unexpected with statement")
	case *js.CallExpr:
		if ident, ok := node.X.(*js.Var); ok && string(ident.Data) == "eval" {
			v.report(kindEval, RuleNoEval, "eval can be harmful")
		}
	}
	return v
}

func (v *ruleVisitor) Exit(js.INode) {}

type position struct {
	line, column int
}

// tokenPositions lexes src and records where every token a rule can report on starts.
func tokenPositions(src []byte) map[findingKind][]position {
	lexer := js.NewLexer(parse.NewInputBytes(src))
	out := make(map[findingKind][]position)

	line, column := 1, 1
	prev := js.ErrorToken
	var pendingEval *position

	for {
		tt, data := lexer.Next()
		if tt == js.ErrorToken {
			return out
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && regexAllowed(prev) {
			tt, data = lexer.RegExp()
			if tt == js.ErrorToken {
				return out
			}
		}

		here := position{line: line, column: column}
		if n := bytes.Count(data, []byte{'\n'}); n > 0 {
			line += n
			column = len(data) - bytes.LastIndexByte(data, '\n')
		} else {
			column += len(data)
		}

		if tt == js.WhitespaceToken || tt == js.LineTerminatorToken ||
			tt == js.CommentToken || tt == js.CommentLineTerminatorToken {
			continue
		}

		if pendingEval != nil && tt == js.OpenParenToken {
			out[kindEval] = append(out[kindEval], *pendingEval)
		}
		pendingEval = nil

		member := prev == js.DotToken || prev == js.OptChainToken
		switch {
		case tt == js.EqEqToken:
			out[kindEqEq] = append(out[kindEqEq], here)
		case tt == js.NotEqToken:
			out[kindNotEq] = append(out[kindNotEq], here)
		case tt == js.DebuggerToken && !member:
			out[kindDebugger] = append(out[kindDebugger], here)
		case tt == js.WithToken && !member:
			out[kindWith] = append(out[kindWith], here)
		case tt == js.IdentifierToken && !member && string(data) == "eval":
			pendingEval = &here
		}
		prev = tt
	}
}

// regexAllowed reports whether a slash after prev starts a regular expression
// rather than a division.
func regexAllowed(prev js.TokenType) bool {
	switch prev {
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken,
		js.ThisToken, js.SuperToken, js.NullToken, js.TrueToken, js.FalseToken:
		return false
	}
	if js.IsNumeric(prev) || js.IsIdentifier(prev) {
		return false
	}
	return true
}
