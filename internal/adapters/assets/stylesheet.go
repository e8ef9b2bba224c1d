package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Stylesheet)(nil)

// Stylesheet bundles the entry stylesheet into <css.dest><stem>.min.css.
type Stylesheet struct {
	paths    *domain.PathMap
	entry    string
	logger   ports.Logger
	minifier *minify.M
}

// NewStylesheet creates the stylesheet transform for a project.
func NewStylesheet(project *domain.Project, logger ports.Logger) *Stylesheet {
	return &Stylesheet{
		paths:    &project.Paths,
		entry:    project.Stylesheets.Entry,
		logger:   logger,
		minifier: newMinifier(),
	}
}

// Execute implements ports.Executor.
func (s *Stylesheet) Execute(ctx context.Context, _ *domain.Task) error {
	_, err := s.Run(ctx)
	return err
}

// Run inlines local imports, validates, prefixes and minifies the entry stylesheet.
// Nothing is written unless every stage succeeds.
func (s *Stylesheet) Run(ctx context.Context) ([]domain.Artifact, error) {
	dir, srcRel, raw, err := s.readEntry()
	if err != nil || srcRel == "" {
		return nil, err
	}
	src := s.paths.Abs(srcRel)

	bundled, err := inlineImports(s.paths.Abs(dir), src, raw, []string{src})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkTokens(bundled); err != nil {
		return nil, zerr.With(err, "file", srcRel)
	}

	prefixed, err := prefixStylesheet(bundled)
	if err != nil {
		return nil, zerr.With(err, "file", srcRel)
	}

	minified, err := s.minifier.Bytes(mediaCSS, prefixed)
	if err != nil {
		return nil, zerr.With(zerr.With(domain.ErrStylesheetSyntax, "reason", err.Error()), "file", srcRel)
	}

	stem := strings.TrimSuffix(s.entry, filepath.Ext(s.entry))
	destRel := domain.JoinDir(s.paths.Stylesheets.Dest, stem+".min.css")

	artifact, err := writeArtifact(s.paths, destRel, minified, domain.CategoryStylesheets, int64(len(bundled)))
	if err != nil {
		return nil, err
	}
	reportSize(s.logger, artifact, minified)

	return []domain.Artifact{artifact}, nil
}

// readEntry reads <css.src><entry>, or else the site generator's compiled
// <css.dest><stem>.css. It returns the directory the entry was found in.
// Both missing yields an empty path and a warning.
func (s *Stylesheet) readEntry() (dir, rel string, raw []byte, err error) {
	stem := strings.TrimSuffix(s.entry, filepath.Ext(s.entry))
	candidates := []struct{ dir, rel string }{
		{s.paths.Stylesheets.Src, domain.JoinDir(s.paths.Stylesheets.Src, s.entry)},
		{s.paths.Stylesheets.Dest, domain.JoinDir(s.paths.Stylesheets.Dest, stem+".css")},
	}

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		raw, err := os.ReadFile(s.paths.Abs(c.rel)) //nolint:gosec // path comes from project configuration
		if err == nil {
			return c.dir, c.rel, raw, nil
		}
		if !errors.Is(err, iofs.ErrNotExist) {
			return "", "", nil, readError(err, s.paths.Abs(c.rel))
		}
		tried = append(tried, c.rel)
	}

	s.logger.Warn("no stylesheet entry at " + strings.Join(tried, " or "))
	return "", "", nil, nil
}

// inlineImports replaces top-level @import rules that reference local files with
// the imported content, recursively. Imports resolving outside base are rejected.
// stack holds the files currently being inlined.
func inlineImports(base, path string, src []byte, stack []string) ([]byte, error) {
	lexer := css.NewLexer(parse.NewInputBytes(src))

	var out bytes.Buffer
	depth := 0

	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, zerr.With(zerr.With(domain.ErrStylesheetSyntax, "reason", err.Error()), "import", path)
			}
			return out.Bytes(), nil
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
		case css.AtKeywordToken:
			if depth == 0 && strings.EqualFold(string(data), "@import") {
				stmt, target := readImport(lexer)
				if target == "" {
					out.Write(data)
					out.Write(stmt)
					continue
				}

				resolved := filepath.Join(filepath.Dir(path), filepath.FromSlash(target))
				if !within(base, resolved) {
					return nil, zerr.With(zerr.With(domain.ErrInvalidPath, "import", target), "file", filepath.Base(path))
				}
				if slices.Contains(stack, resolved) {
					chain := append(slices.Clone(stack), resolved)
					return nil, zerr.With(domain.ErrImportCycle, "cycle", importChain(chain))
				}

				imported, err := os.ReadFile(resolved) //nolint:gosec // import below the stylesheet directory
				if err != nil {
					return nil, zerr.With(readError(err, resolved), "import", target)
				}

				inlined, err := inlineImports(base, resolved, imported, append(slices.Clone(stack), resolved))
				if err != nil {
					return nil, err
				}
				out.Write(inlined)
				out.WriteByte('\n')
				continue
			}
		}
		out.Write(data)
	}
}

// readImport consumes an @import prelude up to and including its semicolon.
// target is empty when the import must stay untouched: remote, media-qualified or malformed.
func readImport(lexer *css.Lexer) (stmt []byte, target string) {
	var raw bytes.Buffer
	var significant [][]byte
	var kinds []css.TokenType

	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		raw.Write(data)
		if tt == css.SemicolonToken {
			break
		}
		if tt == css.WhitespaceToken || tt == css.CommentToken {
			continue
		}
		significant = append(significant, slices.Clone(data))
		kinds = append(kinds, tt)
	}

	if len(significant) != 1 {
		return raw.Bytes(), ""
	}

	var ref string
	switch kinds[0] {
	case css.StringToken:
		ref = unquote(string(significant[0]))
	case css.URLToken:
		ref = urlTarget(string(significant[0]))
	default:
		return raw.Bytes(), ""
	}

	if ref == "" || isRemote(ref) {
		return raw.Bytes(), ""
	}
	return raw.Bytes(), ref
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func urlTarget(token string) string {
	inner := token
	if len(inner) >= 4 && strings.EqualFold(inner[:4], "url(") {
		inner = inner[4:]
	}
	inner = strings.TrimSuffix(inner, ")")
	return unquote(strings.TrimSpace(inner))
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http:") ||
		strings.HasPrefix(lower, "https:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "//")
}

func importChain(chain []string) string {
	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, " -> ")
}

// checkTokens rejects unbalanced braces, bad strings and bad URLs.
func checkTokens(src []byte) error {
	lexer := css.NewLexer(parse.NewInputBytes(src))
	line := 1
	depth := 0
	openedAt := 0

	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return syntaxError(err.Error(), line)
			}
			if depth > 0 {
				return syntaxError("unclosed block", openedAt)
			}
			return nil
		case css.LeftBraceToken:
			if depth == 0 {
				openedAt = line
			}
			depth++
		case css.RightBraceToken:
			depth--
			if depth < 0 {
				return syntaxError("unexpected }", line)
			}
		case css.BadStringToken:
			return syntaxError("unterminated string", line)
		case css.BadURLToken:
			return syntaxError("malformed url", line)
		}
		line += bytes.Count(data, []byte{'\n'})
	}
}

func syntaxError(reason string, line int) error {
	return zerr.With(zerr.With(domain.ErrStylesheetSyntax, "reason", reason), "line", line)
}

// Vendor prefixes approximating the "last 2 versions" browser set.
var propertyPrefixes = map[string][]string{
	"appearance":           {"-webkit-", "-moz-"},
	"backdrop-filter":      {"-webkit-"},
	"box-decoration-break": {"-webkit-"},
	"clip-path":            {"-webkit-"},
	"hyphens":              {"-webkit-", "-ms-"},
	"mask-image":           {"-webkit-"},
	"tab-size":             {"-moz-"},
	"text-size-adjust":     {"-webkit-", "-moz-", "-ms-"},
	"user-select":          {"-webkit-", "-moz-", "-ms-"},
}

var valuePrefixes = map[string]map[string][]string{
	"position": {"sticky": {"-webkit-"}},
}

// prefixStylesheet re-serialises the stylesheet through the CSS parser, adding
// vendor-prefixed declarations in front of the standard ones.
func prefixStylesheet(src []byte) ([]byte, error) {
	p := css.NewParser(parse.NewInputBytes(src), false)
	var out bytes.Buffer

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			err := p.Err()
			if errors.Is(err, io.EOF) {
				return out.Bytes(), nil
			}
			var perr *parse.Error
			if errors.As(err, &perr) {
				return nil, syntaxError(perr.Message, perr.Line)
			}
			return nil, zerr.With(domain.ErrStylesheetSyntax, "reason", err.Error())
		case css.AtRuleGrammar:
			writeAtRule(&out, data, p.Values())
			out.WriteByte(';')
		case css.BeginAtRuleGrammar:
			writeAtRule(&out, data, p.Values())
			out.WriteByte('{')
		case css.QualifiedRuleGrammar:
			writeValues(&out, p.Values())
			out.WriteByte(',')
		case css.BeginRulesetGrammar:
			writeValues(&out, p.Values())
			out.WriteByte('{')
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			out.WriteByte('}')
		case css.DeclarationGrammar:
			writeDeclaration(&out, data, p.Values())
		case css.CustomPropertyGrammar:
			out.Write(data)
			out.WriteByte(':')
			writeValues(&out, p.Values())
			out.WriteByte(';')
		case css.CommentGrammar:
		default:
			out.Write(data)
		}
	}
}

func writeAtRule(out *bytes.Buffer, name []byte, values []css.Token) {
	out.Write(name)
	if len(values) > 0 {
		out.WriteByte(' ')
	}
	writeValues(out, values)
}

func writeValues(out *bytes.Buffer, values []css.Token) {
	for _, v := range values {
		out.Write(v.Data)
	}
}

func writeDeclaration(out *bytes.Buffer, property []byte, values []css.Token) {
	var value bytes.Buffer
	writeValues(&value, values)

	name := strings.ToLower(string(property))
	for _, prefix := range propertyPrefixes[name] {
		out.WriteString(prefix)
		out.Write(property)
		out.WriteByte(':')
		out.Write(value.Bytes())
		out.WriteByte(';')
	}

	if byValue, ok := valuePrefixes[name]; ok {
		keyword, important := splitImportant(strings.TrimSpace(value.String()))
		for _, prefix := range byValue[strings.ToLower(keyword)] {
			out.Write(property)
			out.WriteByte(':')
			out.WriteString(prefix)
			out.WriteString(keyword)
			out.WriteString(important)
			out.WriteByte(';')
		}
	}

	out.Write(property)
	out.WriteByte(':')
	out.Write(value.Bytes())
	out.WriteByte(';')
}

// splitImportant separates a trailing !important from a declaration value.
func splitImportant(value string) (keyword, important string) {
	i := strings.LastIndexByte(value, '!')
	if i < 0 || !strings.EqualFold(strings.TrimSpace(value[i+1:]), "important") {
		return value, ""
	}
	return strings.TrimSpace(value[:i]), "!important"
}
