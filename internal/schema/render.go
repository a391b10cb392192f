package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// LineEnding is the line terminator used in generated scripts.
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
)

// DefaultQuoting decides how DEFAULT values are written.
type DefaultQuoting int

const (
	// QuoteAlways wraps every default in single quotes.
	QuoteAlways DefaultQuoting = iota
	// QuoteNever emits the default as a raw SQL expression.
	QuoteNever
	// QuoteAuto leaves keywords, function calls and numbers unquoted.
	QuoteAuto
)

// NullDefault decides what a literal "null" default renders to.
type NullDefault int

const (
	// NullDefaultOmit drops the DEFAULT clause for "null".
	NullDefaultOmit NullDefault = iota
	// NullDefaultKeep renders DEFAULT NULL on nullable, non primary key columns.
	NullDefaultKeep
)

// RenderOptions controls SQL text generation.
type RenderOptions struct {
	LineEnding  LineEnding
	Quoting     DefaultQuoting
	NullDefault NullDefault
}

// DefaultRenderOptions returns LF line endings, always-quoted defaults and
// no DEFAULT clause for "null".
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{LineEnding: LF, Quoting: QuoteAlways, NullDefault: NullDefaultOmit}
}

func (o RenderOptions) newline() string {
	if o.LineEnding == "" {
		return string(LF)
	}
	return string(o.LineEnding)
}

// Definition renders the column as a column-definition fragment, e.g.
// "email VARCHAR(255) NOT NULL".
func (c Column) Definition(opts RenderOptions) string {
	head := c.Name + " " + string(c.Type)
	switch {
	case c.Type.IsEnumerated() && len(c.EnumValues) > 0:
		head += "(" + quoteValues(c.EnumValues) + ")"
	case c.Length != "" && c.Type.HasLength():
		head += "(" + c.Length + ")"
	}

	parts := []string{head}

	// Primary keys are NOT NULL even when marked nullable.
	if c.Nullable && !c.PrimaryKey {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}

	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}

	if clause, ok := opts.defaultClause(c); ok {
		parts = append(parts, clause)
	}

	return strings.Join(parts, " ")
}

// Definition renders the entity as a commented CREATE TABLE statement
// followed by a blank line.
func (e Entity) Definition(opts RenderOptions) string {
	nl := opts.newline()

	var b strings.Builder
	b.WriteString("-- Entity: " + e.Name + nl)
	b.WriteString("CREATE TABLE IF NOT EXISTS " + e.Name + " (" + nl)
	for i, col := range e.Columns {
		b.WriteString("\t" + col.Definition(opts))
		if i < len(e.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString(nl)
	}
	b.WriteString(");" + nl + nl)
	return b.String()
}

func quoteValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.TrimSpace(v) + "'"
	}
	return strings.Join(quoted, ", ")
}

func (o RenderOptions) defaultClause(c Column) (string, bool) {
	if c.Default == nil || *c.Default == "" {
		return "", false
	}
	v := *c.Default

	if strings.EqualFold(v, "null") {
		if o.NullDefault == NullDefaultKeep && c.Nullable && !c.PrimaryKey {
			return "DEFAULT NULL", true
		}
		return "", false
	}

	switch o.Quoting {
	case QuoteNever:
		return "DEFAULT " + v, true
	case QuoteAuto:
		if looksLikeExpression(v) {
			return "DEFAULT " + v, true
		}
	}
	return "DEFAULT '" + v + "'", true
}

var (
	numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	functionCall   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*\(.*\)$`)
)

var sqlKeywords = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"LOCALTIME":         true,
	"LOCALTIMESTAMP":    true,
	"UTC_TIMESTAMP":     true,
	"UTC_DATE":          true,
	"UTC_TIME":          true,
	"TRUE":              true,
	"FALSE":             true,
}

func looksLikeExpression(v string) bool {
	s := strings.TrimSpace(v)
	switch {
	case sqlKeywords[strings.ToUpper(s)]:
		return true
	case numericLiteral.MatchString(s), functionCall.MatchString(s):
		return true
	case len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'':
		return true
	case len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')':
		return true
	}
	return false
}

// ParseLineEnding accepts "lf" or "crlf" (case-insensitive); empty means LF.
func ParseLineEnding(s string) (LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lf":
		return LF, nil
	case "crlf":
		return CRLF, nil
	}
	return "", fmt.Errorf("unknown line ending %q: want lf or crlf", s)
}

// ParseDefaultQuoting accepts "always", "never" or "auto"; empty means always.
func ParseDefaultQuoting(s string) (DefaultQuoting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return QuoteAlways, nil
	case "never":
		return QuoteNever, nil
	case "auto":
		return QuoteAuto, nil
	}
	return 0, fmt.Errorf("unknown default quoting %q: want always, never or auto", s)
}

// ParseNullDefault accepts "omit" or "keep"; empty means omit.
func ParseNullDefault(s string) (NullDefault, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit":
		return NullDefaultOmit, nil
	case "keep":
		return NullDefaultKeep, nil
	}
	return 0, fmt.Errorf("unknown null default policy %q: want omit or keep", s)
}
