package sqlfile

import "strings"

// separator splits a MySQL-style script on ';' while skipping comments and
// keeping quoted strings and identifiers intact. It does not validate syntax.
type separator struct {
	str []rune // remaining input
	sb  *strings.Builder
}

func newSeparator(s string) *separator {
	return &separator{
		str: []rune(s),
		sb:  &strings.Builder{},
	}
}

// SplitStatements returns the trimmed, non-empty statements of script
// without their terminating ';'.
func SplitStatements(script string) []string {
	return newSeparator(script).separate()
}

func (s *separator) separate() []string {
	var statements []string
	flush := func() {
		if stmt := strings.TrimSpace(s.sb.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		s.sb.Reset()
	}

	for len(s.str) > 0 {
		if s.skipComment() {
			continue
		}

		switch s.str[0] {
		case '\'', '"', '`':
			s.consumeQuoted(s.str[0])
		case ';':
			flush()
			s.str = s.str[1:]
		default:
			s.sb.WriteRune(s.str[0])
			s.str = s.str[1:]
		}
	}
	flush()
	return statements
}

// consumeQuoted copies a quoted run including its delimiters. Backslash
// escapes and doubled delimiters stay inside the run. An unterminated run
// swallows the rest of the input.
func (s *separator) consumeQuoted(delim rune) {
	s.sb.WriteRune(delim)
	s.str = s.str[1:]

	for len(s.str) > 0 {
		c := s.str[0]
		switch {
		case c == '\\' && delim != '`' && len(s.str) > 1:
			s.sb.WriteRune(c)
			s.sb.WriteRune(s.str[1])
			s.str = s.str[2:]
		case c == delim && len(s.str) > 1 && s.str[1] == delim:
			s.sb.WriteRune(c)
			s.sb.WriteRune(c)
			s.str = s.str[2:]
		case c == delim:
			s.sb.WriteRune(c)
			s.str = s.str[1:]
			return
		default:
			s.sb.WriteRune(c)
			s.str = s.str[1:]
		}
	}
}

// skipComment drops one comment at the head of the input and reports
// whether it found one. Comments become a single space so that tokens on
// either side stay apart.
func (s *separator) skipComment() bool {
	var end int
	switch {
	case s.str[0] == '#':
		end = s.lineEnd(1)
	case len(s.str) > 1 && s.str[0] == '-' && s.str[1] == '-':
		end = s.lineEnd(2)
	case len(s.str) > 1 && s.str[0] == '/' && s.str[1] == '*':
		end = s.blockEnd(2)
	default:
		return false
	}

	s.str = s.str[end:]
	s.sb.WriteRune(' ')
	return true
}

// lineEnd returns the offset just past the next newline at or after i, or
// the input length.
func (s *separator) lineEnd(i int) int {
	for ; i < len(s.str); i++ {
		if s.str[i] == '\n' {
			return i + 1
		}
	}
	return len(s.str)
}

// blockEnd returns the offset just past the next "*/" at or after i, or the
// input length.
func (s *separator) blockEnd(i int) int {
	for ; i+1 < len(s.str); i++ {
		if s.str[i] == '*' && s.str[i+1] == '/' {
			return i + 2
		}
	}
	return len(s.str)
}
