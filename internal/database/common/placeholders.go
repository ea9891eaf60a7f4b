package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbweave/dbweave/pkg/dbcapabilities"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Rebind rewrites caller-supplied '?' placeholders to the engine's native
// binding style ($1 for postgres, @p1 for mssql, :1 for oracle). Question
// marks inside string literals, quoted identifiers, and comments are left
// alone. Engines whose native style already is '?' get the text back
// unchanged.
func Rebind(sqlText string, style dbcapabilities.PlaceholderStyle) string {
	if style == dbcapabilities.PlaceholderQuestion {
		return sqlText
	}

	var out strings.Builder
	out.Grow(len(sqlText) + 8)
	arg := 0
	i, n := 0, len(sqlText)

	for i < n {
		c := sqlText[i]

		switch {
		case c == '-' && i+1 < n && sqlText[i+1] == '-':
			for i < n && sqlText[i] != '\n' {
				out.WriteByte(sqlText[i])
				i++
			}

		case c == '/' && i+1 < n && sqlText[i+1] == '*':
			out.WriteString("/*")
			i += 2
			for i+1 < n && !(sqlText[i] == '*' && sqlText[i+1] == '/') {
				out.WriteByte(sqlText[i])
				i++
			}
			if i+1 < n {
				out.WriteString("*/")
				i += 2
			}

		case c == '\'' || c == '"' || c == '`':
			quote := c
			out.WriteByte(c)
			i++
			for i < n {
				out.WriteByte(sqlText[i])
				if sqlText[i] == quote {
					if i+1 < n && sqlText[i+1] == quote {
						out.WriteByte(quote)
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}

		case c == '?':
			arg++
			switch style {
			case dbcapabilities.PlaceholderDollar:
				out.WriteByte('$')
				out.WriteString(strconv.Itoa(arg))
			case dbcapabilities.PlaceholderAt:
				out.WriteString("@p")
				out.WriteString(strconv.Itoa(arg))
			case dbcapabilities.PlaceholderColon:
				out.WriteByte(':')
				out.WriteString(strconv.Itoa(arg))
			default:
				out.WriteByte('?')
			}
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}

// QuoteIdent quotes one identifier part with the dialect's quote character,
// doubling any embedded quote. The '[' quote style (SQL Server) closes with
// ']'.
func QuoteIdent(name, quote string) string {
	if quote == "[" {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}

// QuoteQualified quotes a possibly schema-qualified table name part by part.
// It rejects names with characters outside the identifier set so callers
// cannot smuggle SQL through a table-name argument.
func QuoteQualified(table, quote string) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("empty table name")
	}
	parts := strings.Split(table, ".")
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		if !identPattern.MatchString(part) {
			return "", fmt.Errorf("invalid table name: %q", table)
		}
		quoted = append(quoted, QuoteIdent(part, quote))
	}
	return strings.Join(quoted, "."), nil
}
