package adapter

import (
	"fmt"
	"regexp"
	"strings"
)

// allowedPrefixes are the statement forms an adapter will dispatch. Anything
// else is rejected before it reaches a driver.
var allowedPrefixes = []string{
	"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "PRAGMA", "VALUES",
}

// writeKeywords are DML/DDL keywords blocked for every engine. Matching runs
// against SQL with string literals and comments stripped, so "O'INSERT" in a
// literal does not trip it.
var writeKeywords = []struct {
	re   *regexp.Regexp
	desc string
}{
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])INSERT(?:[^a-zA-Z_]|$)`), "INSERT"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])UPDATE(?:[^a-zA-Z_]|$)`), "UPDATE"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])DELETE(?:[^a-zA-Z_]|$)`), "DELETE"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])MERGE(?:[^a-zA-Z_]|$)`), "MERGE"},
	// SELECT INTO creates a table; SELECT ... INTO OUTFILE writes a file.
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])INTO(?:[^a-zA-Z_]|$)`), "INTO"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])DROP(?:[^a-zA-Z_]|$)`), "DROP"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])CREATE(?:[^a-zA-Z_]|$)`), "CREATE"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])ALTER(?:[^a-zA-Z_]|$)`), "ALTER"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])TRUNCATE(?:[^a-zA-Z_]|$)`), "TRUNCATE"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])GRANT(?:[^a-zA-Z_]|$)`), "GRANT"},
	{regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])REVOKE(?:[^a-zA-Z_]|$)`), "REVOKE"},
}

// EnsureReadOnly rejects statements that are not reads. Adapters call it
// before dispatching any caller-supplied SQL; the returned error wraps
// ErrReadOnlyViolation.
func EnsureReadOnly(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return fmt.Errorf("%w: empty statement", ErrReadOnlyViolation)
	}

	upper := strings.ToUpper(trimmed)
	ok := false
	for _, prefix := range allowedPrefixes {
		if upper == prefix || strings.HasPrefix(upper, prefix+" ") ||
			strings.HasPrefix(upper, prefix+"\n") || strings.HasPrefix(upper, prefix+"\t") ||
			strings.HasPrefix(upper, prefix+"(") {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: only SELECT, WITH, SHOW, DESCRIBE, EXPLAIN, PRAGMA, and VALUES statements are allowed", ErrReadOnlyViolation)
	}

	cleaned := StripStringsAndComments(trimmed)

	// Reject a second statement after the first semicolon.
	if idx := strings.Index(cleaned, ";"); idx >= 0 {
		if rest := strings.TrimSpace(cleaned[idx+1:]); rest != "" {
			return fmt.Errorf("%w: multiple statements are not allowed", ErrReadOnlyViolation)
		}
	}

	for _, kw := range writeKeywords {
		if kw.re.MatchString(cleaned) {
			return fmt.Errorf("%w: statement contains %s", ErrReadOnlyViolation, kw.desc)
		}
	}

	return nil
}

// StripStringsAndComments removes string literals, quoted identifiers, and
// comments from SQL so keyword detection cannot be fooled by literal
// contents. It handles '...' with doubled-quote escaping, "..." and `...`
// identifiers, -- line comments, and /* */ block comments.
func StripStringsAndComments(sqlText string) string {
	var out strings.Builder
	i, n := 0, len(sqlText)

	for i < n {
		c := sqlText[i]

		switch {
		case c == '-' && i+1 < n && sqlText[i+1] == '-':
			for i < n && sqlText[i] != '\n' {
				i++
			}
			out.WriteByte(' ')

		case c == '/' && i+1 < n && sqlText[i+1] == '*':
			i += 2
			for i+1 < n && !(sqlText[i] == '*' && sqlText[i+1] == '/') {
				i++
			}
			i += 2
			out.WriteByte(' ')

		case c == '\'' || c == '"' || c == '`':
			quote := c
			i++
			for i < n {
				if sqlText[i] == quote {
					// Doubled quote escapes itself.
					if i+1 < n && sqlText[i+1] == quote {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
			out.WriteByte(' ')

		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String()
}
