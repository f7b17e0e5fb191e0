// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Matches a RETURNING keyword anywhere in a statement
var returningClauseRegex = regexp.MustCompile(`(?i)\bRETURNING\b`)

// ReadStatementPrefixes are the leading keywords of statements that return rows.
var ReadStatementPrefixes = []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "SHOW", "DESCRIBE", "VALUES"}

// Accepted database types (lowercase keys and values)
var AllowedDatabaseTypes = map[string]string{
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
}

// Performance grades reported by the validator
var AllowedPerformanceGrades = map[string]string{
	"excellent": "excellent",
	"good":      "good",
	"fair":      "fair",
	"poor":      "poor",
}

// DefaultPerformanceGrade is used when the validator omits or garbles the grade.
const DefaultPerformanceGrade = "fair"

// QuoteIdentifier wraps name in double quotes, doubling any embedded quote.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// IsReadStatement reports whether sql starts with a keyword that returns rows.
// Leading whitespace, comments and opening parentheses are skipped.
func IsReadStatement(sql string) bool {
	q := strings.ToUpper(stripLeadingNoise(sql))
	for _, prefix := range ReadStatementPrefixes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// HasReturningClause reports whether sql carries a RETURNING clause, which
// makes a write statement produce rows.
func HasReturningClause(sql string) bool {
	return returningClauseRegex.MatchString(sql)
}

func stripLeadingNoise(sql string) string {
	q := strings.TrimSpace(sql)
	for {
		switch {
		case strings.HasPrefix(q, "--"):
			end := strings.IndexByte(q, '\n')
			if end < 0 {
				return ""
			}
			q = strings.TrimSpace(q[end+1:])
		case strings.HasPrefix(q, "/*"):
			end := strings.Index(q, "*/")
			if end < 0 {
				return ""
			}
			q = strings.TrimSpace(q[end+2:])
		case strings.HasPrefix(q, "("):
			q = strings.TrimSpace(q[1:])
		default:
			return q
		}
	}
}

// NormalizeDatabaseType maps a user supplied type to its canonical lowercase form.
func NormalizeDatabaseType(dbType string) (string, bool) {
	normalized, ok := AllowedDatabaseTypes[strings.ToLower(strings.TrimSpace(dbType))]
	return normalized, ok
}

// NormalizePerformance maps a validator grade to one of the four known grades,
// falling back to DefaultPerformanceGrade.
func NormalizePerformance(grade string) string {
	if normalized, ok := AllowedPerformanceGrades[strings.ToLower(strings.TrimSpace(grade))]; ok {
		return normalized
	}
	return DefaultPerformanceGrade
}
