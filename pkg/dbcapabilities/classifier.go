package dbcapabilities

import (
	"path/filepath"
	"strings"
)

// DefaultEngine is the classification fallback for empty or unrecognized
// connection strings. Several call sites need a best-effort answer for
// display purposes before a real connection is attempted, so Classify never
// fails.
const DefaultEngine = PostgreSQL

// schemeRule maps a connection-string prefix to an engine. Rules are checked
// in order, most specific first, so driver-qualified schemes such as
// "postgresql+asyncpg://" win over the bare "postgresql://" form.
type schemeRule struct {
	prefix string
	engine EngineType
}

var schemeRules = []schemeRule{
	{"postgresql+", PostgreSQL},
	{"postgres+", PostgreSQL},
	{"postgresql://", PostgreSQL},
	{"postgres://", PostgreSQL},
	{"pgsql://", PostgreSQL},
	{"mysql+", MySQL},
	{"mysql://", MySQL},
	{"mariadb://", MySQL},
	{"sqlite+", SQLite},
	{"sqlite://", SQLite},
	{"sqlite3://", SQLite},
	{"duckdb://", DuckDB},
	{"md:", DuckDB}, // MotherDuck shorthand
	{"mssql+", SQLServer},
	{"mssql://", SQLServer},
	{"sqlserver://", SQLServer},
	{"oracle+", Oracle},
	{"oracle://", Oracle},
	{"oci://", Oracle},
}

// extensionRules map bare filesystem-path extensions to file-backed engines.
var extensionRules = map[string]EngineType{
	".duckdb":  DuckDB,
	".ddb":     DuckDB,
	".parquet": DuckDB,
	".csv":     DuckDB,
	".tsv":     DuckDB,
	".xlsx":    DuckDB,
	".xls":     DuckDB,
	".db":      SQLite,
	".sqlite":  SQLite,
	".sqlite3": SQLite,
}

// Classify inspects a connection string and returns the engine it targets.
// The function is pure and performs no I/O. Empty or unrecognized input
// classifies as DefaultEngine.
func Classify(connectionString string) EngineType {
	return ClassifyDefault(connectionString, DefaultEngine)
}

// ClassifyDefault is Classify with a caller-chosen fallback engine.
func ClassifyDefault(connectionString string, fallback EngineType) EngineType {
	s := strings.TrimSpace(connectionString)
	if s == "" {
		return fallback
	}

	lower := strings.ToLower(s)
	for _, rule := range schemeRules {
		if strings.HasPrefix(lower, rule.prefix) {
			return rule.engine
		}
	}

	// A scheme we do not know. Leave bare paths to the extension rules, but
	// anything with "://" is an explicit (unrecognized) scheme.
	if strings.Contains(lower, "://") {
		return fallback
	}

	// In-memory shorthand used by both file-backed engines; SQLite is the
	// more common caller intent.
	if lower == ":memory:" {
		return SQLite
	}

	if engine, ok := extensionRules[strings.ToLower(filepath.Ext(s))]; ok {
		return engine
	}

	return fallback
}
