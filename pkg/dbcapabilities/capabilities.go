package dbcapabilities

import (
	"sort"
	"strings"
)

// EngineType is the canonical identifier for a backing-store engine supported
// by dbweave. Use these constants to look up capability information.
type EngineType string

const (
	PostgreSQL EngineType = "postgres"
	MySQL      EngineType = "mysql"
	SQLite     EngineType = "sqlite"
	// DuckDB backs the file-based OLAP engine used for spreadsheet/CSV sources.
	DuckDB    EngineType = "duckdb"
	SQLServer EngineType = "mssql"
	Oracle    EngineType = "oracle"
)

// Feature is a capability flag an engine may or may not support.
type Feature string

const (
	FeatureSchemaDiscovery Feature = "schema_discovery"
	FeatureJSON            Feature = "json"
	FeatureFullTextSearch  Feature = "fulltext_search"
	FeatureWindowFunctions Feature = "window_functions"
	FeatureCTE             Feature = "cte"
	FeatureArrays          Feature = "arrays"
	FeatureUpsert          Feature = "upsert"
	FeatureFullOuterJoin   Feature = "full_outer_join"
	FeatureExplainAnalyze  Feature = "explain_analyze"
)

// PlaceholderStyle describes the parameter binding syntax an engine's driver
// expects. Adapters rewrite caller-supplied '?' placeholders to this style.
type PlaceholderStyle string

const (
	PlaceholderQuestion PlaceholderStyle = "question" // ?
	PlaceholderDollar   PlaceholderStyle = "dollar"   // $1, $2, ...
	PlaceholderAt       PlaceholderStyle = "at"       // @p1, @p2, ...
	PlaceholderColon    PlaceholderStyle = "colon"    // :1, :2, ...
)

// DialectSpec holds the engine-specific SQL vocabulary needed to phrase a
// logically equivalent query correctly. Function templates are fmt-style:
// the SQL generator substitutes column expressions and units into them.
type DialectSpec struct {
	// Function templates for common operations.
	DateTrunc    string `json:"dateTrunc"`    // e.g. "DATE_TRUNC('%s', %s)"
	ExtractYear  string `json:"extractYear"`  // e.g. "EXTRACT(YEAR FROM %s)"
	ExtractMonth string `json:"extractMonth"` // e.g. "EXTRACT(MONTH FROM %s)"
	Concat       string `json:"concat"`       // e.g. "%s || %s"
	Upper        string `json:"upper"`
	Lower        string `json:"lower"`
	Substring    string `json:"substring"`

	// Aggregates maps logical aggregate names to engine function names.
	Aggregates map[string]string `json:"aggregates"`

	// Placeholder is the parameter binding style of the native driver.
	Placeholder PlaceholderStyle `json:"placeholder"`

	// QuoteIdent is the identifier quote character.
	QuoteIdent string `json:"quoteIdent"`

	// Explain is the engine-native EXPLAIN form, ExplainAnalyze the executing
	// variant where one exists. ExplainFormat tags the shape of the output
	// ("json" or "text"); the plan body itself stays opaque to callers.
	Explain        string `json:"explain"`
	ExplainAnalyze string `json:"explainAnalyze,omitempty"`
	ExplainFormat  string `json:"explainFormat"`

	// LimitClause bounds result sets, e.g. "LIMIT %d".
	LimitClause string `json:"limitClause"`

	// Notes records free-text syntax quirks the SQL generator must honor.
	Notes []string `json:"notes,omitempty"`
}

// Capability describes what an engine supports in a way that every layer of
// the system can consume uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g. "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see EngineType constants).
	ID EngineType `json:"id"`

	// DefaultPort is the conventional network port, 0 for file-backed engines.
	DefaultPort int `json:"defaultPort,omitempty"`

	// SystemDatabases lists built-in database names, where the engine has any.
	SystemDatabases []string `json:"systemDatabases,omitempty"`

	// Features flags which capabilities the engine supports.
	Features map[Feature]bool `json:"features"`

	// Dialect is the SQL vocabulary for this engine.
	Dialect DialectSpec `json:"dialect"`

	// Aliases are alternative names (driver names, URI schemes, env labels)
	// that map to this engine.
	Aliases []string `json:"aliases,omitempty"`
}

// HasFeature reports whether the capability flags the given feature.
func (c Capability) HasFeature(f Feature) bool {
	return c.Features[f]
}

// All is the registry of capabilities keyed by the canonical engine ID.
// It is populated at init and read-only afterward.
var All = map[EngineType]Capability{
	PostgreSQL: {
		Name:            "PostgreSQL",
		ID:              PostgreSQL,
		DefaultPort:     5432,
		SystemDatabases: []string{"postgres", "template0", "template1"},
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  true,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          true,
			FeatureUpsert:          true,
			FeatureFullOuterJoin:   true,
			FeatureExplainAnalyze:  true,
		},
		Dialect: DialectSpec{
			DateTrunc:    "DATE_TRUNC('%s', %s)",
			ExtractYear:  "EXTRACT(YEAR FROM %s)",
			ExtractMonth: "EXTRACT(MONTH FROM %s)",
			Concat:       "%s || %s",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTRING(%s FROM %d FOR %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "STRING_AGG",
			},
			Placeholder:    PlaceholderDollar,
			QuoteIdent:     `"`,
			Explain:        "EXPLAIN (FORMAT JSON) %s",
			ExplainAnalyze: "EXPLAIN (ANALYZE, FORMAT JSON) %s",
			ExplainFormat:  "json",
			LimitClause:    "LIMIT %d",
		},
		Aliases: []string{"postgresql", "pg", "pgsql", "psql"},
	},
	MySQL: {
		Name:            "MySQL",
		ID:              MySQL,
		DefaultPort:     3306,
		SystemDatabases: []string{"mysql", "information_schema", "performance_schema", "sys"},
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  true,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          false,
			FeatureUpsert:          true,
			FeatureFullOuterJoin:   false,
			FeatureExplainAnalyze:  true,
		},
		Dialect: DialectSpec{
			DateTrunc:    "DATE_FORMAT(%s, '%s')",
			ExtractYear:  "YEAR(%s)",
			ExtractMonth: "MONTH(%s)",
			Concat:       "CONCAT(%s, %s)",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTRING(%s, %d, %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "GROUP_CONCAT",
			},
			Placeholder:    PlaceholderQuestion,
			QuoteIdent:     "`",
			Explain:        "EXPLAIN FORMAT=JSON %s",
			ExplainAnalyze: "EXPLAIN ANALYZE %s",
			ExplainFormat:  "json",
			LimitClause:    "LIMIT %d",
			Notes: []string{
				"no FULL OUTER JOIN; emulate with LEFT JOIN UNION RIGHT JOIN",
				"no DATE_TRUNC; truncate via DATE_FORMAT with a unit format string",
			},
		},
		Aliases: []string{"mariadb", "maria"},
	},
	SQLite: {
		Name:        "SQLite",
		ID:          SQLite,
		DefaultPort: 0,
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  true,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          false,
			FeatureUpsert:          true,
			FeatureFullOuterJoin:   true,
			FeatureExplainAnalyze:  false,
		},
		Dialect: DialectSpec{
			DateTrunc:    "strftime('%s', %s)",
			ExtractYear:  "CAST(strftime('%%Y', %s) AS INTEGER)",
			ExtractMonth: "CAST(strftime('%%m', %s) AS INTEGER)",
			Concat:       "%s || %s",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTR(%s, %d, %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "GROUP_CONCAT",
			},
			Placeholder:   PlaceholderQuestion,
			QuoteIdent:    `"`,
			Explain:       "EXPLAIN QUERY PLAN %s",
			ExplainFormat: "text",
			LimitClause:   "LIMIT %d",
			Notes: []string{
				"dates are stored as TEXT/REAL/INTEGER; truncate via strftime format strings",
			},
		},
		Aliases: []string{"sqlite3", "file"},
	},
	DuckDB: {
		Name:        "DuckDB",
		ID:          DuckDB,
		DefaultPort: 0,
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  false,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          true,
			FeatureUpsert:          true,
			FeatureFullOuterJoin:   true,
			FeatureExplainAnalyze:  true,
		},
		Dialect: DialectSpec{
			DateTrunc:    "DATE_TRUNC('%s', %s)",
			ExtractYear:  "EXTRACT(YEAR FROM %s)",
			ExtractMonth: "EXTRACT(MONTH FROM %s)",
			Concat:       "%s || %s",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTRING(%s, %d, %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "STRING_AGG",
			},
			Placeholder:    PlaceholderQuestion,
			QuoteIdent:     `"`,
			Explain:        "EXPLAIN %s",
			ExplainAnalyze: "EXPLAIN ANALYZE %s",
			ExplainFormat:  "text",
			LimitClause:    "LIMIT %d",
			Notes: []string{
				"CSV/Parquet/XLSX files are queried through read_csv_auto and friends",
			},
		},
		Aliases: []string{"olap", "olap-file", "motherduck"},
	},
	SQLServer: {
		Name:            "Microsoft SQL Server",
		ID:              SQLServer,
		DefaultPort:     1433,
		SystemDatabases: []string{"master", "model", "msdb", "tempdb"},
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  true,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          false,
			FeatureUpsert:          false,
			FeatureFullOuterJoin:   true,
			FeatureExplainAnalyze:  false,
		},
		Dialect: DialectSpec{
			DateTrunc:    "DATETRUNC(%s, %s)",
			ExtractYear:  "YEAR(%s)",
			ExtractMonth: "MONTH(%s)",
			Concat:       "CONCAT(%s, %s)",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTRING(%s, %d, %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "STRING_AGG",
			},
			Placeholder:   PlaceholderAt,
			QuoteIdent:    "[",
			Explain:       "SET SHOWPLAN_ALL ON",
			ExplainFormat: "text",
			LimitClause:   "ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY",
			Notes: []string{
				"TOP requires ORDER BY for deterministic results",
				"no native upsert; use MERGE",
				"LIMIT is expressed as OFFSET/FETCH and must follow ORDER BY",
			},
		},
		Aliases: []string{"sqlserver", "sql-server", "microsoftsqlserver", "azuresql"},
	},
	Oracle: {
		Name:        "Oracle Database",
		ID:          Oracle,
		DefaultPort: 1521,
		Features: map[Feature]bool{
			FeatureSchemaDiscovery: true,
			FeatureJSON:            true,
			FeatureFullTextSearch:  true,
			FeatureWindowFunctions: true,
			FeatureCTE:             true,
			FeatureArrays:          false,
			FeatureUpsert:          false,
			FeatureFullOuterJoin:   true,
			FeatureExplainAnalyze:  false,
		},
		Dialect: DialectSpec{
			DateTrunc:    "TRUNC(%s, '%s')",
			ExtractYear:  "EXTRACT(YEAR FROM %s)",
			ExtractMonth: "EXTRACT(MONTH FROM %s)",
			Concat:       "%s || %s",
			Upper:        "UPPER(%s)",
			Lower:        "LOWER(%s)",
			Substring:    "SUBSTR(%s, %d, %d)",
			Aggregates: map[string]string{
				"avg": "AVG", "sum": "SUM", "min": "MIN", "max": "MAX",
				"count": "COUNT", "group_concat": "LISTAGG",
			},
			Placeholder:   PlaceholderColon,
			QuoteIdent:    `"`,
			Explain:       "EXPLAIN PLAN FOR %s",
			ExplainFormat: "text",
			LimitClause:   "FETCH FIRST %d ROWS ONLY",
			Notes: []string{
				"no native upsert; use MERGE",
				"empty string and NULL are the same value in VARCHAR2 columns",
			},
		},
		Aliases: []string{"ora", "oracledb", "oci"},
	},
}

// nameToID is a normalized lookup index from any known name/alias to the
// canonical EngineType.
var nameToID map[string]EngineType

func init() {
	nameToID = make(map[string]EngineType, len(All)*3)
	for id, cap := range All {
		nameToID[strings.ToLower(string(id))] = id
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID attempts to resolve an arbitrary engine name (canonical id, alias,
// or product name) to a canonical EngineType. Returns false if unknown.
func ParseID(name string) (EngineType, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// Get returns capabilities for the given ID and a boolean indicating existence.
func Get(id EngineType) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns capabilities for the given ID and panics if not found.
// An unknown ID here is a programming error, not a runtime condition.
func MustGet(id EngineType) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown engine id: " + string(id))
	}
	return c
}

// GetByName returns the Capability by looking up a free-form name (id or alias).
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// Supports reports whether the engine supports a given feature.
// Unknown engines support nothing.
func Supports(id EngineType, f Feature) bool {
	c, ok := Get(id)
	return ok && c.Features[f]
}

// DialectFor returns the dialect specification for the given engine.
// Panics on unknown IDs, same as MustGet.
func DialectFor(id EngineType) DialectSpec {
	return MustGet(id).Dialect
}

// IDs returns the list of all known engine IDs in stable order.
func IDs() []EngineType {
	out := make([]EngineType, 0, len(All))
	for id := range All {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
