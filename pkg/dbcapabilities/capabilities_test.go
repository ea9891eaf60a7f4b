package dbcapabilities

import (
	"testing"
)

// Every engine in the enumeration must have a complete capability entry with
// the dialect templates the SQL generator depends on.
func TestRegistryIsTotal(t *testing.T) {
	engines := []EngineType{PostgreSQL, MySQL, SQLite, DuckDB, SQLServer, Oracle}

	if len(All) != len(engines) {
		t.Fatalf("registry has %d entries, want %d", len(All), len(engines))
	}

	for _, id := range engines {
		t.Run(string(id), func(t *testing.T) {
			cap, ok := Get(id)
			if !ok {
				t.Fatalf("no capability entry for %q", id)
			}
			if cap.ID != id {
				t.Errorf("capability ID mismatch: %q vs %q", cap.ID, id)
			}
			if cap.Name == "" {
				t.Error("capability has empty product name")
			}
			d := cap.Dialect
			if d.DateTrunc == "" {
				t.Error("dialect has empty date truncation template")
			}
			if d.ExtractYear == "" {
				t.Error("dialect has empty year extraction template")
			}
			if d.Concat == "" {
				t.Error("dialect has empty string concatenation template")
			}
			if d.Explain == "" {
				t.Error("dialect has empty explain syntax")
			}
			if d.Placeholder == "" {
				t.Error("dialect has empty placeholder style")
			}
			if len(d.Aggregates) == 0 {
				t.Error("dialect has no aggregate function mappings")
			}
		})
	}
}

func TestMustGetPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustGet on an unknown engine must panic")
		}
	}()
	MustGet(EngineType("foxpro"))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected EngineType
		ok       bool
	}{
		{"canonical id", "postgres", PostgreSQL, true},
		{"alias", "postgresql", PostgreSQL, true},
		{"short alias", "pg", PostgreSQL, true},
		{"product name", "PostgreSQL", PostgreSQL, true},
		{"mariadb maps to mysql", "mariadb", MySQL, true},
		{"sqlserver alias", "sqlserver", SQLServer, true},
		{"olap-file maps to duckdb", "olap-file", DuckDB, true},
		{"oracle alias", "ora", Oracle, true},
		{"mixed case", "SQLite3", SQLite, true},
		{"padded", "  mysql  ", MySQL, true},
		{"unknown", "dbase", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseID(tt.input)
			if ok != tt.ok || id != tt.expected {
				t.Errorf("ParseID(%q) = (%q, %v), want (%q, %v)", tt.input, id, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestSupports(t *testing.T) {
	if !Supports(PostgreSQL, FeatureArrays) {
		t.Error("postgres should support arrays")
	}
	if Supports(MySQL, FeatureFullOuterJoin) {
		t.Error("mysql should not support FULL OUTER JOIN")
	}
	if Supports(EngineType("unknown"), FeatureCTE) {
		t.Error("unknown engines support nothing")
	}
}

func TestIDsAreStable(t *testing.T) {
	first := IDs()
	second := IDs()
	if len(first) != len(second) {
		t.Fatalf("IDs() length changed between calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("IDs() order is not stable at %d: %q vs %q", i, first[i], second[i])
		}
	}
}
