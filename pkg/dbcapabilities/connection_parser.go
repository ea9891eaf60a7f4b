package dbcapabilities

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ConnectionDetails holds the identity-relevant parts of a connection string.
// It exists for logging, pool keying, and discovery UIs; adapters hand the
// raw string to their native driver and never round-trip through this struct.
type ConnectionDetails struct {
	Engine       EngineType        `json:"engine"`
	Host         string            `json:"host,omitempty"`
	Port         int               `json:"port,omitempty"`
	Username     string            `json:"username,omitempty"`
	DatabaseName string            `json:"database_name,omitempty"`
	FilePath     string            `json:"file_path,omitempty"`
	Parameters   map[string]string `json:"parameters,omitempty"`
	IsSystemDB   bool              `json:"is_system_db,omitempty"`
	IsLocal      bool              `json:"is_local,omitempty"`
}

// ParseConnection extracts connection details from a connection string.
// File-backed engines (sqlite, duckdb) yield a FilePath instead of host/port.
// The engine is resolved with Classify, so parsing never fails on an unknown
// scheme; it fails only on input that is structurally not a connection string.
func ParseConnection(connectionString string) (*ConnectionDetails, error) {
	s := strings.TrimSpace(connectionString)
	if s == "" {
		return nil, fmt.Errorf("connection string cannot be empty")
	}

	engine := Classify(s)
	details := &ConnectionDetails{
		Engine:     engine,
		Parameters: make(map[string]string),
	}

	if !strings.Contains(s, "://") {
		// Bare filesystem path or :memory: shorthand.
		details.FilePath = s
		details.DatabaseName = s
		details.IsLocal = true
		return details, nil
	}

	// Normalize driver-qualified schemes ("postgresql+asyncpg://...") so
	// net/url sees a plain scheme.
	normalized := s
	if plus := strings.Index(s, "+"); plus > 0 && plus < strings.Index(s, "://") {
		normalized = s[:plus] + s[strings.Index(s, "://"):]
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string format: %w", err)
	}

	switch engine {
	case SQLite, DuckDB:
		// sqlite:///path/to.db keeps the path in the URL path component.
		path := u.Path
		if u.Opaque != "" {
			path = u.Opaque
		}
		details.FilePath = strings.TrimPrefix(path, "/")
		if u.Host == ":memory:" || details.FilePath == ":memory:" || details.FilePath == "" {
			details.FilePath = ":memory:"
		}
		details.DatabaseName = details.FilePath
		details.IsLocal = true
	default:
		details.Host = NormalizeHost(u.Hostname())
		details.IsLocal = IsLocalhostVariant(u.Hostname())
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("invalid port number: %s", p)
			}
			details.Port = port
		} else if cap, ok := Get(engine); ok {
			details.Port = cap.DefaultPort
		}
		if u.User != nil {
			details.Username = u.User.Username()
		}
		details.DatabaseName = strings.Trim(u.Path, "/")
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			details.Parameters[key] = values[0]
		}
	}

	if cap, ok := Get(engine); ok && len(cap.SystemDatabases) > 0 {
		details.IsSystemDB = isSystemDatabase(details.DatabaseName, cap.SystemDatabases)
	}

	return details, nil
}

func isSystemDatabase(name string, systemDBs []string) bool {
	for _, sys := range systemDBs {
		if strings.EqualFold(name, sys) {
			return true
		}
	}
	return false
}
