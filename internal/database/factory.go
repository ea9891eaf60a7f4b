// Package database ties the engine adapters together: importing it
// registers every built-in engine, and the factory functions are the
// entry points callers use instead of touching engine packages directly.
package database

import (
	"log/slog"
	"sort"

	"github.com/dbweave/dbweave/pkg/adapter"
	"github.com/dbweave/dbweave/pkg/dbcapabilities"

	_ "github.com/dbweave/dbweave/internal/database/duckdb"
	_ "github.com/dbweave/dbweave/internal/database/mssql"
	_ "github.com/dbweave/dbweave/internal/database/mysql"
	_ "github.com/dbweave/dbweave/internal/database/oracle"
	_ "github.com/dbweave/dbweave/internal/database/postgres"
	_ "github.com/dbweave/dbweave/internal/database/sqlite"
)

// Create builds an unconnected adapter for the configuration. Construction
// is cheap and performs no I/O; callers connect explicitly.
func Create(cfg adapter.ConnectionConfig) (adapter.Adapter, error) {
	if cfg.Engine == "" && ambiguousConnString(cfg.ConnectionString) {
		slog.Debug("connection string matched no engine rule, using default",
			"engine", dbcapabilities.DefaultEngine,
			"connection_string_length", len(cfg.ConnectionString))
	}
	return adapter.New(cfg)
}

// ambiguousConnString reports whether classification of s would fall back to
// the default engine rather than match a scheme or extension rule.
func ambiguousConnString(s string) bool {
	return dbcapabilities.ClassifyDefault(s, dbcapabilities.PostgreSQL) !=
		dbcapabilities.ClassifyDefault(s, dbcapabilities.MySQL)
}

// DetectType resolves the engine a connection string targets.
func DetectType(connString string) dbcapabilities.EngineType {
	return dbcapabilities.Classify(connString)
}

// ListSupportedEngines returns one entry per known engine, in stable order,
// for discovery UIs. Engines present in the capability matrix but without a
// registered driver report as unregistered.
func ListSupportedEngines() []adapter.EngineInfo {
	registry := adapter.DefaultRegistry()

	var infos []adapter.EngineInfo
	for _, id := range dbcapabilities.IDs() {
		capability := dbcapabilities.MustGet(id)

		status := "unregistered"
		if registry.IsRegistered(id) {
			status = "available"
		}

		var features []dbcapabilities.Feature
		for feature, supported := range capability.Features {
			if supported {
				features = append(features, feature)
			}
		}
		sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })

		infos = append(infos, adapter.EngineInfo{
			Name:     capability.Name,
			Engine:   id,
			Status:   status,
			Features: features,
		})
	}
	return infos
}
