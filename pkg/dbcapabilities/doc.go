// Package dbcapabilities provides a shared registry describing the engines
// supported by dbweave and the SQL dialect each one speaks. Callers can import
// this package to make decisions based on uniform metadata (feature flags,
// function templates, EXPLAIN syntax) without touching a live connection.
//
// Minimal usage example:
//
//	import "github.com/dbweave/dbweave/pkg/dbcapabilities"
//
//	func canUseWindowFunctions(engine string) bool {
//	    id, ok := dbcapabilities.ParseID(engine)
//	    return ok && dbcapabilities.Supports(id, dbcapabilities.FeatureWindowFunctions)
//	}
//
// The registry `All` is built once at process start and is read-only
// afterward. Looking up an EngineType that is not part of the enumeration
// through MustGet is a programming error and panics.
//
// The package also contains the engine classifier: Classify maps a raw
// connection string (URI scheme, driver-qualified scheme, or bare file path)
// to an EngineType without performing any I/O.
package dbcapabilities
