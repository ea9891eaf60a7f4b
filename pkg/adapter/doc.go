// Package adapter provides the unified contract for all database adapters.
// This package defines the interfaces, value types, and error taxonomy that
// engine-specific implementations must follow.
//
// An Adapter wraps one connection pool for one data source and exposes a
// uniform, read-only operation set: connect, disconnect, health check,
// execute, validate, sample, statistics, and explain. Concrete
// implementations live under internal/database/<engine> and register
// themselves with the package-level registry at import time:
//
//	import (
//	    "github.com/dbweave/dbweave/pkg/adapter"
//	    _ "github.com/dbweave/dbweave/internal/database/postgres"
//	)
//
//	a, err := adapter.New(adapter.ConnectionConfig{
//	    ConnectionString: "postgres://user@host/db",
//	})
//
// Lifecycle is explicit: Uninitialized -> Connected -> Disconnected.
// Connecting again from Disconnected is legal. Calling ExecuteQuery in any
// state but Connected fails with ErrNotConnected; adapters never silently
// reconnect mid-call.
//
// Expected, recoverable conditions (connection test failing, validation
// failing) are reported as return values, not panics. The only panics in
// this layer are programming errors such as looking up a capability for an
// engine outside the enumeration.
package adapter
