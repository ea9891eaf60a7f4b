// Package common holds the shared machinery for adapters built on
// database/sql: the pooled base adapter with its explicit lifecycle state
// machine, result-set normalization, placeholder rewriting, and identifier
// quoting. Engine packages supply the dialect-specific pieces through the
// EngineHooks interface and let SQLAdapter carry everything else.
package common
