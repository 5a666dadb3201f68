// Package preferences reads and writes dock and control strip settings.
//
// The settings live in a system-owned preference store addressed by domain
// and key. This package is a thin typed layer over a Store: it checks
// ranges and enum values and otherwise passes values through unchanged.
// FileStore keeps the values in a JSON file for hosts without a system
// store, MemoryStore is for tests and dry runs.
package preferences
