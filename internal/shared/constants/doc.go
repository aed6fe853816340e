// Package constants centralizes defaults shared across the CLI and the engine.
//
// Timeouts, pool sizes, file permissions and the HSTS preload threshold live
// here so cmd/ and internal/ packages can reference them without import cycles.
// Callers still pass these values explicitly through config structs; nothing
// in this package is mutable.
package constants
