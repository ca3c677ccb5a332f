// Package engine wraps the wazero runtime for the waPC host.
//
// It owns everything wazero-specific: runtime construction, module
// compilation, instantiation with bring-up disabled (the protocol driver
// calls _start and wapc_init itself), host-module registration, WASI
// wiring, and the bounds-checked view over guest linear memory.
//
// The engine treats compilation and instantiation as opaque, assumed
// correct capabilities; failures from either are wrapped as invalid-module
// conditions and surfaced to the caller.
package engine
