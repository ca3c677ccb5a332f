// Package wasm builds minimal core WebAssembly modules programmatically.
//
// The runtime's tests and tooling need small, exactly-shaped guest modules
// (an echo guest, a guest that issues a host call, a deliberately
// non-conformant guest). Rather than checking in opaque binary fixtures,
// they are assembled here section by section: types, imports, functions with
// raw instruction bodies, memory, exports, and data segments.
//
//	b := wasm.NewModuleBuilder()
//	req := b.ImportFunc("wapc", "__guest_request", wasm.FuncType{Params: []byte{wasm.ValTypeI32, wasm.ValTypeI32}})
//	...
//	image := b.Encode()
//
// Only the handful of sections and instructions the waPC guest contract
// requires are supported.
package wasm
