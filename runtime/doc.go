// Package runtime provides the high-level API for hosting waPC guests.
//
// A Runtime owns the engine, the registered host-call handler, and the
// console sink. Modules are compiled once and instantiated many times;
// each Instance owns its linear memory and its shared call state, and
// supports one outstanding invocation at a time.
package runtime
