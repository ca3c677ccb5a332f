// Package wapcruntime provides a Go host runtime for the waPC protocol.
//
// waPC is a bidirectional remote-call protocol between a host process and a
// sandboxed WebAssembly guest. The host invokes named operations inside the
// guest with opaque byte payloads; the guest may, mid-call, invoke
// host-registered callbacks identified by a (binding, namespace, operation)
// triple. Every exchange of variable-length data crosses the linear-memory
// boundary through an explicit handshake: lengths travel as call arguments,
// and each side pulls the actual bytes into memory it owns.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wapcruntime/     Root package with the HostCallHandler capability type
//	├── runtime/     High-level API: Runtime, Module, Instance, Invoke
//	├── engine/      Low-level wazero integration and WASI wiring
//	├── wasm/        Minimal core-module builder for fixtures and probes
//	└── errors/      Structured error types for the protocol taxonomy
//
// # Quick Start
//
// Load a guest and invoke an operation:
//
//	rt, err := runtime.NewWithConfig(ctx, &runtime.Config{
//	    HostCallHandler: func(ctx context.Context, binding, namespace, operation string, payload []byte) ([]byte, error) {
//	        return nil, fmt.Errorf("no such host call")
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	resp, err := inst.Invoke(ctx, "echo", []byte("hello"))
//
// # Guest Contract
//
// A conforming guest exports __guest_call(operation_len, payload_len) -> i32
// and imports the "wapc" host module for the marshalling handshake. Optional
// _start and wapc_init exports run once at instantiation, in that order.
// Operation dispatch lives entirely inside the guest; the host carries no
// registry of operation names.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT
// thread-safe: the protocol permits one outstanding invocation per instance,
// and a second concurrent Invoke is rejected. Use one Instance per
// goroutine, or serialize access.
//
// # Memory Model
//
// Guest linear memory is exclusively owned by the guest instance. The host
// only reads or writes regions the guest itself described with a
// (pointer, length) pair, and every such pair is validated against the
// current memory size before the access.
package wapcruntime
