package runtime

// Guest fixtures for the protocol tests, assembled with the wasm builder.
// Layout convention inside each guest's single memory page: data segments
// live below offset 1024, pull destinations start at 1024, and the scratch
// buffer for host-call results starts at 8192.

import (
	"context"
	"testing"

	"github.com/wippyai/wapc-runtime/wasm"
)

const (
	opDst      = 1024
	payloadDst = 4096
	scratchBuf = 8192
)

var (
	sigPtrPtr = wasm.FuncType{Params: []byte{wasm.ValTypeI32, wasm.ValTypeI32}}
	sigPtrLen = wasm.FuncType{Params: []byte{wasm.ValTypeI32, wasm.ValTypeI32}}
	sigPtr    = wasm.FuncType{Params: []byte{wasm.ValTypeI32}}
	sigRetI32 = wasm.FuncType{Results: []byte{wasm.ValTypeI32}}
	sigGuestCall = wasm.FuncType{
		Params:  []byte{wasm.ValTypeI32, wasm.ValTypeI32},
		Results: []byte{wasm.ValTypeI32},
	}
	sigHostCall = wasm.FuncType{
		Params: []byte{
			wasm.ValTypeI32, wasm.ValTypeI32, wasm.ValTypeI32, wasm.ValTypeI32,
			wasm.ValTypeI32, wasm.ValTypeI32, wasm.ValTypeI32, wasm.ValTypeI32,
		},
		Results: []byte{wasm.ValTypeI32},
	}
)

// echoGuest accepts any operation and responds with the request payload
// unchanged.
func echoGuest() []byte {
	b := wasm.NewModuleBuilder()
	req := b.ImportFunc("wapc", "__guest_request", sigPtrPtr)
	resp := b.ImportFunc("wapc", "__guest_response", sigPtrLen)

	body := wasm.NewBody().
		I32Const(opDst).I32Const(payloadDst).Call(req).
		I32Const(payloadDst).LocalGet(1).Call(resp).
		I32Const(1)

	b.Memory(1)
	b.ExportMemory("memory")
	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 0, body.Bytes()))
	return b.Encode()
}

// failingGuest rejects every operation with a fixed error message.
func failingGuest(message string) []byte {
	b := wasm.NewModuleBuilder()
	guestErr := b.ImportFunc("wapc", "__guest_error", sigPtrLen)

	const msgOff = 64
	b.Memory(1)
	b.Data(msgOff, []byte(message))

	body := wasm.NewBody().
		I32Const(msgOff).I32Const(int32(len(message))).Call(guestErr).
		I32Const(0)

	b.ExportMemory("memory")
	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 0, body.Bytes()))
	return b.Encode()
}

// hostCallGuest issues one host call with fixed binding/namespace/operation
// and payload, then mirrors the result: a successful call's response
// becomes the guest response, a failed call's error text becomes the guest
// error.
func hostCallGuest(binding, namespace, operation, payload string) []byte {
	b := wasm.NewModuleBuilder()
	hostCall := b.ImportFunc("wapc", "__host_call", sigHostCall)
	hostRespLen := b.ImportFunc("wapc", "__host_response_len", sigRetI32)
	hostResp := b.ImportFunc("wapc", "__host_response", sigPtr)
	hostErrLen := b.ImportFunc("wapc", "__host_error_len", sigRetI32)
	hostErr := b.ImportFunc("wapc", "__host_error", sigPtr)
	guestResp := b.ImportFunc("wapc", "__guest_response", sigPtrLen)
	guestErr := b.ImportFunc("wapc", "__guest_error", sigPtrLen)

	const (
		bdOff = 64
		nsOff = 192
		opOff = 320
		plOff = 448
	)
	b.Memory(1)
	b.Data(bdOff, []byte(binding))
	b.Data(nsOff, []byte(namespace))
	b.Data(opOff, []byte(operation))
	b.Data(plOff, []byte(payload))

	// one scratch local (index 2) holds the staged result length
	body := wasm.NewBody().
		I32Const(bdOff).I32Const(int32(len(binding))).
		I32Const(nsOff).I32Const(int32(len(namespace))).
		I32Const(opOff).I32Const(int32(len(operation))).
		I32Const(plOff).I32Const(int32(len(payload))).
		Call(hostCall).
		I32Eqz().
		If().
		Call(hostErrLen).LocalSet(2).
		I32Const(scratchBuf).Call(hostErr).
		I32Const(scratchBuf).LocalGet(2).Call(guestErr).
		I32Const(0).Return().
		End().
		Call(hostRespLen).LocalSet(2).
		I32Const(scratchBuf).Call(hostResp).
		I32Const(scratchBuf).LocalGet(2).Call(guestResp).
		I32Const(1)

	b.ExportMemory("memory")
	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 1, body.Bytes()))
	return b.Encode()
}

// oobHostCallGuest issues a host call whose binding region lies far outside
// its one-page memory, then mirrors the host error back as its guest error.
func oobHostCallGuest() []byte {
	b := wasm.NewModuleBuilder()
	hostCall := b.ImportFunc("wapc", "__host_call", sigHostCall)
	hostErrLen := b.ImportFunc("wapc", "__host_error_len", sigRetI32)
	hostErr := b.ImportFunc("wapc", "__host_error", sigPtr)
	guestErr := b.ImportFunc("wapc", "__guest_error", sigPtrLen)

	b.Memory(1)

	body := wasm.NewBody().
		I32Const(0x7FFF0000).I32Const(8).
		I32Const(0).I32Const(0).
		I32Const(0).I32Const(0).
		I32Const(0).I32Const(0).
		Call(hostCall).
		Drop().
		Call(hostErrLen).LocalSet(2).
		I32Const(scratchBuf).Call(hostErr).
		I32Const(scratchBuf).LocalGet(2).Call(guestErr).
		I32Const(0)

	b.ExportMemory("memory")
	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 1, body.Bytes()))
	return b.Encode()
}

// oobPushGuest stages its response or error (per pushImport) from a region
// far outside its one-page memory, then signals success.
func oobPushGuest(pushImport string) []byte {
	b := wasm.NewModuleBuilder()
	push := b.ImportFunc("wapc", pushImport, sigPtrLen)

	b.Memory(1)
	b.ExportMemory("memory")

	body := wasm.NewBody().
		I32Const(0x7FFF0000).I32Const(8).Call(push).
		I32Const(1)

	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 0, body.Bytes()))
	return b.Encode()
}

// memorylessGuest imports the protocol surface but declares no linear
// memory at all, so every region it describes is unreadable.
func memorylessGuest() []byte {
	b := wasm.NewModuleBuilder()
	resp := b.ImportFunc("wapc", "__guest_response", sigPtrLen)

	body := wasm.NewBody().
		I32Const(0).I32Const(8).Call(resp).
		I32Const(1)

	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 0, body.Bytes()))
	return b.Encode()
}

// misbehavingGuest signals success without staging a response or an error.
func misbehavingGuest() []byte {
	b := wasm.NewModuleBuilder()
	b.Memory(1)
	b.ExportMemory("memory")
	b.ExportFunc("__guest_call", b.AddFunc(sigGuestCall, 0, wasm.NewBody().I32Const(1).Bytes()))
	return b.Encode()
}

// memoryOnlyGuest exports memory but not __guest_call.
func memoryOnlyGuest() []byte {
	b := wasm.NewModuleBuilder()
	b.Memory(1)
	b.ExportMemory("memory")
	return b.Encode()
}

// lifecycleGuest logs from _start and wapc_init and answers every
// operation with "ok".
func lifecycleGuest() []byte {
	b := wasm.NewModuleBuilder()
	log := b.ImportFunc("wapc", "__console_log", sigPtrLen)
	guestResp := b.ImportFunc("wapc", "__guest_response", sigPtrLen)

	const (
		startMsg = "guest starting"
		initMsg  = "guest ready"
		okMsg    = "ok"
		startOff = 16
		initOff  = 64
		okOff    = 112
	)
	b.Memory(1)
	b.Data(startOff, []byte(startMsg))
	b.Data(initOff, []byte(initMsg))
	b.Data(okOff, []byte(okMsg))

	start := b.AddFunc(wasm.FuncType{}, 0,
		wasm.NewBody().I32Const(startOff).I32Const(int32(len(startMsg))).Call(log).Bytes())
	init := b.AddFunc(wasm.FuncType{}, 0,
		wasm.NewBody().I32Const(initOff).I32Const(int32(len(initMsg))).Call(log).Bytes())
	call := b.AddFunc(sigGuestCall, 0,
		wasm.NewBody().I32Const(okOff).I32Const(int32(len(okMsg))).Call(guestResp).I32Const(1).Bytes())

	b.ExportMemory("memory")
	b.ExportFunc("_start", start)
	b.ExportFunc("wapc_init", init)
	b.ExportFunc("__guest_call", call)
	return b.Encode()
}

func newTestRuntime(t *testing.T, cfg *Config) *Runtime {
	t.Helper()
	ctx := context.Background()

	rt, err := NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("create runtime: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt
}

func instantiate(t *testing.T, rt *Runtime, image []byte) *Instance {
	t.Helper()
	ctx := context.Background()

	mod, err := rt.Load(ctx, image)
	if err != nil {
		t.Fatalf("load module: %v", err)
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })
	return inst
}
