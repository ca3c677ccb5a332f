package runtime

import (
	"bytes"
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wapc-runtime/engine"
	"github.com/wippyai/wapc-runtime/errors"
)

// hostModuleName is the import namespace the guest links the protocol
// surface under.
const hostModuleName = "wapc"

// Guest-facing function names. Lengths always travel as call arguments, so
// the guest knows exactly how much of its own memory to reserve before it
// asks for bytes; the host only ever writes into guest-owned destinations
// or reads from guest-described sources.
const (
	fnGuestRequest    = "__guest_request"
	fnGuestResponse   = "__guest_response"
	fnGuestError      = "__guest_error"
	fnHostCall        = "__host_call"
	fnHostResponseLen = "__host_response_len"
	fnHostResponse    = "__host_response"
	fnHostErrorLen    = "__host_error_len"
	fnHostError       = "__host_error"
	fnConsoleLog      = "__console_log"
)

var (
	i32 = api.ValueTypeI32

	sig2i32  = []api.ValueType{i32, i32}
	sig1i32  = []api.ValueType{i32}
	sig8i32  = []api.ValueType{i32, i32, i32, i32, i32, i32, i32, i32}
	sigRet32 = []api.ValueType{i32}
)

// hostModuleFunctions returns the waPC guest-import surface. The functions
// are stateless; per-instance call state is resolved from the invocation
// context, and memory always comes from the calling module, never a cached
// handle.
func hostModuleFunctions() []engine.HostFunction {
	return []engine.HostFunction{
		{Name: fnGuestRequest, Fn: guestRequest, Params: sig2i32},
		{Name: fnGuestResponse, Fn: guestResponse, Params: sig2i32},
		{Name: fnGuestError, Fn: guestError, Params: sig2i32},
		{Name: fnHostCall, Fn: hostCall, Params: sig8i32, Results: sigRet32},
		{Name: fnHostResponseLen, Fn: hostResponseLen, Results: sigRet32},
		{Name: fnHostResponse, Fn: hostResponse, Params: sig1i32},
		{Name: fnHostErrorLen, Fn: hostErrorLen, Results: sigRet32},
		{Name: fnHostError, Fn: hostError, Params: sig1i32},
		{Name: fnConsoleLog, Fn: consoleLog, Params: sig2i32},
	}
}

func callMemory(m api.Module) *engine.Memory {
	return engine.NewMemory(m.Memory())
}

// guestRequest copies the staged operation name and payload into guest
// memory at the two destinations the guest reserved. The guest learned both
// lengths from the __guest_call arguments, so the host writes exactly that
// much and never beyond.
func guestRequest(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil || s.invocation == nil {
		return
	}

	mem := callMemory(m)
	opPtr := uint32(stack[0])
	payloadPtr := uint32(stack[1])

	if err := mem.Write(opPtr, s.invocation.operationBytes); err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseInvoke, "operation destination",
			opPtr, uint32(len(s.invocation.operationBytes)), mem.Size()))
		return
	}
	if err := mem.Write(payloadPtr, s.invocation.payload); err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseInvoke, "payload destination",
			payloadPtr, uint32(len(s.invocation.payload)), mem.Size()))
	}
}

// guestResponse stages the guest's response bytes, clearing any prior
// error for this invocation.
func guestResponse(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		return
	}

	mem := callMemory(m)
	ptr := uint32(stack[0])
	length := uint32(stack[1])

	view, err := mem.Read(ptr, length)
	if err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseInvoke, "response source", ptr, length, mem.Size()))
		return
	}
	s.setGuestResponse(bytes.Clone(view))
}

// guestError stages the guest's error text, clearing any prior response.
func guestError(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		return
	}

	mem := callMemory(m)
	ptr := uint32(stack[0])
	length := uint32(stack[1])

	view, err := mem.Read(ptr, length)
	if err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseInvoke, "error source", ptr, length, mem.Size()))
		return
	}
	s.setGuestError(string(view))
}

// hostCall dispatches a guest-initiated host call and reports 1 (success)
// or 0 (failure) back to the guest. All failures become data the guest can
// pull via __host_error; nothing unwinds across the boundary.
func hostCall(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		stack[0] = 0
		return
	}

	regions := hostCallRegions{
		binding:   region{uint32(stack[0]), uint32(stack[1])},
		namespace: region{uint32(stack[2]), uint32(stack[3])},
		operation: region{uint32(stack[4]), uint32(stack[5])},
		payload:   region{uint32(stack[6]), uint32(stack[7])},
	}
	stack[0] = uint64(s.dispatchHostCall(ctx, callMemory(m), regions))
}

// hostResponseLen exposes the staged host response length. Only meaningful
// after a successful __host_call.
func hostResponseLen(ctx context.Context, _ api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		stack[0] = 0
		return
	}
	stack[0] = uint64(len(s.hostResponse))
}

func hostResponse(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		return
	}

	mem := callMemory(m)
	ptr := uint32(stack[0])
	if err := mem.Write(ptr, s.hostResponse); err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseHostCall, "host response destination",
			ptr, uint32(len(s.hostResponse)), mem.Size()))
	}
}

// hostErrorLen exposes the staged host error length. Only meaningful after
// a failed __host_call.
func hostErrorLen(ctx context.Context, _ api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		stack[0] = 0
		return
	}
	stack[0] = uint64(len(s.hostError))
}

func hostError(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil {
		return
	}

	mem := callMemory(m)
	ptr := uint32(stack[0])
	if err := mem.Write(ptr, []byte(s.hostError)); err != nil {
		s.fail(errors.OutOfBounds(errors.PhaseHostCall, "host error destination",
			ptr, uint32(len(s.hostError)), mem.Size()))
	}
}

// consoleLog forwards guest text to the console sink. Best-effort: a bad
// region or a failed write is logged and swallowed, never trapped.
func consoleLog(ctx context.Context, m api.Module, stack []uint64) {
	s := callStateFrom(ctx)
	if s == nil || s.console == nil {
		return
	}

	mem := callMemory(m)
	ptr := uint32(stack[0])
	length := uint32(stack[1])

	view, err := mem.Read(ptr, length)
	if err != nil {
		engine.Logger().Debug("console log region out of bounds",
			zap.Uint32("ptr", ptr), zap.Uint32("length", length))
		return
	}

	msg := make([]byte, 0, len(view)+1)
	msg = append(msg, view...)
	msg = append(msg, '\n')
	if _, err := s.console.Write(msg); err != nil {
		engine.Logger().Debug("console write failed", zap.Error(err))
	}
}
