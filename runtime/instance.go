package runtime

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wapc-runtime/engine"
	"github.com/wippyai/wapc-runtime/errors"
)

// guestCallName is the guest's call-dispatch export required by the
// protocol; startName and initName are its optional bring-up hooks, run in
// that order.
const (
	guestCallName = "__guest_call"
	startName     = "_start"
	initName      = "wapc_init"
)

// Instance is a running waPC guest. It is NOT safe for concurrent use: the
// protocol allows one outstanding invocation per instance, and a second
// concurrent Invoke is rejected rather than allowed to corrupt call state.
type Instance struct {
	module    *Module
	instance  api.Module
	guestCall api.Function
	state     *callState
	inflight  atomic.Bool
	closed    atomic.Bool
}

// bringUp runs the optional initializer and the fixed _start -> wapc_init
// hook order, then resolves the call-dispatch export.
func (i *Instance) bringUp(ctx context.Context, initialize func(context.Context, *Instance) error) error {
	// Bring-up hooks may log through __console_log, so call state must
	// already be reachable from the context.
	ctx = withCallState(ctx, i.state)

	if initialize != nil {
		if err := initialize(ctx, i); err != nil {
			return &errors.Error{
				Phase:  errors.PhaseInit,
				Kind:   errors.KindInvalidModule,
				Detail: "initialize hook",
				Cause:  err,
			}
		}
	}

	for _, name := range []string{startName, initName} {
		fn := i.instance.ExportedFunction(name)
		if fn == nil {
			continue
		}
		engine.Logger().Debug("running bring-up hook", zap.String("hook", name))
		if _, err := fn.Call(ctx); err != nil {
			return &errors.Error{
				Phase:  errors.PhaseInit,
				Kind:   errors.KindInvalidModule,
				Detail: "run " + name,
				Cause:  err,
			}
		}
	}

	i.guestCall = i.instance.ExportedFunction(guestCallName)
	if i.guestCall == nil {
		return errors.MissingExport(guestCallName)
	}
	return nil
}

// Invoke calls the named operation inside the guest with an opaque payload
// and returns the bytes the guest staged as its response.
//
// Only the two lengths cross the call boundary directly; the guest pulls
// the operation name and payload into its own memory, and pushes back
// exactly one of a response or an error. A guest-signaled failure returns a
// guest error carrying the guest's text; success with nothing staged is a
// protocol violation, reported distinctly because it indicates a
// non-conformant guest rather than an expected failure.
func (i *Instance) Invoke(ctx context.Context, operation string, payload []byte) ([]byte, error) {
	if i.closed.Load() {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "instance is closed")
	}
	if !i.inflight.CompareAndSwap(false, true) {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "an invocation is already outstanding on this instance")
	}
	defer i.inflight.Store(false)

	inv := &invocation{
		operation:      operation,
		operationBytes: []byte(operation),
		payload:        payload,
	}
	i.state.begin(inv)
	ctx = withCallState(ctx, i.state)

	results, err := i.guestCall.Call(ctx, uint64(len(inv.operationBytes)), uint64(len(inv.payload)))
	if err != nil {
		return nil, &errors.Error{
			Phase:  errors.PhaseInvoke,
			Kind:   errors.KindGuestError,
			Detail: "guest trapped during " + operation,
			Cause:  err,
		}
	}
	if i.state.fault != nil {
		return nil, i.state.fault
	}

	if len(results) == 0 || results[0] == 0 {
		text := i.state.guestError
		if !i.state.guestErrorSet {
			text = "guest call failed and supplied no error message"
		}
		return nil, errors.GuestError(text)
	}

	if !i.state.guestResponseSet {
		return nil, errors.ProtocolViolation("guest reported success for " + operation + " but staged no response")
	}
	return i.state.guestResponse, nil
}

// MemorySize returns the current linear memory size in bytes, or 0 if the
// guest declares no memory.
func (i *Instance) MemorySize() uint32 {
	if i.instance.Memory() == nil {
		return 0
	}
	return engine.NewMemory(i.instance.Memory()).Size()
}

// Close destroys the instance and its call state.
func (i *Instance) Close(ctx context.Context) error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	return i.instance.Close(ctx)
}
