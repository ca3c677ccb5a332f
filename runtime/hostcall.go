package runtime

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wapc-runtime/engine"
	"github.com/wippyai/wapc-runtime/errors"
)

// region is a guest-described (pointer, length) view into the calling
// instance's linear memory.
type region struct {
	ptr    uint32
	length uint32
}

type hostCallRegions struct {
	binding   region
	namespace region
	operation region
	payload   region
}

// dispatchHostCall reads the four regions out of the calling guest's
// memory, invokes the registered host callback, and stages exactly one of
// hostResponse/hostError. It returns 1 on success and 0 on failure; the
// guest pulls the staged bytes with the mirror of the outer protocol.
//
// Every failure path - unreadable region, missing registration, callback
// error, callback panic - is converted to data and a 0 status. The guest is
// expecting a well-defined result, so no condition may propagate across the
// boundary as a fault.
func (s *callState) dispatchHostCall(ctx context.Context, mem *engine.Memory, r hostCallRegions) uint32 {
	binding, err := readRegion(mem, "binding", r.binding)
	if err != nil {
		s.setHostError(err.Error())
		return 0
	}
	namespace, err := readRegion(mem, "namespace", r.namespace)
	if err != nil {
		s.setHostError(err.Error())
		return 0
	}
	operation, err := readRegion(mem, "operation", r.operation)
	if err != nil {
		s.setHostError(err.Error())
		return 0
	}
	payloadView, err := readRegion(mem, "payload", r.payload)
	if err != nil {
		s.setHostError(err.Error())
		return 0
	}

	if s.handler == nil {
		notImpl := &errors.HostCallNotImplementedError{
			Binding:   string(binding),
			Namespace: string(namespace),
			Operation: string(operation),
		}
		s.setHostError(notImpl.Error())
		return 0
	}

	// The view aliases guest memory; the handler may retain the payload, so
	// hand it a copy.
	resp, callErr := s.invokeHandler(ctx, string(binding), string(namespace), string(operation), bytes.Clone(payloadView))
	if callErr != nil {
		engine.Logger().Debug("host call failed",
			zap.String("binding", string(binding)),
			zap.String("namespace", string(namespace)),
			zap.String("operation", string(operation)),
			zap.Error(callErr))
		s.setHostError(callErr.Error())
		return 0
	}

	s.setHostResponse(resp)
	return 1
}

// invokeHandler calls the registered callback with panic containment: a
// panicking callback is recorded as a callback failure instead of
// unwinding through the guest's stack frames.
func (s *callState) invokeHandler(ctx context.Context, binding, namespace, operation string, payload []byte) (resp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = errors.CallbackFailure(fmt.Errorf("panic: %v", r))
		}
	}()
	return s.handler(ctx, binding, namespace, operation, payload)
}

func readRegion(mem *engine.Memory, what string, r region) ([]byte, error) {
	view, err := mem.Read(r.ptr, r.length)
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseHostCall, what, r.ptr, r.length, mem.Size())
	}
	return view, nil
}
