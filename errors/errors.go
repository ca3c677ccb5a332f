package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the module lifecycle the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // compile/validate the binary image
	PhaseInit     Phase = "init"     // instantiation and bring-up hooks
	PhaseInvoke   Phase = "invoke"   // a host->guest invocation
	PhaseHostCall Phase = "hostcall" // a guest->host callback dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidModule     Kind = "invalid_module"     // image failed to compile or instantiate
	KindMissingExport     Kind = "missing_export"     // required guest export absent
	KindGuestError        Kind = "guest_error"        // guest reported failure for an invocation
	KindProtocolViolation Kind = "protocol_violation" // guest reported success with nothing staged
	KindNotImplemented    Kind = "not_implemented"    // host call with no matching registration
	KindCallbackFailure   Kind = "callback_failure"   // registered callback failed or panicked
	KindOutOfBounds       Kind = "out_of_bounds"      // guest-supplied region exceeds its memory
	KindInvalidInput      Kind = "invalid_input"      // caller misuse (e.g. concurrent Invoke)
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when their
// Phase and Kind agree; Detail and Cause are not compared.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the protocol taxonomy

// InvalidModule wraps a compile or validation failure of a binary image.
// Fatal to that load attempt; no instance is returned.
func InvalidModule(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidModule,
		Detail: "module failed to compile",
		Cause:  cause,
	}
}

// Instantiation wraps an engine-level instantiation failure.
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindInvalidModule,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// MissingExport reports a required guest export that is absent after
// bring-up. Fatal setup error: the module does not implement the protocol.
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("guest does not export %q", name),
	}
}

// GuestError reports a guest-signaled failure for an invocation, carrying
// the guest-supplied error text verbatim. The instance remains usable.
func GuestError(text string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindGuestError,
		Detail: text,
	}
}

// ProtocolViolation reports a guest that signaled success but staged
// neither a response nor an error. Distinct from GuestError: it indicates a
// non-conformant guest rather than an expected guest-reported failure.
func ProtocolViolation(detail string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindProtocolViolation,
		Detail: detail,
	}
}

// OutOfBounds reports a guest-supplied (pointer, length) region that
// exceeds the current memory size. The access is rejected before it happens.
func OutOfBounds(phase Phase, what string, offset, length, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("%s: region offset=%d length=%d exceeds memory size %d", what, offset, length, size),
	}
}

// InvalidInput reports caller misuse of the public API.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// CallbackFailure wraps an error raised by the registered host callback.
// It is rendered as data for the guest, never unwound across the boundary.
func CallbackFailure(cause error) *Error {
	return &Error{
		Phase:  PhaseHostCall,
		Kind:   KindCallbackFailure,
		Detail: "host callback failed",
		Cause:  cause,
	}
}

// HostCallNotImplementedError is returned when the guest invokes a
// (binding, namespace, operation) triple with no matching registration. It
// carries the exact triple the guest supplied.
type HostCallNotImplementedError struct {
	Binding   string
	Namespace string
	Operation string
}

func (e *HostCallNotImplementedError) Error() string {
	return fmt.Sprintf("host call not implemented: binding=%q namespace=%q operation=%q",
		e.Binding, e.Namespace, e.Operation)
}

// Is reports whether target matches this error type
func (e *HostCallNotImplementedError) Is(target error) bool {
	_, ok := target.(*HostCallNotImplementedError)
	return ok
}
