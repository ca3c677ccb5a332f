// Package errors provides structured error types for the waPC runtime.
//
// Every failure carries a Phase (where in the module lifecycle it occurred)
// and a Kind (what class of failure it is). errors.Is matches on the
// Phase+Kind pair, so callers can distinguish, say, a guest-reported
// failure from a protocol violation without string matching:
//
//	if errors.Is(err, errors.GuestError("")) {
//	    // the guest rejected the operation; the instance is still usable
//	}
//
// Host-call failures that must be reported back INTO the guest are typed
// separately (HostCallNotImplementedError) so the host caller can recover
// the exact (binding, namespace, operation) triple the guest supplied.
package errors
