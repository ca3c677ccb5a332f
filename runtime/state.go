package runtime

import (
	"context"
	"io"

	wapcruntime "github.com/wippyai/wapc-runtime"
)

// invocation is one outstanding host->guest call. Created fresh at the
// start of each Invoke and immutable for the duration of that call.
type invocation struct {
	operation      string
	operationBytes []byte
	payload        []byte
}

// callState is the per-instance rendezvous point between the host-exported
// functions and guest code. Fields are overwritten, never appended, on each
// call; the driver enforces the one-outstanding-call invariant, so access
// is single-threaded cooperative and needs no locking.
//
// The guest-side channel (invocation, guestResponse, guestError) and the
// host-side channel (hostResponse, hostError) do not alias: a nested
// guest->host call mid-computation cannot corrupt the outer invocation.
type callState struct {
	handler wapcruntime.HostCallHandler
	console io.Writer

	invocation *invocation

	guestResponse    []byte
	guestResponseSet bool
	guestError       string
	guestErrorSet    bool

	hostResponse []byte
	hostError    string

	// fault records the first host-detected guest misbehavior (an
	// out-of-range region on a push/pull import) for the driver to surface.
	fault error
}

// begin stages a fresh invocation, invalidating everything from the prior
// call.
func (s *callState) begin(inv *invocation) {
	s.invocation = inv
	s.guestResponse = nil
	s.guestResponseSet = false
	s.guestError = ""
	s.guestErrorSet = false
	s.hostResponse = nil
	s.hostError = ""
	s.fault = nil
}

func (s *callState) setGuestResponse(data []byte) {
	s.guestResponse = data
	s.guestResponseSet = true
	s.guestError = ""
	s.guestErrorSet = false
}

func (s *callState) setGuestError(text string) {
	s.guestError = text
	s.guestErrorSet = true
	s.guestResponse = nil
	s.guestResponseSet = false
}

func (s *callState) setHostResponse(data []byte) {
	s.hostResponse = data
	s.hostError = ""
}

func (s *callState) setHostError(text string) {
	s.hostError = text
	s.hostResponse = nil
}

func (s *callState) fail(err error) {
	if s.fault == nil {
		s.fault = err
	}
}

type callStateKey struct{}

// withCallState attaches an instance's call state to the context passed
// into guest code, so the host functions it calls back into can find it.
func withCallState(ctx context.Context, s *callState) context.Context {
	return context.WithValue(ctx, callStateKey{}, s)
}

func callStateFrom(ctx context.Context) *callState {
	s, _ := ctx.Value(callStateKey{}).(*callState)
	return s
}
