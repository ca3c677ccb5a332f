package runtime

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wapc-runtime/errors"
)

func TestInvoke_EchoRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, echoGuest())

	tests := []struct {
		name    string
		payload []byte
	}{
		{"text", []byte("hello world")},
		{"empty", []byte{}},
		{"binary", []byte{0x00, 0xFF, 0x00, 0xFE, 0x01, 0x80, 0x7F}},
		{"larger", bytes.Repeat([]byte{0xAB, 0x00, 0xCD}, 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := inst.Invoke(ctx, "echo", tt.payload)
			if err != nil {
				t.Fatalf("invoke: %v", err)
			}
			if !bytes.Equal(resp, tt.payload) {
				t.Errorf("response = %x, want %x", resp, tt.payload)
			}
		})
	}
}

func TestInvoke_GuestError(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, failingGuest("operation not supported"))

	_, err := inst.Invoke(ctx, "anything", []byte("payload"))
	if err == nil {
		t.Fatal("invoke should fail")
	}
	if !stderrors.Is(err, errors.GuestError("")) {
		t.Fatalf("error %v is not a guest error", err)
	}
	if !strings.Contains(err.Error(), "operation not supported") {
		t.Errorf("error %q does not carry the guest text verbatim", err.Error())
	}

	// a guest-reported failure leaves the instance usable
	if _, err := inst.Invoke(ctx, "again", nil); !stderrors.Is(err, errors.GuestError("")) {
		t.Errorf("second invoke after guest error: %v", err)
	}
}

func TestInvoke_ProtocolViolation(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, misbehavingGuest())

	_, err := inst.Invoke(ctx, "noop", nil)
	if err == nil {
		t.Fatal("invoke should fail")
	}
	if !stderrors.Is(err, errors.ProtocolViolation("")) {
		t.Fatalf("error %v is not a protocol violation", err)
	}
	if stderrors.Is(err, errors.GuestError("")) {
		t.Error("protocol violation must be distinct from a guest-reported failure")
	}
}

func TestInvoke_OutOfBoundsPush(t *testing.T) {
	tests := []struct {
		name       string
		pushImport string
		detail     string
	}{
		{"response", "__guest_response", "response source"},
		{"error", "__guest_error", "error source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			rt := newTestRuntime(t, nil)
			inst := instantiate(t, rt, oobPushGuest(tt.pushImport))

			_, err := inst.Invoke(ctx, "run", nil)
			if err == nil {
				t.Fatal("invoke should fail")
			}
			if !stderrors.Is(err, errors.OutOfBounds(errors.PhaseInvoke, "", 0, 0, 0)) {
				t.Fatalf("error %v is not an invoke out-of-bounds error", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not name the %s region", err.Error(), tt.detail)
			}
		})
	}
}

func TestInvoke_GuestWithoutMemory(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, memorylessGuest())

	_, err := inst.Invoke(ctx, "run", nil)
	if err == nil {
		t.Fatal("invoke should fail")
	}
	if !stderrors.Is(err, errors.OutOfBounds(errors.PhaseInvoke, "", 0, 0, 0)) {
		t.Fatalf("error %v is not an invoke out-of-bounds error", err)
	}
	if !strings.Contains(err.Error(), "memory size 0") {
		t.Errorf("error %q does not report the zero memory size", err.Error())
	}
}

func TestInstantiate_MissingExport(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	mod, err := rt.Load(ctx, memoryOnlyGuest())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err = mod.Instantiate(ctx)
	if err == nil {
		t.Fatal("instantiate should fail without __guest_call")
	}
	if !stderrors.Is(err, errors.MissingExport("")) {
		t.Fatalf("error %v is not a missing-export error", err)
	}
	if !strings.Contains(err.Error(), "__guest_call") {
		t.Errorf("error %q does not name the missing export", err.Error())
	}
}

func TestLoad_InvalidModule(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	mod, err := rt.Load(ctx, []byte("this is not a wasm module"))
	if err == nil {
		t.Fatal("load should fail")
	}
	if mod != nil {
		t.Error("no module may be returned on a failed load")
	}
	if !stderrors.Is(err, errors.InvalidModule(nil)) {
		t.Fatalf("error %v is not an invalid-module error", err)
	}
}

func TestLoadFrom_Stream(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	mod, err := rt.LoadFrom(ctx, bytes.NewReader(echoGuest()))
	if err != nil {
		t.Fatalf("load from stream: %v", err)
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close(ctx)

	resp, err := inst.Invoke(ctx, "echo", []byte("streamed"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if string(resp) != "streamed" {
		t.Errorf("response = %q, want %q", resp, "streamed")
	}
}

func TestInstance_Isolation(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	mod, err := rt.Load(ctx, echoGuest())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	instA, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate A: %v", err)
	}
	defer instA.Close(ctx)

	instB, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("instantiate B: %v", err)
	}
	defer instB.Close(ctx)

	// interleave invocations; each instance must only ever see its own
	// payload
	for i := 0; i < 4; i++ {
		respA, err := instA.Invoke(ctx, "echo", []byte("payload for A"))
		if err != nil {
			t.Fatalf("invoke A: %v", err)
		}
		respB, err := instB.Invoke(ctx, "echo", []byte("payload for B"))
		if err != nil {
			t.Fatalf("invoke B: %v", err)
		}
		if string(respA) != "payload for A" {
			t.Errorf("instance A saw %q", respA)
		}
		if string(respB) != "payload for B" {
			t.Errorf("instance B saw %q", respB)
		}
	}
}

func TestBringUp_StartThenInit(t *testing.T) {
	ctx := context.Background()
	var console bytes.Buffer
	rt := newTestRuntime(t, &Config{ConsoleWriter: &console})
	inst := instantiate(t, rt, lifecycleGuest())

	if got, want := console.String(), "guest starting\nguest ready\n"; got != want {
		t.Errorf("console after bring-up = %q, want %q", got, want)
	}

	resp, err := inst.Invoke(ctx, "ping", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if string(resp) != "ok" {
		t.Errorf("response = %q, want ok", resp)
	}
}

func TestInstantiate_InitializeHookOrder(t *testing.T) {
	ctx := context.Background()
	var console bytes.Buffer
	rt := newTestRuntime(t, &Config{ConsoleWriter: &console})

	mod, err := rt.Load(ctx, lifecycleGuest())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	inst, err := mod.InstantiateWithConfig(ctx, &InstanceConfig{
		Initialize: func(ctx context.Context, inst *Instance) error {
			// runs before _start, so nothing is on the console yet
			if console.Len() != 0 {
				t.Errorf("console before bring-up hooks = %q", console.String())
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	defer inst.Close(ctx)

	if got, want := console.String(), "guest starting\nguest ready\n"; got != want {
		t.Errorf("console after bring-up = %q, want %q", got, want)
	}
}

func TestInstantiate_InitializeHookFailure(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)

	mod, err := rt.Load(ctx, echoGuest())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err = mod.InstantiateWithConfig(ctx, &InstanceConfig{
		Initialize: func(ctx context.Context, inst *Instance) error {
			return stderrors.New("refused")
		},
	})
	if err == nil {
		t.Fatal("instantiate should surface the hook failure")
	}
	if !strings.Contains(err.Error(), "refused") {
		t.Errorf("error %q does not carry the hook failure", err.Error())
	}
}

func TestInvoke_RejectedWhileOutstanding(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, echoGuest())

	inst.inflight.Store(true)
	_, err := inst.Invoke(ctx, "echo", nil)
	inst.inflight.Store(false)

	if err == nil {
		t.Fatal("second invoke while one is outstanding should be rejected")
	}
	if !stderrors.Is(err, errors.InvalidInput(errors.PhaseInvoke, "")) {
		t.Fatalf("error %v is not an invalid-input error", err)
	}
}

func TestInvoke_ClosedInstance(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, echoGuest())

	if err := inst.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := inst.Invoke(ctx, "echo", nil); err == nil {
		t.Fatal("invoke on a closed instance should fail")
	}
}

func TestInstance_MemorySize(t *testing.T) {
	rt := newTestRuntime(t, nil)
	inst := instantiate(t, rt, echoGuest())

	if got := inst.MemorySize(); got != 65536 {
		t.Errorf("MemorySize() = %d, want 65536 (one page)", got)
	}
}
