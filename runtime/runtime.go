package runtime

import (
	"context"
	"io"
	"os"

	wapcruntime "github.com/wippyai/wapc-runtime"
	"github.com/wippyai/wapc-runtime/engine"
)

// Runtime hosts waPC modules. It owns the engine, the single registered
// host-call handler, and the console sink shared by all instances.
type Runtime struct {
	engine   *engine.Engine
	hostCall wapcruntime.HostCallHandler
	console  io.Writer
}

// Config holds configuration for runtime creation
type Config struct {
	// HostCallHandler answers guest-initiated host calls. Nil means every
	// host call fails as not implemented.
	HostCallHandler wapcruntime.HostCallHandler

	// ConsoleWriter receives __console_log text, one line per call.
	// Defaults to os.Stdout.
	ConsoleWriter io.Writer

	// MemoryLimitPages caps guest memory per instance in 64KB pages.
	// 0 means the engine default.
	MemoryLimitPages uint32
}

// New creates a runtime with no host-call handler registered.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a runtime, wires the waPC guest-import surface, and
// instantiates WASI under its historical module spellings so guests built
// against any snapshot revision link.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	eng, err := engine.NewWithConfig(ctx, &engine.Config{
		MemoryLimitPages: cfg.MemoryLimitPages,
	})
	if err != nil {
		return nil, err
	}

	if err := eng.InitWASI(ctx); err != nil {
		eng.Close(ctx)
		return nil, err
	}
	if _, err := eng.InstantiateHostModule(ctx, hostModuleName, hostModuleFunctions()); err != nil {
		eng.Close(ctx)
		return nil, err
	}

	console := cfg.ConsoleWriter
	if console == nil {
		console = os.Stdout
	}

	return &Runtime{
		engine:   eng,
		hostCall: cfg.HostCallHandler,
		console:  console,
	}, nil
}

// Load compiles a binary image into a Module. An image that is not a valid
// module fails with an invalid-module error and never partially succeeds.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	compiled, err := r.engine.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}
	return &Module{runtime: r, compiled: compiled}, nil
}

// LoadFrom compiles a module from a streamed source.
func (r *Runtime) LoadFrom(ctx context.Context, src io.Reader) (*Module, error) {
	wasm, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return r.Load(ctx, wasm)
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}
