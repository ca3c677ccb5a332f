package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
)

// Module is a compiled waPC guest, ready to instantiate. Instances from the
// same Module are fully isolated: each owns its linear memory and call
// state.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	// Name names the instance inside the engine. Empty allows parallel
	// anonymous instantiation.
	Name string

	// Initialize, if set, runs after the engine creates the instance and
	// before the _start/wapc_init bring-up hooks.
	Initialize func(ctx context.Context, instance *Instance) error
}

func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig creates an instance and runs bring-up: the optional
// Initialize hook, then _start, then wapc_init (each skipped when absent),
// then resolves the guest's call-dispatch export. A guest without that
// export does not implement the protocol, which is a fatal setup error.
func (m *Module) InstantiateWithConfig(ctx context.Context, cfg *InstanceConfig) (*Instance, error) {
	if cfg == nil {
		cfg = &InstanceConfig{}
	}

	mod, err := m.runtime.engine.Instantiate(ctx, m.compiled, cfg.Name)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		module:   m,
		instance: mod,
		state: &callState{
			handler: m.runtime.hostCall,
			console: m.runtime.console,
		},
	}

	if err := inst.bringUp(ctx, cfg.Initialize); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	return inst, nil
}

// Close releases the compiled module. Instances stay usable until closed
// themselves.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
