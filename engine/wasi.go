package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// wasiModules are the module names guests have imported WASI under across
// snapshot revisions. The same preview1 function set answers to all three.
var wasiModules = []string{
	"wasi_unstable",
	wasi_snapshot_preview1.ModuleName,
	"wasi",
}

// InitWASI instantiates the WASI import set for this engine's runtime.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *Engine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	for _, name := range wasiModules {
		if e.runtime.Module(name) != nil {
			continue
		}
		if err := instantiateWASIAs(ctx, e.runtime, name); err != nil {
			// If another path initialized this spelling concurrently in the
			// same runtime, treat it as success.
			if e.runtime.Module(name) == nil {
				return fmt.Errorf("instantiate WASI as %q: %w", name, err)
			}
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

func instantiateWASIAs(ctx context.Context, r wazero.Runtime, name string) error {
	builder := r.NewHostModuleBuilder(name)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	_, err := builder.Instantiate(ctx)
	return err
}
