package wapcruntime

import "context"

// HostCallHandler handles a guest-initiated host call. The guest identifies
// the call by a (binding, namespace, operation) triple and supplies an
// opaque payload; the returned bytes become the host response the guest
// pulls back across the boundary.
//
// Exactly one handler is registered per Runtime, at construction. A nil
// handler means every host call fails as not implemented. Returning an
// error (or panicking) never unwinds into the guest: the runtime converts
// it to an error string and a failure status the guest can inspect.
type HostCallHandler func(ctx context.Context, binding, namespace, operation string, payload []byte) ([]byte, error)

// Memory represents a guest's linear memory as seen by the host. Reads and
// writes are bounds-checked against the current memory size; a region that
// exceeds it is rejected before any access.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}
