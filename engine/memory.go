package engine

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	wapcruntime "github.com/wippyai/wapc-runtime"
)

// Memory wraps wazero memory with bounds-checked access. Any (offset,
// length) pair exceeding the current memory size is rejected before the
// access; the host never touches guest memory outside a region the guest
// itself described.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps the linear memory of a module instance.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

// Read returns a view of guest memory. The view aliases the guest's linear
// memory: callers that retain the bytes past the current call must copy.
// A module that declares no memory fails every access against size 0.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	if m.mem == nil {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d, size=%d", offset, length, m.Size())
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d, size=%d", offset, length, m.Size())
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if m.mem == nil {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d, size=%d", offset, len(data), m.Size())
	}
	ok := m.mem.Write(offset, data)
	if !ok {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d, size=%d", offset, len(data), m.Size())
	}
	return nil
}

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that Memory implements wapcruntime.Memory
var _ wapcruntime.Memory = (*Memory)(nil)
