package wasm

// Body builds a function body instruction by instruction. The function's
// trailing end opcode is appended by the module encoder, not here; End
// closes blocks opened with If.
type Body struct {
	w writer
}

func NewBody() *Body {
	return &Body{}
}

func (b *Body) I32Const(v int32) *Body {
	b.w.byte(opI32Const)
	b.w.s32(v)
	return b
}

func (b *Body) LocalGet(idx uint32) *Body {
	b.w.byte(opLocalGet)
	b.w.u32(idx)
	return b
}

func (b *Body) LocalSet(idx uint32) *Body {
	b.w.byte(opLocalSet)
	b.w.u32(idx)
	return b
}

func (b *Body) Call(funcIdx uint32) *Body {
	b.w.byte(opCall)
	b.w.u32(funcIdx)
	return b
}

// If opens a block with no result type, consuming the i32 on the stack.
func (b *Body) If() *Body {
	b.w.byte(opIf)
	b.w.byte(blockTypeEmpty)
	return b
}

func (b *Body) Else() *Body {
	b.w.byte(opElse)
	return b
}

// End closes the innermost If block.
func (b *Body) End() *Body {
	b.w.byte(opEnd)
	return b
}

func (b *Body) I32Eqz() *Body {
	b.w.byte(opI32Eqz)
	return b
}

func (b *Body) Drop() *Body {
	b.w.byte(opDrop)
	return b
}

func (b *Body) Return() *Body {
	b.w.byte(opReturn)
	return b
}

func (b *Body) Bytes() []byte {
	return b.w.bytes()
}
