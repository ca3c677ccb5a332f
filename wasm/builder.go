package wasm

import "fmt"

// FuncType describes a function signature by value types.
type FuncType struct {
	Params  []byte
	Results []byte
}

func (ft FuncType) key() string {
	return fmt.Sprintf("%x:%x", ft.Params, ft.Results)
}

type importEntry struct {
	module  string
	field   string
	typeIdx uint32
}

type funcEntry struct {
	typeIdx   uint32
	localsI32 uint32
	body      []byte
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

type dataSegment struct {
	offset uint32
	data   []byte
}

// ModuleBuilder assembles a core module. Function index space follows the
// spec: imported functions first, in declaration order, then local
// functions. All imports must be declared before the first AddFunc.
type ModuleBuilder struct {
	typeKeys  map[string]uint32
	types     []FuncType
	imports   []importEntry
	funcs     []funcEntry
	exports   []exportEntry
	data      []dataSegment
	memPages  uint32
	hasMemory bool
}

func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{typeKeys: make(map[string]uint32)}
}

func (b *ModuleBuilder) typeIdx(ft FuncType) uint32 {
	key := ft.key()
	if idx, ok := b.typeKeys[key]; ok {
		return idx
	}
	idx := uint32(len(b.types))
	b.types = append(b.types, ft)
	b.typeKeys[key] = idx
	return idx
}

// ImportFunc declares a function import and returns its function index.
func (b *ModuleBuilder) ImportFunc(module, field string, ft FuncType) uint32 {
	if len(b.funcs) > 0 {
		panic("wasm: imports must be declared before local functions")
	}
	idx := uint32(len(b.imports))
	b.imports = append(b.imports, importEntry{
		module:  module,
		field:   field,
		typeIdx: b.typeIdx(ft),
	})
	return idx
}

// AddFunc declares a local function with localsI32 extra i32 locals and a
// raw instruction body (without the trailing end opcode) and returns its
// function index.
func (b *ModuleBuilder) AddFunc(ft FuncType, localsI32 uint32, body []byte) uint32 {
	idx := uint32(len(b.imports) + len(b.funcs))
	b.funcs = append(b.funcs, funcEntry{
		typeIdx:   b.typeIdx(ft),
		localsI32: localsI32,
		body:      body,
	})
	return idx
}

// Memory declares a linear memory of minPages 64KB pages.
func (b *ModuleBuilder) Memory(minPages uint32) {
	b.hasMemory = true
	b.memPages = minPages
}

func (b *ModuleBuilder) ExportFunc(name string, funcIdx uint32) {
	b.exports = append(b.exports, exportEntry{name: name, kind: kindFunc, idx: funcIdx})
}

func (b *ModuleBuilder) ExportMemory(name string) {
	b.exports = append(b.exports, exportEntry{name: name, kind: kindMemory, idx: 0})
}

// Data places bytes in memory at a fixed offset via an active data segment.
func (b *ModuleBuilder) Data(offset uint32, data []byte) {
	b.data = append(b.data, dataSegment{offset: offset, data: data})
}

// Encode produces the binary image.
func (b *ModuleBuilder) Encode() []byte {
	var w writer
	w.raw(magic)
	w.raw(version)

	if len(b.types) > 0 {
		var s writer
		s.u32(uint32(len(b.types)))
		for _, ft := range b.types {
			s.byte(0x60)
			s.u32(uint32(len(ft.Params)))
			s.raw(ft.Params)
			s.u32(uint32(len(ft.Results)))
			s.raw(ft.Results)
		}
		w.section(sectionType, s.bytes())
	}

	if len(b.imports) > 0 {
		var s writer
		s.u32(uint32(len(b.imports)))
		for _, imp := range b.imports {
			s.name(imp.module)
			s.name(imp.field)
			s.byte(kindFunc)
			s.u32(imp.typeIdx)
		}
		w.section(sectionImport, s.bytes())
	}

	if len(b.funcs) > 0 {
		var s writer
		s.u32(uint32(len(b.funcs)))
		for _, fn := range b.funcs {
			s.u32(fn.typeIdx)
		}
		w.section(sectionFunction, s.bytes())
	}

	if b.hasMemory {
		var s writer
		s.u32(1)
		s.byte(0x00) // limits: min only
		s.u32(b.memPages)
		w.section(sectionMemory, s.bytes())
	}

	if len(b.exports) > 0 {
		var s writer
		s.u32(uint32(len(b.exports)))
		for _, exp := range b.exports {
			s.name(exp.name)
			s.byte(exp.kind)
			s.u32(exp.idx)
		}
		w.section(sectionExport, s.bytes())
	}

	if len(b.funcs) > 0 {
		var s writer
		s.u32(uint32(len(b.funcs)))
		for _, fn := range b.funcs {
			var code writer
			if fn.localsI32 > 0 {
				code.u32(1)
				code.u32(fn.localsI32)
				code.byte(ValTypeI32)
			} else {
				code.u32(0)
			}
			code.raw(fn.body)
			code.byte(opEnd)

			s.u32(uint32(len(code.bytes())))
			s.raw(code.bytes())
		}
		w.section(sectionCode, s.bytes())
	}

	if len(b.data) > 0 {
		var s writer
		s.u32(uint32(len(b.data)))
		for _, seg := range b.data {
			s.byte(0x00) // active segment, memory 0
			s.byte(opI32Const)
			s.s32(int32(seg.offset))
			s.byte(opEnd)
			s.u32(uint32(len(seg.data)))
			s.raw(seg.data)
		}
		w.section(sectionData, s.bytes())
	}

	return w.bytes()
}
