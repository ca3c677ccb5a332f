package wasm

// Module header
var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6D}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// Section IDs
const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10
	sectionData     = 11
)

// Value types
const (
	ValTypeI32 byte = 0x7F
	ValTypeI64 byte = 0x7E
)

// Export/import kinds
const (
	kindFunc   byte = 0x00
	kindMemory byte = 0x02
)

// Instruction opcodes used by the body builder
const (
	opIf       byte = 0x04
	opElse     byte = 0x05
	opEnd      byte = 0x0B
	opReturn   byte = 0x0F
	opCall     byte = 0x10
	opDrop     byte = 0x1A
	opLocalGet byte = 0x20
	opLocalSet byte = 0x21
	opI32Const byte = 0x41
	opI32Eqz   byte = 0x45

	blockTypeEmpty byte = 0x40
)
