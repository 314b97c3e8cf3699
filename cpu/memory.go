package cpu

const (
	MEMORY_SIZE = 256 // Default memory capacity, in bytes.
)

// Memory is the flat, byte addressable main memory of the LS-8.
// Program text, data and the stack all share it.
type Memory struct {
	Cell []uint8
}

// NewMemory creates a zeroed memory of the given capacity.
func NewMemory(capacity uint) (mem *Memory) {
	mem = &Memory{
		Cell: make([]uint8, capacity),
	}

	return
}

// Capacity returns the number of addressable cells.
func (mem *Memory) Capacity() uint {
	return uint(len(mem.Cell))
}

// Read returns the value at addr.
func (mem *Memory) Read(addr uint) (value uint8, err error) {
	if addr >= mem.Capacity() {
		err = ErrAddress(addr)
		return
	}

	value = mem.Cell[addr]
	return
}

// Write sets the value at addr.
func (mem *Memory) Write(addr uint, value uint8) (err error) {
	if addr >= mem.Capacity() {
		err = ErrAddress(addr)
		return
	}

	mem.Cell[addr] = value
	return
}

// Load zeroes the memory, then copies data in starting at address 0.
func (mem *Memory) Load(data []uint8) (err error) {
	if uint(len(data)) > mem.Capacity() {
		err = ErrProgramSize
		return
	}

	clear(mem.Cell)
	copy(mem.Cell, data)

	return
}
