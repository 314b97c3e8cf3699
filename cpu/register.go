package cpu

// Register file layout.
const (
	REGISTER_COUNT = 8 // General purpose registers R0-R7

	REG_IM = 5 // Interrupt mask (reserved)
	REG_IS = 6 // Interrupt status (reserved)
	REG_SP = 7 // Stack pointer

	SP_INIT = 0xf4 // Initial stack pointer; the stack grows down from here.
)

// RegisterFile is the bank of 8-bit registers.
type RegisterFile [REGISTER_COUNT]uint8

// Get returns the value of register index.
func (rf *RegisterFile) Get(index uint8) (value uint8, err error) {
	if int(index) >= len(rf) {
		err = ErrRegister(index)
		return
	}

	value = rf[index]
	return
}

// Set sets register index to value.
func (rf *RegisterFile) Set(index uint8, value uint8) (err error) {
	if int(index) >= len(rf) {
		err = ErrRegister(index)
		return
	}

	rf[index] = value
	return
}

// Reset restores the power-on register values.
func (rf *RegisterFile) Reset() {
	clear(rf[:])
	rf[REG_SP] = SP_INIT
}
