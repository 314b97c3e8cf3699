package cpu

// AluOp is an ALU operation type, taken from the low nibble of the opcode.
type AluOp int

const (
	ALU_OP_ADD = AluOp(0x0) // add
	ALU_OP_MUL = AluOp(0x2) // mul
	ALU_OP_CMP = AluOp(0x7) // cmp
	ALU_OP_AND = AluOp(0x8) // and
)

// AndMode selects the behavior of the AND instruction.
type AndMode int

const (
	AND_MODE_BITWISE = AndMode(0) // reg_a &= reg_b
	AND_MODE_NOP     = AndMode(1) // Only advances the PC.
)

// doAlu performs the requested ALU action on registers reg_a and reg_b.
// Arithmetic wraps modulo 256.
func (cpu *Cpu) doAlu(op AluOp, reg_a, reg_b uint8) (err error) {
	a, err := cpu.Register.Get(reg_a)
	if err != nil {
		return
	}
	b, err := cpu.Register.Get(reg_b)
	if err != nil {
		return
	}

	switch op {
	case ALU_OP_ADD:
		err = cpu.Register.Set(reg_a, a+b)
	case ALU_OP_MUL:
		err = cpu.Register.Set(reg_a, a*b)
	case ALU_OP_AND:
		if cpu.AndMode == AND_MODE_NOP {
			return
		}
		err = cpu.Register.Set(reg_a, a&b)
	case ALU_OP_CMP:
		cpu.Flags = compareFlags(a, b)
	default:
		err = ErrAluOp(op)
	}

	return
}
