package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlu(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op       AluOp
		mode     AndMode
		a, b     uint8
		expected uint8
	}){
		{ALU_OP_ADD, AND_MODE_BITWISE, 200, 100, 44},
		{ALU_OP_ADD, AND_MODE_BITWISE, 1, 2, 3},
		{ALU_OP_MUL, AND_MODE_BITWISE, 16, 16, 0},
		{ALU_OP_MUL, AND_MODE_BITWISE, 15, 17, 255},
		{ALU_OP_AND, AND_MODE_BITWISE, 0xf0, 0x3c, 0x30},
		{ALU_OP_AND, AND_MODE_NOP, 0xf0, 0x3c, 0xf0},
		{ALU_OP_CMP, AND_MODE_BITWISE, 0xf0, 0x3c, 0xf0},
	}

	for _, entry := range table {
		cpu := NewCpu(MEMORY_SIZE)
		cpu.AndMode = entry.mode
		cpu.Register[1] = entry.a
		cpu.Register[2] = entry.b

		err := cpu.doAlu(entry.op, 1, 2)
		assert.NoError(err)
		assert.Equal(entry.expected, cpu.Register[1], "%v %v %v", entry.op, entry.a, entry.b)
		assert.Equal(entry.b, cpu.Register[2])
	}
}

func TestAluCompare(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(MEMORY_SIZE)

	for a := range 256 {
		for _, b := range []int{0, 1, 127, 128, 254, 255} {
			cpu.Register[0] = uint8(a)
			cpu.Register[1] = uint8(b)
			assert.NoError(cpu.doAlu(ALU_OP_CMP, 0, 1))

			fl := cpu.Flags
			assert.Equal(a == b, fl.Equal())
			assert.Equal(a > b, fl.Greater())
			assert.Equal(a < b, fl.Less())
			assert.Equal(uint8(0), uint8(fl)&^0b111)
		}
	}
}

func TestAluUnsupported(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(MEMORY_SIZE)

	err := cpu.doAlu(AluOp(0x5), 0, 1)
	assert.ErrorIs(err, ErrAluUnsupported)
	assert.ErrorIs(err, ErrAluOp(0x5))

	assert.ErrorIs(cpu.doAlu(ALU_OP_ADD, 0, 8), ErrRegister(8))
}

func TestFlags(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("---", Flags(0).String())
	assert.Equal("--E", FLAG_EQUAL.String())
	assert.Equal("-G-", FLAG_GREATER.String())
	assert.Equal("L--", FLAG_LESS.String())

	assert.Equal(FLAG_EQUAL, compareFlags(3, 3))
	assert.Equal(FLAG_GREATER, compareFlags(4, 3))
	assert.Equal(FLAG_LESS, compareFlags(3, 4))
}
