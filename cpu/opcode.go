package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Opcode is the first byte of an instruction, encoded as 0bAABCDDDD:
// AA is the operand count, B marks an ALU operation, C marks an instruction
// that sets the PC, and DDDD identifies the instruction.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001) // HLT
	OP_RET  = Opcode(0b00010001) // RET
	OP_PUSH = Opcode(0b01000101) // PUSH
	OP_POP  = Opcode(0b01000110) // POP
	OP_PRN  = Opcode(0b01000111) // PRN
	OP_PRA  = Opcode(0b01001000) // PRA
	OP_CALL = Opcode(0b01010000) // CALL
	OP_JMP  = Opcode(0b01010100) // JMP
	OP_JEQ  = Opcode(0b01010101) // JEQ
	OP_JNE  = Opcode(0b01010110) // JNE
	OP_LDI  = Opcode(0b10000010) // LDI
	OP_ST   = Opcode(0b10000100) // ST
	OP_ADD  = Opcode(0b10100000) // ADD
	OP_MUL  = Opcode(0b10100010) // MUL
	OP_CMP  = Opcode(0b10100111) // CMP
	OP_AND  = Opcode(0b10101000) // AND
)

// Operands returns the operand count encoded in the opcode.
func (op Opcode) Operands() int {
	return int(op >> 6)
}

// IsAlu returns true if the opcode is encoded as an ALU operation.
func (op Opcode) IsAlu() bool {
	return op&(1<<5) != 0
}

// SetsPc returns true if the opcode is encoded as setting the PC itself.
func (op Opcode) SetsPc() bool {
	return op&(1<<4) != 0
}

// String returns the mnemonic, or the binary form for unknown opcodes.
func (op Opcode) String() string {
	ins, ok := instructionMap[op]
	if ok {
		return ins.Name
	}
	return fmt.Sprintf("0b%08b", uint8(op))
}

// CodeArg is the kind of an operand byte.
type CodeArg int

const (
	ARG_REG = CodeArg(0) // register index
	ARG_IMM = CodeArg(1) // immediate value
)

// Handler executes a decoded instruction.
type Handler func(cpu *Cpu, code Code) (err error)

// Instruction describes one entry of the instruction set.
type Instruction struct {
	Opcode  Opcode
	Name    string
	Args    []CodeArg
	Handler Handler
}

// Operands returns the number of operand bytes following the opcode.
func (ins *Instruction) Operands() int {
	return len(ins.Args)
}

var (
	argsNone   = []CodeArg{}
	argsReg    = []CodeArg{ARG_REG}
	argsRegReg = []CodeArg{ARG_REG, ARG_REG}
	argsRegImm = []CodeArg{ARG_REG, ARG_IMM}
)

// instructionSet is the fixed LS-8 instruction set.
var instructionSet = []Instruction{
	{OP_ADD, "ADD", argsRegReg, (*Cpu).opAlu},
	{OP_AND, "AND", argsRegReg, (*Cpu).opAlu},
	{OP_CALL, "CALL", argsReg, (*Cpu).opCall},
	{OP_CMP, "CMP", argsRegReg, (*Cpu).opAlu},
	{OP_HLT, "HLT", argsNone, (*Cpu).opHlt},
	{OP_JEQ, "JEQ", argsReg, (*Cpu).opJeq},
	{OP_JMP, "JMP", argsReg, (*Cpu).opJmp},
	{OP_JNE, "JNE", argsReg, (*Cpu).opJne},
	{OP_LDI, "LDI", argsRegImm, (*Cpu).opLdi},
	{OP_MUL, "MUL", argsRegReg, (*Cpu).opAlu},
	{OP_POP, "POP", argsReg, (*Cpu).opPop},
	{OP_PRA, "PRA", argsReg, (*Cpu).opPra},
	{OP_PRN, "PRN", argsReg, (*Cpu).opPrn},
	{OP_PUSH, "PUSH", argsReg, (*Cpu).opPush},
	{OP_RET, "RET", argsNone, (*Cpu).opRet},
	{OP_ST, "ST", argsRegReg, (*Cpu).opSt},
}

// instructionMap maps opcodes to the instruction set.
var instructionMap = func() map[Opcode]*Instruction {
	table := make(map[Opcode]*Instruction, len(instructionSet))
	for n := range instructionSet {
		ins := &instructionSet[n]
		table[ins.Opcode] = ins
	}
	return table
}()

// mnemonicMap maps upper case mnemonics to the instruction set.
var mnemonicMap = func() map[string]*Instruction {
	table := make(map[string]*Instruction, len(instructionSet))
	for n := range instructionSet {
		ins := &instructionSet[n]
		table[ins.Name] = ins
	}
	return table
}()

// Instructions returns an iterator over the instruction set.
func Instructions() iter.Seq2[Opcode, Instruction] {
	return func(yield func(op Opcode, ins Instruction) bool) {
		for _, ins := range instructionSet {
			if !yield(ins.Opcode, ins) {
				return
			}
		}
	}
}

// Code is a single decoded instruction.
type Code struct {
	Addr     uint
	Opcode   Opcode
	Operands []uint8
}

// Size returns the size of the instruction in bytes.
func (code Code) Size() uint {
	return 1 + uint(len(code.Operands))
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	ins, ok := instructionMap[code.Opcode]
	if !ok {
		return fmt.Sprintf("DB 0b%08b", uint8(code.Opcode))
	}

	args := make([]string, 0, len(code.Operands))
	for n, value := range code.Operands {
		if n < len(ins.Args) && ins.Args[n] == ARG_REG {
			args = append(args, fmt.Sprintf("R%d", value))
		} else {
			args = append(args, fmt.Sprintf("%d", value))
		}
	}

	out = ins.Name
	if len(args) > 0 {
		out += " " + strings.Join(args, ",")
	}

	return
}

// Decode decodes the instruction at addr in mem.
func Decode(mem []uint8, addr uint) (code Code, err error) {
	if addr >= uint(len(mem)) {
		err = ErrAddress(addr)
		return
	}

	code = Code{Addr: addr, Opcode: Opcode(mem[addr])}

	ins, ok := instructionMap[code.Opcode]
	if !ok {
		err = &ErrInvalidOpcode{Addr: addr, Opcode: code.Opcode}
		return
	}

	end := addr + 1 + uint(ins.Operands())
	if end > uint(len(mem)) {
		err = ErrAddress(uint(len(mem)))
		return
	}

	code.Operands = mem[addr+1 : end]

	return
}

// Disassemble returns an iterator over the instructions in mem, starting at 0.
// Bytes that do not decode are yielded as single byte codes.
func Disassemble(mem []uint8) iter.Seq2[uint, Code] {
	return func(yield func(addr uint, code Code) bool) {
		for addr := uint(0); addr < uint(len(mem)); {
			code, err := Decode(mem, addr)
			if err != nil {
				code = Code{Addr: addr, Opcode: Opcode(mem[addr])}
			}
			if !yield(addr, code) {
				return
			}
			addr += code.Size()
		}
	}
}
