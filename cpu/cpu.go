// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/io"
)

// Console is the output device for PRN and PRA.
type Console io.Console

// Cpu is the simulation context for the LS-8 microprocessor.
type Cpu struct {
	Verbose bool    // Set to enable verbose logging.
	AndMode AndMode // Behavior of the AND instruction.
	Console Console // Output for PRN and PRA.

	Memory   *Memory      // Main memory.
	Register RegisterFile // Register bank.
	Stack    Stack        // Stack in main memory, addressed by REG_SP.
	Flags    Flags        // Result of the last CMP.
	Pc       uint         // Address of the next opcode.
	Running  bool         // Cleared by HLT.

	Ticks int // Instructions executed since reset.

	dispatch [256]*Instruction // Opcode dispatch table.
	nextPc   uint              // PC after the executing instruction.
}

// NewCpu creates a new CPU with a specifically sized memory.
func NewCpu(capacity uint) (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(capacity),
	}

	cpu.Stack = Stack{Memory: cpu.Memory, Register: &cpu.Register}

	for n := range instructionSet {
		ins := &instructionSet[n]
		cpu.dispatch[ins.Opcode] = ins
	}

	cpu.Register.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%d", cpu.Memory.Capacity()),
		"SP_INIT":     fmt.Sprintf("%#x", SP_INIT),
		"REG_IM":      fmt.Sprintf("%d", REG_IM),
		"REG_IS":      fmt.Sprintf("%d", REG_IS),
		"REG_SP":      fmt.Sprintf("%d", REG_SP),
	})
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"fl",
		"r0", "r1", "r2", "r3", "r4", "im", "is", "sp",
		"stack",
	}
	for n, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
			if cpu.Pc < cpu.Memory.Capacity() {
				strval += fmt.Sprintf(" [%02X]", cpu.Memory.Cell[cpu.Pc])
			}
		case "fl":
			strval = cpu.Flags.String()
		case "stack":
			val, err := cpu.Stack.Peek()
			if err == nil && !cpu.Stack.Empty() {
				strval = fmt.Sprintf("%02X", val)
			} else {
				strval = "--"
			}
		default:
			strval = fmt.Sprintf("%02X", cpu.Register[n-2])
		}
		text += f("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Restores the power-on register values, SP included.
// - Clears the flags, PC, and tick counter.
// - Leaves memory untouched.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Register.Reset()
	cpu.Flags = 0
	cpu.Pc = 0
	cpu.Running = false
	cpu.Ticks = 0
}

// Load copies a program into memory at address 0. The rest of memory is zeroed.
func (cpu *Cpu) Load(program []uint8) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: load %d bytes", len(program))
	}

	return cpu.Memory.Load(program)
}

// Run executes instructions until HLT, or an error.
func (cpu *Cpu) Run() (err error) {
	cpu.Running = true

	for cpu.Running {
		err = cpu.Tick()
		if err != nil {
			cpu.Running = false
			return
		}
	}

	return
}

// FetchCode fetches and decodes the instruction at the PC.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	code.Addr = cpu.Pc

	value, err := cpu.Memory.Read(cpu.Pc)
	if err != nil {
		return
	}
	code.Opcode = Opcode(value)

	ins := cpu.dispatch[code.Opcode]
	if ins == nil {
		err = &ErrInvalidOpcode{Addr: cpu.Pc, Opcode: code.Opcode}
		return
	}

	code.Operands = make([]uint8, ins.Operands())
	for n := range code.Operands {
		code.Operands[n], err = cpu.Memory.Read(cpu.Pc + 1 + uint(n))
		if err != nil {
			return
		}
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	return cpu.Execute(code)
}

// Execute executes a single decoded instruction at the PC.
func (cpu *Cpu) Execute(code Code) (err error) {
	code.Addr = cpu.Pc

	defer func() {
		if err != nil {
			err = &ErrExecute{Addr: code.Addr, Code: code, Err: err}
		}
	}()

	if cpu.Verbose {
		log.Printf("%03x: %v", code.Addr, code)
	}

	ins := cpu.dispatch[code.Opcode]
	if ins == nil {
		err = &ErrInvalidOpcode{Addr: code.Addr, Opcode: code.Opcode}
		return
	}

	switch {
	case len(code.Operands) < ins.Operands():
		err = ErrOpcodeValueMissing
		return
	case len(code.Operands) > ins.Operands():
		err = ErrOpcodeExtraArgs
		return
	}

	cpu.nextPc = cpu.Pc + code.Size()

	err = ins.Handler(cpu, code)
	if err != nil {
		return
	}

	cpu.Pc = cpu.nextPc
	cpu.Ticks += 1

	return
}

func (cpu *Cpu) opAlu(code Code) (err error) {
	return cpu.doAlu(AluOp(code.Opcode&0xf), code.Operands[0], code.Operands[1])
}

func (cpu *Cpu) opHlt(code Code) (err error) {
	cpu.Running = false
	cpu.nextPc = cpu.Pc
	return
}

func (cpu *Cpu) opLdi(code Code) (err error) {
	return cpu.Register.Set(code.Operands[0], code.Operands[1])
}

func (cpu *Cpu) opSt(code Code) (err error) {
	addr, err := cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}
	value, err := cpu.Register.Get(code.Operands[1])
	if err != nil {
		return
	}

	return cpu.Memory.Write(uint(addr), value)
}

func (cpu *Cpu) opPrn(code Code) (err error) {
	value, err := cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}
	if cpu.Console == nil {
		err = ErrConsoleInvalid
		return
	}

	return cpu.Console.PrintNumber(value)
}

func (cpu *Cpu) opPra(code Code) (err error) {
	value, err := cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}
	if cpu.Console == nil {
		err = ErrConsoleInvalid
		return
	}

	return cpu.Console.PrintChar(value)
}

func (cpu *Cpu) opPush(code Code) (err error) {
	value, err := cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}

	return cpu.Stack.Push(value)
}

func (cpu *Cpu) opPop(code Code) (err error) {
	// Validate the target before the stack moves.
	_, err = cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}
	value, err := cpu.Stack.Pop()
	if err != nil {
		return
	}

	return cpu.Register.Set(code.Operands[0], value)
}

// jumpIf sets the PC to the value of register reg, if taken.
func (cpu *Cpu) jumpIf(taken bool, reg uint8) (err error) {
	target, err := cpu.Register.Get(reg)
	if err != nil {
		return
	}

	if taken {
		cpu.nextPc = uint(target)
	}
	return
}

func (cpu *Cpu) opJmp(code Code) (err error) {
	return cpu.jumpIf(true, code.Operands[0])
}

func (cpu *Cpu) opJeq(code Code) (err error) {
	return cpu.jumpIf(cpu.Flags.Equal(), code.Operands[0])
}

func (cpu *Cpu) opJne(code Code) (err error) {
	return cpu.jumpIf(!cpu.Flags.Equal(), code.Operands[0])
}

func (cpu *Cpu) opCall(code Code) (err error) {
	target, err := cpu.Register.Get(code.Operands[0])
	if err != nil {
		return
	}

	// The return address must fit in a stack cell.
	ret := cpu.Pc + code.Size()
	if ret > 0xff {
		err = ErrAddress(ret)
		return
	}

	err = cpu.Stack.Push(uint8(ret))
	if err != nil {
		return
	}

	cpu.nextPc = uint(target)
	return
}

func (cpu *Cpu) opRet(code Code) (err error) {
	ret, err := cpu.Stack.Pop()
	if err != nil {
		return
	}

	cpu.nextPc = uint(ret)
	return
}
