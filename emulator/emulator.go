// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	stdio "io"
	"iter"
	"maps"
	"os"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/internal"
	"github.com/ezrec/ls8/io"
)

var _emulator_defines = map[string]string{
	"NEWLINE": fmt.Sprintf("%d", '\n'),
	"SPACE":   fmt.Sprintf("%d", ' '),
}

// Emulator state. CPU + console + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.
	Image    []uint8      // Memory image loaded on reset.

	Terminal io.Terminal // Console for PRN and PRA.
}

// NewEmulator creates a new emulator with the given memory capacity.
func NewEmulator(capacity uint) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(capacity),
		Program: &cpu.Program{},
	}

	emu.Terminal.Output = os.Stdout
	emu.Cpu.Console = &emu.Terminal

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Sorted(internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	))
}

// LoadFile loads a program in binary text format.
//
// A missing file or an empty program is returned as an error, but the
// memory image is still loaded (zeroed) so execution may proceed.
func (emu *Emulator) LoadFile(path string) (err error) {
	program, err := io.LoadFile(path)
	if err != nil && !errors.Is(err, io.ErrFileNotFound) && !errors.Is(err, io.ErrEmptyProgram) {
		return
	}

	emu.Program = &cpu.Program{}
	emu.Image = program

	rerr := emu.Reset()
	if rerr != nil {
		err = rerr
	}

	return
}

// Assemble assembles a program from source, and loads it.
func (emu *Emulator) Assemble(input stdio.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.Image = prog.Binary()

	return emu.Reset()
}

// AssembleFile assembles a program from the source file at path, and loads it.
func (emu *Emulator) AssembleFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = &io.ErrOpen{Path: path, Err: err}
		return
	}
	defer inf.Close()

	return emu.Assemble(inf)
}

// Reset the CPU, reload the memory image, and ready the CPU to run.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false

	emu.Cpu.Reset()
	emu.Terminal.Rewind()

	err = emu.Cpu.Load(emu.Image)
	if err != nil {
		return
	}

	emu.Cpu.Running = true
	emu.Cpu.Verbose = emu.Verbose

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() uint {
	return emu.Cpu.Pc
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()
	return code
}

// LineNo returns the current line number for the executing instruction.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	addr := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Addr: addr, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if err != nil {
		emu.Cpu.Running = false
		return
	}

	done = !emu.Cpu.Running

	return
}

// Run ticks the emulator until the program halts.
func (emu *Emulator) Run() (err error) {
	emu.Cpu.Running = true

	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Listing writes the disassembly of the memory image.
func (emu *Emulator) Listing(output stdio.Writer) (err error) {
	for addr, code := range cpu.Disassemble(emu.Image) {
		text := code.String()
		if emu.Program != nil {
			dbg := emu.Program.Debug(addr)
			if dbg.Line != nil && dbg.Index == 0 {
				text = fmt.Sprintf("%-16v ; line %d", text, dbg.LineNo)
			}
		}
		_, err = fmt.Fprintf(output, "%02x: %v\n", addr, text)
		if err != nil {
			return
		}
	}

	return
}
