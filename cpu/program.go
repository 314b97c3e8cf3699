package cpu

import (
	stdio "io"
	"iter"
	"strings"

	"github.com/ezrec/ls8/io"
)

// Link is a reference to a label, patched into Bytes[Index] after assembly.
type Link struct {
	Index int
	Label string
}

// Line represents a line of assembled code with its source location and
// generated bytes.
type Line struct {
	LineNo int
	Addr   int
	Words  []string
	Bytes  []uint8
	Links  []Link
}

// Program is an assembled program listing.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug returns the line that generated the byte at addr.
func (prog *Program) Debug(addr uint) (dbg Debug) {
	for n, line := range prog.Lines {
		if addr >= uint(line.Addr) && addr < uint(line.Addr)+uint(len(line.Bytes)) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: int(addr - uint(line.Addr)),
			}
			break
		}
	}

	return
}

// Binary returns the program as memory contents, starting at address 0.
func (prog *Program) Binary() (bins []uint8) {
	for _, value := range prog.Bytes() {
		bins = append(bins, value)
	}

	return
}

// Bytes returns an iterator over the address and value of each program byte.
func (prog *Program) Bytes() iter.Seq2[uint, uint8] {
	return func(yield func(addr uint, value uint8) bool) {
		for _, line := range prog.Lines {
			addr := uint(line.Addr)
			for n, value := range line.Bytes {
				if !yield(addr+uint(n), value) {
					return
				}
			}
		}
	}
}

// WriteText writes the program in LS-8 binary text format, with the source
// of each line as a comment on its first byte.
func (prog *Program) WriteText(output stdio.Writer) (err error) {
	return io.WriteProgram(output, prog.Binary(), func(addr uint) string {
		dbg := prog.Debug(addr)
		if dbg.Line == nil || dbg.Index != 0 {
			return ""
		}
		return strings.Join(dbg.Words, " ")
	})
}
