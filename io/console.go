// Package io provides the input and output devices of the LS-8 emulator:
// the program loader that turns binary text into memory contents, and the
// console that PRN and PRA print to.
package io

import (
	"fmt"
	"io"
)

// Console defines the interface for the output device of the CPU.
type Console interface {
	// PrintNumber writes value as a decimal number, followed by a newline.
	PrintNumber(value uint8) error
	// PrintChar writes the character whose code point is value.
	PrintChar(value uint8) error
}

// Terminal is a Console that writes to an io.Writer.
type Terminal struct {
	Output io.Writer

	written  bool
	lastByte byte
}

var _ Console = (*Terminal)(nil)

// PrintNumber writes value as a decimal number, followed by a newline.
func (tc *Terminal) PrintNumber(value uint8) (err error) {
	return tc.write(fmt.Appendf(nil, "%d\n", value))
}

// PrintChar writes the byte value.
func (tc *Terminal) PrintChar(value uint8) (err error) {
	return tc.write([]byte{value})
}

// EndLine writes a newline if the last output did not end with one.
func (tc *Terminal) EndLine() (err error) {
	if !tc.written || tc.lastByte == '\n' {
		return
	}
	return tc.write([]byte{'\n'})
}

// Rewind forgets the output history.
func (tc *Terminal) Rewind() {
	tc.written = false
	tc.lastByte = 0
}

func (tc *Terminal) write(data []byte) (err error) {
	if tc.Output == nil {
		err = ErrConsoleOutput
		return
	}

	_, err = tc.Output.Write(data)
	if err != nil {
		return
	}

	tc.written = true
	tc.lastByte = data[len(data)-1]

	return
}
