package io

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadProgram parses a program in LS-8 binary text format.
//
// Each line is either blank, a comment whose first word starts with '#', or
// a line whose first word is an 8-bit binary number. Anything after the
// first word is ignored.
//
// A program with no bytes is returned with ErrEmptyProgram.
func ReadProgram(input io.Reader) (program []uint8, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	for scanner.Scan() {
		lineno += 1
		line := strings.TrimSpace(scanner.Text())

		words := strings.Fields(line)
		if len(words) == 0 || strings.HasPrefix(words[0], "#") {
			continue
		}

		var value uint64
		value, err = strconv.ParseUint(words[0], 2, 8)
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: ErrParseByte(words[0])}
			return
		}

		program = append(program, uint8(value))
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if len(program) == 0 {
		err = ErrEmptyProgram
	}

	return
}

// LoadFile reads a program in LS-8 binary text format from path.
//
// A file that cannot be opened loads nothing, so the error also matches
// ErrEmptyProgram.
func LoadFile(path string) (program []uint8, err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = errors.Join(&ErrOpen{Path: path, Err: err}, ErrEmptyProgram)
		return
	}
	defer inf.Close()

	return ReadProgram(inf)
}

// WriteProgram writes program in LS-8 binary text format. If comment is not
// nil, it is called for each address and its text is appended to the line.
func WriteProgram(output io.Writer, program []uint8, comment func(addr uint) string) (err error) {
	w := bufio.NewWriter(output)

	for addr, value := range program {
		line := strconv.FormatUint(uint64(value)|0x100, 2)[1:]
		if comment != nil {
			text := comment(uint(addr))
			if len(text) > 0 {
				line += " # " + text
			}
		}
		_, err = w.WriteString(line + "\n")
		if err != nil {
			return
		}
	}

	return w.Flush()
}
