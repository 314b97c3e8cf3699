package io

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Loader errors
	ErrFileNotFound  = errors.New(f("file not found"))
	ErrEmptyProgram  = errors.New(f("empty program"))
	ErrConsoleOutput = errors.New(f("console output missing"))
)

// ErrOpen indicates a program file that could not be opened.
type ErrOpen struct {
	Path string
	Err  error
}

func (err *ErrOpen) Error() string {
	return f("couldn't open %v: %v", err.Path, err.Err)
}

func (err *ErrOpen) Unwrap() error {
	return err.Err
}

func (err *ErrOpen) Is(target error) bool {
	return target == ErrFileNotFound
}

// ErrSyntax indicates the line of a program file that failed to parse.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseByte is a word that is not an 8-bit binary number.
type ErrParseByte string

func (err ErrParseByte) Error() string {
	return f("'%v' is not an 8-bit binary number", string(err))
}
