package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrAluUnsupported = errors.New(f("unsupported alu operation"))
	ErrProgramSize    = errors.New(f("program exceeds memory"))
	ErrConsoleInvalid = errors.New(f("console invalid"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrValueRange         = errors.New(f("value out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrInvalidOpcode is returned when the byte at Addr is not in the
// instruction set.
type ErrInvalidOpcode struct {
	Addr   uint
	Opcode Opcode
}

func (err *ErrInvalidOpcode) Error() string {
	return f("invalid opcode 0b%08b at 0x%02x", uint8(err.Opcode), err.Addr)
}

// ErrAddress is a memory address outside of the memory capacity.
type ErrAddress uint

func (ea ErrAddress) Error() string {
	return f("address 0x%02x out of range", uint(ea))
}

// ErrRegister is a register index outside of the register file.
type ErrRegister uint8

func (er ErrRegister) Error() string {
	return f("register %d invalid", uint8(er))
}

// ErrAluOp is an ALU operation the ALU does not implement.
type ErrAluOp AluOp

func (eo ErrAluOp) Error() string {
	return f("alu op %d", int(eo))
}

func (eo ErrAluOp) Is(err error) bool {
	return err == ErrAluUnsupported
}

// ErrExecute indicates the instruction that failed.
type ErrExecute struct {
	Addr uint
	Code Code
	Err  error
}

func (err *ErrExecute) Error() string {
	return f("0x%02x: %v: %v", err.Addr, err.Code.String(), err.Err)
}

func (err *ErrExecute) Unwrap() error {
	return err.Err
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
