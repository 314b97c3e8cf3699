package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assemble parses the source lines, and returns the program binary.
func assemble(t *testing.T, asm *Assembler, lines ...string) (bins []uint8, err error) {
	t.Helper()

	if asm == nil {
		asm = &Assembler{}
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return
	}

	bins = prog.Binary()
	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Lines))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%d", MEMORY_SIZE), asm.Equate["MEMORY_SIZE"])
	assert.Equal("0xf4", asm.Equate["SP_INIT"])
	assert.Equal(fmt.Sprintf("%d", REG_IM), asm.Equate["REG_IM"])
	assert.Equal(fmt.Sprintf("%d", REG_IS), asm.Equate["REG_IS"])
	assert.Equal(fmt.Sprintf("%d", REG_SP), asm.Equate["REG_SP"])
}

func TestAssemblerPrint8(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		"# print8",
		"LDI R0,8 ; load",
		"PRN R0",
		"",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal([]uint8{0x82, 0, 8, 0x47, 0, 0x01}, bins)
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	for op, ins := range Instructions() {
		var args []string
		for n, kind := range ins.Args {
			switch kind {
			case ARG_REG:
				args = append(args, fmt.Sprintf("R%d", n+1))
			case ARG_IMM:
				args = append(args, "0x7e")
			}
		}

		line := ins.Name + " " + strings.Join(args, ",")
		bins, err := assemble(t, nil, line)
		if !assert.NoError(err, line) {
			continue
		}

		expected := []uint8{uint8(op)}
		for n, kind := range ins.Args {
			switch kind {
			case ARG_REG:
				expected = append(expected, uint8(n+1))
			case ARG_IMM:
				expected = append(expected, 0x7e)
			}
		}
		assert.Equal(expected, bins, line)

		// Round trip through the disassembler.
		code, err := Decode(bins, 0)
		assert.NoError(err)
		again, err := assemble(t, nil, code.String())
		assert.NoError(err)
		assert.Equal(bins, again, code.String())
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	bins, err := assemble(t, asm,
		"        LDI R0,1",
		"        LDI R1,2",
		"        LDI R2,Loop",
		"        LDI R3,128",
		"Loop:   PRN R0",
		"        CMP R0,R3",
		"        MUL R0,R1",
		"        JNE R2",
		"Done:",
		"        HLT",
	)
	assert.NoError(err)
	assert.Equal([]uint8{
		0x82, 0, 1,
		0x82, 1, 2,
		0x82, 2, 12,
		0x82, 3, 128,
		0x47, 0,
		0xa7, 0, 3,
		0xa2, 0, 1,
		0x56, 2,
		0x01,
	}, bins)
	assert.Equal(12, asm.Label["Loop"])
	assert.Equal(22, asm.Label["Done"])
}

func TestAssemblerValues(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		"DB 1, 0x10, 0b101, -1, ~0, ~0x0f",
		"DB 'A', '\\n', ' ', $(2 * 3 + 1)",
		"DB LINENO",
	)
	assert.NoError(err)
	assert.Equal([]uint8{1, 16, 5, 255, 255, 0xf0, 65, 10, 32, 7, 3}, bins)
}

func TestAssemblerStrings(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		`DS "a;b" ; comment`,
		`DS "Hi!\n"`,
	)
	assert.NoError(err)
	assert.Equal([]uint8("a;bHi!\n"), bins)

	// Character literals, expressions and equates are left alone in strings.
	bins, err = assemble(t, nil,
		".equ x 9",
		`DS "say 'x' $(1+1)"`,
		`DB '"', $(1+1)`,
	)
	assert.NoError(err)
	assert.Equal(append([]uint8("say 'x' $(1+1)"), '"', 2), bins)
}

func TestAssemblerMacroString(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		".macro SAY text",
		`DS "@text"`,
		"DS text",
		".endm",
		`SAY "ok"`,
	)
	assert.NoError(err)
	assert.Equal([]uint8("@textok"), bins)
}

func TestAssemblerRegisters(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		"push sp",
		"pop IM",
		"ldi is, 1",
		"Add r0 r7",
	)
	assert.NoError(err)
	assert.Equal([]uint8{
		0x45, REG_SP,
		0x46, REG_IM,
		0x82, REG_IS, 1,
		0xa0, 0, 7,
	}, bins)
}

func TestAssemblerEquate(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ANSWER", "42")

	bins, err := assemble(t, asm,
		".equ COUNT 5",
		"LDI R0,COUNT",
		"LDI R1,$(COUNT * 2)",
		"LDI R2,ANSWER",
		"LDI SP,SP_INIT",
	)
	assert.NoError(err)
	assert.Equal([]uint8{
		0x82, 0, 5,
		0x82, 1, 10,
		0x82, 2, 42,
		0x82, REG_SP, SP_INIT,
	}, bins)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	bins, err := assemble(t, nil,
		".macro PRINT value",
		"LDI R0,value",
		"PRN R0",
		".endm",
		"PRINT 3",
		"PRINT $(2 * 2)",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal([]uint8{
		0x82, 0, 3, 0x47, 0,
		0x82, 0, 4, 0x47, 0,
		0x01,
	}, bins)
}

func TestAssemblerMacroLocal(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	bins, err := assemble(t, asm,
		".macro SPIN",
		"@top: LDI R2,@top",
		"JMP R2",
		".endm",
		"SPIN",
		"SPIN",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal([]uint8{
		0x82, 2, 0, 0x54, 2,
		0x82, 2, 5, 0x54, 2,
		0x01,
	}, bins)
	assert.Equal(0, asm.Label["SPIN_1_top"])
	assert.Equal(5, asm.Label["SPIN_2_top"])
}

func TestAssemblerMacroLocalNested(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	bins, err := assemble(t, asm,
		".macro SPIN",
		"@top: LDI R2,@top",
		"JMP R2",
		".endm",
		".macro TWICE",
		"SPIN",
		"SPIN",
		".endm",
		"TWICE",
		"TWICE",
		"HLT",
	)
	assert.NoError(err)
	assert.Equal(21, len(bins))
	for n := range 4 {
		assert.Equal([]uint8{0x82, 2, uint8(n * 5), 0x54, 2}, bins[n*5:n*5+5], "expansion %d", n)
	}
	assert.Equal(uint8(0x01), bins[20])

	// TWICE takes expansions 1 and 4.
	assert.Equal(0, asm.Label["SPIN_2_top"])
	assert.Equal(5, asm.Label["SPIN_3_top"])
	assert.Equal(10, asm.Label["SPIN_5_top"])
	assert.Equal(15, asm.Label["SPIN_6_top"])
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		lines  []string
		lineno int
		err    error
	}){
		{[]string{"NOP"}, 1, ErrInstructionInvalid},
		{[]string{"HLT", "PRN R8"}, 2, ErrRegisterInvalid},
		{[]string{"LDI R0,256"}, 1, ErrValueRange},
		{[]string{"LDI R0,-129"}, 1, ErrValueRange},
		{[]string{"LDI R0"}, 1, ErrOpcodeValueMissing},
		{[]string{"HLT R0"}, 1, ErrOpcodeExtraArgs},
		{[]string{"DB"}, 1, ErrOpcodeValueMissing},
		{[]string{`DS "a" "b"`}, 1, ErrOpcodeExtraArgs},
		{[]string{"DB xyz!"}, 1, ErrParseNumber("xyz!")},
		{[]string{"HLT", "", "LDI R0,Nowhere"}, 3, ErrLabelMissing("Nowhere")},
		{[]string{"A: HLT", "A: HLT"}, 2, ErrLabelDuplicate},
		{[]string{".equ X 1", ".equ X 2"}, 2, ErrEquateDuplicate},
		{[]string{".equ X"}, 1, ErrEquateSyntax},
		{[]string{".macro"}, 1, ErrMacroSyntax},
		{[]string{".macro A", ".macro B"}, 2, ErrMacroNesting},
		{[]string{".macro A", ".endm", ".macro A", ".endm"}, 3, ErrMacroDuplicate},
		{[]string{".macro A", "HLT"}, 2, ErrMacroLonely},
		{[]string{".endm"}, 1, ErrMacroLonelyEndm},
		{[]string{".macro A x", ".endm", "A"}, 3, ErrMacroSyntax},
	}

	for _, entry := range table {
		source := strings.Join(entry.lines, "\n")

		_, err := assemble(t, nil, entry.lines...)
		assert.ErrorIs(err, entry.err, source)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), source) {
			assert.Equal(entry.lineno, syntax.LineNo, source)
		}
	}
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble(t, nil,
		".macro BAD",
		"PRN R9",
		".endm",
		"BAD",
	)
	assert.ErrorIs(err, ErrRegisterInvalid)

	var macro *ErrMacro
	require.True(t, errors.As(err, &macro))
	assert.Equal("BAD", macro.Macro)
	assert.Equal(2, macro.Line)
}

func TestAssemblerExpression(t *testing.T) {
	assert := assert.New(t)

	_, err := assemble(t, nil, "LDI R0,$(1 +)")
	assert.Error(err)

	_, err = assemble(t, nil, "LDI R0,$(1 == 1)")
	assert.ErrorIs(err, ErrParseExpression("1 == 1"))
}
