// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/io"
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

func main() {
	var assemble bool
	var save string
	var disassemble bool
	var capacity uint
	var andMode string
	var verbose bool

	flag.BoolVar(&assemble, "a", false, "PROGRAM is assembly source")
	flag.StringVar(&save, "S", "", "Write assembled binary text to file ('-' for stdout), do not execute")
	flag.BoolVar(&disassemble, "d", false, "Disassemble memory, do not execute")
	flag.UintVar(&capacity, "m", cpu.MEMORY_SIZE, "Memory capacity in bytes")
	flag.StringVar(&andMode, "and", "bitwise", "AND instruction behavior: 'bitwise' or 'nop'")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Usage = func() {
		translate.Fprint(flag.CommandLine.Output(), "usage: %v [flags] PROGRAM\n", os.Args[0])
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	emu := emulator.NewEmulator(capacity)
	emu.Verbose = verbose

	switch andMode {
	case "bitwise":
		emu.Cpu.AndMode = cpu.AND_MODE_BITWISE
	case "nop":
		emu.Cpu.AndMode = cpu.AND_MODE_NOP
	default:
		log.Fatal(f("%v: unknown -and mode '%v'", os.Args[0], andMode))
	}

	if assemble || len(save) != 0 {
		err := emu.AssembleFile(path)
		if err != nil {
			log.Fatal(f("%v: %v", path, err))
		}
	} else {
		reports, err := loadDiagnostics(path, emu.LoadFile(path))
		if err != nil {
			log.Fatal(f("%v: %v", path, err))
		}
		// Reported, memory is left zeroed.
		for _, report := range reports {
			log.Print(report)
		}
	}

	if len(save) != 0 {
		err := saveText(save, emu.Program)
		if err != nil {
			log.Fatal(f("%v: %v", save, err))
		}
		return
	}

	if disassemble {
		err := emu.Listing(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	err := emu.Run()

	if term.IsTerminal(int(os.Stdout.Fd())) {
		emu.Terminal.EndLine()
	}

	if err != nil {
		if verbose {
			log.Print(emu.Cpu.String())
		}
		log.Fatal(f("%v: %v", path, err))
	}
}

// loadDiagnostics splits a LoadFile error into the diagnostics that are
// reported before running on zeroed memory, and a fatal error.
func loadDiagnostics(path string, err error) (reports []string, fatal error) {
	if err == nil {
		return
	}

	var open *io.ErrOpen
	if errors.As(err, &open) {
		reports = append(reports, open.Error())
	}
	if errors.Is(err, io.ErrEmptyProgram) {
		reports = append(reports, f("%v: %v", path, io.ErrEmptyProgram))
	}

	if len(reports) == 0 {
		fatal = err
	}

	return
}

// saveText writes the program in binary text format to path, or to stdout for "-".
func saveText(path string, prog *cpu.Program) (err error) {
	if path == "-" {
		return prog.WriteText(os.Stdout)
	}

	ouf, err := os.Create(path)
	if err != nil {
		return
	}
	defer func() {
		cerr := ouf.Close()
		if err == nil {
			err = cerr
		}
	}()

	return prog.WriteText(ouf)
}
