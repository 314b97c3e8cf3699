// Package cpu implements the LS-8 microprocessor, its assembler and disassembler.
//
// The CPU consists of a program counter (PC), eight 8-bit registers (R0-R7,
// with R5/R6/R7 reserved as the interrupt mask, interrupt status and stack
// pointer), an ALU, a downward-growing stack in main memory, and the
// Equal/Greater/Less comparison flags. Memory is a flat byte array whose
// capacity is chosen when the CPU is created.
//
// The assembler provides a macro assembly language for the LS-8 instruction set,
// supporting labels, equates, and compile-time expression evaluation.
package cpu
