package cpu

// Stack is the downward growing stack in main memory, addressed by the
// stack pointer register. It is not bounds checked against program text.
type Stack struct {
	Memory   *Memory
	Register *RegisterFile
}

// Push decrements the stack pointer, then writes value at the new top.
func (s *Stack) Push(value uint8) (err error) {
	sp := s.Register[REG_SP] - 1

	err = s.Memory.Write(uint(sp), value)
	if err != nil {
		return
	}

	s.Register[REG_SP] = sp
	return
}

// Pop reads the value at the top of the stack, then increments the stack pointer.
func (s *Stack) Pop() (value uint8, err error) {
	value, err = s.Peek()
	if err != nil {
		return
	}

	s.Register[REG_SP]++
	return
}

// Peek reads the value at the top of the stack.
func (s *Stack) Peek() (value uint8, err error) {
	return s.Memory.Read(uint(s.Register[REG_SP]))
}

// Depth returns the signed offset of SP below SP_INIT: the number of bytes
// pushed, or negative after popping past SP_INIT.
func (s *Stack) Depth() int {
	return SP_INIT - int(s.Register[REG_SP])
}

// Empty returns true if the stack pointer is at its initial value.
func (s *Stack) Empty() bool {
	return s.Register[REG_SP] == SP_INIT
}
