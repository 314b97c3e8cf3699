package cpu

// Flags holds the result of the most recent CMP, as 0b00000LGE.
type Flags uint8

const (
	FLAG_EQUAL   = Flags(1 << 0) // E
	FLAG_GREATER = Flags(1 << 1) // G
	FLAG_LESS    = Flags(1 << 2) // L
)

// compareFlags computes all three flags for a against b.
func compareFlags(a, b uint8) (fl Flags) {
	if a == b {
		fl |= FLAG_EQUAL
	}
	if a > b {
		fl |= FLAG_GREATER
	}
	if a < b {
		fl |= FLAG_LESS
	}
	return
}

func (fl Flags) Equal() bool {
	return fl&FLAG_EQUAL != 0
}

func (fl Flags) Greater() bool {
	return fl&FLAG_GREATER != 0
}

func (fl Flags) Less() bool {
	return fl&FLAG_LESS != 0
}

// String returns the flags as "LGE", with '-' for clear bits.
func (fl Flags) String() string {
	out := []byte("---")
	if fl.Less() {
		out[0] = 'L'
	}
	if fl.Greater() {
		out[1] = 'G'
	}
	if fl.Equal() {
		out[2] = 'E'
	}
	return string(out)
}
