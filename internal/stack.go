package internal

const stackSize = 16

// callStack holds subroutine return addresses.
type callStack struct {
	stack [stackSize]uint16 // A stack of 16 16-bit values
	sp    uint8             // Stack pointer
}

func (s *callStack) push(addr uint16) error {
	if s.sp == stackSize {
		return ErrStackOverflow
	}
	s.stack[s.sp] = addr
	s.sp++
	return nil
}

func (s *callStack) pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}
	s.sp--
	return s.stack[s.sp], nil
}

func (s *callStack) depth() int {
	return int(s.sp)
}
