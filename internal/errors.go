package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the VM. Faults raised while executing an instruction
// are returned as *Fault and unwrap to one of these.
var (
	ErrInvalidOpcode   = errors.New("invalid opcode")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrInvalidKey      = errors.New("invalid key")
	ErrProgramTooLarge = errors.New("program size exceeds the maximum size")
)

// Fault is an execution error tied to the instruction that caused it.
type Fault struct {
	Opcode uint16 // Instruction word that was executing
	PC     uint16 // Address of that instruction
	Err    error
}

func newFault(opcode, pc uint16, err error) *Fault {
	return &Fault{
		Opcode: opcode,
		PC:     pc,
		Err:    err,
	}
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%04X: opcode %04X: %v", f.PC, f.Opcode, f.Err)
}

// Unwrap returns the underlying cause so errors.Is matches the sentinels.
func (f *Fault) Unwrap() error {
	return f.Err
}

func addressError(addr uint32) error {
	return errors.Wrapf(ErrInvalidOpcode, "address %04X out of range", addr)
}
