package internal

import (
	"github.com/pkg/errors"
)

// CHIP-8 memory layout
const (
	totalMemory    = 0x1000
	pcStartAddr    = 0x200
	maxProgramSize = totalMemory - pcStartAddr

	fontBase  = 0x000
	glyphSize = 5

	// MaxProgramSize is the largest program image LoadProgram accepts.
	MaxProgramSize = maxProgramSize
)

var fontset = [...]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// machineState holds memory and registers. It has no behaviour beyond
// storage and bounds checking.
type machineState struct {
	memory     [totalMemory]uint8 // 4 KB global memory
	regV       [16]uint8          // 16 general purpose 8-bit registers
	regI       uint16             // 16-bit register that is generally used to store memory addresses
	pc         uint16             // Program counter
	delayTimer uint8              // Delay timer
	soundTimer uint8              // Sound timer
}

func newMachineState() machineState {
	s := machineState{
		pc: pcStartAddr,
	}
	copy(s.memory[fontBase:], fontset[:])
	return s
}

// load copies a program image into RAM at 0x200.
func (s *machineState) load(program []byte) error {
	if len(program) > maxProgramSize {
		return errors.Wrapf(ErrProgramTooLarge, "%d bytes, limit is %d", len(program), maxProgramSize)
	}
	copy(s.memory[pcStartAddr:], program)
	return nil
}

// span returns the memory window [addr, addr+n) or an error if any part
// of it falls outside the address space.
func (s *machineState) span(addr uint16, n int) ([]uint8, error) {
	end := uint32(addr) + uint32(n)
	if end > totalMemory {
		return nil, addressError(end - 1)
	}
	return s.memory[addr:end], nil
}
