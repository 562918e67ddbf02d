package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/mnafees/c8vm/internal"
)

// Inspector is the read-only view of a VM the printers need.
type Inspector interface {
	PC() uint16
	Opcode() uint16
	I() uint16
	Registers() [16]uint8
	DelayTimer() uint8
	SoundTimer() uint8
	StackDepth() int
	Waiting() (uint8, bool)
}

// PrintState writes the registers, the program counter and the current
// instruction.
func PrintState(w io.Writer, vm Inspector) {
	info := Disassemble(vm.Opcode())
	fmt.Fprintf(w, "PC: %03X  OP: %04X  %-16s %s\n", vm.PC(), vm.Opcode(), info, info.Description)

	regs := vm.Registers()
	for i, v := range regs {
		if i > 0 {
			if i%8 == 0 {
				fmt.Fprintln(w)
			} else {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintf(w, "V%X: %02X", i, v)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "I: %03X  DT: %02X  ST: %02X  SP: %d", vm.I(), vm.DelayTimer(), vm.SoundTimer(), vm.StackDepth())
	if reg, ok := vm.Waiting(); ok {
		fmt.Fprintf(w, "  waiting for key -> V%X", reg)
	}
	fmt.Fprintln(w)
}

// PrintFramebuffer writes the display as a grid of X and . characters.
func PrintFramebuffer(w io.Writer, pixels *internal.Pixels) {
	const hex = "0123456789ABCDEF"

	var header strings.Builder
	for x := 0; x < internal.ScreenWidth; x++ {
		header.WriteByte(hex[x%16])
	}
	fmt.Fprintf(w, "   %s\n\n", header.String())

	line := make([]byte, internal.ScreenWidth)
	for y := 0; y < internal.ScreenHeight; y++ {
		for x := range line {
			line[x] = '.'
			if pixels.At(x, y) != 0 {
				line[x] = 'X'
			}
		}
		fmt.Fprintf(w, "%2c %s\n", hex[y%16], line)
	}
}

// PrintKeypad writes the state of the 16 keys.
func PrintKeypad(w io.Writer, keys [internal.KeyCount]bool) {
	buf := make([]byte, internal.KeyCount)
	for i, down := range keys {
		buf[i] = '.'
		if down {
			buf[i] = 'X'
		}
	}
	fmt.Fprintf(w, "0123456789ABCDEF\n%s\n", buf)
}
