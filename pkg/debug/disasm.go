// Package debug provides a disassembler and printers for inspecting a
// running CHIP-8 VM.
package debug

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Info describes a decoded instruction word.
type Info struct {
	Name        string // Mnemonic, "???" for unknown words
	Operands    string // Formatted operands, e.g. "V1, #2A"
	Pattern     string // Opcode pattern, e.g. "6XNN"
	Description string
	Known       bool
}

// String returns the instruction in assembly form.
func (i Info) String() string {
	if i.Operands == "" {
		return i.Name
	}
	return i.Name + " " + i.Operands
}

type operands int

const (
	noOperands operands = iota
	addrOperand         // NNN
	regByte             // VX, NN
	regReg              // VX, VY
	regOnly             // VX
	regRegNibble        // VX, VY, N
	indexAddr           // I, NNN
	v0Addr              // V0, NNN
	regDelay            // VX, DT
	regKey              // VX, K
	delayReg            // DT, VX
	soundReg            // ST, VX
	indexReg            // I, VX
	fontReg             // F, VX
	bcdReg              // B, VX
	storeRegs           // [I], VX
	loadRegs            // VX, [I]
)

type entry struct {
	mask, value uint16
	name        string
	pattern     string
	description string
	operands    operands
}

var entries = []entry{
	{0xFFFF, 0x00E0, "cls", "00E0", "Clear the screen", noOperands},
	{0xFFFF, 0x00EE, "ret", "00EE", "Return from subroutine", noOperands},
	{0xF000, 0x1000, "jp", "1NNN", "Jump to address NNN", addrOperand},
	{0xF000, 0x2000, "call", "2NNN", "Call subroutine at NNN", addrOperand},
	{0xF000, 0x3000, "se", "3XNN", "Skip next instruction if VX == NN", regByte},
	{0xF000, 0x4000, "sne", "4XNN", "Skip next instruction if VX != NN", regByte},
	{0xF00F, 0x5000, "se", "5XY0", "Skip next instruction if VX == VY", regReg},
	{0xF000, 0x6000, "ld", "6XNN", "Set VX to NN", regByte},
	{0xF000, 0x7000, "add", "7XNN", "Add NN to VX (no change to carry flag)", regByte},
	{0xF00F, 0x8000, "ld", "8XY0", "Set VX to the value of VY", regReg},
	{0xF00F, 0x8001, "or", "8XY1", "Set VX to VX | VY", regReg},
	{0xF00F, 0x8002, "and", "8XY2", "Set VX to VX & VY", regReg},
	{0xF00F, 0x8003, "xor", "8XY3", "Set VX to VX ^ VY", regReg},
	{0xF00F, 0x8004, "add", "8XY4", "Set VX to VX + VY, VF = carry", regReg},
	{0xF00F, 0x8005, "sub", "8XY5", "Set VX to VX - VY, VF = not borrow", regReg},
	{0xF00F, 0x8006, "shr", "8XY6", "Shift VX right by 1, VF = shifted out bit", regReg},
	{0xF00F, 0x8007, "subn", "8XY7", "Set VX to VY - VX, VF = not borrow", regReg},
	{0xF00F, 0x800E, "shl", "8XYE", "Shift VX left by 1, VF = shifted out bit", regReg},
	{0xF00F, 0x9000, "sne", "9XY0", "Skip next instruction if VX != VY", regReg},
	{0xF000, 0xA000, "ld", "ANNN", "Set I to the address NNN", indexAddr},
	{0xF000, 0xB000, "jp", "BNNN", "Jump to address NNN plus V0", v0Addr},
	{0xF000, 0xC000, "rnd", "CXNN", "Set VX to a random byte & NN", regByte},
	{0xF000, 0xD000, "drw", "DXYN", "Draw an 8xN sprite from I at (VX, VY), VF = collision", regRegNibble},
	{0xF0FF, 0xE09E, "skp", "EX9E", "Skip next instruction if key VX is pressed", regOnly},
	{0xF0FF, 0xE0A1, "sknp", "EXA1", "Skip next instruction if key VX is not pressed", regOnly},
	{0xF0FF, 0xF007, "ld", "FX07", "Set VX to the value of the delay timer", regDelay},
	{0xF0FF, 0xF00A, "ld", "FX0A", "Await a key press, then store the key in VX", regKey},
	{0xF0FF, 0xF015, "ld", "FX15", "Set the delay timer to VX", delayReg},
	{0xF0FF, 0xF018, "ld", "FX18", "Set the sound timer to VX", soundReg},
	{0xF0FF, 0xF01E, "add", "FX1E", "Add VX to I (no carry)", indexReg},
	{0xF0FF, 0xF029, "ld", "FX29", "Set I to the font sprite for the digit in VX", fontReg},
	{0xF0FF, 0xF033, "ld", "FX33", "Store the BCD digits of VX at I, I+1, I+2", bcdReg},
	{0xF0FF, 0xF055, "ld", "FX55", "Store V0 to VX (including) in memory starting at I", storeRegs},
	{0xF0FF, 0xF065, "ld", "FX65", "Fill V0 to VX (including) from memory starting at I", loadRegs},
}

// Disassemble decodes a single instruction word.
func Disassemble(word uint16) Info {
	for _, e := range entries {
		if word&e.mask != e.value {
			continue
		}
		if e.pattern == "DXYN" && word&0x000F == 0 {
			break
		}
		name := mnemonic(word)
		if name == "" {
			name = e.name
		}
		return Info{
			Name:        name,
			Operands:    formatOperands(e.operands, word),
			Pattern:     e.pattern,
			Description: e.description,
			Known:       true,
		}
	}
	return Info{Name: "???"}
}

// mnemonic looks the word up in retrogolib's CHIP-8 opcode tables.
func mnemonic(word uint16) string {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Instruction != nil && op.Info.Mask&word == op.Info.Value {
			return op.Instruction.Name
		}
	}
	return ""
}

func formatOperands(kind operands, word uint16) string {
	x := (word >> 8) & 0xF
	y := (word >> 4) & 0xF
	n := word & 0xF
	nn := word & 0xFF
	nnn := word & 0xFFF

	switch kind {
	case addrOperand:
		return fmt.Sprintf("#%03X", nnn)
	case regByte:
		return fmt.Sprintf("V%X, #%02X", x, nn)
	case regReg:
		return fmt.Sprintf("V%X, V%X", x, y)
	case regOnly:
		return fmt.Sprintf("V%X", x)
	case regRegNibble:
		return fmt.Sprintf("V%X, V%X, %d", x, y, n)
	case indexAddr:
		return fmt.Sprintf("I, #%03X", nnn)
	case v0Addr:
		return fmt.Sprintf("V0, #%03X", nnn)
	case regDelay:
		return fmt.Sprintf("V%X, DT", x)
	case regKey:
		return fmt.Sprintf("V%X, K", x)
	case delayReg:
		return fmt.Sprintf("DT, V%X", x)
	case soundReg:
		return fmt.Sprintf("ST, V%X", x)
	case indexReg:
		return fmt.Sprintf("I, V%X", x)
	case fontReg:
		return fmt.Sprintf("F, V%X", x)
	case bcdReg:
		return fmt.Sprintf("B, V%X", x)
	case storeRegs:
		return fmt.Sprintf("[I], V%X", x)
	case loadRegs:
		return fmt.Sprintf("V%X, [I]", x)
	default:
		return ""
	}
}

// Listing writes one line per instruction word of a program image, with
// addresses starting at 0x200.
func Listing(program []byte) string {
	var sb strings.Builder
	for offset := 0; offset+1 < len(program); offset += 2 {
		word := uint16(program[offset])<<8 | uint16(program[offset+1])
		info := Disassemble(word)
		fmt.Fprintf(&sb, "%03X: %04X  %-16s", 0x200+offset, word, info)
		if info.Known {
			fmt.Fprintf(&sb, "; %s", info.Description)
		}
		sb.WriteString("\n")
	}
	if len(program)%2 == 1 {
		last := len(program) - 1
		fmt.Fprintf(&sb, "%03X: %02X\n", 0x200+last, program[last])
	}
	return sb.String()
}
