package internal

// Follows the CHIP-8 technical reference found at http://devernay.free.fr/hacks/chip8/C8TECH10.HTM

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// TimerFrequency is the rate in Hz at which Tick is expected to be called.
const TimerFrequency = 60

// Random is the source used by the RND instruction.
type Random interface {
	Intn(n int) int
}

// Option configures a C8VM.
type Option func(vm *C8VM) error

// WithRandom sets the randomness source used by CXNN.
func WithRandom(rnd Random) Option {
	return func(vm *C8VM) error {
		if rnd == nil {
			return errors.New("nil random source")
		}
		vm.rnd = rnd
		return nil
	}
}

// WithSeed seeds a private math/rand source for CXNN.
func WithSeed(seed int64) Option {
	return WithRandom(rand.New(rand.NewSource(seed)))
}

// C8VM is an emulated CHIP-8 VM. It is not safe for concurrent use: input
// and stepping must be serialized by the owner.
type C8VM struct {
	state  machineState
	stack  callStack
	keys   keypad
	fb     framebuffer
	opcode uint16 // 16-bit opcode of the current instruction
	rnd    Random

	waiting bool  // FX0A is blocking execution
	waitReg uint8 // register receiving the key once one is pressed
}

// NewC8VM creates a new instance of an emulated CHIP-8 VM with the font
// table loaded at 0x000 and the program counter at 0x200.
func NewC8VM(opts ...Option) (*C8VM, error) {
	vm := &C8VM{
		state: newMachineState(),
	}
	for _, opt := range opts {
		if err := opt(vm); err != nil {
			return nil, err
		}
	}
	if vm.rnd == nil {
		vm.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return vm, nil
}

// LoadProgram copies a program image into the VM's memory at 0x200.
func (vm *C8VM) LoadProgram(program []byte) error {
	return vm.state.load(program)
}

// Step runs a single fetch-decode-execute cycle and returns whether a
// redraw is pending. While waiting for a key, a step only checks the keypad.
func (vm *C8VM) Step() (bool, error) {
	if vm.waiting {
		if key, ok := vm.keys.lowest(); ok {
			vm.state.regV[vm.waitReg] = key
			vm.state.pc += 2
			vm.waiting = false
		}
		return vm.fb.redraw, nil
	}

	pc := vm.state.pc
	word, err := vm.state.span(pc, 2)
	if err != nil {
		return vm.fb.redraw, newFault(0, pc, err)
	}
	vm.opcode = uint16(word[0])<<8 | uint16(word[1])

	if err := vm.execute(); err != nil {
		return vm.fb.redraw, newFault(vm.opcode, pc, err)
	}
	return vm.fb.redraw, nil
}

// execute decodes vm.opcode and applies it. On error the program counter
// is left pointing at the faulting instruction.
func (vm *C8VM) execute() error {
	s := &vm.state
	x := uint8((vm.opcode >> 8) & 0x000F) // the lower 4 bits of the high byte of the instruction
	y := uint8((vm.opcode >> 4) & 0x000F) // the upper 4 bits of the low byte of the instruction
	n := uint8(vm.opcode & 0x000F)        // the lowest 4 bits of the instruction
	kk := uint8(vm.opcode & 0x00FF)       // the lowest 8 bits of the instruction
	nnn := vm.opcode & 0x0FFF             // the lowest 12 bits of the instruction

	switch vm.opcode & 0xF000 { // Compare against the first 4 bits of the instruction only
	case 0x0000:
		switch vm.opcode {
		case 0x00E0: // CLS
			vm.fb.clear()
			s.pc += 2
		case 0x00EE: // RET
			addr, err := vm.stack.pop()
			if err != nil {
				return err
			}
			s.pc = addr + 2
		default:
			return ErrInvalidOpcode
		}
	case 0x1000: // JP nnn
		s.pc = nnn
	case 0x2000: // CALL nnn
		if err := vm.stack.push(s.pc); err != nil {
			return err
		}
		s.pc = nnn
	case 0x3000: // SE Vx, kk
		vm.skipIf(s.regV[x] == kk)
	case 0x4000: // SNE Vx, kk
		vm.skipIf(s.regV[x] != kk)
	case 0x5000: // SE Vx, Vy
		if n != 0 {
			return ErrInvalidOpcode
		}
		vm.skipIf(s.regV[x] == s.regV[y])
	case 0x6000: // LD Vx, kk
		s.regV[x] = kk
		s.pc += 2
	case 0x7000: // ADD Vx, kk
		s.regV[x] += kk
		s.pc += 2
	case 0x8000:
		if err := vm.arithmetic(x, y, n); err != nil {
			return err
		}
		s.pc += 2
	case 0x9000: // SNE Vx, Vy
		if n != 0 {
			return ErrInvalidOpcode
		}
		vm.skipIf(s.regV[x] != s.regV[y])
	case 0xA000: // LD I, nnn
		s.regI = nnn
		s.pc += 2
	case 0xB000: // JP V0, nnn
		s.pc = nnn + uint16(s.regV[0])
	case 0xC000: // RND Vx, kk
		s.regV[x] = uint8(vm.rnd.Intn(256)) & kk
		s.pc += 2
	case 0xD000: // DRW Vx, Vy, n
		if n == 0 {
			return ErrInvalidOpcode
		}
		rows, err := s.span(s.regI, int(n))
		if err != nil {
			return err
		}
		if vm.fb.drawSprite(s.regV[x], s.regV[y], rows) {
			s.regV[0xF] = 1
		} else {
			s.regV[0xF] = 0
		}
		s.pc += 2
	case 0xE000:
		switch kk {
		case 0x9E: // SKP Vx
			vm.skipIf(vm.keys.isDown(s.regV[x]))
		case 0xA1: // SKNP Vx
			vm.skipIf(!vm.keys.isDown(s.regV[x]))
		default:
			return ErrInvalidOpcode
		}
	case 0xF000:
		return vm.misc(x, kk)
	default:
		return ErrInvalidOpcode
	}
	return nil
}

// skipIf advances past the next instruction when cond holds.
func (vm *C8VM) skipIf(cond bool) {
	if cond {
		vm.state.pc += 2
	}
	vm.state.pc += 2
}

// arithmetic executes the 8XYN family. VF is written after VX so the flag
// wins when X is F.
func (vm *C8VM) arithmetic(x, y, n uint8) error {
	v := &vm.state.regV
	var flag uint8
	switch n {
	case 0x0: // LD Vx, Vy
		v[x] = v[y]
		return nil
	case 0x1: // OR Vx, Vy
		v[x] |= v[y]
		return nil
	case 0x2: // AND Vx, Vy
		v[x] &= v[y]
		return nil
	case 0x3: // XOR Vx, Vy
		v[x] ^= v[y]
		return nil
	case 0x4: // ADD Vx, Vy
		sum := uint16(v[x]) + uint16(v[y])
		if sum > 0xFF {
			flag = 1
		}
		v[x] = uint8(sum)
	case 0x5: // SUB Vx, Vy
		if v[x] >= v[y] {
			flag = 1
		}
		v[x] -= v[y]
	case 0x6: // SHR Vx {, Vy}
		flag = v[x] & 0x01
		v[x] >>= 1
	case 0x7: // SUBN Vx, Vy
		if v[y] >= v[x] {
			flag = 1
		}
		v[x] = v[y] - v[x]
	case 0xE: // SHL Vx {, Vy}
		flag = v[x] >> 7
		v[x] <<= 1
	default:
		return ErrInvalidOpcode
	}
	v[0xF] = flag
	return nil
}

// misc executes the FXNN family.
func (vm *C8VM) misc(x, kk uint8) error {
	s := &vm.state
	switch kk {
	case 0x07: // LD Vx, DT
		s.regV[x] = s.delayTimer
	case 0x0A: // LD Vx, K
		vm.waiting = true
		vm.waitReg = x
		return nil
	case 0x15: // LD DT, Vx
		s.delayTimer = s.regV[x]
	case 0x18: // LD ST, Vx
		s.soundTimer = s.regV[x]
	case 0x1E: // ADD I, Vx
		s.regI += uint16(s.regV[x])
	case 0x29: // LD F, Vx
		s.regI = fontBase + glyphSize*uint16(s.regV[x])
	case 0x33: // LD B, Vx
		mem, err := s.span(s.regI, 3)
		if err != nil {
			return err
		}
		mem[0] = s.regV[x] / 100
		mem[1] = (s.regV[x] / 10) % 10
		mem[2] = s.regV[x] % 10
	case 0x55: // LD [I], Vx
		mem, err := s.span(s.regI, int(x)+1)
		if err != nil {
			return err
		}
		copy(mem, s.regV[:x+1])
	case 0x65: // LD Vx, [I]
		mem, err := s.span(s.regI, int(x)+1)
		if err != nil {
			return err
		}
		copy(s.regV[:x+1], mem)
	default:
		return ErrInvalidOpcode
	}
	s.pc += 2
	return nil
}

// Tick decrements the delay and sound timers. It must be called at
// TimerFrequency, independent of how many instructions run per frame.
func (vm *C8VM) Tick() {
	if vm.state.delayTimer > 0 {
		vm.state.delayTimer--
	}
	if vm.state.soundTimer > 0 {
		vm.state.soundTimer--
	}
}

// KeyPress marks a keypad key as down.
func (vm *C8VM) KeyPress(key uint8) error {
	return vm.keys.press(key)
}

// KeyRelease marks a keypad key as up.
func (vm *C8VM) KeyRelease(key uint8) error {
	return vm.keys.release(key)
}

// IsKeyDown returns whether the given key is down.
func (vm *C8VM) IsKeyDown(key uint8) bool {
	return vm.keys.isDown(key)
}

// Keys returns the state of all 16 keys.
func (vm *C8VM) Keys() [KeyCount]bool {
	var keys [KeyCount]bool
	for i := range keys {
		keys[i] = vm.keys.isDown(uint8(i))
	}
	return keys
}

// TakeRedraw returns whether the display changed since the last call and
// clears the pending flag.
func (vm *C8VM) TakeRedraw() bool {
	return vm.fb.takeRedraw()
}

// Pixels returns a snapshot of the display.
func (vm *C8VM) Pixels() Pixels {
	return vm.fb.pixels
}

// Pixel returns the pixel at column x, row y.
func (vm *C8VM) Pixel(x, y int) uint8 {
	return vm.fb.pixels.At(x, y)
}

// DelayTimer returns the value of DT
func (vm *C8VM) DelayTimer() uint8 {
	return vm.state.delayTimer
}

// SoundTimer returns the value of ST
func (vm *C8VM) SoundTimer() uint8 {
	return vm.state.soundTimer
}

// Opcode returns the most recently fetched instruction.
func (vm *C8VM) Opcode() uint16 {
	return vm.opcode
}

// PC returns the program counter.
func (vm *C8VM) PC() uint16 {
	return vm.state.pc
}

// I returns the index register.
func (vm *C8VM) I() uint16 {
	return vm.state.regI
}

// V returns general purpose register x.
func (vm *C8VM) V(x uint8) uint8 {
	return vm.state.regV[x&0xF]
}

// Registers returns a copy of V0 to VF.
func (vm *C8VM) Registers() [16]uint8 {
	return vm.state.regV
}

// StackDepth returns the number of pending return addresses.
func (vm *C8VM) StackDepth() int {
	return vm.stack.depth()
}

// Waiting reports whether the VM is blocked on FX0A and which register
// will receive the key.
func (vm *C8VM) Waiting() (uint8, bool) {
	return vm.waitReg, vm.waiting
}

// Memory returns the byte at addr.
func (vm *C8VM) Memory(addr uint16) (uint8, error) {
	b, err := vm.state.span(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}
