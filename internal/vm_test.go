package internal

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
)

type fixedRandom int

func (r fixedRandom) Intn(int) int {
	return int(r)
}

// newTestVM returns a VM with the given instruction words loaded at 0x200.
func newTestVM(t *testing.T, program ...uint16) *C8VM {
	t.Helper()
	vm, err := NewC8VM(WithSeed(1))
	assert.NoError(t, err)
	assert.NoError(t, vm.LoadProgram(emit(program...)))
	return vm
}

func emit(words ...uint16) []byte {
	data := make([]byte, 0, len(words)*2)
	for _, w := range words {
		data = append(data, byte(w>>8), byte(w))
	}
	return data
}

func runSteps(t *testing.T, vm *C8VM, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		_, err := vm.Step()
		assert.NoError(t, err)
	}
}

func TestNewC8VM(t *testing.T) {
	vm, err := NewC8VM()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x200), vm.PC())
	assert.Equal(t, 0, vm.StackDepth())

	for i, b := range fontset {
		v, err := vm.Memory(uint16(i))
		assert.NoError(t, err)
		assert.Equal(t, b, v)
	}

	_, err = NewC8VM(WithRandom(nil))
	assert.Error(t, err)
}

func TestLoadAndCopy(t *testing.T) {
	// 6XNN then 8XY0 with Y=X leaves VX unchanged
	for x := uint16(0); x < 16; x++ {
		vm := newTestVM(t, 0x6042|x<<8, 0x8000|x<<8|x<<4)
		runSteps(t, vm, 2)
		assert.Equal(t, uint8(0x42), vm.V(uint8(x)))
		assert.Equal(t, uint16(0x204), vm.PC())
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy uint8
		opcode uint16
		want   uint8
		flag   uint8
	}{
		{"or", 0x0C, 0x03, 0x8011, 0x0F, 0x7},
		{"and", 0x0C, 0x06, 0x8012, 0x04, 0x7},
		{"xor", 0x0C, 0x06, 0x8013, 0x0A, 0x7},
		{"add no carry", 0x10, 0x20, 0x8014, 0x30, 0},
		{"add carry", 0xFF, 0x02, 0x8014, 0x01, 1},
		{"sub no borrow", 0x05, 0x03, 0x8015, 0x02, 1},
		{"sub equal", 0x05, 0x05, 0x8015, 0x00, 1},
		{"sub borrow", 0x01, 0x05, 0x8015, 0xFC, 0},
		{"shr odd", 0x81, 0x00, 0x8016, 0x40, 1},
		{"shr even", 0x80, 0x00, 0x8016, 0x40, 0},
		{"subn no borrow", 0x03, 0x05, 0x8017, 0x02, 1},
		{"subn borrow", 0x05, 0x01, 0x8017, 0xFC, 0},
		{"shl high bit", 0x81, 0x00, 0x801E, 0x02, 1},
		{"shl no high bit", 0x41, 0x00, 0x801E, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.opcode)
			vm.state.regV[0] = tt.vx
			vm.state.regV[1] = tt.vy
			vm.state.regV[0xF] = 0x7

			runSteps(t, vm, 1)
			assert.Equal(t, tt.want, vm.V(0))
			assert.Equal(t, tt.flag, vm.V(0xF))
			assert.Equal(t, uint16(0x202), vm.PC())
		})
	}
}

func TestArithmeticFlagRegister(t *testing.T) {
	// the flag is written last when VF is the destination
	vm := newTestVM(t, 0x8F14)
	vm.state.regV[0xF] = 0xFF
	vm.state.regV[1] = 0x02
	runSteps(t, vm, 1)
	assert.Equal(t, uint8(1), vm.V(0xF))
}

func TestAddImmediateWraps(t *testing.T) {
	vm := newTestVM(t, 0x63FF, 0x6F05, 0x7302)
	runSteps(t, vm, 3)
	assert.Equal(t, uint8(0x01), vm.V(3))
	assert.Equal(t, uint8(0x05), vm.V(0xF))
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		v0, v1 uint8
		pc     uint16
	}{
		{"se taken", 0x3042, 0x42, 0, 0x204},
		{"se not taken", 0x3042, 0x41, 0, 0x202},
		{"sne taken", 0x4042, 0x41, 0, 0x204},
		{"sne not taken", 0x4042, 0x42, 0, 0x202},
		{"se reg taken", 0x5010, 7, 7, 0x204},
		{"se reg not taken", 0x5010, 7, 8, 0x202},
		{"sne reg taken", 0x9010, 7, 8, 0x204},
		{"sne reg not taken", 0x9010, 7, 7, 0x202},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.opcode)
			vm.state.regV[0] = tt.v0
			vm.state.regV[1] = tt.v1
			runSteps(t, vm, 1)
			assert.Equal(t, tt.pc, vm.PC())
		})
	}
}

func TestKeySkips(t *testing.T) {
	vm := newTestVM(t, 0x6507, 0xE59E, 0x0000, 0xE5A1, 0xE59E)
	runSteps(t, vm, 2)
	assert.Equal(t, uint16(0x204), vm.PC())

	assert.NoError(t, vm.KeyPress(7))
	vm.state.pc = 0x202
	runSteps(t, vm, 1)
	assert.Equal(t, uint16(0x206), vm.PC())
	runSteps(t, vm, 1)
	assert.Equal(t, uint16(0x208), vm.PC())
	runSteps(t, vm, 1)
	assert.Equal(t, uint16(0x20C), vm.PC())

	// a register value above F is never down
	vm = newTestVM(t, 0x6520, 0xE5A1)
	runSteps(t, vm, 2)
	assert.Equal(t, uint16(0x206), vm.PC())
}

func TestJumps(t *testing.T) {
	vm := newTestVM(t, 0x1300)
	runSteps(t, vm, 1)
	assert.Equal(t, uint16(0x300), vm.PC())

	vm = newTestVM(t, 0x6004, 0xB300)
	runSteps(t, vm, 2)
	assert.Equal(t, uint16(0x304), vm.PC())
}

func TestCallReturn(t *testing.T) {
	vm := newTestVM(t,
		0x2206, // 200: CALL 206
		0x6001, // 202: LD V0, 1
		0x1204, // 204: JP 204
		0x6102, // 206: LD V1, 2
		0x00EE, // 208: RET
	)

	runSteps(t, vm, 1)
	assert.Equal(t, uint16(0x206), vm.PC())
	assert.Equal(t, 1, vm.StackDepth())

	runSteps(t, vm, 2)
	assert.Equal(t, uint16(0x202), vm.PC())
	assert.Equal(t, 0, vm.StackDepth())

	runSteps(t, vm, 1)
	assert.Equal(t, uint8(1), vm.V(0))
	assert.Equal(t, uint8(2), vm.V(1))
}

func TestStackOverflow(t *testing.T) {
	vm := newTestVM(t, 0x2200)
	runSteps(t, vm, stackSize)
	assert.Equal(t, stackSize, vm.StackDepth())

	_, err := vm.Step()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackOverflow))

	var fault *Fault
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x200), fault.PC)
	assert.Equal(t, uint16(0x2200), fault.Opcode)
	assert.Equal(t, stackSize, vm.StackDepth())
}

func TestStackUnderflow(t *testing.T) {
	vm := newTestVM(t, 0x00EE)
	_, err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, uint16(0x200), vm.PC())
}

func TestInvalidOpcodes(t *testing.T) {
	opcodes := []uint16{0x0000, 0x0123, 0x5121, 0x8128, 0x812F, 0x9121, 0xD120, 0xE1FF, 0xF1FF, 0xF10B}
	for _, opcode := range opcodes {
		vm := newTestVM(t, opcode)
		_, err := vm.Step()
		assert.True(t, errors.Is(err, ErrInvalidOpcode))

		var fault *Fault
		assert.True(t, errors.As(err, &fault))
		assert.Equal(t, opcode, fault.Opcode)
		assert.Equal(t, uint16(0x200), vm.PC())
	}
}

func TestFaultMessage(t *testing.T) {
	vm := newTestVM(t, 0x0123)
	_, err := vm.Step()
	assert.Equal(t, "0200: opcode 0123: invalid opcode", err.Error())
}

func TestAddressOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
	}{
		{"bcd", []uint16{0xAFFF, 0xF033}},
		{"store", []uint16{0xAFFE, 0xF255}},
		{"load", []uint16{0xAFFF, 0xF165}},
		{"draw", []uint16{0xAFFC, 0xD015}},
		{"index past memory", []uint16{0xAFFF, 0x6002, 0xF01E, 0xF065}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, tt.program...)
			runSteps(t, vm, len(tt.program)-1)
			pc := vm.PC()

			_, err := vm.Step()
			assert.True(t, errors.Is(err, ErrInvalidOpcode))
			assert.Equal(t, pc, vm.PC())
		})
	}
}

func TestFetchOutOfRange(t *testing.T) {
	vm := newTestVM(t, 0x1FFF)
	runSteps(t, vm, 1)

	_, err := vm.Step()
	assert.True(t, errors.Is(err, ErrInvalidOpcode))
}

func TestIndexRegister(t *testing.T) {
	vm := newTestVM(t, 0xA123, 0x6010, 0xF01E)
	runSteps(t, vm, 3)
	assert.Equal(t, uint16(0x133), vm.I())

	// no flag or fault when I passes the address space
	vm = newTestVM(t, 0xAFFF, 0x6002, 0x6F07, 0xF01E)
	runSteps(t, vm, 4)
	assert.Equal(t, uint16(0x1001), vm.I())
	assert.Equal(t, uint8(7), vm.V(0xF))
}

func TestFontAddress(t *testing.T) {
	vm := newTestVM(t, 0x650A, 0xF529)
	runSteps(t, vm, 2)
	assert.Equal(t, uint16(fontBase+50), vm.I())
}

func TestBCD(t *testing.T) {
	vm := newTestVM(t, 0xA300, 0x609D, 0xF033)
	runSteps(t, vm, 3)
	for i, want := range []uint8{1, 5, 7} {
		got, err := vm.Memory(0x300 + uint16(i))
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint16(0x300), vm.I())
}

func TestStoreLoadRegisters(t *testing.T) {
	vm := newTestVM(t,
		0x6011, 0x6122, 0x6233, 0x6344,
		0xA300, 0xF255,
		0x6000, 0x6100, 0x6200,
		0xF265,
	)
	runSteps(t, vm, 6)
	for i, want := range []uint8{0x11, 0x22, 0x33, 0x00} {
		got, err := vm.Memory(0x300 + uint16(i))
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	runSteps(t, vm, 4)
	assert.Equal(t, [16]uint8{0x11, 0x22, 0x33, 0x44}, vm.Registers())
	assert.Equal(t, uint16(0x300), vm.I())
}

func TestRandom(t *testing.T) {
	vm, err := NewC8VM(WithRandom(fixedRandom(0xAB)))
	assert.NoError(t, err)
	assert.NoError(t, vm.LoadProgram(emit(0xC0F0, 0xC10F)))
	runSteps(t, vm, 2)
	assert.Equal(t, uint8(0xA0), vm.V(0))
	assert.Equal(t, uint8(0x0B), vm.V(1))

	vm = newTestVM(t, 0xC3FF)
	runSteps(t, vm, 1)
	want := uint8(rand.New(rand.NewSource(1)).Intn(256))
	assert.Equal(t, want, vm.V(3))
}

func TestDrawCollision(t *testing.T) {
	vm := newTestVM(t, 0xA000, 0x6000, 0x6100, 0xD015, 0xD015)
	runSteps(t, vm, 4)
	assert.Equal(t, uint8(0), vm.V(0xF))
	assert.Equal(t, uint8(1), vm.Pixel(0, 0))
	assert.Equal(t, uint8(0), vm.Pixel(4, 0))
	assert.True(t, vm.TakeRedraw())
	assert.False(t, vm.TakeRedraw())

	runSteps(t, vm, 1)
	assert.Equal(t, uint8(1), vm.V(0xF))
	assert.Equal(t, Pixels{}, vm.Pixels())
	assert.True(t, vm.TakeRedraw())
}

func TestDrawWraps(t *testing.T) {
	vm := newTestVM(t,
		0xA20C, // 200: LD I, 20C
		0x603C, // 202: LD V0, 60
		0x611F, // 204: LD V1, 31
		0xD012, // 206: DRW V0, V1, 2
		0x1208, // 208: JP 208
		0x0000,
		0xFF81, // 20C: sprite
	)
	runSteps(t, vm, 4)

	for x := 60; x < 64; x++ {
		assert.Equal(t, uint8(1), vm.Pixel(x, 31))
	}
	for x := 0; x < 4; x++ {
		assert.Equal(t, uint8(1), vm.Pixel(x, 31))
	}
	assert.Equal(t, uint8(0), vm.Pixel(4, 31))
	assert.Equal(t, uint8(0), vm.Pixel(59, 31))

	// second row wraps to the top
	assert.Equal(t, uint8(1), vm.Pixel(60, 0))
	assert.Equal(t, uint8(0), vm.Pixel(61, 0))
	assert.Equal(t, uint8(1), vm.Pixel(3, 0))
	assert.Equal(t, uint8(0), vm.V(0xF))
}

func TestClear(t *testing.T) {
	vm := newTestVM(t, 0xA000, 0xD005, 0x00E0, 0x00E0)
	runSteps(t, vm, 2)
	assert.True(t, vm.TakeRedraw())

	runSteps(t, vm, 1)
	once := vm.Pixels()
	redraw := vm.TakeRedraw()

	runSteps(t, vm, 1)
	assert.Equal(t, once, vm.Pixels())
	assert.Equal(t, redraw, vm.TakeRedraw())
	assert.Equal(t, Pixels{}, vm.Pixels())
}

func TestWaitForKey(t *testing.T) {
	vm := newTestVM(t, 0xF50A, 0x6101)

	runSteps(t, vm, 1)
	reg, waiting := vm.Waiting()
	assert.True(t, waiting)
	assert.Equal(t, uint8(5), reg)

	for i := 0; i < 5; i++ {
		runSteps(t, vm, 1)
		_, waiting = vm.Waiting()
		assert.True(t, waiting)
		assert.Equal(t, uint16(0x200), vm.PC())
	}

	assert.NoError(t, vm.KeyPress(0x9))
	assert.NoError(t, vm.KeyPress(0x3))
	runSteps(t, vm, 1)
	_, waiting = vm.Waiting()
	assert.False(t, waiting)
	assert.Equal(t, uint8(0x3), vm.V(5))
	assert.Equal(t, uint16(0x202), vm.PC())
	assert.Equal(t, uint8(0), vm.V(1))

	runSteps(t, vm, 1)
	assert.Equal(t, uint8(1), vm.V(1))
}

func TestWaitForKeyAlreadyDown(t *testing.T) {
	vm := newTestVM(t, 0xF00A)
	assert.NoError(t, vm.KeyPress(0xE))

	runSteps(t, vm, 1)
	_, waiting := vm.Waiting()
	assert.True(t, waiting)
	assert.Equal(t, uint16(0x200), vm.PC())

	runSteps(t, vm, 1)
	assert.Equal(t, uint8(0xE), vm.V(0))
	assert.Equal(t, uint16(0x202), vm.PC())
}

func TestTimers(t *testing.T) {
	vm := newTestVM(t, 0x6003, 0xF015, 0x6102, 0xF118, 0xF207)
	runSteps(t, vm, 4)
	assert.Equal(t, uint8(3), vm.DelayTimer())
	assert.Equal(t, uint8(2), vm.SoundTimer())

	vm.Tick()
	runSteps(t, vm, 1)
	assert.Equal(t, uint8(2), vm.V(2))
	assert.Equal(t, uint8(1), vm.SoundTimer())

	for i := 0; i < 10; i++ {
		vm.Tick()
	}
	assert.Equal(t, uint8(0), vm.DelayTimer())
	assert.Equal(t, uint8(0), vm.SoundTimer())
}

func TestStepDoesNotTick(t *testing.T) {
	vm := newTestVM(t, 0x6009, 0xF015, 0x1204)
	runSteps(t, vm, 20)
	assert.Equal(t, uint8(9), vm.DelayTimer())
}
