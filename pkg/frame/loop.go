// Package frame paces a CHIP-8 VM: a fixed number of instructions per
// rendering frame and one timer tick per frame.
package frame

import (
	"context"
	"io"
	"time"

	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/pkg/debug"
	"github.com/retroenv/retrogolib/log"
)

// DefaultCyclesPerFrame is used when the config does not set a positive
// number of steps per frame.
const DefaultCyclesPerFrame = 10

// Keypad receives key state changes from a frontend.
type Keypad interface {
	KeyPress(key uint8) error
	KeyRelease(key uint8) error
}

// IO is implemented by the frontends.
type IO interface {
	// ProcessEvents applies pending input to the keypad and reports
	// whether the user asked to quit.
	ProcessEvents(keys Keypad) bool
	// Draw renders the display.
	Draw(pixels *internal.Pixels)
	// Sound reports whether the sound timer is active.
	Sound(active bool)
}

// Config controls the pacing.
type Config struct {
	CyclesPerFrame int  // Interpreter steps per frame
	FPS            int  // Frames per second, also the timer rate
	Trace          bool // Log every executed instruction at debug level

	// Dump receives the machine state when execution halts, and after
	// every frame if DumpFrames is set. Nil disables dumping.
	Dump       io.Writer
	DumpFrames bool
}

// Loop owns a VM while it runs. Input processing and stepping happen on
// the goroutine calling Run.
type Loop struct {
	vm     *internal.C8VM
	cfg    Config
	logger *log.Logger

	frames int
}

// New returns a loop for the VM.
func New(vm *internal.C8VM, cfg Config, logger *log.Logger) *Loop {
	if cfg.CyclesPerFrame < 1 {
		cfg.CyclesPerFrame = DefaultCyclesPerFrame
	}
	if cfg.FPS < 1 {
		cfg.FPS = internal.TimerFrequency
	}
	return &Loop{
		vm:     vm,
		cfg:    cfg,
		logger: logger,
	}
}

// Frames returns the number of completed frames.
func (l *Loop) Frames() int {
	return l.frames
}

// Run executes frames until the context is cancelled, the frontend
// requests to quit or the VM faults.
func (l *Loop) Run(ctx context.Context, io IO) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.FPS))
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		quit, err := l.RunFrame(io)
		if err != nil {
			return err
		}
		if quit {
			l.logger.Info("Quit requested", log.Int("frames", l.frames))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunFrame processes input, runs one frame worth of instructions, ticks
// the timers and redraws if the display changed.
func (l *Loop) RunFrame(io IO) (bool, error) {
	if io.ProcessEvents(l.vm) {
		return true, nil
	}

	for i := 0; i < l.cfg.CyclesPerFrame; i++ {
		pc := l.vm.PC()
		_, waiting := l.vm.Waiting()
		if _, err := l.vm.Step(); err != nil {
			l.logger.Error("Execution halted",
				log.Hex("pc", pc),
				log.Hex("opcode", l.vm.Opcode()),
				log.Err(err))
			l.dump()
			return false, err
		}
		if l.cfg.Trace && !waiting {
			l.trace(pc)
		}
	}

	l.vm.Tick()
	io.Sound(l.vm.SoundTimer() > 0)

	if l.vm.TakeRedraw() {
		pixels := l.vm.Pixels()
		io.Draw(&pixels)
	}
	l.frames++
	if l.cfg.DumpFrames {
		l.dump()
	}
	return false, nil
}

// dump writes the registers, the keypad and the display.
func (l *Loop) dump() {
	w := l.cfg.Dump
	if w == nil {
		return
	}
	debug.PrintState(w, l.vm)
	debug.PrintKeypad(w, l.vm.Keys())
	pixels := l.vm.Pixels()
	debug.PrintFramebuffer(w, &pixels)
}

func (l *Loop) trace(pc uint16) {
	info := debug.Disassemble(l.vm.Opcode())
	l.logger.Debug("Executed",
		log.Hex("pc", pc),
		log.Hex("opcode", l.vm.Opcode()),
		log.String("instruction", info.String()))
}
