// Package term is a terminal frontend for the VM built on termbox.
package term

import (
	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/pkg/frame"
	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// statusRow is the terminal row below the display.
const statusRow = internal.ScreenHeight / 2

var _ frame.IO = (*IO)(nil)

// IO renders the display with half block characters, two pixel rows per
// terminal row.
type IO struct {
	logger *log.Logger
	events chan termbox.Event
	done   chan struct{}
	latch  keyLatch
	sound  bool
}

// NewIO returns a terminal frontend. Terminals do not report key releases,
// so a pressed key is released after hold frames.
func NewIO(logger *log.Logger, hold int) *IO {
	return &IO{
		logger: logger,
		events: make(chan termbox.Event, 16),
		done:   make(chan struct{}),
		latch:  keyLatch{hold: hold},
	}
}

// Setup initialises the terminal and starts reading input events.
func (io *IO) Setup() error {
	if err := termbox.Init(); err != nil {
		return errors.Wrapf(err, "initialising terminal")
	}
	termbox.SetInputMode(termbox.InputEsc)
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		termbox.Close()
		return errors.Wrapf(err, "clearing terminal")
	}
	go io.readEvents()
	return nil
}

// readEvents forwards termbox events to the loop goroutine, which is the
// only one touching the VM.
func (io *IO) readEvents() {
	for {
		ev := termbox.PollEvent()
		if ev.Type == termbox.EventInterrupt {
			return
		}
		select {
		case io.events <- ev:
		case <-io.done:
			return
		}
	}
}

// Destroy restores the terminal.
func (io *IO) Destroy() {
	close(io.done)
	termbox.Interrupt()
	termbox.Close()
}

// ProcessEvents releases expired keys and applies queued key presses.
func (io *IO) ProcessEvents(keys frame.Keypad) bool {
	if err := io.latch.advance(keys); err != nil {
		io.logger.Error("Keypad update failed", log.Err(err))
	}

	for {
		select {
		case ev := <-io.events:
			switch ev.Type {
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
					return true
				}
				key := runeKey(ev.Ch)
				if key == -1 {
					continue
				}
				if err := io.latch.press(keys, uint8(key)); err != nil {
					io.logger.Error("Keypad update failed", log.Err(err))
				}
			case termbox.EventError:
				io.logger.Error("Terminal input failed", log.Err(ev.Err))
				return true
			}
		default:
			return false
		}
	}
}

// Draw renders the display.
func (io *IO) Draw(pixels *internal.Pixels) {
	for row := 0; row < internal.ScreenHeight/2; row++ {
		for x := 0; x < internal.ScreenWidth; x++ {
			ch := halfBlock(pixels.At(x, row*2), pixels.At(x, row*2+1))
			termbox.SetCell(x, row, ch, termbox.ColorWhite, termbox.ColorBlack)
		}
	}
	if err := termbox.Flush(); err != nil {
		io.logger.Error("Flushing terminal failed", log.Err(err))
	}
}

// Sound shows the state of the sound timer below the display.
func (io *IO) Sound(active bool) {
	if active == io.sound {
		return
	}
	io.sound = active
	ch := ' '
	if active {
		ch = '*'
	}
	termbox.SetCell(0, statusRow, ch, termbox.ColorYellow, termbox.ColorDefault)
	if err := termbox.Flush(); err != nil {
		io.logger.Error("Flushing terminal failed", log.Err(err))
	}
}

func halfBlock(top, bottom uint8) rune {
	switch {
	case top != 0 && bottom != 0:
		return '█'
	case top != 0:
		return '▀'
	case bottom != 0:
		return '▄'
	default:
		return ' '
	}
}
