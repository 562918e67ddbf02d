package sdl

import (
	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/pkg/frame"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	screenColor = 0x1A237E
	spriteColor = 0x9FA8DA
)

var _ frame.IO = (*IO)(nil)

// IO is the input/output abstraction layer for the VM
type IO struct {
	window  *sdl.Window
	surface *sdl.Surface
	logger  *log.Logger

	title     string
	pixelSize int32
	sound     bool
}

// NewIO returns a new I/O instance for the SDL frontend
func NewIO(logger *log.Logger, pixelSize int) *IO {
	return &IO{
		logger:    logger,
		pixelSize: int32(pixelSize),
	}
}

// SetupWindow initialises and sets up the main SDL window
func (io *IO) SetupWindow(title string) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrapf(err, "initialising SDL")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		internal.ScreenWidth*io.pixelSize, internal.ScreenHeight*io.pixelSize, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return errors.Wrapf(err, "creating window")
	}
	io.window = window
	io.title = title
	io.surface, err = window.GetSurface()
	if err != nil {
		io.Destroy()
		return errors.Wrapf(err, "getting window surface")
	}
	if err := io.surface.FillRect(nil, screenColor); err != nil {
		io.Destroy()
		return errors.Wrapf(err, "clearing window surface")
	}
	return io.window.UpdateSurface()
}

// Destroy should be called before quitting the application
func (io *IO) Destroy() {
	if io.window != nil {
		if err := io.window.Destroy(); err != nil {
			io.logger.Error("Destroying window failed", log.Err(err))
		}
		io.window = nil
	}
	sdl.Quit()
}

// ProcessEvents drains the SDL event queue and forwards keypad changes.
func (io *IO) ProcessEvents(keys frame.Keypad) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.KeyboardEvent:
			keycode := t.Keysym.Scancode
			if keycode == sdl.SCANCODE_ESCAPE {
				return true
			}
			code := keymap(keycode)
			if code == -1 {
				continue
			}
			var err error
			switch t.GetType() {
			case sdl.KEYDOWN:
				err = keys.KeyPress(uint8(code))
			case sdl.KEYUP:
				err = keys.KeyRelease(uint8(code))
			}
			if err != nil {
				io.logger.Error("Keypad update failed", log.Err(err))
			}
		case *sdl.QuitEvent:
			return true
		}
	}
	return false
}

// Draw renders the current pixel configuration on screen
func (io *IO) Draw(pixels *internal.Pixels) {
	if err := io.surface.FillRect(nil, screenColor); err != nil {
		io.logger.Error("Clearing surface failed", log.Err(err))
		return
	}
	for h := int32(0); h < internal.ScreenHeight; h++ {
		for w := int32(0); w < internal.ScreenWidth; w++ {
			if pixels.At(int(w), int(h)) == 0 {
				continue
			}
			rect := &sdl.Rect{X: w * io.pixelSize, Y: h * io.pixelSize, W: io.pixelSize, H: io.pixelSize}
			if err := io.surface.FillRect(rect, spriteColor); err != nil {
				io.logger.Error("Drawing pixel failed", log.Err(err))
				return
			}
		}
	}
	if err := io.window.UpdateSurface(); err != nil {
		io.logger.Error("Updating window failed", log.Err(err))
	}
}

// Sound shows the state of the sound timer in the window title.
func (io *IO) Sound(active bool) {
	if active == io.sound {
		return
	}
	io.sound = active
	title := io.title
	if active {
		title += " [beep]"
	}
	io.window.SetTitle(title)
}

// keymap maps keys from a QWERTY keyboard to the keypad used by CHIP-8
// Below we have a mapping QWERTY keyboard to the CHIP-8 keypad
// +--------+--------+--------+--------+
// | 1 -> 1 | 2 -> 2 | 3 -> 3 | 4 -> C |
// +--------+--------+--------+--------+
// | Q -> 4 | W -> 5 | E -> 6 | R -> D |
// +--------+--------+--------+--------+
// | A -> 7 | S -> 8 | D -> 9 | F -> E |
// +--------+--------+--------+--------+
// | Z -> A | X -> 0 | C -> B | V -> F |
// +--------+--------+--------+--------+
func keymap(code sdl.Scancode) int8 {
	switch code {
	case sdl.SCANCODE_1:
		return 0x1
	case sdl.SCANCODE_2:
		return 0x2
	case sdl.SCANCODE_3:
		return 0x3
	case sdl.SCANCODE_4:
		return 0xC
	case sdl.SCANCODE_Q:
		return 0x4
	case sdl.SCANCODE_W:
		return 0x5
	case sdl.SCANCODE_E:
		return 0x6
	case sdl.SCANCODE_R:
		return 0xD
	case sdl.SCANCODE_A:
		return 0x7
	case sdl.SCANCODE_S:
		return 0x8
	case sdl.SCANCODE_D:
		return 0x9
	case sdl.SCANCODE_F:
		return 0xE
	case sdl.SCANCODE_Z:
		return 0xA
	case sdl.SCANCODE_X:
		return 0x0
	case sdl.SCANCODE_C:
		return 0xB
	case sdl.SCANCODE_V:
		return 0xF
	default:
		return -1
	}
}
