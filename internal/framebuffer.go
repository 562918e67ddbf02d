package internal

// Display dimensions
const (
	ScreenWidth  = 64
	ScreenHeight = 32
)

// Pixels is a row-major snapshot of the display, one byte (0 or 1) per pixel.
type Pixels [ScreenWidth * ScreenHeight]uint8

// At returns the pixel at column x, row y.
func (p *Pixels) At(x, y int) uint8 {
	return p[y*ScreenWidth+x]
}

// framebuffer is the 64 x 32 px display.
type framebuffer struct {
	pixels Pixels
	redraw bool
}

func (fb *framebuffer) clear() {
	fb.pixels = Pixels{}
	fb.redraw = true
}

// drawSprite XORs 8 pixel wide rows into the display, MSB first, wrapping
// at the screen edges. It reports whether any lit pixel was turned off.
func (fb *framebuffer) drawSprite(x, y uint8, rows []uint8) bool {
	collision := false
	for row, spriteByte := range rows {
		py := (int(y) + row) % ScreenHeight
		for col := 0; col < 8; col++ {
			if spriteByte&(0x80>>col) == 0 {
				continue
			}
			px := &fb.pixels[py*ScreenWidth+(int(x)+col)%ScreenWidth]
			if *px == 1 {
				collision = true
			}
			*px ^= 1
		}
	}
	fb.redraw = true
	return collision
}

func (fb *framebuffer) takeRedraw() bool {
	redraw := fb.redraw
	fb.redraw = false
	return redraw
}
