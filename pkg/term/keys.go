package term

import (
	"unicode"

	"github.com/mnafees/c8vm/internal"
	"github.com/mnafees/c8vm/pkg/frame"
)

// keyLatch emulates key releases by counting down the frames each pressed
// key has left.
type keyLatch struct {
	hold int
	held [internal.KeyCount]int
}

func (l *keyLatch) press(keys frame.Keypad, key uint8) error {
	if key >= internal.KeyCount {
		return keys.KeyPress(key)
	}
	if l.held[key] == 0 {
		if err := keys.KeyPress(key); err != nil {
			return err
		}
	}
	l.held[key] = l.hold
	return nil
}

// advance is called once per frame and releases keys whose hold expired.
func (l *keyLatch) advance(keys frame.Keypad) error {
	for key, frames := range l.held {
		if frames == 0 {
			continue
		}
		l.held[key]--
		if l.held[key] == 0 {
			if err := keys.KeyRelease(uint8(key)); err != nil {
				return err
			}
		}
	}
	return nil
}

// runeKey uses the same QWERTY layout as the SDL frontend:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
func runeKey(ch rune) int8 {
	switch unicode.ToLower(ch) {
	case '1':
		return 0x1
	case '2':
		return 0x2
	case '3':
		return 0x3
	case '4':
		return 0xC
	case 'q':
		return 0x4
	case 'w':
		return 0x5
	case 'e':
		return 0x6
	case 'r':
		return 0xD
	case 'a':
		return 0x7
	case 's':
		return 0x8
	case 'd':
		return 0x9
	case 'f':
		return 0xE
	case 'z':
		return 0xA
	case 'x':
		return 0x0
	case 'c':
		return 0xB
	case 'v':
		return 0xF
	default:
		return -1
	}
}
