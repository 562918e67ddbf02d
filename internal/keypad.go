package internal

import (
	"github.com/pkg/errors"
)

// KeyCount is the number of keys on the hex keypad.
const KeyCount = 16

// keypad holds the current key values in the form of individual bits.
// So when 0 is pushed in the keypad, the 0'th bit will be set and so on.
type keypad uint16

func checkKey(key uint8) error {
	if key >= KeyCount {
		return errors.Wrapf(ErrInvalidKey, "key %X", key)
	}
	return nil
}

func (k *keypad) press(key uint8) error {
	if err := checkKey(key); err != nil {
		return err
	}
	*k |= 1 << key
	return nil
}

func (k *keypad) release(key uint8) error {
	if err := checkKey(key); err != nil {
		return err
	}
	*k &^= 1 << key
	return nil
}

func (k keypad) isDown(key uint8) bool {
	return key < KeyCount && k&(1<<key) != 0
}

// lowest returns the lowest-numbered key that is down.
func (k keypad) lowest() (uint8, bool) {
	for key := uint8(0); key < KeyCount; key++ {
		if k.isDown(key) {
			return key, true
		}
	}
	return 0, false
}
