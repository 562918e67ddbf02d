// Package rom reads CHIP-8 program images from disk.
package rom

import (
	"os"

	"github.com/mnafees/c8vm/internal"
	"github.com/pkg/errors"
)

// Load reads a raw program image. Images larger than the program area are
// rejected before they reach the VM.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading program %s", path)
	}
	if len(data) > internal.MaxProgramSize {
		return nil, errors.Wrapf(internal.ErrProgramTooLarge, "%s is %d bytes", path, len(data))
	}
	return data, nil
}

// LoadInto reads a program image and copies it into the VM's memory.
func LoadInto(vm *internal.C8VM, path string) error {
	data, err := Load(path)
	if err != nil {
		return err
	}
	return vm.LoadProgram(data)
}
