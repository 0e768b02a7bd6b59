package invaders

import (
	"fmt"
	"os"
	"path/filepath"
)

// The four 2k ROM images in load order, concatenated at 0x0000.
var romFiles = [4]string{"invaders.h", "invaders.g", "invaders.f", "invaders.e"}

// LoadROMs reads the stock ROM set from dir and returns the 8k image for
// Def.Rom. The error names the file that failed so a missing or truncated
// dump is easy to spot.
func LoadROMs(dir string) ([]uint8, error) {
	rom := make([]uint8, 0, kROM_SIZE)
	for _, f := range romFiles {
		path := filepath.Join(dir, f)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("can't load ROM %s: %v", path, err)
		}
		if len(b) != kROM_SIZE/4 {
			return nil, fmt.Errorf("ROM %s must be %d bytes, got %d", path, kROM_SIZE/4, len(b))
		}
		rom = append(rom, b...)
	}
	return rom, nil
}
