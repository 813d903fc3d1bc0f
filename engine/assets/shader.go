package assets

import (
	"encoding/binary"
	"fmt"
	"os"
)

// spirvMagic is the first word of every valid SPIR-V module.
const spirvMagic = 0x07230203

// LoadShader reads a compiled SPIR-V module and returns its word stream for
// shader module creation. The magic number and word alignment are checked
// here so a bad file fails at startup rather than inside the driver.
func LoadShader(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader %q: %w", path, err)
	}
	words, err := ParseSPIRV(data)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", path, err)
	}
	return words, nil
}

func ParseSPIRV(data []byte) ([]uint32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated SPIR-V module (%d bytes)", len(data))
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V module size %d is not word aligned", len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	if words[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic 0x%08x", words[0])
	}
	return words, nil
}
