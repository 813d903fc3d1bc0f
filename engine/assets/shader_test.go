package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirvBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func TestParseSPIRV(t *testing.T) {
	words, err := ParseSPIRV(spirvBytes([]uint32{0x07230203, 0x00010000, 0, 1, 42}))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07230203), words[0])
	assert.Equal(t, uint32(42), words[4])
}

func TestParseSPIRVBadMagic(t *testing.T) {
	_, err := ParseSPIRV(spirvBytes([]uint32{0xdeadbeef, 0, 0}))
	assert.ErrorContains(t, err, "magic")
}

func TestParseSPIRVMisaligned(t *testing.T) {
	data := spirvBytes([]uint32{0x07230203, 0})
	_, err := ParseSPIRV(data[:len(data)-1])
	assert.ErrorContains(t, err, "aligned")
}

func TestParseSPIRVTruncated(t *testing.T) {
	_, err := ParseSPIRV([]byte{0x03})
	assert.Error(t, err)
}

func TestLoadShader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.vert.spv")
	require.NoError(t, os.WriteFile(path, spirvBytes([]uint32{0x07230203, 0x00010300, 7}), 0o644))

	words, err := LoadShader(path)
	require.NoError(t, err)
	assert.Len(t, words, 3)
}

func TestLoadShaderMissing(t *testing.T) {
	_, err := LoadShader(filepath.Join(t.TempDir(), "none.spv"))
	assert.Error(t, err)
}
