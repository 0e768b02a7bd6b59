package shifter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadShiftsBytes(t *testing.T) {
	c := Init()
	c.Load(0xAA)
	c.Load(0xBB)
	// Register is now 0xBBAA: newest byte high, previous byte low.
	require.Equal(t, uint8(0xBB), c.Read(), "offset 0 reads the newest byte")

	c.Load(0xCC)
	require.Equal(t, uint8(0xCC), c.Read(), "oldest byte slid out")
}

func TestOffsetWindow(t *testing.T) {
	c := Init()
	c.Load(0xAA)
	c.Load(0xBB)
	c.SetOffset(0x04)
	require.Equal(t, uint8(0xBA), c.Read())

	// Only the low 3 bits of the offset latch.
	c.SetOffset(0xF8)
	require.Equal(t, uint8(0xBB), c.Read())
}

func TestWindowAcrossAllOffsets(t *testing.T) {
	c := Init()
	c.Load(0x12)
	c.Load(0x34)
	reg := uint16(0x3412)
	for off := uint8(0); off < 8; off++ {
		c.SetOffset(off)
		require.Equal(t, uint8(reg>>(8-off)), c.Read(), "offset %d", off)
	}
}

func TestPowerOn(t *testing.T) {
	c := Init()
	c.Load(0xFF)
	c.SetOffset(0x07)
	c.PowerOn()
	require.Equal(t, uint8(0x00), c.Read())
	require.Equal(t, uint8(0x00), c.offset)
}
