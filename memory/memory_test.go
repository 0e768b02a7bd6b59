package memory

import "testing"

func TestFlatBank(t *testing.T) {
	f := NewFlatBank()

	// Full address space reads and writes with no guards anywhere.
	for i := uint32(0); i <= 0xFFFF; i += 0xFF {
		addr := uint16(i)
		f.Write(addr, uint8(i))
		if got, want := f.Read(addr), uint8(i); got != want {
			t.Errorf("Bad Write/Read cycle: wrote %.2X to %.4X but got %.2X on read", want, addr, got)
		}
	}

	// PowerOn clears everything deterministically.
	f.PowerOn()
	for i := uint32(0); i <= 0xFFFF; i += 0xFF {
		if got := f.Read(uint16(i)); got != 0x00 {
			t.Errorf("PowerOn left %.2X at %.4X", got, uint16(i))
		}
	}
}
