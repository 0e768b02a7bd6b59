package disassemble

import (
	"testing"

	"github.com/jmchacon/8080/memory"
)

func TestStep(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		want    string
		wantLen int
	}{
		{"NOP", []uint8{0x00}, "NOP", 1},
		{"unassigned NOP", []uint8{0x08}, "NOP*", 1},
		{"LXI", []uint8{0x31, 0x00, 0x24}, "LXI    SP,#$2400", 3},
		{"MVI", []uint8{0x3E, 0x42}, "MVI    A,#$42", 2},
		{"MOV", []uint8{0x41}, "MOV    B,C", 1},
		{"MOV via M", []uint8{0x77}, "MOV    M,A", 1},
		{"ALU", []uint8{0x86}, "ADD    M", 1},
		{"CMP", []uint8{0xBF}, "CMP    A", 1},
		{"JMP", []uint8{0xC3, 0x34, 0x12}, "JMP    $1234", 3},
		{"JMP alias", []uint8{0xCB, 0x34, 0x12}, "JMP*   $1234", 3},
		{"CALL", []uint8{0xCD, 0x05, 0x00}, "CALL   $0005", 3},
		{"OUT", []uint8{0xD3, 0x04}, "OUT    #$04", 2},
		{"RST", []uint8{0xCF}, "RST    1", 1},
		{"PUSH PSW", []uint8{0xF5}, "PUSH   PSW", 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := memory.NewFlatBank()
			for i, b := range test.program {
				r.Write(uint16(i), b)
			}
			got, n := Step(0x0000, r)
			if got != test.want {
				t.Errorf("got %q want %q", got, test.want)
			}
			if n != test.wantLen {
				t.Errorf("length got %d want %d", n, test.wantLen)
			}
		})
	}
}

// TestAllSlotsDefined makes sure no opcode disassembles to an empty string,
// since all 256 execute on the 8080.
func TestAllSlotsDefined(t *testing.T) {
	r := memory.NewFlatBank()
	for op := 0; op < 256; op++ {
		r.Write(0x0000, uint8(op))
		s, n := Step(0x0000, r)
		if s == "" {
			t.Errorf("opcode %.2X has no disassembly", op)
		}
		if n < 1 || n > 3 {
			t.Errorf("opcode %.2X has bad length %d", op, n)
		}
	}
}
