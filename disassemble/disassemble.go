// Package disassemble implements a disassembler for 8080 opcodes
package disassemble

import (
	"fmt"

	"github.com/jmchacon/8080/memory"
)

// opDef holds the print format and byte length for one opcode slot.
// Length 2 formats get the immediate byte, length 3 formats get the
// address bytes in display order (high, low).
type opDef struct {
	format string
	length int
}

// All 256 slots are defined. The unassigned slots disassemble as the
// instruction they execute as (NOP / JMP / RET / CALL aliases) with a *
// suffix so listings show they came from an undocumented encoding.
var opcodes = [256]opDef{
	0x00: {"NOP", 1},
	0x01: {"LXI    B,#$%02X%02X", 3},
	0x02: {"STAX   B", 1},
	0x03: {"INX    B", 1},
	0x04: {"INR    B", 1},
	0x05: {"DCR    B", 1},
	0x06: {"MVI    B,#$%02X", 2},
	0x07: {"RLC", 1},
	0x08: {"NOP*", 1},
	0x09: {"DAD    B", 1},
	0x0A: {"LDAX   B", 1},
	0x0B: {"DCX    B", 1},
	0x0C: {"INR    C", 1},
	0x0D: {"DCR    C", 1},
	0x0E: {"MVI    C,#$%02X", 2},
	0x0F: {"RRC", 1},
	0x10: {"NOP*", 1},
	0x11: {"LXI    D,#$%02X%02X", 3},
	0x12: {"STAX   D", 1},
	0x13: {"INX    D", 1},
	0x14: {"INR    D", 1},
	0x15: {"DCR    D", 1},
	0x16: {"MVI    D,#$%02X", 2},
	0x17: {"RAL", 1},
	0x18: {"NOP*", 1},
	0x19: {"DAD    D", 1},
	0x1A: {"LDAX   D", 1},
	0x1B: {"DCX    D", 1},
	0x1C: {"INR    E", 1},
	0x1D: {"DCR    E", 1},
	0x1E: {"MVI    E,#$%02X", 2},
	0x1F: {"RAR", 1},
	0x20: {"NOP*", 1},
	0x21: {"LXI    H,#$%02X%02X", 3},
	0x22: {"SHLD   $%02X%02X", 3},
	0x23: {"INX    H", 1},
	0x24: {"INR    H", 1},
	0x25: {"DCR    H", 1},
	0x26: {"MVI    H,#$%02X", 2},
	0x27: {"DAA", 1},
	0x28: {"NOP*", 1},
	0x29: {"DAD    H", 1},
	0x2A: {"LHLD   $%02X%02X", 3},
	0x2B: {"DCX    H", 1},
	0x2C: {"INR    L", 1},
	0x2D: {"DCR    L", 1},
	0x2E: {"MVI    L,#$%02X", 2},
	0x2F: {"CMA", 1},
	0x30: {"NOP*", 1},
	0x31: {"LXI    SP,#$%02X%02X", 3},
	0x32: {"STA    $%02X%02X", 3},
	0x33: {"INX    SP", 1},
	0x34: {"INR    M", 1},
	0x35: {"DCR    M", 1},
	0x36: {"MVI    M,#$%02X", 2},
	0x37: {"STC", 1},
	0x38: {"NOP*", 1},
	0x39: {"DAD    SP", 1},
	0x3A: {"LDA    $%02X%02X", 3},
	0x3B: {"DCX    SP", 1},
	0x3C: {"INR    A", 1},
	0x3D: {"DCR    A", 1},
	0x3E: {"MVI    A,#$%02X", 2},
	0x3F: {"CMC", 1},
	0x76: {"HLT", 1},
	0xC0: {"RNZ", 1},
	0xC1: {"POP    B", 1},
	0xC2: {"JNZ    $%02X%02X", 3},
	0xC3: {"JMP    $%02X%02X", 3},
	0xC4: {"CNZ    $%02X%02X", 3},
	0xC5: {"PUSH   B", 1},
	0xC6: {"ADI    #$%02X", 2},
	0xC7: {"RST    0", 1},
	0xC8: {"RZ", 1},
	0xC9: {"RET", 1},
	0xCA: {"JZ     $%02X%02X", 3},
	0xCB: {"JMP*   $%02X%02X", 3},
	0xCC: {"CZ     $%02X%02X", 3},
	0xCD: {"CALL   $%02X%02X", 3},
	0xCE: {"ACI    #$%02X", 2},
	0xCF: {"RST    1", 1},
	0xD0: {"RNC", 1},
	0xD1: {"POP    D", 1},
	0xD2: {"JNC    $%02X%02X", 3},
	0xD3: {"OUT    #$%02X", 2},
	0xD4: {"CNC    $%02X%02X", 3},
	0xD5: {"PUSH   D", 1},
	0xD6: {"SUI    #$%02X", 2},
	0xD7: {"RST    2", 1},
	0xD8: {"RC", 1},
	0xD9: {"RET*", 1},
	0xDA: {"JC     $%02X%02X", 3},
	0xDB: {"IN     #$%02X", 2},
	0xDC: {"CC     $%02X%02X", 3},
	0xDD: {"CALL*  $%02X%02X", 3},
	0xDE: {"SBI    #$%02X", 2},
	0xDF: {"RST    3", 1},
	0xE0: {"RPO", 1},
	0xE1: {"POP    H", 1},
	0xE2: {"JPO    $%02X%02X", 3},
	0xE3: {"XTHL", 1},
	0xE4: {"CPO    $%02X%02X", 3},
	0xE5: {"PUSH   H", 1},
	0xE6: {"ANI    #$%02X", 2},
	0xE7: {"RST    4", 1},
	0xE8: {"RPE", 1},
	0xE9: {"PCHL", 1},
	0xEA: {"JPE    $%02X%02X", 3},
	0xEB: {"XCHG", 1},
	0xEC: {"CPE    $%02X%02X", 3},
	0xED: {"CALL*  $%02X%02X", 3},
	0xEE: {"XRI    #$%02X", 2},
	0xEF: {"RST    5", 1},
	0xF0: {"RP", 1},
	0xF1: {"POP    PSW", 1},
	0xF2: {"JP     $%02X%02X", 3},
	0xF3: {"DI", 1},
	0xF4: {"CP     $%02X%02X", 3},
	0xF5: {"PUSH   PSW", 1},
	0xF6: {"ORI    #$%02X", 2},
	0xF7: {"RST    6", 1},
	0xF8: {"RM", 1},
	0xF9: {"SPHL", 1},
	0xFA: {"JM     $%02X%02X", 3},
	0xFB: {"EI", 1},
	0xFC: {"CM     $%02X%02X", 3},
	0xFD: {"CALL*  $%02X%02X", 3},
	0xFE: {"CPI    #$%02X", 2},
	0xFF: {"RST    7", 1},
}

var registers = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

// lookup resolves the two regular quadrants (MOV and accumulator arithmetic)
// on the fly so the table above only needs the irregular slots.
func lookup(op uint8) opDef {
	if op >= 0x40 && op <= 0x7F && op != 0x76 {
		return opDef{fmt.Sprintf("MOV    %s,%s", registers[(op>>3)&0x07], registers[op&0x07]), 1}
	}
	if op >= 0x80 && op <= 0xBF {
		mnem := [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}[(op>>3)&0x07]
		return opDef{fmt.Sprintf("%s    %s", mnem, registers[op&0x07]), 1}
	}
	return opcodes[op]
}

// Step will take the given PC value and disassemble the instruction at that
// location returning a string for the disassembly and the bytes forward the
// PC should move to get to the next instruction. This does not interpret the
// instructions so a JMP will disassemble in sequence, not be followed.
// This may read up to two bytes past the current PC (which wraps).
func Step(pc uint16, r memory.Bank) (string, int) {
	def := lookup(r.Read(pc))
	switch def.length {
	case 2:
		return fmt.Sprintf(def.format, r.Read(pc+1)), 2
	case 3:
		return fmt.Sprintf(def.format, r.Read(pc+2), r.Read(pc+1)), 3
	}
	return def.format, 1
}
