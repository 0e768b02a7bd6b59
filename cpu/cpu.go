// Package cpu defines the Intel 8080 architecture and provides
// the methods needed to run the CPU and interface with it
// for emulation.
package cpu

import (
	"fmt"
	"math/bits"

	"github.com/jmchacon/8080/io"
	"github.com/jmchacon/8080/irq"
	"github.com/jmchacon/8080/memory"
)

const (
	P_SIGN     = uint8(0x80) // Bit 7 of the most recent result.
	P_ZERO     = uint8(0x40) // Set when the most recent result was 0x00.
	P_AUXCARRY = uint8(0x10) // Carry out of bit 3 on the most recent arithmetic op.
	P_PARITY   = uint8(0x04) // Set when the most recent result has an even popcount.
	P_S1       = uint8(0x02) // Always 1
	P_CARRY    = uint8(0x01) // Carry/borrow out of bit 7.

	// Bits 5 and 3 of the flag byte are always 0 and bit 1 is always 1.
	// Everything funneling a byte into P goes through this mask/OR pair so
	// PUSH PSW can emit the register unmodified.
	kFLAG_FIXED_CLEAR = uint8(0x28)
)

// Chip implements an 8080 with its registers exposed for machine
// integrations and tests. HL/BC/DE are register pairs with the named first
// letter as the high byte.
type Chip struct {
	A, B, C, D, E, H, L uint8       // Working registers.
	P                   uint8       // Flag byte kept in PSW layout at all times.
	SP                  uint16      // Stack pointer.
	PC                  uint16      // Program counter.
	IntEnable           bool        // Interrupt enable flip flop, toggled by EI/DI.
	Cycles              int         // Machine cycles consumed. Only ever reset/clamped by a scheduler.
	ram                 memory.Bank // Interface to implementation RAM.
	ports               io.PortBank // Interface to the I/O bus for IN/OUT. May be nil.
	intLine             irq.Sender  // Interface for installing an interrupt sender. May be nil.
	strictANA           bool        // If true AND ops clear AC per the programmer's manual.
}

// A few custom error types to distinguish why the CPU stopped.

// InvalidCPUState represents an invalid CPU state in the emulator.
type InvalidCPUState struct {
	Reason string
}

// Error implements the interface for error types.
func (e InvalidCPUState) Error() string {
	return fmt.Sprintf("invalid CPU state: %s", e.Reason)
}

// InvalidInterrupt represents an acknowledge cycle which placed something
// other than a RST opcode on the bus. Only RST 0-7 acknowledge bytes are
// supported, anything else is a programming error in the machine integration.
type InvalidInterrupt struct {
	Opcode uint8
}

// Error implements the interface for error types.
func (e InvalidInterrupt) Error() string {
	return fmt.Sprintf("invalid interrupt acknowledge opcode 0x%.2X", e.Opcode)
}

// ChipDef defines an 8080 processor.
type ChipDef struct {
	// Ram is the memory interface for this implementation. Required.
	Ram memory.Bank
	// Ports is an optional I/O bus for the IN/OUT opcodes. With a nil bank
	// OUT discards and IN reads 0x00.
	Ports io.PortBank
	// Int is an optional interrupt source checked at each instruction boundary.
	Int irq.Sender
	// StrictANA selects the programmer's manual behavior of clearing AC on
	// AND operations. The default (false) sets AC to the OR of bit 3 of the
	// operands which is what the silicon does and what CPUTEST expects.
	StrictANA bool
}

// Init will create a new 8080 and return it in powered on state.
// If an interrupt sender is non-nil it will be checked before each Step()
// call and serviced when interrupts are enabled.
func Init(def *ChipDef) (*Chip, error) {
	if def.Ram == nil {
		return nil, InvalidCPUState{"Ram must be non-nil in def"}
	}
	p := &Chip{
		ram:       def.Ram,
		ports:     def.Ports,
		intLine:   def.Int,
		strictANA: def.StrictANA,
	}
	p.PowerOn()
	return p, nil
}

// PowerOn resets the CPU to power on state: all registers zeroed, flags at
// the fixed bit pattern, interrupts disabled and the PC at 0x0000. The 8080
// has no reset vector indirection; execution simply begins at 0.
func (p *Chip) PowerOn() {
	p.A, p.B, p.C, p.D, p.E, p.H, p.L = 0, 0, 0, 0, 0, 0, 0
	p.P = P_S1
	p.SP = 0
	p.PC = 0
	p.IntEnable = false
	p.Cycles = 0
}

// Step executes a single instruction (or accepts a pending interrupt in its
// place) and accounts its cycle cost. An instruction is atomic: all register,
// memory and flag effects land before Step returns. Errors only surface for
// machine integration bugs, never from guest code.
func (p *Chip) Step() error {
	// INT is sampled at the instruction boundary. Acceptance runs an
	// acknowledge cycle in place of the normal fetch so the preempted
	// instruction's address is what gets pushed.
	if p.intLine != nil && p.IntEnable && p.intLine.Raised() {
		return p.interrupt(p.intLine.Acknowledge())
	}

	op := p.ram.Read(p.PC)

	// MOV r,r' encodes its operands in the low 6 bits so the whole quadrant
	// decodes uniformly. 0x76 in the middle of the block is HLT.
	if op >= 0x40 && op <= 0x7F && op != 0x76 {
		v := p.srcRegister(op)
		p.storeDstRegister(op, v)
		p.PC++
		p.Cycles += 5
		if op&0x07 == 6 || (op>>3)&0x07 == 6 {
			p.Cycles += 2
		}
		return nil
	}

	// The accumulator arithmetic/logic quadrant also decodes its source from
	// the low 3 bits with the operation in bits 3-5.
	if op >= 0x80 && op <= 0xBF {
		v := p.srcRegister(op)
		switch (op >> 3) & 0x07 {
		case 0:
			// ADD
			p.add(v, 0)
		case 1:
			// ADC
			p.add(v, p.carryVal())
		case 2:
			// SUB
			p.A = p.compare(v, 0)
		case 3:
			// SBB
			p.A = p.compare(v, p.carryVal())
		case 4:
			// ANA
			p.and(v)
		case 5:
			// XRA
			p.logicResult(p.A ^ v)
		case 6:
			// ORA
			p.logicResult(p.A | v)
		case 7:
			// CMP discards the result and keeps the flags.
			p.compare(v, 0)
		}
		p.PC++
		p.Cycles += 4
		if op&0x07 == 6 {
			p.Cycles += 3
		}
		return nil
	}

	switch op {
	case 0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38:
		// NOP - the 0x08 style slots are unassigned on the 8080 and behave as NOP.
		p.PC++
		p.Cycles += 4
	case 0x01:
		// LXI B,d16
		p.setBC(p.imm16())
		p.PC += 3
		p.Cycles += 10
	case 0x02:
		// STAX B
		p.ram.Write(p.bc(), p.A)
		p.PC++
		p.Cycles += 7
	case 0x03:
		// INX B - 16 bit increments never touch flags.
		p.setBC(p.bc() + 1)
		p.PC++
		p.Cycles += 5
	case 0x04:
		// INR B
		p.B = p.inr(p.B)
		p.PC++
		p.Cycles += 5
	case 0x05:
		// DCR B
		p.B = p.dcr(p.B)
		p.PC++
		p.Cycles += 5
	case 0x06:
		// MVI B,d8
		p.B = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x07:
		// RLC - bit 7 into both CY and bit 0.
		cy := p.A >> 7
		p.A = p.A<<1 | cy
		p.setFlag(P_CARRY, cy != 0)
		p.PC++
		p.Cycles += 4
	case 0x09:
		// DAD B
		p.dad(p.bc())
		p.PC++
		p.Cycles += 10
	case 0x0A:
		// LDAX B
		p.A = p.ram.Read(p.bc())
		p.PC++
		p.Cycles += 7
	case 0x0B:
		// DCX B
		p.setBC(p.bc() - 1)
		p.PC++
		p.Cycles += 5
	case 0x0C:
		// INR C
		p.C = p.inr(p.C)
		p.PC++
		p.Cycles += 5
	case 0x0D:
		// DCR C
		p.C = p.dcr(p.C)
		p.PC++
		p.Cycles += 5
	case 0x0E:
		// MVI C,d8
		p.C = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x0F:
		// RRC - bit 0 into both CY and bit 7.
		cy := p.A & 0x01
		p.A = p.A>>1 | cy<<7
		p.setFlag(P_CARRY, cy != 0)
		p.PC++
		p.Cycles += 4
	case 0x11:
		// LXI D,d16
		p.setDE(p.imm16())
		p.PC += 3
		p.Cycles += 10
	case 0x12:
		// STAX D
		p.ram.Write(p.de(), p.A)
		p.PC++
		p.Cycles += 7
	case 0x13:
		// INX D
		p.setDE(p.de() + 1)
		p.PC++
		p.Cycles += 5
	case 0x14:
		// INR D
		p.D = p.inr(p.D)
		p.PC++
		p.Cycles += 5
	case 0x15:
		// DCR D
		p.D = p.dcr(p.D)
		p.PC++
		p.Cycles += 5
	case 0x16:
		// MVI D,d8
		p.D = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x17:
		// RAL - 9 bit rotate through CY.
		cy := p.A >> 7
		p.A = p.A<<1 | p.carryVal()
		p.setFlag(P_CARRY, cy != 0)
		p.PC++
		p.Cycles += 4
	case 0x19:
		// DAD D
		p.dad(p.de())
		p.PC++
		p.Cycles += 10
	case 0x1A:
		// LDAX D
		p.A = p.ram.Read(p.de())
		p.PC++
		p.Cycles += 7
	case 0x1B:
		// DCX D
		p.setDE(p.de() - 1)
		p.PC++
		p.Cycles += 5
	case 0x1C:
		// INR E
		p.E = p.inr(p.E)
		p.PC++
		p.Cycles += 5
	case 0x1D:
		// DCR E
		p.E = p.dcr(p.E)
		p.PC++
		p.Cycles += 5
	case 0x1E:
		// MVI E,d8
		p.E = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x1F:
		// RAR
		cy := p.A & 0x01
		p.A = p.A>>1 | p.carryVal()<<7
		p.setFlag(P_CARRY, cy != 0)
		p.PC++
		p.Cycles += 4
	case 0x21:
		// LXI H,d16
		p.setHL(p.imm16())
		p.PC += 3
		p.Cycles += 10
	case 0x22:
		// SHLD adr
		addr := p.imm16()
		p.ram.Write(addr, p.L)
		p.ram.Write(addr+1, p.H)
		p.PC += 3
		p.Cycles += 16
	case 0x23:
		// INX H
		p.setHL(p.hl() + 1)
		p.PC++
		p.Cycles += 5
	case 0x24:
		// INR H
		p.H = p.inr(p.H)
		p.PC++
		p.Cycles += 5
	case 0x25:
		// DCR H
		p.H = p.dcr(p.H)
		p.PC++
		p.Cycles += 5
	case 0x26:
		// MVI H,d8
		p.H = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x27:
		// DAA
		p.daa()
		p.PC++
		p.Cycles += 4
	case 0x29:
		// DAD H
		p.dad(p.hl())
		p.PC++
		p.Cycles += 10
	case 0x2A:
		// LHLD adr
		addr := p.imm16()
		p.L = p.ram.Read(addr)
		p.H = p.ram.Read(addr + 1)
		p.PC += 3
		p.Cycles += 16
	case 0x2B:
		// DCX H
		p.setHL(p.hl() - 1)
		p.PC++
		p.Cycles += 5
	case 0x2C:
		// INR L
		p.L = p.inr(p.L)
		p.PC++
		p.Cycles += 5
	case 0x2D:
		// DCR L
		p.L = p.dcr(p.L)
		p.PC++
		p.Cycles += 5
	case 0x2E:
		// MVI L,d8
		p.L = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x2F:
		// CMA - no flags.
		p.A = ^p.A
		p.PC++
		p.Cycles += 4
	case 0x31:
		// LXI SP,d16
		p.SP = p.imm16()
		p.PC += 3
		p.Cycles += 10
	case 0x32:
		// STA adr
		p.ram.Write(p.imm16(), p.A)
		p.PC += 3
		p.Cycles += 13
	case 0x33:
		// INX SP
		p.SP++
		p.PC++
		p.Cycles += 5
	case 0x34:
		// INR M
		p.ram.Write(p.hl(), p.inr(p.ram.Read(p.hl())))
		p.PC++
		p.Cycles += 10
	case 0x35:
		// DCR M
		p.ram.Write(p.hl(), p.dcr(p.ram.Read(p.hl())))
		p.PC++
		p.Cycles += 10
	case 0x36:
		// MVI M,d8
		p.ram.Write(p.hl(), p.imm8())
		p.PC += 2
		p.Cycles += 10
	case 0x37:
		// STC
		p.setFlag(P_CARRY, true)
		p.PC++
		p.Cycles += 4
	case 0x39:
		// DAD SP
		p.dad(p.SP)
		p.PC++
		p.Cycles += 10
	case 0x3A:
		// LDA adr
		p.A = p.ram.Read(p.imm16())
		p.PC += 3
		p.Cycles += 13
	case 0x3B:
		// DCX SP
		p.SP--
		p.PC++
		p.Cycles += 5
	case 0x3C:
		// INR A
		p.A = p.inr(p.A)
		p.PC++
		p.Cycles += 5
	case 0x3D:
		// DCR A
		p.A = p.dcr(p.A)
		p.PC++
		p.Cycles += 5
	case 0x3E:
		// MVI A,d8
		p.A = p.imm8()
		p.PC += 2
		p.Cycles += 7
	case 0x3F:
		// CMC
		p.setFlag(P_CARRY, !p.flag(P_CARRY))
		p.PC++
		p.Cycles += 4
	case 0x76:
		// HLT - Space Invaders never reaches this so treat it as a long NOP
		// rather than modeling the halt latch.
		p.PC++
		p.Cycles += 7
	case 0xC0:
		// RNZ
		p.ret(!p.flag(P_ZERO))
	case 0xC1:
		// POP B
		p.setBC(p.popStack())
		p.PC++
		p.Cycles += 10
	case 0xC2:
		// JNZ adr
		p.jump(!p.flag(P_ZERO))
	case 0xC3, 0xCB:
		// JMP adr (0xCB is an unassigned slot that aliases JMP)
		p.jump(true)
	case 0xC4:
		// CNZ adr
		p.call(!p.flag(P_ZERO))
	case 0xC5:
		// PUSH B
		p.pushStack(p.bc())
		p.PC++
		p.Cycles += 11
	case 0xC6:
		// ADI d8
		p.add(p.imm8(), 0)
		p.PC += 2
		p.Cycles += 7
	case 0xC7, 0xCF, 0xD7, 0xDF, 0xE7, 0xEF, 0xF7, 0xFF:
		// RST 0-7
		p.pushStack(p.PC + 1)
		p.PC = uint16(op & 0x38)
		p.Cycles += 11
	case 0xC8:
		// RZ
		p.ret(p.flag(P_ZERO))
	case 0xC9, 0xD9:
		// RET (0xD9 aliases)
		p.PC = p.popStack()
		p.Cycles += 10
	case 0xCA:
		// JZ adr
		p.jump(p.flag(P_ZERO))
	case 0xCC:
		// CZ adr
		p.call(p.flag(P_ZERO))
	case 0xCD, 0xDD, 0xED, 0xFD:
		// CALL adr (0xDD/0xED/0xFD alias)
		p.call(true)
	case 0xCE:
		// ACI d8
		p.add(p.imm8(), p.carryVal())
		p.PC += 2
		p.Cycles += 7
	case 0xD0:
		// RNC
		p.ret(!p.flag(P_CARRY))
	case 0xD1:
		// POP D
		p.setDE(p.popStack())
		p.PC++
		p.Cycles += 10
	case 0xD2:
		// JNC adr
		p.jump(!p.flag(P_CARRY))
	case 0xD3:
		// OUT port
		if p.ports != nil {
			p.ports.Out(p.imm8(), p.A)
		}
		p.PC += 2
		p.Cycles += 10
	case 0xD4:
		// CNC adr
		p.call(!p.flag(P_CARRY))
	case 0xD5:
		// PUSH D
		p.pushStack(p.de())
		p.PC++
		p.Cycles += 11
	case 0xD6:
		// SUI d8
		p.A = p.compare(p.imm8(), 0)
		p.PC += 2
		p.Cycles += 7
	case 0xD8:
		// RC
		p.ret(p.flag(P_CARRY))
	case 0xDA:
		// JC adr
		p.jump(p.flag(P_CARRY))
	case 0xDB:
		// IN port
		var v uint8
		if p.ports != nil {
			v = p.ports.In(p.imm8())
		}
		p.A = v
		p.PC += 2
		p.Cycles += 10
	case 0xDC:
		// CC adr
		p.call(p.flag(P_CARRY))
	case 0xDE:
		// SBI d8
		p.A = p.compare(p.imm8(), p.carryVal())
		p.PC += 2
		p.Cycles += 7
	case 0xE0:
		// RPO
		p.ret(!p.flag(P_PARITY))
	case 0xE1:
		// POP H
		p.setHL(p.popStack())
		p.PC++
		p.Cycles += 10
	case 0xE2:
		// JPO adr
		p.jump(!p.flag(P_PARITY))
	case 0xE3:
		// XTHL
		lo := p.ram.Read(p.SP)
		hi := p.ram.Read(p.SP + 1)
		p.ram.Write(p.SP, p.L)
		p.ram.Write(p.SP+1, p.H)
		p.H, p.L = hi, lo
		p.PC++
		p.Cycles += 18
	case 0xE4:
		// CPO adr
		p.call(!p.flag(P_PARITY))
	case 0xE5:
		// PUSH H
		p.pushStack(p.hl())
		p.PC++
		p.Cycles += 11
	case 0xE6:
		// ANI d8
		p.and(p.imm8())
		p.PC += 2
		p.Cycles += 7
	case 0xE8:
		// RPE
		p.ret(p.flag(P_PARITY))
	case 0xE9:
		// PCHL
		p.PC = p.hl()
		p.Cycles += 5
	case 0xEA:
		// JPE adr
		p.jump(p.flag(P_PARITY))
	case 0xEB:
		// XCHG
		p.D, p.H = p.H, p.D
		p.E, p.L = p.L, p.E
		p.PC++
		p.Cycles += 5
	case 0xEC:
		// CPE adr
		p.call(p.flag(P_PARITY))
	case 0xEE:
		// XRI d8
		p.logicResult(p.A ^ p.imm8())
		p.PC += 2
		p.Cycles += 7
	case 0xF0:
		// RP
		p.ret(!p.flag(P_SIGN))
	case 0xF1:
		// POP PSW - incoming flag byte is forced back into the fixed bit layout.
		v := p.popStack()
		p.A = uint8(v >> 8)
		p.P = uint8(v)&^kFLAG_FIXED_CLEAR | P_S1
		p.PC++
		p.Cycles += 10
	case 0xF2:
		// JP adr
		p.jump(!p.flag(P_SIGN))
	case 0xF3:
		// DI
		p.IntEnable = false
		p.PC++
		p.Cycles += 4
	case 0xF4:
		// CP adr
		p.call(!p.flag(P_SIGN))
	case 0xF5:
		// PUSH PSW
		p.pushStack(uint16(p.A)<<8 | uint16(p.P))
		p.PC++
		p.Cycles += 11
	case 0xF6:
		// ORI d8
		p.logicResult(p.A | p.imm8())
		p.PC += 2
		p.Cycles += 7
	case 0xF8:
		// RM
		p.ret(p.flag(P_SIGN))
	case 0xF9:
		// SPHL
		p.SP = p.hl()
		p.PC++
		p.Cycles += 5
	case 0xFA:
		// JM adr
		p.jump(p.flag(P_SIGN))
	case 0xFB:
		// EI - real hardware delays this one instruction but Space Invaders
		// doesn't depend on the nuance so it takes effect immediately.
		p.IntEnable = true
		p.PC++
		p.Cycles += 4
	case 0xFC:
		// CM adr
		p.call(p.flag(P_SIGN))
	case 0xFE:
		// CPI d8
		p.compare(p.imm8(), 0)
		p.PC += 2
		p.Cycles += 7
	}
	return nil
}

// interrupt runs the acknowledge sequence for the given bus opcode. Unlike a
// fetched RST the current PC is pushed, not PC+1, because the preempted
// instruction hasn't executed and the ISR must return to it exactly.
func (p *Chip) interrupt(op uint8) error {
	if op&0xC7 != 0xC7 {
		return InvalidInterrupt{op}
	}
	p.pushStack(p.PC)
	p.PC = uint16(op & 0x38)
	p.IntEnable = false
	p.Cycles += 11
	return nil
}

// srcRegister decodes the low 3 bits of a MOV/arithmetic quadrant opcode
// into the source value, reading (HL) for the M pseudo register.
func (p *Chip) srcRegister(op uint8) uint8 {
	switch op & 0x07 {
	case 0:
		return p.B
	case 1:
		return p.C
	case 2:
		return p.D
	case 3:
		return p.E
	case 4:
		return p.H
	case 5:
		return p.L
	case 6:
		return p.ram.Read(p.hl())
	}
	return p.A
}

// storeDstRegister decodes bits 3-5 of a MOV opcode into the destination.
func (p *Chip) storeDstRegister(op uint8, val uint8) {
	switch (op >> 3) & 0x07 {
	case 0:
		p.B = val
	case 1:
		p.C = val
	case 2:
		p.D = val
	case 3:
		p.E = val
	case 4:
		p.H = val
	case 5:
		p.L = val
	case 6:
		p.ram.Write(p.hl(), val)
	case 7:
		p.A = val
	}
}

// Register pair accessors. The named first letter is the high byte.

func (p *Chip) bc() uint16 {
	return uint16(p.B)<<8 | uint16(p.C)
}

func (p *Chip) de() uint16 {
	return uint16(p.D)<<8 | uint16(p.E)
}

func (p *Chip) hl() uint16 {
	return uint16(p.H)<<8 | uint16(p.L)
}

func (p *Chip) setBC(v uint16) {
	p.B, p.C = uint8(v>>8), uint8(v)
}

func (p *Chip) setDE(v uint16) {
	p.D, p.E = uint8(v>>8), uint8(v)
}

func (p *Chip) setHL(v uint16) {
	p.H, p.L = uint8(v>>8), uint8(v)
}

// imm8 reads the immediate byte following the current opcode.
func (p *Chip) imm8() uint8 {
	return p.ram.Read(p.PC + 1)
}

// imm16 reads the little endian immediate word following the current opcode.
func (p *Chip) imm16() uint16 {
	return uint16(p.ram.Read(p.PC+2))<<8 | uint16(p.ram.Read(p.PC+1))
}

// flag returns whether the given P_* bit is set.
func (p *Chip) flag(f uint8) bool {
	return p.P&f != 0
}

func (p *Chip) setFlag(f uint8, on bool) {
	if on {
		p.P |= f
		return
	}
	p.P &^= f
}

// carryVal returns CY as 0/1 for feeding back into the adder.
func (p *Chip) carryVal() uint8 {
	if p.flag(P_CARRY) {
		return 1
	}
	return 0
}

func (p *Chip) zeroCheck(res uint8) {
	p.setFlag(P_ZERO, res == 0)
}

func (p *Chip) signCheck(res uint8) {
	p.setFlag(P_SIGN, res&0x80 != 0)
}

func (p *Chip) parityCheck(res uint8) {
	p.setFlag(P_PARITY, bits.OnesCount8(res)%2 == 0)
}

// add performs A <- A + val + carry updating all 5 flags. AC is the carry
// out of bit 3, read straight off the adder.
func (p *Chip) add(val uint8, carry uint8) {
	res := uint16(p.A) + uint16(val) + uint16(carry)
	p.zeroCheck(uint8(res))
	p.signCheck(uint8(res))
	p.parityCheck(uint8(res))
	p.setFlag(P_CARRY, res > 0xFF)
	p.setFlag(P_AUXCARRY, (uint16(p.A)^uint16(val)^res)&0x10 != 0)
	p.A = uint8(res)
}

// compare computes A - val - borrow and sets all 5 flags, returning the 8 bit
// result without storing it (SUB/SBB store it, CMP/CPI drop it). Subtraction
// runs through the adder as two's complement addition so AC comes out as the
// same carry-out-of-bit-3 as ADD; the adder's carry inverts into the borrow.
func (p *Chip) compare(val uint8, borrow uint8) uint8 {
	res := uint16(p.A) + uint16(^val) + uint16(1-borrow)
	p.zeroCheck(uint8(res))
	p.signCheck(uint8(res))
	p.parityCheck(uint8(res))
	p.setFlag(P_CARRY, res <= 0xFF)
	p.setFlag(P_AUXCARRY, (uint16(p.A)^uint16(^val)^res)&0x10 != 0)
	return uint8(res)
}

// inr adds one to a register or (HL) updating Z,S,P,AC but never CY.
func (p *Chip) inr(val uint8) uint8 {
	res := val + 1
	p.zeroCheck(res)
	p.signCheck(res)
	p.parityCheck(res)
	p.setFlag(P_AUXCARRY, res&0x0F == 0)
	return res
}

// dcr subtracts one, same flag rules as inr. Through the adder this is
// val + 0xFF so AC is set unless the low nibble borrows.
func (p *Chip) dcr(val uint8) uint8 {
	res := val - 1
	p.zeroCheck(res)
	p.signCheck(res)
	p.parityCheck(res)
	p.setFlag(P_AUXCARRY, val&0x0F != 0)
	return res
}

// and performs A <- A & val. CY always clears. AC is the OR of bit 3 of the
// operands unless strict manual semantics were requested.
func (p *Chip) and(val uint8) {
	ac := (p.A|val)&0x08 != 0
	if p.strictANA {
		ac = false
	}
	p.logicResult(p.A & val)
	p.setFlag(P_AUXCARRY, ac)
}

// logicResult stores an XRA/ORA style result: Z,S,P from the value, CY and
// AC cleared.
func (p *Chip) logicResult(res uint8) {
	p.zeroCheck(res)
	p.signCheck(res)
	p.parityCheck(res)
	p.setFlag(P_CARRY, false)
	p.setFlag(P_AUXCARRY, false)
	p.A = res
}

// dad adds a register pair into HL. Only CY updates.
func (p *Chip) dad(val uint16) {
	res := uint32(p.hl()) + uint32(val)
	p.setFlag(P_CARRY, res > 0xFFFF)
	p.setHL(uint16(res))
}

// daa BCD adjusts the accumulator. The low nibble adjust happens first and
// the high nibble check looks at the already adjusted value; CY is sticky and
// never clears here even if the adjusted result didn't carry.
func (p *Chip) daa() {
	res := uint16(p.A)
	if p.A&0x0F > 9 || p.flag(P_AUXCARRY) {
		res += 6
		p.setFlag(P_AUXCARRY, (p.A&0x0F)+6 > 0x0F)
	} else {
		p.setFlag(P_AUXCARRY, false)
	}
	if res>>4 > 9 || p.flag(P_CARRY) {
		res += 0x60
	}
	p.zeroCheck(uint8(res))
	p.signCheck(uint8(res))
	p.parityCheck(uint8(res))
	if res > 0xFF {
		p.setFlag(P_CARRY, true)
	}
	p.A = uint8(res)
}

// jump implements the JMP family: 10 cycles whether or not taken.
func (p *Chip) jump(cond bool) {
	if cond {
		p.PC = p.imm16()
	} else {
		p.PC += 3
	}
	p.Cycles += 10
}

// call implements the CALL family. The pushed return address is the
// instruction following the 3 byte CALL.
func (p *Chip) call(cond bool) {
	if !cond {
		p.PC += 3
		p.Cycles += 11
		return
	}
	p.pushStack(p.PC + 3)
	p.PC = p.imm16()
	p.Cycles += 17
}

// ret implements the conditional RET family (unconditional RET is 10 cycles
// and handled inline).
func (p *Chip) ret(cond bool) {
	if cond {
		p.PC = p.popStack()
		p.Cycles += 11
		return
	}
	p.PC++
	p.Cycles += 5
}

// pushStack stores a word with the high byte at SP-1 and low at SP-2.
// All SP math wraps modulo 2^16.
func (p *Chip) pushStack(val uint16) {
	p.ram.Write(p.SP-1, uint8(val>>8))
	p.ram.Write(p.SP-2, uint8(val))
	p.SP -= 2
}

// popStack reverses pushStack.
func (p *Chip) popStack() uint16 {
	lo := p.ram.Read(p.SP)
	hi := p.ram.Read(p.SP + 1)
	p.SP += 2
	return uint16(hi)<<8 | uint16(lo)
}
