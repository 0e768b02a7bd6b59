// Package cpm provides a minimal CP/M style harness for running 8080
// processor diagnostics (TST8080, 8080PRE, CPUTEST, 8080EXM, cpudiag).
// It is not a CP/M implementation: just the transient program area load
// at 0x0100, a console output intercept at the BDOS entry and the warm
// boot vector as the exit condition, which is all the diagnostics use.
package cpm

import (
	"fmt"
	goio "io"

	"github.com/jmchacon/8080/cpu"
	"github.com/jmchacon/8080/disassemble"
	"github.com/jmchacon/8080/memory"
)

const (
	kLOAD_ADDR  = uint16(0x0100)
	kBDOS_ENTRY = uint16(0x0005)
	kWARM_BOOT  = uint16(0x0000)
)

// Machine is a flat 64k of RAM (no ROM guard, no mirror - the diagnostics
// patch low memory and write wherever they please) with a CPU and the BDOS
// console hook.
type Machine struct {
	cpu    *cpu.Chip
	ram    *memory.FlatBank
	output goio.Writer
	trace  goio.Writer
}

// Def defines a diagnostics run.
type Def struct {
	// Program is loaded at 0x0100 and entered there.
	Program []uint8
	// Output receives BDOS console output. nil discards it.
	Output goio.Writer
	// StrictANA is passed through to the CPU. The stock diagnostics want
	// the default (CPUTEST fails with strict manual ANA semantics).
	StrictANA bool
	// Trace, if non-nil, receives a disassembly line per instruction.
	Trace goio.Writer
}

// Init returns a machine with the program loaded and the CPU sitting at its
// entry point.
func Init(def *Def) (*Machine, error) {
	if len(def.Program) == 0 {
		return nil, fmt.Errorf("Program must be non-empty in def")
	}
	if len(def.Program) > 0x10000-int(kLOAD_ADDR) {
		return nil, fmt.Errorf("Program too large: %d bytes", len(def.Program))
	}
	m := &Machine{
		ram:    memory.NewFlatBank(),
		output: def.Output,
		trace:  def.Trace,
	}
	if m.output == nil {
		m.output = goio.Discard
	}
	for i, b := range def.Program {
		m.ram.Write(kLOAD_ADDR+uint16(i), b)
	}
	// The BDOS entry gets OUT 1 / RET so a CALL 5 bounces straight back to
	// the caller (the console work happens in the intercept before the
	// instruction runs). The OUT itself goes nowhere, matching the cabinet
	// emulator this harness grew out of.
	m.ram.Write(kBDOS_ENTRY, 0xD3)
	m.ram.Write(kBDOS_ENTRY+1, 0x01)
	m.ram.Write(kBDOS_ENTRY+2, 0xC9)

	c, err := cpu.Init(&cpu.ChipDef{
		Ram:       m.ram,
		Ports:     m,
		StrictANA: def.StrictANA,
	})
	if err != nil {
		return nil, fmt.Errorf("can't initialize cpu: %v", err)
	}
	c.PC = kLOAD_ADDR
	m.cpu = c
	return m, nil
}

// CPU exposes the chip for register assertions and the interactive monitor.
func (m *Machine) CPU() *cpu.Chip {
	return m.cpu
}

// In implements the io.PortBank interface. Nothing is connected.
func (m *Machine) In(port uint8) uint8 {
	return 0
}

// Out implements the io.PortBank interface. The only OUT the harness
// generates is port 1 from the BDOS stub and it needs no action.
func (m *Machine) Out(port uint8, val uint8) {
}

// Run executes until the program jumps to the warm boot vector, applying
// the BDOS console intercept before each instruction. limit bounds the
// instruction count so a wedged binary fails instead of hanging (8080EXM
// legitimately needs several billion).
func (m *Machine) Run(limit uint64) error {
	for steps := uint64(0); steps < limit; steps++ {
		switch m.cpu.PC {
		case kWARM_BOOT:
			return nil
		case kBDOS_ENTRY:
			m.bdos()
		}
		if m.trace != nil {
			s, _ := disassemble.Step(m.cpu.PC, m.ram)
			fmt.Fprintf(m.trace, "%.4X  %s\n", m.cpu.PC, s)
		}
		if err := m.cpu.Step(); err != nil {
			return err
		}
	}
	return fmt.Errorf("no warm boot after %d instructions", limit)
}

// bdos performs the two console calls the diagnostics use: C=2 prints the
// character in E, C=9 prints the $ terminated string at DE.
func (m *Machine) bdos() {
	switch m.cpu.C {
	case 2:
		fmt.Fprintf(m.output, "%c", m.cpu.E)
	case 9:
		addr := uint16(m.cpu.D)<<8 | uint16(m.cpu.E)
		// Bounded so a missing terminator can't spin forever.
		for i := 0; i < 0x10000; i++ {
			ch := m.ram.Read(addr)
			if ch == '$' {
				break
			}
			fmt.Fprintf(m.output, "%c", ch)
			addr++
		}
	}
}
