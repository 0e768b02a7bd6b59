// Package invaders is the main logic for pulling together a Space Invaders
// cabinet emulator. The actual chips are implemented in other packages and
// most of the logic here is the memory map, the I/O port wiring and the
// scan line interrupt scheduling that ties instruction cycles to wall time.
package invaders

import (
	"errors"
	"fmt"
	"image"
	goio "io"
	"time"

	"github.com/jmchacon/8080/cpu"
	"github.com/jmchacon/8080/disassemble"
	"github.com/jmchacon/8080/io"
	"github.com/jmchacon/8080/shifter"
)

const (
	kROM_SIZE   = 0x2000
	kRAM_BASE   = uint16(0x2000)
	kRAM_MIRROR = uint16(0x4000)
	kRAM_MASK   = uint16(0x1FFF)

	kVRAM_BASE = 0x2400
	kVRAM_SIZE = 0x1C00

	// The 2MHz 8080 runs ~33333 cycles per 60Hz frame. The board raises
	// RST 1 as the beam passes mid screen and RST 2 at the end of frame, so
	// each half frame is paced to 1/120s of wall time.
	kCYCLES_MID_FRAME  = 16667
	kCYCLES_FULL_FRAME = 33333
	kINTERRUPT_PERIOD  = time.Second / 120

	// Acknowledge bytes the board drives for the two scan line interrupts.
	kRST1 = uint8(0xCF)
	kRST2 = uint8(0xD7)

	// The sound latches live at fixed work RAM addresses by cabinet convention.
	kSOUND_LATCH_3 = uint16(0x2094) // OUT 3
	kSOUND_LATCH_5 = uint16(0x2098) // OUT 5
)

// PlayerControls defines one player's cabinet buttons. For each true == pressed.
type PlayerControls struct {
	Start io.PortIn1
	Fire  io.PortIn1
	Left  io.PortIn1
	Right io.PortIn1
}

// Machine is a full cabinet: CPU, guarded memory, shift register, input
// ports, sound latches and the frame/interrupt scheduler.
type Machine struct {
	cpu           *cpu.Chip
	shifter       *shifter.Chip
	memory        *controller
	ports         *ports
	frame         *image.NRGBA
	frameDone     func(*image.NRGBA)
	sound         func(SoundEvent, bool)
	prevSound3    uint8
	prevSound5    uint8
	clock         func() time.Time
	lastBoundary  time.Time
	nextInterrupt uint8
	pending       uint8
	trace         goio.Writer
}

// controller implements the memory.Bank interface with the cabinet's map:
// 8k of write protected ROM, 8k of RAM (1k work + 7k video) and everything
// above 0x4000 folding back into the RAM region on writes. Reads are raw.
type controller struct {
	mem [65536]uint8
}

// Read implements the memory.Bank interface for Read.
func (c *controller) Read(addr uint16) uint8 {
	return c.mem[addr]
}

// Write implements the memory.Bank interface for Write.
func (c *controller) Write(addr uint16, val uint8) {
	switch {
	case addr < kRAM_BASE:
		// ROM is physically read only so the write just drops. The game
		// does attempt these.
	case addr >= kRAM_MIRROR:
		// Only 13 address pins reach the RAM so the upper region mirrors.
		c.mem[(addr&kRAM_MASK)+kRAM_BASE] = val
	default:
		c.mem[addr] = val
	}
}

// PowerOn implements the memory.Bank interface for PowerOn.
func (c *controller) PowerOn() {
	for i := range c.mem {
		c.mem[i] = 0x00
	}
}

// Def defines the pieces needed to set up a cabinet.
type Def struct {
	// Rom is the 8k ROM image (invaders.h/g/f/e concatenated). See LoadROMs.
	Rom []uint8
	// Coin is the coin slot switch. True == coin deposited.
	Coin io.PortIn1
	// Tilt is the cabinet tilt switch.
	Tilt io.PortIn1
	// Players defines the player 1 and player 2 control panels.
	Players [2]*PlayerControls
	// FrameDone, if non-nil, is called with the freshly extracted 256x224
	// frame at each scan line interrupt (so twice per 60Hz frame). The
	// image is reused between calls; copy it if it needs to outlive the
	// callback. Displays rotate it -90 degrees (see Rotate).
	FrameDone func(*image.NRGBA)
	// Sound, if non-nil, receives an edge per sound latch bit change:
	// active true on a rising edge (start the sample; UFO loops until its
	// falling edge arrives with active false).
	Sound func(SoundEvent, bool)
	// Clock overrides the wall clock used for interrupt pacing. Tests use
	// this; when nil time.Now is used.
	Clock func() time.Time
	// Trace, if non-nil, receives a disassembly line per instruction.
	Trace goio.Writer
}

// Init returns an initialized and powered on cabinet.
func Init(def *Def) (*Machine, error) {
	// Up front validation.
	if len(def.Rom) != kROM_SIZE {
		return nil, fmt.Errorf("Rom must be %d bytes, got %d", kROM_SIZE, len(def.Rom))
	}
	if def.Coin == nil {
		return nil, errors.New("Coin must be non-nil in def")
	}
	if def.Tilt == nil {
		return nil, errors.New("Tilt must be non-nil in def")
	}
	for i, pl := range def.Players {
		if pl == nil {
			return nil, fmt.Errorf("player %d controls must be non-nil in def", i+1)
		}
		if pl.Start == nil || pl.Fire == nil || pl.Left == nil || pl.Right == nil {
			return nil, fmt.Errorf("player %d controls cannot have nil members: %#v", i+1, pl)
		}
	}

	m := &Machine{
		shifter: shifter.Init(),
		memory:  &controller{},
		ports: &ports{
			coin:    def.Coin,
			tilt:    def.Tilt,
			players: def.Players,
		},
		frame:         image.NewNRGBA(image.Rect(0, 0, Width, Height)),
		frameDone:     def.FrameDone,
		sound:         def.Sound,
		clock:         def.Clock,
		nextInterrupt: kRST1,
		trace:         def.Trace,
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	m.memory.PowerOn()
	copy(m.memory.mem[:], def.Rom)

	// The machine is the CPU's port bank and its interrupt source.
	c, err := cpu.Init(&cpu.ChipDef{
		Ram:   m.memory,
		Ports: m,
		Int:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("can't initialize cpu: %v", err)
	}
	m.cpu = c
	m.lastBoundary = m.clock()
	return m, nil
}

// Raised implements the irq.Sender interface: high while a scan line
// interrupt is waiting for the CPU.
func (m *Machine) Raised() bool {
	return m.pending != 0
}

// Acknowledge implements the irq.Sender interface, handing the CPU the RST
// opcode for the pending interrupt and dropping the line.
func (m *Machine) Acknowledge() uint8 {
	op := m.pending
	m.pending = 0
	return op
}

// In implements the io.PortBank interface for the cabinet's input ports and
// the shift register read port.
func (m *Machine) In(port uint8) uint8 {
	switch port {
	case 0:
		return m.ports.port0()
	case 1:
		return m.ports.port1()
	case 2:
		return m.ports.port2()
	case 3:
		return m.shifter.Read()
	}
	return 0
}

// Out implements the io.PortBank interface for the shift register, the
// sound latches and the watchdog.
func (m *Machine) Out(port uint8, val uint8) {
	switch port {
	case 2:
		m.shifter.SetOffset(val)
	case 3:
		m.soundOut(kSOUND_LATCH_3, SOUND_UFO, &m.prevSound3, val)
	case 4:
		m.shifter.Load(val)
	case 5:
		m.soundOut(kSOUND_LATCH_5, SOUND_FLEET_1, &m.prevSound5, val)
	case 6:
		// Watchdog reset. We never pull the plug so it's ignored.
	}
}

// Tick runs one instruction and then the scan line interrupt bookkeeping:
// once the cycle budget for the current half frame is spent, interrupts are
// enabled and at least 1/120s of wall time has passed since the last
// boundary, the matching RST goes pending on the interrupt line and a frame
// is extracted. The CPU consumes the pending RST on its next step, before
// any further guest instruction runs.
func (m *Machine) Tick() error {
	if m.trace != nil {
		s, _ := disassemble.Step(m.cpu.PC, m.memory)
		fmt.Fprintf(m.trace, "%.4X  %s\n", m.cpu.PC, s)
	}
	if err := m.cpu.Step(); err != nil {
		return fmt.Errorf("CPU step error: %v", err)
	}

	switch {
	case m.nextInterrupt == kRST1 && m.cpu.Cycles >= kCYCLES_MID_FRAME && m.cpu.IntEnable && m.boundaryElapsed():
		// Mid screen. Clamp rather than carry the overshoot so a slow host
		// doesn't skew the guest's notion of a half frame.
		m.cpu.Cycles = kCYCLES_MID_FRAME
		m.pending = kRST1
		m.nextInterrupt = kRST2
		m.publishFrame()
	case m.nextInterrupt == kRST2 && m.cpu.Cycles >= kCYCLES_FULL_FRAME && m.cpu.IntEnable && m.boundaryElapsed():
		// End of frame. The counter restarts for the next frame.
		m.cpu.Cycles = 0
		m.pending = kRST2
		m.nextInterrupt = kRST1
		m.publishFrame()
	}
	return nil
}

func (m *Machine) boundaryElapsed() bool {
	return m.clock().Sub(m.lastBoundary) >= kINTERRUPT_PERIOD
}

func (m *Machine) publishFrame() {
	m.lastBoundary = m.clock()
	m.renderFrame()
	if m.frameDone != nil {
		m.frameDone(m.frame)
	}
}
