package invaders

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
)

func nrgba(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 0xFF}
}

// swtch implements io.PortIn1 for the cabinet switches.
type swtch struct {
	b bool
}

func (s *swtch) Input() bool {
	return s.b
}

// testClock stands in for the wall clock so interrupt pacing is deterministic.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type cabinet struct {
	m       *Machine
	clock   *testClock
	coin    *swtch
	tilt    *swtch
	p1      [4]*swtch // start, fire, left, right
	p2      [4]*swtch
	frames  int
	sounds  []SoundEvent
	actives []bool
}

// setup builds a cabinet around the given program bytes (placed at 0x0000
// inside an otherwise zeroed ROM image).
func setup(t *testing.T, program ...uint8) *cabinet {
	t.Helper()
	rom := make([]uint8, kROM_SIZE)
	copy(rom, program)

	cb := &cabinet{
		clock: &testClock{t: time.Unix(0, 0)},
		coin:  &swtch{},
		tilt:  &swtch{},
	}
	for i := range cb.p1 {
		cb.p1[i] = &swtch{}
		cb.p2[i] = &swtch{}
	}
	m, err := Init(&Def{
		Rom:  rom,
		Coin: cb.coin,
		Tilt: cb.tilt,
		Players: [2]*PlayerControls{
			{Start: cb.p1[0], Fire: cb.p1[1], Left: cb.p1[2], Right: cb.p1[3]},
			{Start: cb.p2[0], Fire: cb.p2[1], Left: cb.p2[2], Right: cb.p2[3]},
		},
		FrameDone: func(f *image.NRGBA) {
			cb.frames++
		},
		Sound: func(ev SoundEvent, active bool) {
			cb.sounds = append(cb.sounds, ev)
			cb.actives = append(cb.actives, active)
		},
		Clock: cb.clock.now,
	})
	if err != nil {
		t.Fatalf("Can't init cabinet: %v", err)
	}
	cb.m = m
	return cb
}

func tick(t *testing.T, cb *cabinet) {
	t.Helper()
	if err := cb.m.Tick(); err != nil {
		t.Fatalf("Tick error: %v", err)
	}
}

func TestInitValidation(t *testing.T) {
	sw := &swtch{}
	pl := &PlayerControls{Start: sw, Fire: sw, Left: sw, Right: sw}
	good := &Def{
		Rom:     make([]uint8, kROM_SIZE),
		Coin:    sw,
		Tilt:    sw,
		Players: [2]*PlayerControls{pl, pl},
	}
	if _, err := Init(good); err != nil {
		t.Errorf("valid def errored: %v", err)
	}
	tests := []struct {
		name string
		mod  func(*Def)
	}{
		{"short rom", func(d *Def) { d.Rom = make([]uint8, 0x1000) }},
		{"nil coin", func(d *Def) { d.Coin = nil }},
		{"nil tilt", func(d *Def) { d.Tilt = nil }},
		{"nil player", func(d *Def) { d.Players[1] = nil }},
		{"nil player member", func(d *Def) { d.Players[0] = &PlayerControls{Start: sw} }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := *good
			test.mod(&d)
			if _, err := Init(&d); err == nil {
				t.Error("bad def didn't error")
			}
		})
	}
}

func TestMemoryMap(t *testing.T) {
	cb := setup(t)
	mem := cb.m.memory

	// ROM writes drop silently.
	before := mem.Read(0x1000)
	mem.Write(0x1000, 0x42)
	if got := mem.Read(0x1000); got != before {
		t.Errorf("ROM write stuck: got %.2X want %.2X", got, before)
	}

	// Work RAM and VRAM accept writes.
	mem.Write(0x2000, 0x11)
	mem.Write(0x3FFF, 0x22)
	if mem.Read(0x2000) != 0x11 || mem.Read(0x3FFF) != 0x22 {
		t.Errorf("RAM writes lost: %.2X %.2X", mem.Read(0x2000), mem.Read(0x3FFF))
	}

	// Mirror region folds into RAM and reads back raw.
	mem.Write(0x5123, 0x42)
	if got, want := mem.Read(0x3123), uint8(0x42); got != want {
		t.Errorf("mirror write: 0x3123 got %.2X want %.2X", got, want)
	}
	if got, want := mem.Read(0x5123), uint8(0x00); got != want {
		t.Errorf("mirror read should be raw: 0x5123 got %.2X want %.2X", got, want)
	}
	mem.Write(0xFFFF, 0x99)
	if got, want := mem.Read(0x3FFF), uint8(0x99); got != want {
		t.Errorf("top of mirror: 0x3FFF got %.2X want %.2X", got, want)
	}
}

func TestShiftRegisterPorts(t *testing.T) {
	cb := setup(t)
	cb.m.Out(4, 0xAA)
	cb.m.Out(4, 0xBB)
	cb.m.Out(2, 0x04)
	if got, want := cb.m.In(3), uint8(0xBA); got != want {
		t.Errorf("IN 3 got %.2X want %.2X", got, want)
	}
	// Offset 0 reads the newest byte straight.
	cb.m.Out(2, 0x00)
	if got, want := cb.m.In(3), uint8(0xBB); got != want {
		t.Errorf("IN 3 at offset 0 got %.2X want %.2X", got, want)
	}
}

func TestInputPorts(t *testing.T) {
	cb := setup(t)

	// Idle levels are just the pulled-high bits.
	if got, want := cb.m.In(0), uint8(0x0E); got != want {
		t.Errorf("port 0 idle got %.2X want %.2X", got, want)
	}
	if got, want := cb.m.In(1), uint8(0x08); got != want {
		t.Errorf("port 1 idle got %.2X want %.2X", got, want)
	}
	if got, want := cb.m.In(2), uint8(0x0B); got != want {
		t.Errorf("port 2 idle got %.2X want %.2X", got, want)
	}

	cb.coin.b = true
	cb.p1[0].b = true // 1P start
	cb.p1[1].b = true // 1P fire
	cb.p1[2].b = true // 1P left
	if got, want := cb.m.In(1), uint8(0x08|0x01|0x04|0x10|0x20); got != want {
		t.Errorf("port 1 got %.2X want %.2X", got, want)
	}
	if got, want := cb.m.In(0), uint8(0x0E|0x10|0x20); got != want {
		t.Errorf("port 0 got %.2X want %.2X", got, want)
	}

	cb.tilt.b = true
	cb.p2[0].b = true // 2P start shows on port 1
	cb.p2[1].b = true
	cb.p2[3].b = true
	if got, want := cb.m.In(2), uint8(0x0B|0x04|0x10|0x40); got != want {
		t.Errorf("port 2 got %.2X want %.2X", got, want)
	}
	if got, want := cb.m.In(1)&0x02, uint8(0x02); got != want {
		t.Errorf("port 1 2P start got %.2X want %.2X", got, want)
	}

	// Unmapped port reads zero.
	if got, want := cb.m.In(7), uint8(0x00); got != want {
		t.Errorf("port 7 got %.2X want %.2X", got, want)
	}
}

func TestSoundLatches(t *testing.T) {
	cb := setup(t)

	cb.m.Out(3, 0x01) // UFO on
	if got, want := cb.m.memory.Read(kSOUND_LATCH_3), uint8(0x01); got != want {
		t.Errorf("latch got %.2X want %.2X", got, want)
	}
	cb.m.Out(3, 0x01) // no edge, no event
	cb.m.Out(3, 0x09) // invader death rises, UFO stays
	cb.m.Out(3, 0x08) // UFO falls
	cb.m.Out(5, 0x10) // UFO hit rises
	if got, want := cb.m.memory.Read(kSOUND_LATCH_5), uint8(0x10); got != want {
		t.Errorf("latch got %.2X want %.2X", got, want)
	}

	wantEvents := []SoundEvent{SOUND_UFO, SOUND_INVADER_DEATH, SOUND_UFO, SOUND_UFO_HIT}
	wantActive := []bool{true, true, false, true}
	if len(cb.sounds) != len(wantEvents) {
		t.Fatalf("events got %v want %v", cb.sounds, wantEvents)
	}
	for i := range wantEvents {
		if cb.sounds[i] != wantEvents[i] || cb.actives[i] != wantActive[i] {
			t.Errorf("event %d got (%d,%t) want (%d,%t)", i, cb.sounds[i], cb.actives[i], wantEvents[i], wantActive[i])
		}
	}
}

func TestWatchdog(t *testing.T) {
	cb := setup(t)
	cb.m.Out(6, 0xFF) // must be a no-op
	if len(cb.sounds) != 0 {
		t.Errorf("watchdog triggered sounds: %v", cb.sounds)
	}
}

func TestInterruptScheduling(t *testing.T) {
	// EI then NOPs.
	cb := setup(t, 0xFB)
	cpu := cb.m.cpu
	cpu.SP = 0x2400
	tick(t, cb) // EI
	if !cpu.IntEnable {
		t.Fatal("EI didn't take")
	}

	// Over the cycle budget but no wall time elapsed: nothing fires.
	cpu.Cycles = 16666
	tick(t, cb)
	if cb.m.pending != 0 || cb.frames != 0 {
		t.Fatalf("interrupt fired before 1/120s elapsed: %s", spew.Sdump(cb.m.pending))
	}

	// Now the wall clock catches up.
	cb.clock.advance(10 * time.Millisecond)
	tick(t, cb) // NOP runs with cycles already over, scheduler clamps and raises
	if got, want := cpu.Cycles, kCYCLES_MID_FRAME; got != want {
		t.Errorf("cycles got %d want %d", got, want)
	}
	if got, want := cb.m.pending, kRST1; got != want {
		t.Errorf("pending got %.2X want %.2X", got, want)
	}
	if got, want := cb.frames, 1; got != want {
		t.Errorf("frames got %d want %d", got, want)
	}
	pc := cpu.PC

	// The CPU consumes the pending RST 1 in place of the next instruction.
	tick(t, cb)
	if got, want := cpu.PC, uint16(0x0008); got != want {
		t.Errorf("PC got %.4X want %.4X", got, want)
	}
	if got, want := cb.m.memory.Read(0x23FE), uint8(pc); got != want {
		t.Errorf("pushed PC low got %.2X want %.2X", got, want)
	}
	if cpu.IntEnable {
		t.Error("acceptance didn't disable interrupts")
	}
	if got, want := cb.m.nextInterrupt, kRST2; got != want {
		t.Errorf("nextInterrupt got %.2X want %.2X", got, want)
	}

	// End of frame: cycle counter resets and RST 2 goes pending.
	cpu.IntEnable = true
	cpu.Cycles = kCYCLES_FULL_FRAME
	cb.clock.advance(10 * time.Millisecond)
	tick(t, cb)
	if got, want := cpu.Cycles, 0; got != want {
		t.Errorf("cycles got %d want %d", got, want)
	}
	if got, want := cb.m.pending, kRST2; got != want {
		t.Errorf("pending got %.2X want %.2X", got, want)
	}
	if got, want := cb.frames, 2; got != want {
		t.Errorf("frames got %d want %d", got, want)
	}
	tick(t, cb)
	if got, want := cpu.PC, uint16(0x0010); got != want {
		t.Errorf("PC got %.4X want %.4X", got, want)
	}
	if got, want := cb.m.nextInterrupt, kRST1; got != want {
		t.Errorf("nextInterrupt got %.2X want %.2X", got, want)
	}
}

func TestRenderFrame(t *testing.T) {
	cb := setup(t)
	mem := cb.m.memory

	// First byte of VRAM: LSB is pixel (0,0).
	mem.Write(uint16(kVRAM_BASE), 0x01)
	// Last byte of the first row: MSB is pixel (255,0).
	mem.Write(uint16(kVRAM_BASE+31), 0x80)
	// First byte of the second row: bit 0 is pixel (0,1).
	mem.Write(uint16(kVRAM_BASE+32), 0x01)
	cb.m.renderFrame()

	f := cb.m.frame
	if got, want := f.Bounds(), image.Rect(0, 0, Width, Height); got != want {
		t.Fatalf("frame bounds got %v want %v", got, want)
	}
	white := func(x, y int) bool {
		c := f.NRGBAAt(x, y)
		return c.R == 0xFF && c.A == 0xFF
	}
	if !white(0, 0) {
		t.Error("pixel (0,0) not white")
	}
	if !white(255, 0) {
		t.Error("pixel (255,0) not white")
	}
	if !white(0, 1) {
		t.Error("pixel (0,1) not white")
	}
	if white(1, 0) || white(254, 0) {
		t.Error("unexpected white pixels")
	}
}

func TestRotate(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, nrgba(0x11))
	src.SetNRGBA(1, 0, nrgba(0x22))
	dst := Rotate(src)
	if got, want := dst.Bounds(), image.Rect(0, 0, 1, 2); got != want {
		t.Fatalf("bounds got %v want %v", got, want)
	}
	// Counter clockwise: the rightmost source column becomes the top row.
	if got := dst.NRGBAAt(0, 0).R; got != 0x22 {
		t.Errorf("dst(0,0) got %.2X want 22", got)
	}
	if got := dst.NRGBAAt(0, 1).R; got != 0x11 {
		t.Errorf("dst(0,1) got %.2X want 11", got)
	}
}

func TestScale(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, nrgba(0xFF))
	dst := Scale(src, 2)
	if got, want := dst.Bounds(), image.Rect(0, 0, 4, 2); got != want {
		t.Fatalf("bounds got %v want %v", got, want)
	}
	for _, p := range []struct{ x, y int }{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if got := dst.NRGBAAt(p.x, p.y).R; got != 0xFF {
			t.Errorf("dst(%d,%d) got %.2X want FF", p.x, p.y, got)
		}
	}
	if got := dst.NRGBAAt(2, 0).R; got != 0x00 {
		t.Errorf("dst(2,0) got %.2X want 00", got)
	}
	if got := Scale(src, 1); got != src {
		t.Error("factor 1 should return src unchanged")
	}
}

func TestLoadROMs(t *testing.T) {
	dir := t.TempDir()
	for i, f := range romFiles {
		b := make([]byte, kROM_SIZE/4)
		for j := range b {
			b[j] = uint8(i)
		}
		if err := os.WriteFile(filepath.Join(dir, f), b, 0644); err != nil {
			t.Fatalf("can't write fixture: %v", err)
		}
	}
	rom, err := LoadROMs(dir)
	if err != nil {
		t.Fatalf("LoadROMs: %v", err)
	}
	if len(rom) != kROM_SIZE {
		t.Fatalf("rom length got %d want %d", len(rom), kROM_SIZE)
	}
	// Bank order is h,g,f,e.
	for i := 0; i < 4; i++ {
		if got, want := rom[i*0x800], uint8(i); got != want {
			t.Errorf("bank %d got %.2X want %.2X", i, got, want)
		}
	}

	// A missing file names its path.
	os.Remove(filepath.Join(dir, "invaders.f"))
	if _, err := LoadROMs(dir); err == nil {
		t.Error("missing bank didn't error")
	}

	// A truncated file errors too.
	if err := os.WriteFile(filepath.Join(dir, "invaders.f"), []byte{0x00}, 0644); err != nil {
		t.Fatalf("can't write fixture: %v", err)
	}
	if _, err := LoadROMs(dir); err == nil {
		t.Error("truncated bank didn't error")
	}
}
