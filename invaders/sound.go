package invaders

// SoundEvent identifies one cabinet sound. The analog sound board triggers
// off individual latch bits; the sample files shipped with most ROM sets are
// numbered 0.wav-9.wav in this order.
type SoundEvent int

const (
	SOUND_UFO           SoundEvent = iota // Port 3 bit 0. Loops while active.
	SOUND_SHOT                            // Port 3 bit 1.
	SOUND_PLAYER_DEATH                    // Port 3 bit 2.
	SOUND_INVADER_DEATH                   // Port 3 bit 3.
	SOUND_EXTRA_LIFE                      // Port 3 bit 4.
	SOUND_FLEET_1                         // Port 5 bit 0. The four stepped fleet movement tones.
	SOUND_FLEET_2                         // Port 5 bit 1.
	SOUND_FLEET_3                         // Port 5 bit 2.
	SOUND_FLEET_4                         // Port 5 bit 3.
	SOUND_UFO_HIT                         // Port 5 bit 4.
	SOUND_MAX                             // End of sound enumerations.
)

// soundOut latches a sound port write into its fixed RAM address and turns
// bit transitions into Sound callbacks: one rising edge starts a one-shot
// sample (or starts the UFO loop), the falling edge only matters for UFO.
func (m *Machine) soundOut(latch uint16, base SoundEvent, prev *uint8, val uint8) {
	m.memory.Write(latch, val)
	diff := *prev ^ val
	*prev = val
	if m.sound == nil || diff == 0 {
		return
	}
	for bit := uint8(0); bit < 5; bit++ {
		mask := uint8(1) << bit
		if diff&mask != 0 {
			m.sound(base+SoundEvent(bit), val&mask != 0)
		}
	}
}
