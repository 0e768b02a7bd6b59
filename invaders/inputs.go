package invaders

import (
	"github.com/jmchacon/8080/io"
)

// ports maps the cabinet switches onto the three input ports the game
// reads. Unlike the usual active-low arcade wiring these read 1 == pressed;
// the unconnected bits are pulled to the board's fixed levels.
type ports struct {
	coin    io.PortIn1
	tilt    io.PortIn1
	players [2]*PlayerControls
}

// port0 is the hardware test port. Bits 1-3 are pulled high and the player 1
// stick mirrors onto bits 4-6. The game itself never reads this port but the
// self test does.
func (p *ports) port0() uint8 {
	out := uint8(0x0E)
	if p.players[0].Fire.Input() {
		out |= 0x10
	}
	if p.players[0].Left.Input() {
		out |= 0x20
	}
	if p.players[0].Right.Input() {
		out |= 0x40
	}
	return out
}

// port1 carries the coin slot, start buttons and the player 1 controls.
// Bit 3 is pulled high.
func (p *ports) port1() uint8 {
	out := uint8(0x08)
	if p.coin.Input() {
		out |= 0x01
	}
	if p.players[1].Start.Input() {
		out |= 0x02
	}
	if p.players[0].Start.Input() {
		out |= 0x04
	}
	if p.players[0].Fire.Input() {
		out |= 0x10
	}
	if p.players[0].Left.Input() {
		out |= 0x20
	}
	if p.players[0].Right.Input() {
		out |= 0x40
	}
	return out
}

// port2 carries the DIP switches (bits 0,1,3 left at the factory defaults:
// three ships, bonus ship at 1500), the tilt switch and the player 2
// controls.
func (p *ports) port2() uint8 {
	out := uint8(0x0B)
	if p.tilt.Input() {
		out |= 0x04
	}
	if p.players[1].Fire.Input() {
		out |= 0x10
	}
	if p.players[1].Left.Input() {
		out |= 0x20
	}
	if p.players[1].Right.Input() {
		out |= 0x40
	}
	return out
}
