// Package io defines the basic interfaces for working with the
// 8080's I/O space. Unlike memory mapped designs the 8080 has a
// separate 256 port bus driven by the IN/OUT opcodes, so in addition
// to simple 1 bit switch inputs there is an interface for a full
// port bank which a machine implementation provides to the CPU.
package io

// PortIn1 defines a 1 bit input port such as a cabinet switch or button.
type PortIn1 interface {
	// Input will return the current value being set on the given input port.
	// For switches true == pressed.
	Input() bool
}

// PortBank defines the device side of the 8080 I/O bus. The CPU invokes
// these for the IN/OUT opcodes with the 8 bit port number from the
// instruction stream.
type PortBank interface {
	// In returns the byte the device places on the bus for a read of the given port.
	In(port uint8) uint8
	// Out hands the device the byte the CPU wrote to the given port.
	Out(port uint8, val uint8)
}
