// disassembler takes a filename, loads it and then disassembles it to
// stdout starting at the first instruction. The binary is placed at
// --offset in an otherwise zeroed 64k image and listing starts at
// --start_pc, so both flat ROM dumps (offset 0) and CP/M style binaries
// (offset/start_pc 0x100) list correctly.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmchacon/8080/disassemble"
	"github.com/jmchacon/8080/memory"
)

var (
	startPC = flag.Int("start_pc", 0x0000, "PC value to start disassembling")
	offset  = flag.Int("offset", 0x0000, "Offset into RAM to start loading data. All other RAM will be zero'd out")
)

func main() {
	flag.Parse()
	if len(flag.Args()) != 1 {
		log.Fatalf("Invalid command: %s [--start_pc=XXXX] [--offset=XXXX] <filename>", os.Args[0])
	}
	if *startPC < 0 || *startPC > 65535 {
		log.Fatal("--start_pc out of range. Must be between 0-65535")
	}
	if *offset < 0 || *offset > 65535 {
		log.Fatal("--offset out of range. Must be between 0-65535")
	}
	fn := flag.Args()[0]
	b, err := os.ReadFile(fn)
	if err != nil {
		log.Fatalf("Can't open %s - %v", fn, err)
	}
	if *offset+len(b) > 65536 {
		log.Fatalf("%s is %d bytes which doesn't fit at offset 0x%.4X", fn, len(b), *offset)
	}

	r := memory.NewFlatBank()
	for i, v := range b {
		r.Write(uint16(*offset+i), v)
	}

	end := *offset + len(b)
	for pc := *startPC; pc < end; {
		s, n := disassemble.Step(uint16(pc), r)
		fmt.Printf("%.4X  %s\n", pc, s)
		pc += n
	}
}
