// hand_asm takes a hand assembled 8080 listing and produces a bin file
// suitable for the cpmrun/disassembler tools and for test fixtures.
// Input lines are of the form:
//
// XXXX OP A1 A2	comment
//
// Where XXXX is the address field, OP is the opcode and A1,A2 are the
// optional immediate bytes (8080 instructions are 1-3 bytes). Anything
// after a tab is a comment. Lines not starting with a 4 digit hex address
// are ignored, so an annotated listing assembles as is.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	offset = flag.Int("offset", 0x0000, "Offset to start writing assembled data. Everything prior is zero filled.")
)

var lineRE = regexp.MustCompile(`^[0-9A-F]{4} `)

func main() {
	flag.Parse()
	if len(flag.Args()) != 2 {
		log.Fatalf("Invalid command: %s <input> <output>", os.Args[0])
	}
	fn := flag.Args()[0]
	out := flag.Args()[1]

	f, err := os.Open(fn)
	if err != nil {
		log.Fatalf("Can't open %q for input - %v", fn, err)
	}
	defer f.Close()

	output := make([]byte, *offset)
	scanner := bufio.NewScanner(f)
	l := 0
	for scanner.Scan() {
		t := scanner.Text()
		l++
		if !lineRE.MatchString(t) {
			continue
		}
		// Strip the address field and any trailing comment.
		t = t[5:]
		if i := strings.IndexByte(t, '\t'); i >= 0 {
			t = t[:i]
		}
		toks := strings.Fields(t)
		if len(toks) > 3 {
			log.Fatalf("Invalid line %d - %q", l, t)
		}
		for _, v := range toks {
			b, err := strconv.ParseUint(v, 16, 8)
			if err != nil {
				log.Fatalf("Can't process input line %d %q - %v", l, t, err)
			}
			output = append(output, byte(b))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Error reading %q - %v", fn, err)
	}
	if err := os.WriteFile(out, output, 0644); err != nil {
		log.Fatalf("Got error writing to %q - %v", out, err)
	}
}
