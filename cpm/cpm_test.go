package cpm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDir = "testdata"

func run(t *testing.T, program []uint8) (*Machine, string) {
	t.Helper()
	var out bytes.Buffer
	m, err := Init(&Def{Program: program, Output: &out})
	require.NoError(t, err, "Init")
	require.NoError(t, m.Run(10000), "Run")
	return m, out.String()
}

func TestPrintString(t *testing.T) {
	// MVI C,9 / LXI D,msg / CALL 5 / JMP 0 / msg: "HI$"
	program := []uint8{
		0x0E, 0x09,
		0x11, 0x0B, 0x01,
		0xCD, 0x05, 0x00,
		0xC3, 0x00, 0x00,
		'H', 'I', '$',
	}
	_, out := run(t, program)
	require.Equal(t, "HI", out)
}

func TestPrintChar(t *testing.T) {
	// MVI C,2 / MVI E,'A' / CALL 5 / JMP 0
	program := []uint8{
		0x0E, 0x02,
		0x1E, 'A',
		0xCD, 0x05, 0x00,
		0xC3, 0x00, 0x00,
	}
	_, out := run(t, program)
	require.Equal(t, "A", out)
}

func TestProgramState(t *testing.T) {
	// MVI A,0x2E / ADI 0x74 / JMP 0
	m, _ := run(t, []uint8{0x3E, 0x2E, 0xC6, 0x74, 0xC3, 0x00, 0x00})
	require.Equal(t, uint8(0xA2), m.CPU().A)

	// MVI A,0x9B / DAA / JMP 0
	m, _ = run(t, []uint8{0x3E, 0x9B, 0x27, 0xC3, 0x00, 0x00})
	require.Equal(t, uint8(0x01), m.CPU().A)
	require.NotZero(t, m.CPU().P&0x01, "DAA should carry")
}

func TestRunLimit(t *testing.T) {
	// JMP 0x0100 spins forever.
	m, err := Init(&Def{Program: []uint8{0xC3, 0x00, 0x01}})
	require.NoError(t, err)
	require.Error(t, m.Run(1000))
}

func TestInitValidation(t *testing.T) {
	_, err := Init(&Def{})
	require.Error(t, err, "empty program")

	_, err = Init(&Def{Program: make([]uint8, 0x10000)})
	require.Error(t, err, "oversized program")
}

// TestDiagnostics runs any CPU diagnostic binaries dropped under testdata/
// (TST8080.COM, 8080PRE.COM, CPUTEST.COM, 8080EXM.COM, cpudiag.bin).
// They aren't checked in so the test skips when none are present.
func TestDiagnostics(t *testing.T) {
	if testing.Short() {
		t.Skip("diagnostics take a while, skipping in short mode")
	}
	var files []string
	for _, glob := range []string{"*.COM", "*.com", "*.bin"} {
		f, err := filepath.Glob(filepath.Join(testDir, glob))
		require.NoError(t, err)
		files = append(files, f...)
	}
	if len(files) == 0 {
		t.Skipf("no diagnostic binaries under %s, skipping", testDir)
	}
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			program, err := os.ReadFile(f)
			require.NoError(t, err)
			var out bytes.Buffer
			m, err := Init(&Def{Program: program, Output: &out})
			require.NoError(t, err)
			require.NoError(t, m.Run(30_000_000_000))
			t.Logf("%s output:\n%s", f, out.String())
			for _, bad := range []string{"ERROR", "FAILED"} {
				require.False(t, strings.Contains(out.String(), bad), "diagnostic reported %s", bad)
			}
		})
	}
}
