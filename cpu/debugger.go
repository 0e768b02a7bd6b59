package cpu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmchacon/8080/disassemble"
)

type model struct {
	cpu    *Chip
	prevPC uint16
	err    error
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (m model) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.cpu.PC
			if err := m.cpu.Step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// renderPage renders 16 bytes of memory as a line. The current PC is bracketed.
func (m model) renderPage(start uint16) string {
	s := fmt.Sprintf("%04X | ", start)
	for i := uint16(0); i < 16; i++ {
		b := m.cpu.ram.Read(start + i)
		if start+i == m.cpu.PC {
			s += fmt.Sprintf("[%02X] ", b)
		} else {
			s += fmt.Sprintf(" %02X  ", b)
		}
	}
	return s
}

func (m model) status() string {
	var flags string
	for _, f := range []uint8{P_SIGN, P_ZERO, 0x20, P_AUXCARRY, 0x08, P_PARITY, P_S1, P_CARRY} {
		if m.cpu.P&f != 0 {
			flags += "/ "
		} else {
			flags += "  "
		}
	}
	return fmt.Sprintf(`
PC: %04X (%04X)
SP: %04X
 A: %02X
BC: %02X%02X
DE: %02X%02X
HL: %02X%02X
S Z _ A _ P 1 C
`,
		m.cpu.PC, m.prevPC,
		m.cpu.SP,
		m.cpu.A,
		m.cpu.B, m.cpu.C,
		m.cpu.D, m.cpu.E,
		m.cpu.H, m.cpu.L,
	) + flags
}

func (m model) pageTable() string {
	header := "addr | "
	for b := 0; b < 16; b++ {
		header += fmt.Sprintf("  %01X  ", b)
	}

	pages := []string{header}

	// A window around the PC plus the top of the stack.
	pc := m.cpu.PC &^ 0x000F
	offsets := []uint16{
		pc, pc + 16, pc + 32, pc + 48,
		m.cpu.SP &^ 0x000F,
	}
	for _, o := range offsets {
		pages = append(pages, m.renderPage(o))
	}
	return strings.Join(pages, "\n")
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	next, _ := disassemble.Step(m.cpu.PC, m.cpu.ram)
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.pageTable(),
			m.status(),
		),
		"",
		fmt.Sprintf("next: %s    cycles: %d    int: %t", next, m.cpu.Cycles, m.cpu.IntEnable),
		"(space/j step, q quit)",
	)
}

// Debug starts an interactive terminal monitor on the chip: a memory window
// around the PC and stack, the register/flag state and the next instruction,
// single stepping on space/j and quitting on q.
func (p *Chip) Debug() error {
	m, err := tea.NewProgram(model{cpu: p}).Run()
	if err != nil {
		return err
	}
	if fm := m.(model); fm.err != nil {
		return fm.err
	}
	return nil
}
