package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	xterm "github.com/charmbracelet/x/term"
	"golang.org/x/term"
)

type fileDescriptor interface {
	Fd() uintptr
}

var isTerminalFunc = term.IsTerminal

var getSizeFunc = xterm.GetSize

// SetIsTerminalFuncForTesting swaps terminal detection for tests in other
// packages and returns the restore function.
func SetIsTerminalFuncForTesting(fn func(int) bool) func() {
	previous := isTerminalFunc
	isTerminalFunc = fn
	return func() {
		isTerminalFunc = previous
	}
}

// ShouldUseTUI is true when both ends are terminals and quiet mode is off.
func ShouldUseTUI(quiet bool, in io.Reader, out io.Writer) bool {
	if quiet {
		return false
	}
	return IsTerminalReader(in) && IsTerminalWriter(out)
}

func IsTerminalReader(reader io.Reader) bool {
	return isTerminal(reader)
}

func IsTerminalWriter(writer io.Writer) bool {
	return isTerminal(writer)
}

func isTerminal(stream any) bool {
	withFd, ok := stream.(fileDescriptor)
	if !ok {
		return false
	}
	return isTerminalFunc(int(withFd.Fd()))
}

// TerminalWidth reports the column count of out, or fallback when out is not
// a sized terminal.
func TerminalWidth(out io.Writer, fallback int) int {
	withFd, ok := out.(fileDescriptor)
	if !ok {
		return fallback
	}
	width, _, err := getSizeFunc(withFd.Fd())
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// ProgramOptions wires the command's streams into a Bubble Tea program. The
// renderer is dropped when either stream is not a terminal.
func ProgramOptions(in io.Reader, out io.Writer) []tea.ProgramOption {
	options := []tea.ProgramOption{
		tea.WithInput(in),
		tea.WithOutput(out),
	}

	if !IsTerminalReader(in) || !IsTerminalWriter(out) {
		options = append(options, tea.WithoutRenderer())
	}

	return options
}

// RunProgram runs model to completion with the command's streams.
func RunProgram(model tea.Model, in io.Reader, out io.Writer, extra ...tea.ProgramOption) (tea.Model, error) {
	options := append(ProgramOptions(in, out), extra...)
	return tea.NewProgram(model, options...).Run()
}
