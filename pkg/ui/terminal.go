package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Banner is printed at the top of interactive commands
const Banner = `
  ╭──────────────────────────────────────╮
  │  igcomments · comment collector      │
  ╰──────────────────────────────────────╯
`

var (
	cyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	yellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	redStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	magentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Color functions for terminal output
var (
	Cyan    = cyanStyle.Render
	Yellow  = yellowStyle.Render
	Red     = redStyle.Render
	Green   = greenStyle.Render
	Magenta = magentaStyle.Render
	Dim     = dimStyle.Render
)

var (
	mu     sync.RWMutex
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
	quiet  bool
)

// SetOutput redirects normal and error output
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = stdout
	errOut = stderr
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quiet
}

func writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	if quiet {
		return io.Discard
	}
	return out
}

func errWriter() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return errOut
}

// PrintBanner prints the banner
func PrintBanner() {
	fmt.Fprint(writer(), Cyan(Banner))
}

// PrintError prints an error message in red. Errors are shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(errWriter(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(errWriter(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(writer(), Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(writer(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(writer(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(writer(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(writer(), Magenta(msg))
}

// PrintPass prints the outcome of one collection pass
func PrintPass(pass, maxPasses, fetched, added, total int) {
	fmt.Fprintf(writer(), "%s %s fetched %d, %s, total %d\n",
		Dim(fmt.Sprintf("[%d/%d]", pass, maxPasses)),
		Cyan("pass"),
		fetched,
		Green(fmt.Sprintf("+%d new", added)),
		total,
	)
}
