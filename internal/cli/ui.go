package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives every status line. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Palette
// =============================================================================

// ANSI 256 colors. Machines and counts use the accent; supply problems use
// amber (short) and red (failed).
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorShort  = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorCmd    = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// StyleHighlight for machine names and solver states.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorOK)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorShort)

	styleFail    = lipgloss.NewStyle().Foreground(colorRed)
	styleLabel   = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// Line markers.
const (
	markOK    = "✓"
	markFail  = "✗"
	markWarn  = "!"
	markInfo  = "›"
	markArrow = "→"
	markDot   = " · "
)

// =============================================================================
// Status lines
// =============================================================================

func printLine(mark lipgloss.Style, icon, msg string) {
	fmt.Fprintln(stdout, mark.Render(icon)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(StyleSuccess, markOK, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(styleFail, markFail, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(StyleWarning, markWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(lipgloss.NewStyle().Foreground(colorGray), markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written output file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(markArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printStats summarizes a snapshot: "4 machines · 3 connections · cached".
func printStats(machines, connections int, cached bool) {
	parts := []string{
		plural(machines, "machine"),
		plural(connections, "connection"),
	}
	state := StyleDim.Render("fresh")
	if cached {
		state = StyleSuccess.Render("cached")
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	fmt.Fprintln(stdout, "  "+strings.Join(append(parts, state), StyleDim.Render(markDot)))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }
