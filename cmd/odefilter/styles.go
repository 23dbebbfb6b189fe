package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ccff"))

	label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ff88")).
		Bold(true)

	muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	warn = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffaa00"))
)

func field(name, format string, args ...any) string {
	return label.Render(name+":") + " " + value.Render(fmt.Sprintf(format, args...))
}
