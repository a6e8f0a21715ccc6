package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner with the client version.
func PrintBanner(w io.Writer, profile termenv.Profile, version string) {
	lines := []struct {
		text, color string
	}{
		{"  _____                          ", "#facc15"},
		{" |_   _|__  ___  ___  _ __ ___   ", "#fbbf24"},
		{"   | |/ _ \\/ __|/ _ \\| '__/ _ \\  ", "#f59e0b"},
		{"   | |  __/\\__ \\ (_) | | | (_) | ", "#d97706"},
		{"   |_|\\___||___/\\___/|_|  \\___/  ", "#b45309"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, profile.String(l.text).Foreground(profile.Color(l.color)))
	}
	fmt.Fprintln(w, profile.String("   la aventura del tesoro perdido  "+version).Faint())
	fmt.Fprintln(w)
}
