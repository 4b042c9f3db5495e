package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ussdpilot banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Green to teal, the colours of the operator's menu.
	lines := []struct {
		text  string
		color string
	}{
		{"  _   _  ___ ___ ___      _ _     _   ", "#4ade80"},
		{" | | | |/ __/ __|   \\ _ _(_) |___| |_ ", "#34d399"},
		{" | |_| |\\__ \\__ \\ |) | '_ \\ | / _ \\  _|", "#2dd4bf"},
		{"  \\___/ |___/___/___/| .__/_|_\\___/\\__|", "#22d3ee"},
		{"                     |_|               ", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  version "+version).Faint())
	fmt.Fprintln(w)
}
