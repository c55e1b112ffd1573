package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the storyloom banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct {
		text  string
		color string
	}{
		{"      _                   _                       ", "#818cf8"},
		{"  ___| |_ ___  _ __ _   _| | ___   ___  _ __ ___  ", "#a78bfa"},
		{" / __| __/ _ \\| '__| | | | |/ _ \\ / _ \\| '_ ` _ \\ ", "#c084fc"},
		{" \\__ \\ || (_) | |  | |_| | | (_) | (_) | | | | | |", "#e879f9"},
		{" |___/\\__\\___/|_|   \\__, |_|\\___/ \\___/|_| |_| |_|", "#f472b6"},
		{"                    |___/                         ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
