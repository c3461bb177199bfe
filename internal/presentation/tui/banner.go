package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"   ____ _            _    _                         ",
	"  / ___| | ___   ___| | _| |_ _____      _____ _ __ ",
	" | |   | |/ _ \\ / __| |/ / __/ _ \\ \\ /\\ / / _ \\ '__|",
	" | |___| | (_) | (__|   <| || (_) \\ V  V /  __/ |   ",
	"  \\____|_|\\___/ \\___|_|\\_\\\\__\\___/ \\_/\\_/ \\___|_|   ",
}

var bannerColors = []string{"#fca5a5", "#f87171", "#ef4444", "#dc2626", "#991b1b"}

// PrintBanner writes the title banner to w, shaded from pale to blood red.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
