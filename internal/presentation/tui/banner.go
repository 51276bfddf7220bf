package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown on interactive startup.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Subtle gradient from indigo to pink, one shade per row.
	s1 := termenv.String(" __  __  ___   ___  ___   ___    ___   ___   ___  __  __ ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("|  \\/  ||_ _| / __|| _ \\ / _ \\  / __| / _ \\ / __||  \\/  |").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String("| |\\/| | | | | (__ |   /| (_) || (__ | (_) |\\__ \\| |\\/| |").Foreground(p.Color("#c084fc"))
	s4 := termenv.String("|_|  |_||___| \\___||_|_\\ \\___/  \\___| \\___/ |___/|_|  |_|").Foreground(p.Color("#e879f9"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println()
}
