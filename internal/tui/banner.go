package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for the support assistant.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("   ____    _    ____        _   ").Foreground(p.Color("#38bdf8"))
	s2 := termenv.String("  / __ \\  / \\  | __ )  ___ | |_ ").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String(" | |  | |/ _ \\ |  _ \\ / _ \\| __|").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String(" | |__| / ___ \\| |_) | (_) | |_ ").Foreground(p.Color("#34d399"))
	s5 := termenv.String("  \\___\\_\\_/  \\_\\____/ \\___/ \\__|").Foreground(p.Color("#4ade80"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
