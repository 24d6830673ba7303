package rt

import (
	"fmt"
	"os"
)

// Quiet suppresses the renderer's console reporting (progress glyphs,
// settings banner, stats tables). Errors still go to stderr.
var Quiet bool

// Logf prints formatted progress output unless Quiet is set.
func Logf(format string, args ...any) {
	if Quiet {
		return
	}
	fmt.Printf(format, args...)
}

// Logln prints a progress line unless Quiet is set.
func Logln(args ...any) {
	if Quiet {
		return
	}
	fmt.Println(args...)
}

// Errorf always reports to stderr, independent of Quiet.
func Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
