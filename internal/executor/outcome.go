package executor

import "strings"

// Outcome is what a single forge invocation produced.
type Outcome struct {
	Chain    string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (o Outcome) Success() bool {
	return o.ExitCode == 0
}

// Failed reports a non-zero exit or, when marker is set, the marker appearing
// in either stream.
func (o Outcome) Failed(marker string) bool {
	if !o.Success() {
		return true
	}
	if marker == "" {
		return false
	}
	return strings.Contains(o.Stdout, marker) || strings.Contains(o.Stderr, marker)
}

// Output joins both streams for text extraction.
func (o Outcome) Output() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	return o.Stdout + "\n" + o.Stderr
}
