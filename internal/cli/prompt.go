package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// stdinPrompter asks yes/no questions on the terminal. Empty input counts
// as yes, matching the (Y/n) convention.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *stdinPrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "? %s (Y/n) ", question)
	scanner := bufio.NewScanner(p.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "" || answer == "y" || answer == "yes", nil
}
