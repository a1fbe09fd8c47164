package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Prompter reads interactive answers. Commands fall back to it when a
// required flag is missing.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Stdio is the prompter for the terminal.
func Stdio() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

// Line asks for one line of input. def is returned when the user enters
// nothing or input cannot be read.
func (p *Prompter) Line(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	input, err := p.in.ReadString('\n')
	if err != nil && input == "" {
		if err != io.EOF {
			log.Warn().Err(err).Msg("Failed to read input, using default")
		}
		return def
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *Prompter) Confirm(question string) bool {
	answer := strings.ToLower(p.Line(question+" (y/N)", ""))
	return answer == "y" || answer == "yes"
}
