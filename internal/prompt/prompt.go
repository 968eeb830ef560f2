// Package prompt asks the user questions on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config holds configuration for prompting
type Config struct {
	// NonInteractive answers every question with Assume without reading input.
	NonInteractive bool
	Assume         bool
	In             io.Reader
	Out            io.Writer
}

// MenuItem is one numbered menu entry.
type MenuItem struct {
	Label       string
	Description string
}

type Prompter struct {
	cfg    Config
	reader *bufio.Reader
	out    io.Writer
}

func New(cfg Config) *Prompter {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Prompter{cfg: cfg, reader: bufio.NewReader(cfg.In), out: cfg.Out}
}

// WaitForKey waits for user to press Enter
func (p *Prompter) WaitForKey(msg string) {
	if p.cfg.NonInteractive {
		return
	}
	fmt.Fprint(p.out, msg)
	p.reader.ReadBytes('\n')
}

// Confirm asks a yes/no question. Unreadable input counts as no.
func (p *Prompter) Confirm(question string) bool {
	if p.cfg.NonInteractive {
		return p.cfg.Assume
	}

	fmt.Fprintf(p.out, "%s (y/n): ", question)
	for {
		response, err := p.reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(response)) {
		case "y", "yes", "s", "si", "sí":
			return true
		case "n", "no":
			return false
		}
		if err != nil {
			return false
		}
		fmt.Fprint(p.out, "Please answer y or n: ")
	}
}

// ProceedWithMissing lists files that could not be downloaded and asks
// whether to apply the rest anyway.
func (p *Prompter) ProceedWithMissing(missing []string) bool {
	fmt.Fprintln(p.out, "\nThe following required files could not be downloaded:")
	for _, m := range missing {
		fmt.Fprintf(p.out, "  - %s\n", m)
	}
	fmt.Fprintln(p.out)
	return p.Confirm("Install the remaining files anyway?")
}

// Menu shows a numbered menu and returns the chosen index, or -1 when the
// user enters 0 or input ends. In non-interactive mode def is returned.
func (p *Prompter) Menu(title string, items []MenuItem, def int) int {
	if p.cfg.NonInteractive || len(items) == 0 {
		return def
	}

	fmt.Fprintf(p.out, "\n%s\n\n", title)
	for i, item := range items {
		marker := ""
		if i == def {
			marker = " (default)"
		}
		fmt.Fprintf(p.out, "  %d. %s%s\n", i+1, item.Label, marker)
		if item.Description != "" {
			fmt.Fprintf(p.out, "     %s\n", item.Description)
		}
	}
	fmt.Fprintf(p.out, "\nEnter choice (1-%d), Enter for default, or 0 to cancel: ", len(items))

	for {
		response, err := p.reader.ReadString('\n')
		response = strings.TrimSpace(response)
		if response == "" && err == nil {
			return def
		}
		if response == "0" {
			return -1
		}
		if choice, convErr := strconv.Atoi(response); convErr == nil && choice >= 1 && choice <= len(items) {
			return choice - 1
		}
		if err != nil {
			fmt.Fprintln(p.out, "\nError reading input, cancelling.")
			return -1
		}
		fmt.Fprintf(p.out, "Invalid choice. Please enter 0-%d: ", len(items))
	}
}

// Line asks for free text, returning def for an empty answer.
func (p *Prompter) Line(question, def string) string {
	if p.cfg.NonInteractive {
		return def
	}
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	response, _ := p.reader.ReadString('\n')
	if response = strings.TrimSpace(response); response != "" {
		return response
	}
	return def
}
