package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"coolromdl/pkg/errors"
	"coolromdl/pkg/ui"
)

// Prompter reads interactive answers line by line. Reads give up as soon
// as the context is cancelled, so an interrupt is never stuck on stdin.
type Prompter struct {
	out     io.Writer
	lines   chan string
	err     error
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewPrompter starts reading lines from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{
		out:     out,
		lines:   make(chan string),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go func() {
		defer close(p.stopped)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case p.lines <- scanner.Text():
			case <-p.done:
				return
			}
		}
		p.err = scanner.Err()
		close(p.lines)
	}()
	return p
}

// Close releases the reader goroutine once no more answers are wanted.
// A read already blocked on in returns when in does.
func (p *Prompter) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *Prompter) readLine(ctx context.Context, label string) (string, error) {
	fmt.Fprintf(p.out, "\n%s\n> ", label)
	select {
	case <-ctx.Done():
		return "", errors.Wrap(errors.ErrorTypeCancelled, ctx.Err(), "input interrupted")
	case line, ok := <-p.lines:
		if !ok {
			if p.err != nil {
				return "", fmt.Errorf("failed to read input: %w", p.err)
			}
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// ReadIndex asks until it gets an integer in [0, n)
func (p *Prompter) ReadIndex(ctx context.Context, label string, n int) (int, error) {
	for {
		line, err := p.readLine(ctx, label)
		if err != nil {
			return 0, err
		}
		idx, err := strconv.Atoi(line)
		if err != nil || idx < 0 || idx >= n {
			ui.PrintWarning(fmt.Sprintf("[-] Enter a number between 0 and %d", n-1))
			continue
		}
		return idx, nil
	}
}

// ReadLetter asks until it gets a single letter, returned lower-cased
func (p *Prompter) ReadLetter(ctx context.Context, label string) (string, error) {
	for {
		line, err := p.readLine(ctx, label)
		if err != nil {
			return "", err
		}
		if letter, ok := normalizeLetter(line); ok {
			return letter, nil
		}
		ui.PrintWarning("[-] Enter a single letter")
	}
}

// ReadIndices asks for space separated indices in [0, n). Invalid entries
// are reported and dropped; an answer with no valid index is asked again.
func (p *Prompter) ReadIndices(ctx context.Context, label string, n int) ([]int, error) {
	for {
		line, err := p.readLine(ctx, label)
		if err != nil {
			return nil, err
		}
		indices, err := parseIndices(strings.Fields(line))
		if err != nil {
			ui.PrintWarning("[-] " + err.Error())
			continue
		}
		if valid := filterIndices(indices, n); len(valid) > 0 {
			return valid, nil
		}
	}
}

// normalizeLetter accepts exactly one ASCII letter
func normalizeLetter(s string) (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	c := s[0] | 0x20
	if c < 'a' || c > 'z' {
		return "", false
	}
	return string(c), true
}

// parseIndices parses integer tokens, accepting comma separated lists
func parseIndices(tokens []string) ([]int, error) {
	var out []int
	for _, token := range tokens {
		for _, part := range strings.Split(token, ",") {
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%q is not an item number", part)
			}
			out = append(out, n)
		}
	}
	return out, nil
}

// filterIndices keeps indices within [0, n) in their given order
func filterIndices(indices []int, n int) []int {
	valid := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			ui.PrintWarning(fmt.Sprintf("[-] Ignoring invalid item index: %d", idx))
			continue
		}
		valid = append(valid, idx)
	}
	return valid
}
