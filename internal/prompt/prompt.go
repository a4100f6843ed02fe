// Package prompt implements the terminal questions asked while setting up a
// Plex session: picking a server or library from a numbered list and reading
// plex.tv credentials.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// ErrNoChoices is returned by Choose when there is nothing to pick from.
var ErrNoChoices = errors.New("no choices available")

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in     *bufio.Reader
	file   *os.File
	out    io.Writer
	secret func(fd int) ([]byte, error)
}

// New builds a prompter. When in is a terminal, passwords are read without
// echo.
func New(in io.Reader, out io.Writer) *Prompter {
	if out == nil {
		out = io.Discard
	}
	p := &Prompter{in: bufio.NewReader(in), out: out, secret: term.ReadPassword}
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		p.file = f
	}
	return p
}

// Stdio returns a prompter bound to the process's stdin and stdout.
func Stdio() *Prompter {
	return New(os.Stdin, os.Stdout)
}

// Choose lists labels with their index and returns the index the operator
// picks. A single label is chosen without asking. Invalid answers repeat the
// question; end of input is an error.
func (p *Prompter) Choose(message string, labels []string) (int, error) {
	switch len(labels) {
	case 0:
		return -1, ErrNoChoices
	case 1:
		return 0, nil
	}

	fmt.Fprintln(p.out)
	for i, label := range labels {
		fmt.Fprintf(p.out, "  %d: %s\n", i, label)
	}
	fmt.Fprintln(p.out)

	for {
		answer, err := p.ask(message + ": ")
		if err != nil {
			return -1, err
		}
		index, convErr := strconv.Atoi(answer)
		if convErr == nil && index >= 0 && index < len(labels) {
			return index, nil
		}
	}
}

// Credentials asks for a plex.tv username and password.
func (p *Prompter) Credentials() (string, string, error) {
	username, err := p.ask("Plex Username: ")
	if err != nil {
		return "", "", err
	}
	password, err := p.password("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (p *Prompter) ask(question string) (string, error) {
	line, err := p.readLine(question)
	return strings.TrimSpace(line), err
}

func (p *Prompter) readLine(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", io.ErrUnexpectedEOF)
		}
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *Prompter) password(question string) (string, error) {
	if p.file == nil {
		return p.readLine(question)
	}
	fmt.Fprint(p.out, question)
	secret, err := p.secret(int(p.file.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}
