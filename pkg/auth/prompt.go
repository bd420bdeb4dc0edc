package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks for account details on a terminal. Secrets are read without
// echo when the input is a terminal.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

// NewPrompter creates a prompter on stdin and stdout
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	p := NewPrompterWith(os.Stdin, os.Stdout)
	p.fd = fd
	p.isTerm = term.IsTerminal(fd)
	return p
}

// NewPrompterWith creates a prompter reading plain lines from in
func NewPrompterWith(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// Line asks for a visible value
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	return p.readLine()
}

// Secret asks for a value without echoing it
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.isTerm {
		return p.readLine()
	}

	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Confirm asks a yes/no question; an empty answer picks def
func (p *Prompter) Confirm(label string, def bool) (bool, error) {
	answer, err := p.Line(label)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Account asks for a complete account. username is prompted when empty.
func (p *Prompter) Account(username string) (*Account, error) {
	var err error
	if username == "" {
		if username, err = p.Line("Instagram username: "); err != nil {
			return nil, err
		}
	}

	account := &Account{Username: username}
	if account.SessionID, err = p.Secret("sessionid cookie value: "); err != nil {
		return nil, err
	}
	if account.CSRFToken, err = p.Secret("csrftoken cookie value: "); err != nil {
		return nil, err
	}
	if account.UserAgent, err = p.Line("User agent (Enter for default): "); err != nil {
		return nil, err
	}

	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return account, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
