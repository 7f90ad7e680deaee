// Package passphrase resolves keystore passphrases for the command line tools.
package passphrase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Source resolves the passphrase of one keystore. The environment variable
// wins; otherwise the operator is prompted on the terminal. The first
// successful value is cached.
type Source struct {
	envVar  string
	label   string
	confirm bool

	lookup func(string) (string, bool)
	prompt func(label string) (string, error)

	once  sync.Once
	value string
	err   error
}

// Option customises a Source.
type Option func(*Source)

// WithConfirmation asks for the passphrase twice when prompting. Used when a
// new keystore is created.
func WithConfirmation() Option {
	return func(s *Source) { s.confirm = true }
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(s *Source) { s.lookup = lookup }
}

// WithPrompt replaces the terminal prompt.
func WithPrompt(prompt func(label string) (string, error)) Option {
	return func(s *Source) { s.prompt = prompt }
}

// NewSource returns a source that checks envVar before prompting for the
// passphrase of the keystore called label.
func NewSource(envVar, label string, opts ...Option) *Source {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "signer"
	}
	s := &Source{
		envVar: strings.TrimSpace(envVar),
		label:  label,
		lookup: os.LookupEnv,
		prompt: terminalPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached passphrase or resolves it on first use. Whitespace
// only passphrases are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() { s.value, s.err = s.resolve() })
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := s.lookup(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}

	first, err := s.prompt(s.label)
	if err != nil {
		if errors.Is(err, errNoTerminal) && s.envVar != "" {
			return "", fmt.Errorf("%s keystore passphrase required; set %s or run interactively", s.label, s.envVar)
		}
		return "", err
	}
	if strings.TrimSpace(first) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	if s.confirm {
		second, err := s.prompt(s.label + " (again)")
		if err != nil {
			return "", err
		}
		if second != first {
			return "", errors.New("passphrases do not match")
		}
	}
	return first, nil
}

var errNoTerminal = errors.New("no terminal available")

func terminalPrompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%s keystore passphrase required: %w", label, errNoTerminal)
	}
	return readPassword(os.Stderr, fd, label)
}

func readPassword(w io.Writer, fd int, label string) (string, error) {
	fmt.Fprintf(w, "Enter %s keystore passphrase: ", label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(raw), nil
}
