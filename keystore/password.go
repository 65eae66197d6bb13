package keystore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// PasswordProvider supplies the password for all keystores in one directory.
type PasswordProvider interface {
	Password(ctx context.Context, dir string) (string, error)
}

// StaticPasswordProvider returns a fixed password per directory, falling back
// to Default.
type StaticPasswordProvider struct {
	ByDir   map[string]string
	Default string
}

func (p StaticPasswordProvider) Password(_ context.Context, dir string) (string, error) {
	if pw, ok := p.ByDir[dir]; ok {
		return pw, nil
	}
	if p.Default == "" {
		return "", fmt.Errorf("no password for %s", dir)
	}
	return p.Default, nil
}

// FilePasswordProvider reads the password from FileName inside the keystore
// directory, or from Fallback when that file does not exist.
type FilePasswordProvider struct {
	FileName string
	Fallback string
}

func (p FilePasswordProvider) Password(_ context.Context, dir string) (string, error) {
	if p.FileName != "" {
		pw, err := readPasswordFile(filepath.Join(dir, p.FileName))
		if err == nil {
			return pw, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	if p.Fallback == "" {
		return "", fmt.Errorf("no password file for %s", dir)
	}
	return readPasswordFile(p.Fallback)
}

func readPasswordFile(path string) (string, error) {
	// #nosec G304 operator-supplied password file
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read password file: %w", err)
	}
	pw := strings.TrimRight(string(data), "\r\n")
	if pw == "" {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	return pw, nil
}

// TerminalPasswordProvider prompts for a hidden password on a terminal. The
// prompt gives up when the context is cancelled and restores the terminal.
type TerminalPasswordProvider struct {
	In  *os.File
	Out io.Writer

	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
	restore      func(fd int) (func() error, error)
}

func NewTerminalPasswordProvider() *TerminalPasswordProvider {
	return &TerminalPasswordProvider{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPasswordProvider) init() {
	if p.isTerminal == nil {
		p.isTerminal = term.IsTerminal
	}
	if p.readPassword == nil {
		p.readPassword = term.ReadPassword
	}
	if p.restore == nil {
		p.restore = func(fd int) (func() error, error) {
			state, err := term.GetState(fd)
			if err != nil {
				return nil, err
			}
			return func() error { return term.Restore(fd, state) }, nil
		}
	}
}

type passwordResult struct {
	pw  []byte
	err error
}

// Password returns the typed password byte for byte, without the newline.
func (p *TerminalPasswordProvider) Password(ctx context.Context, dir string) (string, error) {
	p.init()

	fd := int(p.In.Fd()) // #nosec G115 file descriptors fit in int
	if !p.isTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for the password of %s: stdin is not a terminal", dir)
	}

	restore, err := p.restore(fd)
	if err != nil {
		return "", fmt.Errorf("read terminal state: %w", err)
	}

	if _, err := fmt.Fprintf(p.Out, "Enter the password to decrypt validators private keys in %s: ", dir); err != nil {
		return "", err
	}

	done := make(chan passwordResult, 1)
	go func() {
		pw, err := p.readPassword(fd)
		done <- passwordResult{pw: pw, err: err}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.Out)
		if err := restore(); err != nil {
			return "", errors.Join(ctx.Err(), fmt.Errorf("restore terminal: %w", err))
		}
		return "", ctx.Err()
	case res := <-done:
		_, _ = fmt.Fprintln(p.Out)
		if res.err != nil {
			return "", fmt.Errorf("read password: %w", res.err)
		}
		return string(res.pw), nil
	}
}
