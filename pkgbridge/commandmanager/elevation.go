package commandmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
)

var (
	// ErrPromptCanceled means the user dismissed the password prompt.
	ErrPromptCanceled = errors.New("elevation prompt canceled")
	// ErrPromptUnavailable means there is nobody to ask, for example when stdin is not a
	// terminal. The command then runs with sudo -n.
	ErrPromptUnavailable = errors.New("elevation prompt unavailable")
)

// ElevationPrompt asks for the sudo password of a host.
type ElevationPrompt interface {
	SudoPassword(hostname, command string) (string, error)
}

// TerminalPrompt reads the sudo password from a terminal without echo. Prompts for
// concurrent hosts are asked one at a time.
type TerminalPrompt struct {
	Out io.Writer
	FD  int

	mu sync.Mutex
}

func NewTerminalPrompt() *TerminalPrompt {
	return &TerminalPrompt{Out: os.Stderr, FD: int(os.Stdin.Fd())}
}

func (p *TerminalPrompt) SudoPassword(hostname, command string) (string, error) {
	if !term.IsTerminal(p.FD) {
		return "", ErrPromptUnavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.Out, "[sudo] password required to run %s on %s: ", command, hostname)
	password, err := term.ReadPassword(p.FD)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("reading sudo password: %w", err)
	}
	return string(password), nil
}

// elevationCanceled is the result reported instead of running a command whose sudo prompt
// was dismissed. Package manager backends read it as operation.Canceled.
func elevationCanceled(config CommandConfig) CommandResult {
	return CommandResult{
		Command:  strings.TrimSpace(config.Command + " " + strings.Join(config.Args, " ")),
		STDERR:   operation.ElevationCanceledMessage + "\n",
		ExitCode: operation.ElevationCanceledExitCode,
	}
}
