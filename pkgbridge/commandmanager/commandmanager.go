package commandmanager

import (
	"context"
	"strings"
	"time"
)

// CommandConfig describes one process to start. An Interactive command is connected to the
// user's terminal while its output is still captured.
type CommandConfig struct {
	Command     string
	Args        []string
	Sudo        bool
	Env         []string
	Interactive bool
}

// CommandResult encapsulates the results from a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// Lines returns stdout followed by stderr, one entry per line, without trailing blank lines.
func (r CommandResult) Lines() []string {
	var lines []string
	for _, stream := range []string{r.STDOUT, r.STDERR} {
		stream = strings.TrimRight(stream, "\r\n")
		if stream == "" {
			continue
		}
		for _, line := range strings.Split(stream, "\n") {
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CommandManager provides methods to execute commands, both locally and remotely.
// A non-zero exit code is reported in the result, not as an error.
type CommandManager interface {
	// Run executes on the local system or over SSH depending on the target host.
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)

	// RunLocal executes a command on the local system.
	RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error)

	// RunRemote executes a command on a remote system via SSH.
	RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error)
}

// Credentials used for SSH and sudo.
type Credentials struct {
	User          string
	Password      string
	KeyPassphrase string
	SudoPassword  string
}
