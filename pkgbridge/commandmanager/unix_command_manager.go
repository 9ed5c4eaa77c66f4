package commandmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/steelcutops/pkgbridge/logger"
)

type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

// RealSSHDialer dials with golang.org/x/crypto/ssh.
type RealSSHDialer struct{}

func (RealSSHDialer) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	config.Timeout = timeout
	return ssh.Dial(network, addr, config)
}

// interactiveWaitDelay bounds how long an exited interactive command waits for its stdin copy.
const interactiveWaitDelay = 500 * time.Millisecond

type UnixCommandManager struct {
	Hostname  string
	SSHClient SSHDialer
	Prompt    ElevationPrompt
	Log       logger.Logger
	Credentials

	// Terminal streams for Interactive commands. Nil means the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	sudo, password, canceled := u.elevation(config)
	if canceled {
		return elevationCanceled(config), nil
	}

	name, args := config.Command, config.Args
	if sudo {
		name, args = "sudo", sudoArgs(config, password != "")
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdin = u.stdin(config, sudo, password)
	cmd.Stdout, cmd.Stderr = u.outputs(config, &stdout, &stderr)
	if config.Interactive {
		cmd.WaitDelay = interactiveWaitDelay
	}

	start := time.Now()
	err := cmd.Run()

	result := CommandResult{
		Command:   strings.TrimSpace(name + " " + strings.Join(args, " ")),
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrWaitDelay):
		u.log().Debug("Interactive command exited before stdin was drained", "command", result.Command)
	default:
		return result, fmt.Errorf("running %s: %w", config.Command, err)
	}

	return result, sudoError(result)
}

func (u *UnixCommandManager) getSSHConfig() (*ssh.ClientConfig, error) {
	var authMethod ssh.AuthMethod

	if u.Password != "" {
		u.log().Debug("Using password authentication", "hostname", u.Hostname)
		authMethod = ssh.Password(u.Password)
	} else {
		u.log().Debug("Using public key authentication", "hostname", u.Hostname)
		var keyManager SSHKeyManager
		if u.KeyPassphrase != "" {
			keyManager = FileSSHKeyManager{}
		} else {
			keyManager = AgentSSHKeyManager{}
		}

		keys, err := keyManager.ReadPrivateKeys(u.KeyPassphrase)
		if err != nil {
			return nil, err
		}

		authMethod = ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			return keys, nil
		})
	}

	return &ssh.ClientConfig{
		User:            u.User,
		Auth:            []ssh.AuthMethod{authMethod},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}, nil
}

func (u *UnixCommandManager) RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error) {
	u.log().Debug("Executing remote command", "hostname", u.Hostname, "command", config.Command)

	if u.SSHClient == nil {
		return CommandResult{}, errors.New("SSHClient is not initialized")
	}

	sudo, password, canceled := u.elevation(config)
	if canceled {
		return elevationCanceled(config), nil
	}

	sshConfig, err := u.getSSHConfig()
	if err != nil {
		return CommandResult{}, err
	}

	dialTimeout := 15 * time.Minute
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	}

	client, err := u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
	if err != nil {
		return CommandResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{}, err
	}
	defer session.Close()

	if config.Interactive {
		if err := requestPty(session); err != nil {
			return CommandResult{}, fmt.Errorf("requesting a terminal on %s: %w", u.Hostname, err)
		}
	}

	cmdStr := remoteCommand(config, sudo, password != "")

	var stdout, stderr strings.Builder
	session.Stdin = u.stdin(config, sudo, password)
	session.Stdout, session.Stderr = u.outputs(config, &stdout, &stderr)

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmdStr)
	}()

	select {
	case err := <-done:
		result := CommandResult{
			Command:   cmdStr,
			STDOUT:    stdout.String(),
			STDERR:    stderr.String(),
			Duration:  time.Since(start),
			Timestamp: start,
		}

		var exitErr *ssh.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitStatus()
		default:
			u.log().Error("Failed to execute command over SSH", "command", cmdStr, "error", err)
			return result, err
		}
		return result, sudoError(result)

	case <-ctx.Done():
		u.log().Error("Command over SSH timed out", "command", cmdStr, "hostname", u.Hostname)
		return CommandResult{}, ctx.Err()
	}
}

func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.isLocal() {
		u.log().Debug("Detected local so running local command", "hostname", u.Hostname, "command", config.Command)
		return u.RunLocal(ctx, config)
	}

	u.log().Debug("Detected remote command so running remote command", "hostname", u.Hostname, "command", config.Command)
	return u.RunRemote(ctx, config)
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

// elevation decides whether config runs through sudo and with which password. canceled is
// true when the user dismissed the password prompt.
func (u *UnixCommandManager) elevation(config CommandConfig) (sudo bool, password string, canceled bool) {
	if !config.Sudo {
		return false, "", false
	}
	if u.isLocal() && os.Geteuid() == 0 {
		return false, "", false
	}
	if u.SudoPassword != "" || u.Prompt == nil {
		return true, u.SudoPassword, false
	}

	password, err := u.Prompt.SudoPassword(u.Hostname, config.Command)
	if errors.Is(err, ErrPromptUnavailable) {
		u.log().Debug("No elevation prompt available, running sudo non-interactively", "hostname", u.Hostname)
		return true, "", false
	}
	if err != nil || password == "" {
		u.log().Warn("Elevation prompt dismissed", "hostname", u.Hostname, "command", config.Command, "error", err)
		return true, "", true
	}
	return true, password, false
}

// stdin feeds the sudo password, if any, followed by the terminal for interactive commands.
func (u *UnixCommandManager) stdin(config CommandConfig, sudo bool, password string) io.Reader {
	var terminal io.Reader
	if config.Interactive {
		terminal = u.Stdin
		if terminal == nil {
			terminal = os.Stdin
		}
	}

	if !sudo || password == "" {
		return terminal
	}
	secret := strings.NewReader(password + "\n")
	if terminal == nil {
		return secret
	}
	return io.MultiReader(secret, terminal)
}

// outputs captures into stdout and stderr, and also shows interactive output to the user.
func (u *UnixCommandManager) outputs(config CommandConfig, stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if !config.Interactive {
		return stdout, stderr
	}

	termOut, termErr := u.Stdout, u.Stderr
	if termOut == nil {
		termOut = os.Stdout
	}
	if termErr == nil {
		termErr = os.Stderr
	}
	return io.MultiWriter(stdout, termOut), io.MultiWriter(stderr, termErr)
}

// requestPty gives a remote interactive command a terminal. Remote echo is off so a sudo
// password written to stdin is never shown.
func requestPty(session *ssh.Session) error {
	width, height := 80, 40
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return session.RequestPty("xterm", height, width, ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	})
}

func (u *UnixCommandManager) log() logger.Logger {
	if u.Log == nil {
		return logger.Discard()
	}
	return u.Log
}

// sudoArgs builds the sudo argv. Without a password sudo must not block on a prompt.
func sudoArgs(config CommandConfig, withPassword bool) []string {
	args := []string{"-n"}
	if withPassword {
		args = []string{"-S", "-p", ""}
	}
	if len(config.Env) > 0 {
		args = append(args, "env")
		args = append(args, config.Env...)
	}
	args = append(args, config.Command)
	return append(args, config.Args...)
}

func remoteCommand(config CommandConfig, sudo, withPassword bool) string {
	var argv []string
	switch {
	case sudo:
		argv = append([]string{"sudo"}, sudoArgs(config, withPassword)...)
	case len(config.Env) > 0:
		argv = append(append([]string{"env"}, config.Env...), config.Command)
		argv = append(argv, config.Args...)
	default:
		argv = append([]string{config.Command}, config.Args...)
	}

	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:@+,%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func sudoError(result CommandResult) error {
	output := result.STDOUT + result.STDERR
	if strings.Contains(output, "incorrect password") {
		return errors.New("sudo: incorrect password provided")
	}
	if strings.Contains(output, "is not in the sudoers file") {
		return errors.New("sudo: user is not in the sudoers file")
	}
	return nil
}
