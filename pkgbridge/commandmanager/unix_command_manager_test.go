package commandmanager

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
)

type MockSSHClient struct {
	dialError error
}

func (m *MockSSHClient) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	return nil, m.dialError
}

type fakePrompt struct {
	password string
	err      error
	asked    int
}

func (p *fakePrompt) SudoPassword(hostname, command string) (string, error) {
	p.asked++
	return p.password, p.err
}

func TestRunLocal(t *testing.T) {
	manager := UnixCommandManager{Hostname: "localhost"}

	result, err := manager.RunLocal(context.Background(), CommandConfig{
		Command: "echo",
		Args:    []string{"hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"hello"}, result.Lines())
}

func TestRunLocalNonZeroExitIsNotAnError(t *testing.T) {
	manager := UnixCommandManager{Hostname: "localhost"}

	result, err := manager.RunLocal(context.Background(), CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "echo broken >&2; exit 3"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, []string{"broken"}, result.Lines())
}

func TestRunLocalMissingBinary(t *testing.T) {
	manager := UnixCommandManager{Hostname: "localhost"}

	_, err := manager.RunLocal(context.Background(), CommandConfig{Command: "definitely-not-a-real-binary-xyz"})
	assert.Error(t, err)
}

func TestRunRemoteElevationDismissed(t *testing.T) {
	prompt := &fakePrompt{err: ErrPromptCanceled}
	manager := UnixCommandManager{Hostname: "remote.example", Prompt: prompt}

	result, err := manager.RunRemote(context.Background(), CommandConfig{
		Command: "apt-get",
		Args:    []string{"install", "-y", "curl"},
		Sudo:    true,
	})

	assert.Error(t, err, "no SSH client configured")
	assert.Equal(t, 0, prompt.asked)
	assert.Equal(t, CommandResult{}, result)

	manager.SSHClient = &MockSSHClient{}
	result, err = manager.RunRemote(context.Background(), CommandConfig{
		Command: "apt-get",
		Args:    []string{"install", "-y", "curl"},
		Sudo:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, prompt.asked)
	assert.Equal(t, operation.ElevationCanceledExitCode, result.ExitCode)
	assert.Equal(t, []string{operation.ElevationCanceledMessage}, result.Lines())
	assert.True(t, operation.IsElevationCanceled(result.Lines(), result.ExitCode))
}

func TestElevationPromptUnavailableFallsBackToNonInteractiveSudo(t *testing.T) {
	prompt := &fakePrompt{err: ErrPromptUnavailable}
	manager := UnixCommandManager{Hostname: "remote.example", Prompt: prompt}

	sudo, password, canceled := manager.elevation(CommandConfig{Command: "dnf", Sudo: true})
	assert.True(t, sudo)
	assert.Equal(t, "", password)
	assert.False(t, canceled)
	assert.Equal(t, 1, prompt.asked)

	cmd := remoteCommand(CommandConfig{Command: "dnf", Args: []string{"install", "-y", "curl"}, Sudo: true}, sudo, password != "")
	assert.Equal(t, "sudo -n dnf install -y curl", cmd)
}

func TestTerminalPromptWithoutTerminalIsUnavailable(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })

	var out bytes.Buffer
	prompt := &TerminalPrompt{Out: &out, FD: int(file.Fd())}

	_, err = prompt.SudoPassword("web-1", "apt-get")
	assert.ErrorIs(t, err, ErrPromptUnavailable)
	assert.NotErrorIs(t, err, ErrPromptCanceled)
	assert.Empty(t, out.String())
}

func TestRunLocalInteractiveUsesTerminal(t *testing.T) {
	var stdout bytes.Buffer
	manager := UnixCommandManager{
		Hostname: "localhost",
		Stdin:    strings.NewReader("yes\n"),
		Stdout:   &stdout,
		Stderr:   &bytes.Buffer{},
	}

	result, err := manager.RunLocal(context.Background(), CommandConfig{
		Command:     "sh",
		Args:        []string{"-c", "read answer; echo got $answer"},
		Interactive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, []string{"got yes"}, result.Lines())
	assert.Equal(t, "got yes\n", stdout.String())
}

func TestRunLocalBatchIgnoresTerminal(t *testing.T) {
	var stdout bytes.Buffer
	manager := UnixCommandManager{
		Hostname: "localhost",
		Stdin:    strings.NewReader("yes\n"),
		Stdout:   &stdout,
	}

	result, err := manager.RunLocal(context.Background(), CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "read answer; echo got:$answer"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"got:"}, result.Lines())
	assert.Empty(t, stdout.String())
}

func TestStdinSendsPasswordBeforeTerminal(t *testing.T) {
	manager := UnixCommandManager{Stdin: strings.NewReader("y\n")}

	assert.Nil(t, manager.stdin(CommandConfig{}, false, ""))

	in := manager.stdin(CommandConfig{Interactive: true}, true, "secret")
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "secret\ny\n", string(data))
}

func TestElevationEmptyPasswordCountsAsCanceled(t *testing.T) {
	manager := UnixCommandManager{Hostname: "remote.example", Prompt: &fakePrompt{password: ""}}

	sudo, _, canceled := manager.elevation(CommandConfig{Command: "dnf", Sudo: true})
	assert.True(t, sudo)
	assert.True(t, canceled)
}

func TestElevationKnownPasswordSkipsPrompt(t *testing.T) {
	prompt := &fakePrompt{}
	manager := UnixCommandManager{
		Hostname:    "remote.example",
		Prompt:      prompt,
		Credentials: Credentials{SudoPassword: "secret"},
	}

	sudo, password, canceled := manager.elevation(CommandConfig{Command: "dnf", Sudo: true})
	assert.True(t, sudo)
	assert.Equal(t, "secret", password)
	assert.False(t, canceled)
	assert.Equal(t, 0, prompt.asked)
}

func TestIsLocal(t *testing.T) {
	manager := UnixCommandManager{
		Hostname: "localhost",
	}

	if !manager.isLocal() {
		t.Errorf("Expected isLocal to return true for localhost")
	}

	manager.Hostname = "example.com"
	if manager.isLocal() {
		t.Errorf("Expected isLocal to return false for example.com")
	}
}

func TestRunRemoteDialError(t *testing.T) {
	manager := UnixCommandManager{
		Hostname:  "remote",
		SSHClient: &MockSSHClient{dialError: errors.New("mock dial error")},
		Credentials: Credentials{
			User:     "user",
			Password: "password",
		},
	}

	_, err := manager.RunRemote(context.Background(), CommandConfig{Command: "ls"})

	if err == nil || err.Error() != "mock dial error" {
		t.Errorf("Expected RunRemote to return mock dial error, got %v", err)
	}
}

func TestRemoteCommandQuoting(t *testing.T) {
	cmd := remoteCommand(CommandConfig{
		Command: "apt-get",
		Args:    []string{"install", "-y", "it's"},
		Env:     []string{"DEBIAN_FRONTEND=noninteractive"},
		Sudo:    true,
	}, true, true)

	assert.Equal(t, `sudo -S -p '' env DEBIAN_FRONTEND=noninteractive apt-get install -y 'it'"'"'s'`, cmd)

	cmd = remoteCommand(CommandConfig{Command: "brew", Args: []string{"list"}}, false, false)
	assert.Equal(t, "brew list", cmd)
}

func TestSudoArgsWithoutPasswordIsNonInteractive(t *testing.T) {
	args := sudoArgs(CommandConfig{Command: "apk", Args: []string{"add", "curl"}}, false)
	assert.Equal(t, []string{"-n", "apk", "add", "curl"}, args)
}

func TestSudoError(t *testing.T) {
	assert.NoError(t, sudoError(CommandResult{STDOUT: "ok"}))
	assert.Error(t, sudoError(CommandResult{STDERR: "sudo: 1 incorrect password attempt"}))
	assert.Error(t, sudoError(CommandResult{STDERR: "bob is not in the sudoers file."}))
}

func TestLinesDropsTrailingBlankLines(t *testing.T) {
	result := CommandResult{STDOUT: "one\r\ntwo\n\n", STDERR: "warn\n"}
	assert.Equal(t, []string{"one", "two", "warn"}, result.Lines())

	assert.Empty(t, CommandResult{}.Lines())
}
