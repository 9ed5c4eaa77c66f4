package host

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
)

type MockCommandManager struct {
	mu      sync.Mutex
	Results map[string]commandmanager.CommandResult
	Err     error
	Calls   []string
}

func (m *MockCommandManager) Run(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.TrimSpace(config.Command + " " + strings.Join(config.Args, " "))
	m.Calls = append(m.Calls, key)
	if m.Err != nil {
		return commandmanager.CommandResult{}, m.Err
	}
	if r, ok := m.Results[key]; ok {
		return r, nil
	}
	return commandmanager.CommandResult{ExitCode: 127}, nil
}

func (m *MockCommandManager) RunLocal(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	return m.Run(ctx, config)
}

func (m *MockCommandManager) RunRemote(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	return m.Run(ctx, config)
}

func linuxMock(osRelease string, executables ...string) *MockCommandManager {
	results := map[string]commandmanager.CommandResult{
		"uname -s":            {STDOUT: "Linux\n"},
		"cat /etc/os-release": {STDOUT: osRelease},
	}
	for _, exe := range executables {
		results["sh -c command -v "+exe] = commandmanager.CommandResult{STDOUT: "/usr/bin/" + exe}
	}
	return &MockCommandManager{Results: results}
}

func managerNames(h *Host) []string {
	var names []string
	for _, m := range h.Managers() {
		names = append(names, m.Name())
	}
	return names
}

func TestNewHostUbuntu(t *testing.T) {
	mock := linuxMock("NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n", "apt-get", "python3")

	h, err := NewHost(context.Background(), "web-1", WithCommandManager(mock), WithLogger(logger.Discard()))
	require.NoError(t, err)

	assert.Equal(t, LinuxUbuntu, h.OSType)
	assert.Equal(t, []string{"apt", "pip", "npm"}, managerNames(h))

	apt, err := h.Manager("apt")
	require.NoError(t, err)
	assert.True(t, apt.IsReady())

	npm, err := h.Manager("npm")
	require.NoError(t, err)
	assert.False(t, npm.IsReady())
}

func TestNewHostIDLikeFallback(t *testing.T) {
	mock := linuxMock("ID=linuxmint\nID_LIKE=\"ubuntu debian\"\n")

	h, err := NewHost(context.Background(), "desk", WithCommandManager(mock), WithLogger(logger.Discard()))
	require.NoError(t, err)
	assert.Equal(t, LinuxUbuntu, h.OSType)
}

func TestNewHostMacOS(t *testing.T) {
	mock := &MockCommandManager{Results: map[string]commandmanager.CommandResult{
		"uname -s": {STDOUT: "Darwin\n"},
	}}

	h, err := NewHost(context.Background(), "localhost", WithCommandManager(mock), WithLogger(logger.Discard()))
	require.NoError(t, err)

	assert.Equal(t, Darwin, h.OSType)
	assert.Equal(t, []string{"brew", "pip", "npm"}, managerNames(h))
	assert.NotContains(t, mock.Calls, "cat /etc/os-release")
}

func TestNewHostWithOSSkipsDetection(t *testing.T) {
	mock := &MockCommandManager{}

	h, err := NewHost(context.Background(), "arch-box", WithCommandManager(mock), WithOS(LinuxArch), WithLogger(logger.Discard()))
	require.NoError(t, err)

	assert.Equal(t, []string{"pip", "npm"}, managerNames(h))
	assert.NotContains(t, mock.Calls, "uname -s")
}

func TestNewHostInvalidOS(t *testing.T) {
	mock := &MockCommandManager{Results: map[string]commandmanager.CommandResult{
		"uname -s": {STDOUT: "FreeBSD\n"},
	}}

	_, err := NewHost(context.Background(), "bsd", WithCommandManager(mock), WithLogger(logger.Discard()))
	require.Error(t, err)
	assert.Equal(t, "unsupported operating system: FreeBSD", err.Error())
}

func TestNewHostNoHostname(t *testing.T) {
	_, err := NewHost(context.Background(), "", WithOS(Darwin))
	assert.Error(t, err)
}

func TestNewHostDetectionError(t *testing.T) {
	mock := &MockCommandManager{Err: errors.New("connection refused")}

	_, err := NewHost(context.Background(), "db-1", WithCommandManager(mock), WithLogger(logger.Discard()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestManagerNotFound(t *testing.T) {
	h, err := NewHost(context.Background(), "mac", WithCommandManager(&MockCommandManager{}), WithOS(Darwin), WithLogger(logger.Discard()))
	require.NoError(t, err)

	_, err = h.Manager("apt")
	assert.ErrorIs(t, err, ErrManagerNotFound)

	verdict, err := h.Execute(context.Background(), "apt", operation.Package{ID: "curl"}, nil, operation.Install)
	assert.ErrorIs(t, err, ErrManagerNotFound)
	assert.Equal(t, operation.Failure, verdict)
}

func TestExecute(t *testing.T) {
	mock := &MockCommandManager{Results: map[string]commandmanager.CommandResult{
		"sh -c command -v apk": {STDOUT: "/sbin/apk"},
		"apk add curl":         {STDOUT: "OK: 12 MiB in 30 packages"},
	}}

	h, err := NewHost(context.Background(), "alpine", WithCommandManager(mock), WithOS(LinuxAlpine), WithLogger(logger.Discard()))
	require.NoError(t, err)

	verdict, err := h.Execute(context.Background(), "apk", operation.Package{ID: "curl"}, nil, operation.Install)
	require.NoError(t, err)
	assert.Equal(t, operation.Success, verdict)
	assert.Len(t, h.DependencyManagers(), 3)
}

func TestParseOSRelease(t *testing.T) {
	tests := map[string]OSType{
		"ID=fedora\n":                           LinuxFedora,
		"ID=\"rocky\"\nID_LIKE=\"rhel centos\"": LinuxRedHat,
		"ID=opensuse-tumbleweed\n":              LinuxOpenSUSE,
		"ID=alpine\n":                           LinuxAlpine,
		"ID=gentoo\n":                           Unknown,
		"":                                      Unknown,
	}

	for content, expected := range tests {
		assert.Equal(t, expected, parseOSRelease(content), content)
	}
}
