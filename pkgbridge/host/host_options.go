package host

import (
	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
)

type HostOption func(*Host)

// WithUser returns a HostOption that sets the user for a Host.
func WithUser(user string) HostOption {
	return func(host *Host) {
		host.User = user
	}
}

// WithPassword returns a HostOption that sets the password for a Host.
func WithPassword(password string) HostOption {
	return func(host *Host) {
		host.Password = password
	}
}

// WithKeyPassphrase returns a HostOption that sets the key passphrase for a Host.
func WithKeyPassphrase(keyPassphrase string) HostOption {
	return func(host *Host) {
		host.KeyPassphrase = keyPassphrase
	}
}

// WithOS returns a HostOption that sets the OS for a Host and skips detection.
func WithOS(os OSType) HostOption {
	return func(host *Host) {
		host.OSType = os
	}
}

// WithSudoPassword returns a HostOption that sets the sudo password for a Host.
func WithSudoPassword(password string) HostOption {
	return func(host *Host) {
		host.SudoPassword = password
	}
}

func WithSSHClient(client commandmanager.SSHDialer) HostOption {
	return func(host *Host) {
		host.SSHClient = client
	}
}

// WithElevationPrompt sets what asks for the sudo password when none was given.
func WithElevationPrompt(prompt commandmanager.ElevationPrompt) HostOption {
	return func(host *Host) {
		host.Prompt = prompt
	}
}

func WithLogger(log logger.Logger) HostOption {
	return func(host *Host) {
		host.Log = log
	}
}

// WithCommandManager replaces the default UnixCommandManager.
func WithCommandManager(commandManager commandmanager.CommandManager) HostOption {
	return func(host *Host) {
		host.CommandManager = commandManager
	}
}
