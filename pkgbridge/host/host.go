package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/packagemanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

var ErrManagerNotFound = errors.New("package manager not found")

type OSType string

const (
	Darwin        OSType = "Darwin"
	LinuxUbuntu   OSType = "Linux_Ubuntu"
	LinuxDebian   OSType = "Linux_Debian"
	LinuxFedora   OSType = "Linux_Fedora"
	LinuxRedHat   OSType = "Linux_RedHat"
	LinuxCentOS   OSType = "Linux_CentOS"
	LinuxAlpine   OSType = "Linux_Alpine"
	LinuxArch     OSType = "Linux_Arch"
	LinuxOpenSUSE OSType = "Linux_OpenSUSE"
	Unknown       OSType = "Unknown"
)

// Host is a machine whose package managers are driven through one command manager.
type Host struct {
	Hostname       string
	OSType         OSType
	CommandManager commandmanager.CommandManager
	SSHClient      commandmanager.SSHDialer
	Prompt         commandmanager.ElevationPrompt
	Log            logger.Logger
	commandmanager.Credentials

	managers []*packagemanager.Manager
}

// Manager returns the package manager registered under name.
func (h *Host) Manager(name string) (*packagemanager.Manager, error) {
	for _, m := range h.managers {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%s on %s: %w", name, h.Hostname, ErrManagerNotFound)
}

// Managers returns the host's package managers in registration order.
func (h *Host) Managers() []*packagemanager.Manager {
	return append([]*packagemanager.Manager(nil), h.managers...)
}

// DependencyManagers exposes the package managers to a dependency.Reconciler.
func (h *Host) DependencyManagers() []dependency.Manager {
	managers := make([]dependency.Manager, 0, len(h.managers))
	for _, m := range h.managers {
		managers = append(managers, m)
	}
	return managers
}

func (h *Host) Execute(ctx context.Context, managerName string, pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) (operation.Verdict, error) {
	m, err := h.Manager(managerName)
	if err != nil {
		return operation.Failure, err
	}
	return m.Execute(ctx, pkg, opts, op)
}
