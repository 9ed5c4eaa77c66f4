package packagemanager

import (
	"fmt"

	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

// NewBrewPackageManager returns the Homebrew backend. Homebrew refuses to run as root, so
// RunAsAdministrator is ignored.
func NewBrewPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "brew",
		executable: "brew",
		env:        []string{"HOMEBREW_NO_AUTO_UPDATE=1", "HOMEBREW_NO_ENV_HINTS=1"},
		elevation:  ElevateNever,
	}, BrewStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "git", "Homebrew fetches formulae with git", "xcode-select --install"),
	}
	return m
}

type BrewStrategy struct{}

func (BrewStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install:
		target := pkg.ID
		if opts.Version != "" {
			target += "@" + opts.Version
		}
		params = []string{"install", when(opts.InteractiveInstallation, "--interactive"), target}
	case operation.Update:
		// brew only upgrades to the newest formula; a pinned target would be silently ignored.
		if pkg.NewVersion != "" {
			return nil, fmt.Errorf("%w: brew cannot upgrade %s to %s", ErrVersionPinUnsupported, pkg.ID, pkg.NewVersion)
		}
		params = []string{"upgrade", pkg.ID}
	case operation.Uninstall:
		params = []string{"uninstall", when(opts.RemoveDataOnUninstall, "--zap"), pkg.ID}
	default:
		return nil, unsupported(op)
	}
	return append(params, operation.CustomParameters(opts, op)...), nil
}

func (BrewStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "Another active Homebrew", "has already locked"):
		return operation.AutoRetry, nil
	case op == operation.Install && outputContains(output, "is already installed and up-to-date"):
		return operation.Success, nil
	default:
		return operation.Failure, nil
	}
}
