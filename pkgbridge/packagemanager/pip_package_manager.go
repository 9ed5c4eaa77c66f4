package packagemanager

import (
	"context"

	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewPipPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "pip",
		executable: "python3",
		baseArgs:   []string{"-m", "pip"},
		env:        []string{"PIP_DISABLE_PIP_VERSION_CHECK=1"},
		elevation:  ElevateOnRequest,
	}, PipStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{{
		Name:           "pip",
		Description:    "The pip module of the python3 interpreter",
		InstallCommand: "python3 -m ensurepip --upgrade",
		IsInstalled: func(ctx context.Context) (bool, error) {
			result, err := commandManager.Run(ctx, cm.CommandConfig{
				Command: "python3",
				Args:    []string{"-m", "pip", "--version"},
			})
			if err != nil {
				return false, err
			}
			return result.ExitCode == 0, nil
		},
	}}
	return m
}

type PipStrategy struct{}

func (PipStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install:
		params = []string{"install", pipTarget(pkg, opts, op)}
	case operation.Update:
		params = []string{"install", "--upgrade", pipTarget(pkg, opts, op)}
	case operation.Uninstall:
		params = []string{"uninstall", unless(opts.InteractiveInstallation, "--yes"), pkg.ID}
		return append(params, operation.CustomParameters(opts, op)...), nil
	default:
		return nil, unsupported(op)
	}

	params = append(params,
		unless(opts.InteractiveInstallation, "--no-input"),
		when(opts.PreRelease, "--pre"),
		when(opts.InstallationScope == serializable.ScopeUser, "--user"),
	)
	if opts.CustomInstallLocation != "" {
		params = append(params, "--target", opts.CustomInstallLocation)
	}
	return append(params, operation.CustomParameters(opts, op)...), nil
}

func pipTarget(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) string {
	if version := targetVersion(pkg, opts, op); version != "" {
		return pkg.ID + "==" + version
	}
	return pkg.ID
}

func (PipStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "401 Client Error", "403 Client Error", "HTTP error 401"):
		return operation.RequiresAuthentication, nil
	case outputContains(output, "Consider using the `--user` option", "Permission denied"):
		return operation.RequiresAdminRights, nil
	default:
		return operation.Failure, nil
	}
}
