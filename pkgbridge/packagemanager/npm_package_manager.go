package packagemanager

import (
	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewNpmPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "npm",
		executable: "npm",
		env:        []string{"NO_UPDATE_NOTIFIER=1"},
		elevation:  ElevateOnRequest,
	}, NpmStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "node", "The Node.js runtime npm runs on", "install nodejs with the system package manager"),
	}
	return m
}

// NpmStrategy manages globally installed packages. A custom install location replaces the
// global prefix.
type NpmStrategy struct{}

func (NpmStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install, operation.Update:
		version := targetVersion(pkg, opts, op)
		if version == "" && op == operation.Update {
			version = "latest"
		}
		target := pkg.ID
		if version != "" {
			target += "@" + version
		}
		params = []string{"install", target}
	case operation.Uninstall:
		params = []string{"uninstall", pkg.ID}
	default:
		return nil, unsupported(op)
	}

	if opts.CustomInstallLocation != "" {
		params = append(params, "--prefix", opts.CustomInstallLocation)
	} else {
		params = append(params, "--global")
	}

	params = append(params,
		when(opts.SkipHashCheck && op != operation.Uninstall, "--no-audit"),
		when(opts.PreRelease && op == operation.Install && opts.Version == "", "--tag=next"),
	)
	return append(params, operation.CustomParameters(opts, op)...), nil
}

func (NpmStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "code E401", "code ENEEDAUTH", "code E403"):
		return operation.RequiresAuthentication, nil
	case outputContains(output, "code EACCES", "code EPERM"):
		return operation.RequiresAdminRights, nil
	case outputContains(output, "code EBUSY", "code ETIMEDOUT"):
		return operation.AutoRetry, nil
	default:
		return operation.Failure, nil
	}
}
