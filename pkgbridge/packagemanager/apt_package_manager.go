package packagemanager

import (
	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewAptPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "apt",
		executable: "apt-get",
		batchEnv:   []string{"DEBIAN_FRONTEND=noninteractive"},
		elevation:  ElevateAlways,
	}, AptStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "sudo", "Runs apt-get with root privileges", "su -c 'apt-get install -y sudo'"),
	}
	return m
}

type AptStrategy struct{}

func (AptStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install:
		params = []string{"install"}
	case operation.Update:
		params = []string{"install", "--only-upgrade"}
	case operation.Uninstall:
		verb := "remove"
		if opts.RemoveDataOnUninstall {
			verb = "purge"
		}
		params = []string{verb, unless(opts.InteractiveInstallation, "-y"), pkg.ID}
		return append(params, operation.CustomParameters(opts, op)...), nil
	default:
		return nil, unsupported(op)
	}

	params = append(params,
		unless(opts.InteractiveInstallation, "-y"),
		when(opts.SkipHashCheck, "--allow-unauthenticated"),
	)
	if !opts.InteractiveInstallation {
		params = append(params, "-o", "Dpkg::Options::=--force-confdef", "-o", "Dpkg::Options::=--force-confold")
	}
	params = append(params, aptTarget(pkg, opts, op))
	return append(params, operation.CustomParameters(opts, op)...), nil
}

func (AptStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "Could not get lock", "is held by process"):
		return operation.AutoRetry, nil
	case outputContains(output, "Could not open lock file", "are you root?", "Permission denied"):
		return operation.RequiresAdminRights, nil
	default:
		return operation.Failure, nil
	}
}

// aptTarget renders name[:arch][=version].
func aptTarget(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) string {
	target := pkg.ID
	if opts.Architecture != "" {
		target += ":" + opts.Architecture
	}
	if version := targetVersion(pkg, opts, op); version != "" {
		target += "=" + version
	}
	return target
}
