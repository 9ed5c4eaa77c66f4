package packagemanager

import (
	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewDnfPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "dnf",
		executable: "dnf",
		elevation:  ElevateAlways,
	}, DnfStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "sudo", "Runs dnf with root privileges", "su -c 'dnf install -y sudo'"),
	}
	return m
}

type DnfStrategy struct{}

func (DnfStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	return rpmParameters("upgrade", pkg, opts, op)
}

func (DnfStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "has to be run with superuser privileges", "You need to be root"):
		return operation.RequiresAdminRights, nil
	case outputContains(output, "Waiting for process with pid"):
		return operation.AutoRetry, nil
	default:
		return operation.Failure, nil
	}
}

// rpmParameters is the argument grammar shared by dnf and yum. They differ only in the
// verb used to upgrade a package.
func rpmParameters(upgradeVerb string, pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install:
		params = []string{"install"}
	case operation.Update:
		params = []string{upgradeVerb}
	case operation.Uninstall:
		params = []string{"remove", unless(opts.InteractiveInstallation, "-y"), pkg.ID}
		return append(params, operation.CustomParameters(opts, op)...), nil
	default:
		return nil, unsupported(op)
	}

	params = append(params,
		unless(opts.InteractiveInstallation, "-y"),
		when(opts.SkipHashCheck, "--nogpgcheck"),
		rpmTarget(pkg, opts, op),
	)
	return append(params, operation.CustomParameters(opts, op)...), nil
}

// rpmTarget renders name[-version][.arch].
func rpmTarget(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) string {
	target := pkg.ID
	if version := targetVersion(pkg, opts, op); version != "" {
		target += "-" + version
	}
	if opts.Architecture != "" {
		target += "." + opts.Architecture
	}
	return target
}
