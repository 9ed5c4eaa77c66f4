package packagemanager

import (
	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewApkPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "apk",
		executable: "apk",
		elevation:  ElevateAlways,
	}, ApkStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "sudo", "Runs apk with root privileges", "su -c 'apk add sudo'"),
	}
	return m
}

type ApkStrategy struct{}

// APK doesn't have an explicit command for upgrading a single package.
// 'add --upgrade' installs the package if needed and upgrades it otherwise.
func (ApkStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	var params []string
	switch op {
	case operation.Install:
		params = []string{"add"}
	case operation.Update:
		params = []string{"add", "--upgrade"}
	case operation.Uninstall:
		params = []string{"del", when(opts.RemoveDataOnUninstall, "--purge"), pkg.ID}
		return append(params, operation.CustomParameters(opts, op)...), nil
	default:
		return nil, unsupported(op)
	}

	target := pkg.ID
	if version := targetVersion(pkg, opts, op); version != "" {
		target += "=" + version
	}

	params = append(params,
		when(opts.InteractiveInstallation, "--interactive"),
		when(opts.SkipHashCheck, "--allow-untrusted"),
		target,
	)
	return append(params, operation.CustomParameters(opts, op)...), nil
}

func (ApkStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "Unable to lock database: Permission denied", "Permission denied"):
		return operation.RequiresAdminRights, nil
	case outputContains(output, "Unable to lock database: Resource temporarily unavailable"):
		return operation.AutoRetry, nil
	default:
		return operation.Failure, nil
	}
}
