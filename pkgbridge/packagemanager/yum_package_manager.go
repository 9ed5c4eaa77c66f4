package packagemanager

import (
	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

func NewYumPackageManager(commandManager cm.CommandManager, log logger.Logger) *Manager {
	m := newManager(config{
		name:       "yum",
		executable: "yum",
		elevation:  ElevateAlways,
	}, YumStrategy{}, commandManager, log)

	m.dependencies = []dependency.ManagerDependency{
		binaryDependency(commandManager, "sudo", "Runs yum with root privileges", "su -c 'yum install -y sudo'"),
	}
	return m
}

type YumStrategy struct{}

func (YumStrategy) OperationParameters(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) ([]string, error) {
	return rpmParameters("update", pkg, opts, op)
}

func (YumStrategy) OperationResult(pkg operation.Package, op operation.Type, output []string, exitCode int) (operation.Verdict, error) {
	if op == operation.None {
		return operation.Failure, unsupported(op)
	}

	switch {
	case exitCode == 0:
		return operation.Success, nil
	case outputContains(output, "You need to be root to perform this command"):
		return operation.RequiresAdminRights, nil
	case outputContains(output, "Another app is currently holding the yum lock"):
		return operation.AutoRetry, nil
	// yum exits 1 when there is nothing to do for an already removed or current package.
	case exitCode == 1 && outputContains(output, "Nothing to do"):
		return operation.Success, nil
	default:
		return operation.Failure, nil
	}
}
