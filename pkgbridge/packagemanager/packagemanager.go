package packagemanager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/steelcutops/pkgbridge/logger"
	cm "github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

var (
	ErrManagerNotReady = errors.New("package manager is not ready")
	ErrUnknownManager  = errors.New("unknown package manager")

	// ErrVersionPinUnsupported is returned when a backend cannot update to a requested version.
	ErrVersionPinUnsupported = errors.New("updating to a specific version is not supported")
)

type Constructor func(commandManager cm.CommandManager, log logger.Logger) *Manager

var constructors = map[string]Constructor{
	"apt":  NewAptPackageManager,
	"dnf":  NewDnfPackageManager,
	"yum":  NewYumPackageManager,
	"apk":  NewApkPackageManager,
	"brew": NewBrewPackageManager,
	"pip":  NewPipPackageManager,
	"npm":  NewNpmPackageManager,
}

// New builds the backend registered under name.
func New(name string, commandManager cm.CommandManager, log logger.Logger) (*Manager, error) {
	constructor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownManager, name)
	}
	return constructor(commandManager, log), nil
}

// Names lists the registered backends in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Elevation says when a manager's commands run through sudo.
type Elevation int

const (
	// ElevateOnRequest runs through sudo only when RunAsAdministrator is set.
	ElevateOnRequest Elevation = iota
	// ElevateAlways is for managers that write system-owned state.
	ElevateAlways
	// ElevateNever is for managers that refuse to run as root.
	ElevateNever
)

type config struct {
	name       string
	executable string
	baseArgs   []string
	env        []string
	// batchEnv is only set when the user does not answer the manager's questions.
	batchEnv  []string
	elevation Elevation
}

// Manager is one package manager backend bound to the host it runs on.
type Manager struct {
	config
	helper         *operation.Helper
	commandManager cm.CommandManager
	dependencies   []dependency.ManagerDependency
	log            logger.Logger
	ready          atomic.Bool
}

var _ dependency.Manager = (*Manager)(nil)

func newManager(c config, strategy operation.Strategy, commandManager cm.CommandManager, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		config:         c,
		helper:         operation.NewHelper(c.name, strategy, log),
		commandManager: commandManager,
		log:            log,
	}
}

func (m *Manager) Name() string {
	return m.name
}

func (m *Manager) Executable() string {
	return m.executable
}

func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

func (m *Manager) Dependencies() []dependency.ManagerDependency {
	return m.dependencies
}

func (m *Manager) Helper() *operation.Helper {
	return m.helper
}

// Detect marks the manager ready when its executable is on the host's PATH.
func (m *Manager) Detect(ctx context.Context) error {
	found, err := commandExists(ctx, m.commandManager, m.executable)
	if err != nil {
		return fmt.Errorf("detecting %s: %w", m.name, err)
	}
	m.ready.Store(found)
	m.log.Debug("Detected package manager", "manager", m.name, "ready", found)
	return nil
}

// Command returns the process to start for op without starting it.
func (m *Manager) Command(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) (cm.CommandConfig, error) {
	if opts == nil {
		opts = serializable.DefaultInstallOptions()
	}

	params, err := m.helper.BuildParameters(pkg, opts, op)
	if err != nil {
		return cm.CommandConfig{}, err
	}

	env := append([]string(nil), m.env...)
	if !opts.InteractiveInstallation {
		env = append(env, m.batchEnv...)
	}

	return cm.CommandConfig{
		Command:     m.executable,
		Args:        append(append([]string(nil), m.baseArgs...), params...),
		Env:         env,
		Sudo:        m.sudo(opts),
		Interactive: opts.InteractiveInstallation,
	}, nil
}

// Execute runs op for pkg and interprets the outcome.
func (m *Manager) Execute(ctx context.Context, pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) (operation.Verdict, error) {
	if !m.IsReady() {
		return operation.Failure, fmt.Errorf("%s: %w", m.name, ErrManagerNotReady)
	}

	command, err := m.Command(pkg, opts, op)
	if err != nil {
		return operation.Failure, err
	}

	result, err := m.commandManager.Run(ctx, command)
	if err != nil {
		return operation.Failure, fmt.Errorf("%s %s %s: %w", m.name, op, pkg.ID, err)
	}

	verdict, err := m.helper.InterpretResult(pkg, op, result.Lines(), result.ExitCode)
	if err != nil {
		return operation.Failure, err
	}

	m.log.Info("Operation finished",
		"manager", m.name,
		"package", pkg.ID,
		"operation", op.String(),
		"exitCode", result.ExitCode,
		"verdict", verdict.String(),
		"duration", result.Duration)
	return verdict, nil
}

func (m *Manager) sudo(opts *serializable.InstallOptions) bool {
	switch m.elevation {
	case ElevateAlways:
		return true
	case ElevateNever:
		return false
	default:
		return opts.RunAsAdministrator
	}
}

func commandExists(ctx context.Context, commandManager cm.CommandManager, name string) (bool, error) {
	result, err := commandManager.Run(ctx, cm.CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "command -v " + name},
	})
	if err != nil {
		return false, err
	}
	return result.ExitCode == 0, nil
}

// binaryDependency is a dependency satisfied by an executable on PATH.
func binaryDependency(commandManager cm.CommandManager, name, description, installCommand string) dependency.ManagerDependency {
	return dependency.ManagerDependency{
		Name:           name,
		Description:    description,
		InstallCommand: installCommand,
		IsInstalled: func(ctx context.Context) (bool, error) {
			return commandExists(ctx, commandManager, name)
		},
	}
}

// targetVersion is the version an operation pins: the update target when one is known,
// otherwise the configured version.
func targetVersion(pkg operation.Package, opts *serializable.InstallOptions, op operation.Type) string {
	if op == operation.Update && pkg.NewVersion != "" {
		return pkg.NewVersion
	}
	return opts.Version
}

func unsupported(op operation.Type) error {
	return fmt.Errorf("%w: %s", operation.ErrUnsupportedOperation, op)
}

// outputContains reports whether any line contains one of markers, ignoring case.
func outputContains(output []string, markers ...string) bool {
	for _, line := range output {
		lower := strings.ToLower(line)
		for _, marker := range markers {
			if strings.Contains(lower, strings.ToLower(marker)) {
				return true
			}
		}
	}
	return false
}

// unless returns token when cond is false and an empty token otherwise.
func unless(cond bool, token string) string {
	if cond {
		return ""
	}
	return token
}

// when returns token when cond is true and an empty token otherwise.
func when(cond bool, token string) string {
	if cond {
		return token
	}
	return ""
}
