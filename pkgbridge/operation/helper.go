package operation

import (
	"strings"

	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

const (
	// ElevationCanceledExitCode is reserved system-wide for an aborted elevation prompt.
	ElevationCanceledExitCode = 999
	ElevationCanceledMessage  = "Error: The operation was canceled by the user."
)

// IsElevationCanceled reports whether a process result means the elevation prompt was dismissed.
func IsElevationCanceled(output []string, exitCode int) bool {
	if exitCode != ElevationCanceledExitCode {
		return false
	}
	return len(output) == 0 || output[len(output)-1] == ElevationCanceledMessage
}

// Helper wraps a manager's Strategy with the rules shared by every manager.
type Helper struct {
	managerName string
	strategy    Strategy
	log         logger.Logger
}

func NewHelper(managerName string, strategy Strategy, log logger.Logger) *Helper {
	if log == nil {
		log = logger.New()
	}
	return &Helper{managerName: managerName, strategy: strategy, log: log}
}

func (h *Helper) ManagerName() string {
	return h.managerName
}

// BuildParameters returns the arguments for op, without the manager executable.
// Empty tokens emitted by the strategy are dropped.
func (h *Helper) BuildParameters(pkg Package, opts *serializable.InstallOptions, op Type) ([]string, error) {
	if opts == nil {
		opts = serializable.DefaultInstallOptions()
	}

	raw, err := h.strategy.OperationParameters(pkg, opts, op)
	if err != nil {
		return nil, err
	}

	params := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			params = append(params, p)
		}
	}

	h.log.Info("Loaded operation parameters",
		"package", pkg.ID,
		"manager", h.managerName,
		"operation", op.String(),
		"parameters", strings.Join(params, " "))
	return params, nil
}

// InterpretResult maps a finished process onto a Verdict. Errors from the strategy are
// returned as-is; they are backend defects, not failed operations.
func (h *Helper) InterpretResult(pkg Package, op Type, output []string, exitCode int) (Verdict, error) {
	if IsElevationCanceled(output, exitCode) {
		h.log.Warn("Elevation prompt was canceled, not reporting a failure",
			"package", pkg.ID,
			"manager", h.managerName,
			"operation", op.String())
		return Canceled, nil
	}

	return h.strategy.OperationResult(pkg, op, output, exitCode)
}
