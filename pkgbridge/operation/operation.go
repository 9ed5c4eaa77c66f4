package operation

import (
	"errors"
	"fmt"

	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

// Type is the lifecycle action a caller asks a manager to perform.
type Type int

const (
	None Type = iota
	Install
	Uninstall
	Update
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Install:
		return "install"
	case Uninstall:
		return "uninstall"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts the lowercase names returned by String.
func ParseType(s string) (Type, error) {
	for _, t := range []Type{None, Install, Uninstall, Update} {
		if t.String() == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown operation %q", s)
}

// Verdict is the normalized outcome of a finished operation.
type Verdict int

const (
	Success Verdict = iota
	Failure
	// Canceled means the user or the system aborted before the operation ran,
	// e.g. the elevation prompt was dismissed.
	Canceled
	AutoRetry
	RequiresAdminRights
	RequiresAuthentication
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Canceled:
		return "canceled"
	case AutoRetry:
		return "auto-retry"
	case RequiresAdminRights:
		return "requires-admin-rights"
	case RequiresAuthentication:
		return "requires-authentication"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// UserMessage is the sentence shown to a person for a verdict.
func (v Verdict) UserMessage() string {
	switch v {
	case Success:
		return "The operation completed successfully."
	case Failure:
		return "The operation ran and did not succeed."
	case Canceled:
		return "You dismissed the elevation prompt, so nothing was changed."
	case AutoRetry:
		return "The package manager was busy; the operation can be retried."
	case RequiresAdminRights:
		return "The operation needs administrator rights."
	case RequiresAuthentication:
		return "The package source requires authentication."
	default:
		return v.String()
	}
}

// Package identifies one package inside the namespace of a single manager.
type Package struct {
	ID         string
	Name       string
	Version    string
	NewVersion string
}

// ErrUnsupportedOperation is returned by strategies asked to handle an operation they have
// no command line for, such as None.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Strategy is what every package manager backend implements. Both functions are pure.
type Strategy interface {
	OperationParameters(pkg Package, opts *serializable.InstallOptions, op Type) ([]string, error)
	OperationResult(pkg Package, op Type, output []string, exitCode int) (Verdict, error)
}

// CustomParameters returns the user-supplied extra arguments for op.
func CustomParameters(opts *serializable.InstallOptions, op Type) []string {
	switch op {
	case Install:
		return opts.CustomParametersInstall
	case Update:
		return opts.CustomParametersUpdate
	case Uninstall:
		return opts.CustomParametersUninstall
	default:
		return nil
	}
}
