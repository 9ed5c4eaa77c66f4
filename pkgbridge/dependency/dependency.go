package dependency

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/steelcutops/pkgbridge/logger"
)

const (
	// DecisionGroup is the settings group holding per-dependency user decisions.
	DecisionGroup = "DependencyManagement"
	// DecisionSkipped means the user asked not to be reminded about a missing dependency.
	DecisionSkipped = "skipped"

	defaultConcurrency = 4
)

// ManagerDependency is an external prerequisite a package manager needs to work.
type ManagerDependency struct {
	Name           string
	Description    string
	InstallCommand string
	IsInstalled    func(ctx context.Context) (bool, error)
}

type Manager interface {
	Name() string
	IsReady() bool
	Dependencies() []ManagerDependency
}

// DecisionLookup reads persisted user decisions. It is never written through here.
type DecisionLookup interface {
	DependencyDecision(group, name string) string
}

type Reporter interface {
	ReportMissing(ctx context.Context, missing []ManagerDependency) error
}

type ReporterFunc func(ctx context.Context, missing []ManagerDependency) error

func (f ReporterFunc) ReportMissing(ctx context.Context, missing []ManagerDependency) error {
	return f(ctx, missing)
}

type Reconciler struct {
	Decisions   DecisionLookup
	Logger      logger.Logger
	Concurrency int
}

func NewReconciler(decisions DecisionLookup, log logger.Logger) *Reconciler {
	return &Reconciler{Decisions: decisions, Logger: log, Concurrency: defaultConcurrency}
}

// Reconcile finds the missing dependencies and hands them to reporter.
func (r *Reconciler) Reconcile(ctx context.Context, managers []Manager, reporter Reporter) error {
	return reporter.ReportMissing(ctx, r.FindMissing(ctx, managers))
}

// FindMissing returns every dependency that is absent and that the user has not skipped,
// ordered by manager and then by declaration. Managers that are not ready are ignored.
// A dependency whose probe fails is treated as installed.
func (r *Reconciler) FindMissing(ctx context.Context, managers []Manager) []ManagerDependency {
	log := r.log()
	perManager := make([][]ManagerDependency, len(managers))

	limit := r.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, m := range managers {
		i, m := i, m
		if !m.IsReady() {
			log.Debug("Skipping dependency check, manager is not ready", "manager", m.Name())
			continue
		}

		g.Go(func() error {
			perManager[i] = r.checkManager(ctx, m)
			return nil
		})
	}
	_ = g.Wait()

	var missing []ManagerDependency
	for _, deps := range perManager {
		missing = append(missing, deps...)
	}
	return missing
}

func (r *Reconciler) checkManager(ctx context.Context, m Manager) []ManagerDependency {
	log := r.log()
	var missing []ManagerDependency

	for _, dep := range m.Dependencies() {
		if ctx.Err() != nil {
			log.Warn("Dependency check interrupted", "manager", m.Name(), "error", ctx.Err())
			return missing
		}

		installed := true
		if dep.IsInstalled != nil {
			ok, err := dep.IsInstalled(ctx)
			if err != nil {
				log.Error("An error occurred while checking if dependency was installed",
					"dependency", dep.Name, "manager", m.Name(), "error", err)
			} else {
				installed = ok
			}
		}

		if installed {
			log.Info("Dependency is present", "dependency", dep.Name, "manager", m.Name())
			continue
		}

		if r.isSkipped(dep.Name) {
			log.Error("Dependency was not found, and the user set it to not be reminded",
				"dependency", dep.Name, "manager", m.Name())
			continue
		}

		log.Warn("Dependency was not found, marking to prompt", "dependency", dep.Name, "manager", m.Name())
		missing = append(missing, dep)
	}
	return missing
}

func (r *Reconciler) isSkipped(name string) bool {
	if r.Decisions == nil {
		return false
	}
	return r.Decisions.DependencyDecision(DecisionGroup, name) == DecisionSkipped
}

func (r *Reconciler) log() logger.Logger {
	if r.Logger == nil {
		return logger.Discard()
	}
	return r.Logger
}
