package dependency

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/pkgbridge/logger"
)

type fakeManager struct {
	name  string
	ready bool
	deps  []ManagerDependency
}

func (m *fakeManager) Name() string                      { return m.name }
func (m *fakeManager) IsReady() bool                     { return m.ready }
func (m *fakeManager) Dependencies() []ManagerDependency { return m.deps }

type fakeDecisions map[string]string

func (d fakeDecisions) DependencyDecision(group, name string) string {
	if group != DecisionGroup {
		return ""
	}
	return d[name]
}

func present(name string) ManagerDependency {
	return ManagerDependency{Name: name, IsInstalled: func(context.Context) (bool, error) { return true, nil }}
}

func absent(name string) ManagerDependency {
	return ManagerDependency{Name: name, IsInstalled: func(context.Context) (bool, error) { return false, nil }}
}

func names(deps []ManagerDependency) []string {
	var out []string
	for _, d := range deps {
		out = append(out, d.Name)
	}
	return out
}

func TestFindMissingHonorsSkipDecision(t *testing.T) {
	m := &fakeManager{name: "pip", ready: true, deps: []ManagerDependency{absent("python3"), absent("pip")}}
	r := NewReconciler(fakeDecisions{"pip": DecisionSkipped}, logger.Discard())

	var reported []ManagerDependency
	err := r.Reconcile(context.Background(), []Manager{m}, ReporterFunc(func(_ context.Context, missing []ManagerDependency) error {
		reported = missing
		return nil
	}))

	require.NoError(t, err)
	assert.Equal(t, []string{"python3"}, names(reported))
}

func TestFindMissingSkippedDependencyIsStillLogged(t *testing.T) {
	base, hook := test.NewNullLogger()
	m := &fakeManager{name: "npm", ready: true, deps: []ManagerDependency{absent("node")}}
	r := NewReconciler(fakeDecisions{"node": DecisionSkipped}, logger.NewLogrus(base))

	missing := r.FindMissing(context.Background(), []Manager{m})

	assert.Empty(t, missing)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "node", entry.Data["dependency"])
}

// A probe that fails must count as installed. Changing this to report the dependency as
// missing would prompt users on every transient probe error.
func TestFindMissingFailOpenOnProbeError(t *testing.T) {
	base, hook := test.NewNullLogger()
	probeErr := errors.New("exec: sh: not found")
	broken := ManagerDependency{Name: "git", IsInstalled: func(context.Context) (bool, error) { return false, probeErr }}
	m := &fakeManager{name: "brew", ready: true, deps: []ManagerDependency{broken, absent("curl")}}

	r := NewReconciler(nil, logger.NewLogrus(base))
	missing := r.FindMissing(context.Background(), []Manager{m})

	assert.Equal(t, []string{"curl"}, names(missing))

	var recorded bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Data["dependency"] == "git" && e.Data["error"] == probeErr {
			recorded = true
		}
	}
	assert.True(t, recorded, "probe failure should be logged")
}

func TestFindMissingSkipsManagersThatAreNotReady(t *testing.T) {
	notReady := &fakeManager{name: "apk", ready: false, deps: []ManagerDependency{absent("sudo")}}
	ready := &fakeManager{name: "apt", ready: true, deps: []ManagerDependency{present("sudo")}}

	r := NewReconciler(fakeDecisions{}, logger.Discard())
	missing := r.FindMissing(context.Background(), []Manager{notReady, ready})

	assert.Empty(t, missing)
}

func TestFindMissingKeepsDeclarationOrder(t *testing.T) {
	managers := []Manager{
		&fakeManager{name: "apt", ready: true, deps: []ManagerDependency{absent("a1"), present("a2"), absent("a3")}},
		&fakeManager{name: "pip", ready: true, deps: []ManagerDependency{absent("p1")}},
		&fakeManager{name: "npm", ready: true, deps: []ManagerDependency{absent("n1"), absent("n2")}},
	}

	r := &Reconciler{Concurrency: 2}
	missing := r.FindMissing(context.Background(), managers)

	assert.Equal(t, []string{"a1", "a3", "p1", "n1", "n2"}, names(missing))
}

func TestFindMissingNilProbeCountsAsInstalled(t *testing.T) {
	m := &fakeManager{name: "apt", ready: true, deps: []ManagerDependency{{Name: "dpkg"}}}

	missing := NewReconciler(nil, nil).FindMissing(context.Background(), []Manager{m})
	assert.Empty(t, missing)
}

func TestFindMissingStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeManager{name: "apt", ready: true, deps: []ManagerDependency{absent("sudo")}}
	missing := NewReconciler(nil, logger.Discard()).FindMissing(ctx, []Manager{m})

	assert.Empty(t, missing)
}

func TestReconcileReturnsReporterError(t *testing.T) {
	want := errors.New("dialog closed")
	r := NewReconciler(nil, logger.Discard())

	err := r.Reconcile(context.Background(), nil, ReporterFunc(func(context.Context, []ManagerDependency) error {
		return want
	}))

	assert.ErrorIs(t, err, want)
}
