package hostgroup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/host"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
)

type fakeCommandManager struct {
	mu      sync.Mutex
	results map[string]commandmanager.CommandResult
}

func (f *fakeCommandManager) Run(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimSpace(config.Command + " " + strings.Join(config.Args, " "))
	if r, ok := f.results[key]; ok {
		return r, nil
	}
	return commandmanager.CommandResult{ExitCode: 127}, nil
}

func (f *fakeCommandManager) RunLocal(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	return f.Run(ctx, config)
}

func (f *fakeCommandManager) RunRemote(ctx context.Context, config commandmanager.CommandConfig) (commandmanager.CommandResult, error) {
	return f.Run(ctx, config)
}

func newBrewHost(t *testing.T, hostname string, results map[string]commandmanager.CommandResult) *host.Host {
	t.Helper()
	results["sh -c command -v brew"] = commandmanager.CommandResult{STDOUT: "/opt/homebrew/bin/brew"}

	h, err := host.NewHost(context.Background(), hostname,
		host.WithOS(host.Darwin),
		host.WithCommandManager(&fakeCommandManager{results: results}),
		host.WithLogger(logger.Discard()))
	require.NoError(t, err)
	return h
}

func TestHostGroupMembership(t *testing.T) {
	a := newBrewHost(t, "a", map[string]commandmanager.CommandResult{})
	b := newBrewHost(t, "b", map[string]commandmanager.CommandResult{})

	hg := NewHostGroup(b)
	hg.AddHost(a)
	assert.True(t, hg.HasHost("a"))
	assert.Equal(t, []*host.Host{a, b}, hg.Sorted())

	hg.RemoveHost("b")
	assert.False(t, hg.HasHost("b"))
}

func TestExecute(t *testing.T) {
	ok := newBrewHost(t, "mac-1", map[string]commandmanager.CommandResult{
		"brew install wget": {},
	})
	busy := newBrewHost(t, "mac-2", map[string]commandmanager.CommandResult{
		"brew install wget": {ExitCode: 1, STDERR: "Error: Another active Homebrew update process is already in progress."},
	})
	noBrew, err := host.NewHost(context.Background(), "linux-1",
		host.WithOS(host.LinuxArch),
		host.WithCommandManager(&fakeCommandManager{}),
		host.WithLogger(logger.Discard()))
	require.NoError(t, err)

	hg := NewHostGroup(noBrew, busy, ok)
	results, err := hg.Execute(context.Background(), Request{
		Manager:   "brew",
		Package:   operation.Package{ID: "wget"},
		Operation: operation.Install,
	}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, "linux-1", results[0].Hostname)
	assert.ErrorIs(t, results[0].Err, host.ErrManagerNotFound)
	assert.Equal(t, Result{Hostname: "mac-1", Verdict: operation.Success}, results[1])
	assert.Equal(t, Result{Hostname: "mac-2", Verdict: operation.AutoRetry}, results[2])

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.Contains(t, err.Error(), "linux-1")
}

func TestForEachLimitsConcurrency(t *testing.T) {
	hg := NewHostGroup()
	for _, name := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		hg.AddHost(newBrewHost(t, name, map[string]commandmanager.CommandResult{}))
	}

	var running, peak atomic.Int32
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- hg.ForEach(context.Background(), 2, func(ctx context.Context, h *host.Host) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			if h.Hostname == "h3" {
				return errors.New("unreachable")
			}
			return nil
		})
	}()

	close(release)
	err := <-done

	assert.LessOrEqual(t, peak.Load(), int32(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error while processing host h3")
}
