package hostgroup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/steelcutops/pkgbridge/pkgbridge/host"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

const defaultConcurrency = 10

type HostGroup struct {
	sync.RWMutex
	Hosts map[string]*host.Host
}

// Request is one package operation to run on every host in a group.
type Request struct {
	Manager   string
	Package   operation.Package
	Options   *serializable.InstallOptions
	Operation operation.Type
}

// Result is the outcome of a Request on one host.
type Result struct {
	Hostname string
	Verdict  operation.Verdict
	Err      error
}

// NewHostGroup creates a new HostGroup with the given hosts.
func NewHostGroup(hosts ...*host.Host) *HostGroup {
	hostMap := make(map[string]*host.Host)
	for _, h := range hosts {
		hostMap[h.Hostname] = h
	}
	return &HostGroup{Hosts: hostMap}
}

// AddHost adds a host to the HostGroup.
func (hg *HostGroup) AddHost(h *host.Host) {
	hg.Lock()
	defer hg.Unlock()
	hg.Hosts[h.Hostname] = h
}

// RemoveHost removes a host from the HostGroup by its hostname.
func (hg *HostGroup) RemoveHost(hostname string) {
	hg.Lock()
	defer hg.Unlock()
	delete(hg.Hosts, hostname)
}

// HasHost checks if a host with the given hostname exists in the HostGroup.
func (hg *HostGroup) HasHost(hostname string) bool {
	hg.RLock()
	defer hg.RUnlock()
	_, exists := hg.Hosts[hostname]
	return exists
}

// Sorted returns the hosts ordered by hostname.
func (hg *HostGroup) Sorted() []*host.Host {
	hg.RLock()
	defer hg.RUnlock()

	hosts := make([]*host.Host, 0, len(hg.Hosts))
	for _, h := range hg.Hosts {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Hostname < hosts[j].Hostname })
	return hosts
}

// ForEach runs action on every host with at most maxConcurrency running at once. Errors from
// all hosts are collected.
func (hg *HostGroup) ForEach(ctx context.Context, maxConcurrency int, action func(ctx context.Context, h *host.Host) error) error {
	return forEach(ctx, hg.Sorted(), maxConcurrency, action)
}

func forEach(ctx context.Context, hosts []*host.Host, maxConcurrency int, action func(ctx context.Context, h *host.Host) error) error {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultConcurrency
	}

	sem := make(chan struct{}, maxConcurrency)
	errCh := make(chan error, len(hosts))
	var wg sync.WaitGroup

	for _, hst := range hosts {
		wg.Add(1)
		go func(h *host.Host) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := action(ctx, h); err != nil {
				errCh <- fmt.Errorf("error while processing host %s: %w", h.Hostname, err)
			}
		}(hst)
	}

	wg.Wait()
	close(errCh)

	var result *multierror.Error
	for err := range errCh {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Execute runs req on every host. Results are ordered by hostname; the returned error
// aggregates the hosts that failed to produce a verdict.
func (hg *HostGroup) Execute(ctx context.Context, req Request, maxConcurrency int) ([]Result, error) {
	hosts := hg.Sorted()
	index := make(map[*host.Host]int, len(hosts))
	for i, h := range hosts {
		index[h] = i
	}

	results := make([]Result, len(hosts))
	err := forEach(ctx, hosts, maxConcurrency, func(ctx context.Context, h *host.Host) error {
		verdict, err := h.Execute(ctx, req.Manager, req.Package, req.Options, req.Operation)
		results[index[h]] = Result{Hostname: h.Hostname, Verdict: verdict, Err: err}
		return err
	})
	return results, err
}
