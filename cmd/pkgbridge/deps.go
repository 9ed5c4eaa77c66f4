package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgbridge/pkgbridge/dependency"
	"github.com/steelcutops/pkgbridge/pkgbridge/host"
	"github.com/steelcutops/pkgbridge/pkgbridge/settings"
)

var (
	depsSkip  []string
	depsReset []string
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check the dependencies of every ready package manager",
	Long: `Check that the tools each detected package manager relies on are installed.

Missing dependencies are listed with the command that installs them. A dependency
marked with --skip is no longer reported; --reset reports it again.

Examples:
  pkgbridge deps --hostname web-1
  pkgbridge deps --skip git`,
	Args: cobra.NoArgs,
	RunE: runDeps,
}

func init() {
	depsCmd.Flags().StringArrayVar(&depsSkip, "skip", nil, "Stop reporting this dependency (repeatable)")
	depsCmd.Flags().StringArrayVar(&depsReset, "reset", nil, "Report this dependency again (repeatable)")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	store, err := openSettings(&f)
	if err != nil {
		return err
	}

	if len(depsSkip) > 0 || len(depsReset) > 0 {
		recordDecisions(store, depsSkip, depsReset)
		if err := store.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Dependency decisions saved.")
		return nil
	}

	hg, err := initializeHosts(cmd.Context(), &f)
	if err != nil {
		return err
	}

	reconciler := dependency.NewReconciler(store, appLog)

	var mu sync.Mutex
	missing := map[string][]dependency.ManagerDependency{}
	err = hg.ForEach(cmd.Context(), f.Concurrency, func(ctx context.Context, h *host.Host) error {
		return reconciler.Reconcile(ctx, h.DependencyManagers(), dependency.ReporterFunc(
			func(ctx context.Context, deps []dependency.ManagerDependency) error {
				mu.Lock()
				defer mu.Unlock()
				missing[h.Hostname] = deps
				return nil
			}))
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, h := range hg.Sorted() {
		printMissing(out, h.Hostname, missing[h.Hostname])
	}
	return nil
}

func recordDecisions(store *settings.Store, skip, reset []string) {
	for _, name := range skip {
		store.SetDependencyDecision(dependency.DecisionGroup, name, dependency.DecisionSkipped)
	}
	for _, name := range reset {
		store.SetDependencyDecision(dependency.DecisionGroup, name, "")
	}
}

func printMissing(out io.Writer, hostname string, deps []dependency.ManagerDependency) {
	if len(deps) == 0 {
		fmt.Fprintf(out, "%s: %s\n", hostname, successColor.Sprint("all dependencies installed"))
		return
	}

	fmt.Fprintf(out, "%s: %s\n", hostname, warnColor.Sprintf("%d missing", len(deps)))
	for _, d := range deps {
		fmt.Fprintf(out, "  %s - %s\n    install with: %s\n", d.Name, d.Description, d.InstallCommand)
	}
}
