package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/steelcutops/pkgbridge/pkgbridge/hostgroup"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

// optionFlags are the InstallOptions that can be overridden from the command line. Only flags
// the user actually set replace the stored values.
type optionFlags struct {
	version      string
	architecture string
	scope        string
	location     string
	custom       []string
	interactive  bool
	skipHash     bool
	admin        bool
	preRelease   bool
	removeData   bool
	skipMinor    bool
}

func (o *optionFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.version, "version", "", "Install this exact version")
	fs.StringVar(&o.architecture, "arch", "", "Target architecture")
	fs.StringVar(&o.scope, "scope", "", "Installation scope: user or global")
	fs.StringVar(&o.location, "location", "", "Custom install location")
	fs.StringArrayVar(&o.custom, "param", nil, "Extra argument passed to the package manager (repeatable)")
	fs.BoolVar(&o.interactive, "interactive", false, "Let the package manager ask questions")
	fs.BoolVar(&o.skipHash, "skip-hash-check", false, "Skip integrity and signature checks")
	fs.BoolVar(&o.admin, "admin", false, "Run with administrator rights")
	fs.BoolVar(&o.preRelease, "pre", false, "Allow pre-release versions")
	fs.BoolVar(&o.removeData, "purge", false, "Remove package data on uninstall")
	fs.BoolVar(&o.skipMinor, "skip-minor", false, "Skip minor updates")
}

// apply copies the flags that were set onto base and returns the result. base is not modified.
func (o *optionFlags) apply(fs *pflag.FlagSet, base *serializable.InstallOptions, op operation.Type) *serializable.InstallOptions {
	opts := base.Copy()

	strs := map[string]struct {
		dst *string
		val string
	}{
		"version":  {&opts.Version, o.version},
		"arch":     {&opts.Architecture, o.architecture},
		"scope":    {&opts.InstallationScope, o.scope},
		"location": {&opts.CustomInstallLocation, o.location},
	}
	for name, s := range strs {
		if fs.Changed(name) {
			*s.dst = s.val
		}
	}

	bools := map[string]struct {
		dst *bool
		val bool
	}{
		"interactive":     {&opts.InteractiveInstallation, o.interactive},
		"skip-hash-check": {&opts.SkipHashCheck, o.skipHash},
		"admin":           {&opts.RunAsAdministrator, o.admin},
		"pre":             {&opts.PreRelease, o.preRelease},
		"purge":           {&opts.RemoveDataOnUninstall, o.removeData},
		"skip-minor":      {&opts.SkipMinorUpdates, o.skipMinor},
	}
	for name, b := range bools {
		if fs.Changed(name) {
			*b.dst = b.val
		}
	}

	if fs.Changed("param") {
		custom := append([]string(nil), o.custom...)
		switch op {
		case operation.Install:
			opts.CustomParametersInstall = custom
		case operation.Update:
			opts.CustomParametersUpdate = custom
		case operation.Uninstall:
			opts.CustomParametersUninstall = custom
		}
	}
	return opts
}

func validateOptions(opts *serializable.InstallOptions) error {
	switch opts.InstallationScope {
	case "", serializable.ScopeUser, serializable.ScopeGlobal:
		return nil
	default:
		return fmt.Errorf("invalid scope %q, expected %q or %q", opts.InstallationScope, serializable.ScopeUser, serializable.ScopeGlobal)
	}
}

func newOperationCmd(op operation.Type, short string) *cobra.Command {
	var (
		options    optionFlags
		save       bool
		newVersion string
		oldVersion string
	)

	cmd := &cobra.Command{
		Use:   op.String() + " <manager> <package id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			managerName, pkgID := args[0], args[1]

			store, err := openSettings(&f)
			if err != nil {
				return err
			}

			opts := options.apply(cmd.Flags(), store.InstallOptions(managerName, pkgID), op)
			if err := validateOptions(opts); err != nil {
				return err
			}
			if save {
				if err := store.SetInstallOptions(managerName, pkgID, opts); err != nil {
					return err
				}
				if err := store.Save(); err != nil {
					return fmt.Errorf("saving settings: %w", err)
				}
			}

			pkg := operation.Package{ID: pkgID, Name: pkgID, Version: opts.Version, NewVersion: newVersion}
			if op == operation.Update {
				if reason := updateSkipReason(store.UpdatesOptions(managerName, pkgID), opts, oldVersion, newVersion); reason != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Not updating %s: %s\n", pkgID, reason)
					return nil
				}
			}

			hg, err := initializeHosts(cmd.Context(), &f)
			if err != nil {
				return err
			}

			// Hosts take turns at the terminal.
			concurrency := f.Concurrency
			if opts.InteractiveInstallation {
				concurrency = 1
			}

			req := hostgroup.Request{Manager: managerName, Package: pkg, Options: opts, Operation: op}
			results, err := hg.Execute(cmd.Context(), req, concurrency)
			if err != nil {
				appLog.Error("Host processing error", "error", err)
			}

			renderResults(cmd.OutOrStdout(), req, results)
			if !allSucceeded(results) {
				return errUnsuccessful
			}
			return nil
		},
	}

	options.register(cmd.Flags())
	cmd.Flags().BoolVar(&save, "save", false, "Remember these options for the package")
	if op == operation.Update {
		cmd.Flags().StringVar(&newVersion, "to", "", "Update to this version, unless it is ignored")
		cmd.Flags().StringVar(&oldVersion, "from", "", "The installed version, compared with --to when minor updates are skipped")
	}
	return cmd
}

// updateSkipReason explains why the stored update policy or the install options hold back an
// update from oldVersion to newVersion, or returns "".
func updateSkipReason(policy *serializable.UpdatesOptions, opts *serializable.InstallOptions, oldVersion, newVersion string) string {
	switch {
	case policy.UpdatesIgnored || policy.IgnoredVersion == serializable.IgnoreAllVersions:
		return "updates are ignored"
	case policy.IsVersionIgnored(newVersion):
		return fmt.Sprintf("version %s is ignored", newVersion)
	case opts.SkipsUpdate(oldVersion, newVersion):
		return fmt.Sprintf("%s to %s is a minor update", oldVersion, newVersion)
	default:
		return ""
	}
}

func allSucceeded(results []hostgroup.Result) bool {
	for _, r := range results {
		if r.Err != nil || r.Verdict != operation.Success {
			return false
		}
	}
	return true
}

func init() {
	rootCmd.AddCommand(
		newOperationCmd(operation.Install, "Install a package"),
		newOperationCmd(operation.Update, "Update a package"),
		newOperationCmd(operation.Uninstall, "Uninstall a package"),
	)
}
