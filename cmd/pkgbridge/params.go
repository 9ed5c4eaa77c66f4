package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/operation"
	"github.com/steelcutops/pkgbridge/pkgbridge/packagemanager"
)

var (
	paramsOptions optionFlags
	paramsTo      string
)

var paramsCmd = &cobra.Command{
	Use:   "params <install|update|uninstall> <manager> <package id>",
	Short: "Print the command a package operation would run",
	Long: `Print the command line a package operation would run, without connecting to any
host. Stored options for the package are applied first, then the flags.

Examples:
  pkgbridge params install apt curl --version 8.5.0-2
  pkgbridge params update pip requests --to 2.32.3
  pkgbridge params uninstall brew wget --purge`,
	Args: cobra.ExactArgs(3),
	RunE: runParams,
}

func init() {
	paramsOptions.register(paramsCmd.Flags())
	paramsCmd.Flags().StringVar(&paramsTo, "to", "", "Version an update targets")
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	op, err := operation.ParseType(args[0])
	if err != nil {
		return err
	}
	managerName, pkgID := args[1], args[2]

	m, err := packagemanager.New(managerName, nil, appLog)
	if err != nil {
		return fmt.Errorf("%w (known: %s)", err, strings.Join(packagemanager.Names(), ", "))
	}

	store, err := openSettings(&f)
	if err != nil {
		return err
	}
	opts := paramsOptions.apply(cmd.Flags(), store.InstallOptions(managerName, pkgID), op)

	pkg := operation.Package{ID: pkgID, Name: pkgID, Version: opts.Version}
	if op == operation.Update {
		pkg.NewVersion = paramsTo
	}
	command, err := m.Command(pkg, opts, op)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatCommand(command))
	return nil
}

func formatCommand(command commandmanager.CommandConfig) string {
	var parts []string
	if command.Sudo {
		parts = append(parts, "sudo")
	}
	parts = append(parts, command.Env...)
	parts = append(parts, command.Command)
	return strings.Join(append(parts, command.Args...), " ")
}
