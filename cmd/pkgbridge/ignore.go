package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgbridge/pkgbridge/serializable"
)

var ignoreVersion string

var ignoreCmd = &cobra.Command{
	Use:   "ignore <manager> <package id>",
	Short: "Stop updating a package, or skip one version of it",
	Long: `Record an update policy for a package. Without --version every update is
ignored; with it only that version is skipped. Use "*" to ignore all versions.

Examples:
  pkgbridge ignore brew node
  pkgbridge ignore pip requests --version 2.32.0`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := &serializable.UpdatesOptions{UpdatesIgnored: ignoreVersion == ""}
		if ignoreVersion != "" {
			policy.IgnoredVersion = ignoreVersion
		}
		return saveUpdatesPolicy(cmd, args[0], args[1], policy)
	},
}

var unignoreCmd = &cobra.Command{
	Use:   "unignore <manager> <package id>",
	Short: "Clear the update policy of a package",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveUpdatesPolicy(cmd, args[0], args[1], serializable.DefaultUpdatesOptions())
	},
}

func init() {
	ignoreCmd.Flags().StringVar(&ignoreVersion, "version", "", "Only ignore this version")
	rootCmd.AddCommand(ignoreCmd, unignoreCmd)
}

func saveUpdatesPolicy(cmd *cobra.Command, managerName, pkgID string, policy *serializable.UpdatesOptions) error {
	store, err := openSettings(&f)
	if err != nil {
		return err
	}
	if err := store.SetUpdatesOptions(managerName, pkgID, policy); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	if policy.Equal(serializable.DefaultUpdatesOptions()) {
		fmt.Fprintf(cmd.OutOrStdout(), "Updates for %s/%s are no longer ignored.\n", managerName, pkgID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Updated the policy for %s/%s.\n", managerName, pkgID)
	}
	return nil
}
