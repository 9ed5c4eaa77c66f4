package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
	"gopkg.in/ini.v1"

	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/host"
	"github.com/steelcutops/pkgbridge/pkgbridge/hostgroup"
	"github.com/steelcutops/pkgbridge/pkgbridge/settings"
)

func readHostsFromFile(filePath string) (map[string][]string, error) {
	cfg, err := ini.Load(filePath)
	if err != nil {
		return nil, err
	}

	hosts := make(map[string][]string)

	for _, section := range cfg.Sections() {
		name := section.Name()
		for _, key := range section.Keys() {
			hosts[name] = append(hosts[name], key.String())
		}
	}

	return hosts, nil
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func buildHostOptions(f *flags) ([]host.HostOption, error) {
	options := []host.HostOption{
		host.WithLogger(appLog),
		host.WithSSHClient(commandmanager.RealSSHDialer{}),
		host.WithElevationPrompt(commandmanager.NewTerminalPrompt()),
	}
	if f.Username != "" {
		options = append(options, host.WithUser(f.Username))
	}

	prompts := []struct {
		enabled bool
		prompt  string
		option  func(string) host.HostOption
	}{
		{f.PasswordPrompt, "Enter the password: ", host.WithPassword},
		{f.KeyPassPrompt, "Enter the key passphrase: ", host.WithKeyPassphrase},
		{f.SudoPasswordPrompt, "Enter the sudo password: ", host.WithSudoPassword},
	}
	for _, p := range prompts {
		if !p.enabled {
			continue
		}
		secret, err := readSecret(p.prompt)
		if err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		if secret != "" {
			options = append(options, p.option(secret))
		}
	}
	return options, nil
}

func addHosts(ctx context.Context, hostnames []string, hostGroup *hostgroup.HostGroup, options ...host.HostOption) {
	for _, hostname := range hostnames {
		appLog.Debug("Adding host", "host", hostname)
		server, err := host.NewHost(ctx, hostname, options...)
		if err != nil {
			appLog.Error("Failed to create new host", "host", hostname, "error", err)
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", hostname, err)
			continue
		}

		hostGroup.AddHost(server)
	}
}

// initializeHosts connects to the hosts from --ini and --hostname, defaulting to localhost.
func initializeHosts(ctx context.Context, f *flags) (*hostgroup.HostGroup, error) {
	options, err := buildHostOptions(f)
	if err != nil {
		return nil, err
	}

	hostGroup := hostgroup.NewHostGroup()

	if f.IniFilePath != "" {
		hostsMap, err := readHostsFromFile(f.IniFilePath)
		if err != nil {
			return nil, fmt.Errorf("reading hosts file: %w", err)
		}
		for group, hosts := range hostsMap {
			appLog.Debug("Adding hosts from group", "group", group)
			addHosts(ctx, hosts, hostGroup, options...)
		}
	}

	hostnames := f.Hostnames
	if len(hostnames) == 0 && f.IniFilePath == "" {
		hostnames = []string{"localhost"}
	}
	addHosts(ctx, hostnames, hostGroup, options...)

	if len(hostGroup.Sorted()) == 0 {
		return nil, errors.New("no usable hosts")
	}
	return hostGroup, nil
}

func openSettings(f *flags) (*settings.Store, error) {
	path := f.SettingsPath
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return settings.Open(path)
}
