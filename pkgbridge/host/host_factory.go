package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steelcutops/pkgbridge/logger"
	"github.com/steelcutops/pkgbridge/pkgbridge/commandmanager"
	"github.com/steelcutops/pkgbridge/pkgbridge/packagemanager"
)

var osReleaseIDs = map[string]OSType{
	"ubuntu":    LinuxUbuntu,
	"debian":    LinuxDebian,
	"fedora":    LinuxFedora,
	"rhel":      LinuxRedHat,
	"rocky":     LinuxRedHat,
	"almalinux": LinuxRedHat,
	"centos":    LinuxCentOS,
	"alpine":    LinuxAlpine,
	"arch":      LinuxArch,
	"opensuse":  LinuxOpenSUSE,
	"suse":      LinuxOpenSUSE,
}

func NewHost(ctx context.Context, hostname string, options ...HostOption) (*Host, error) {
	if hostname == "" {
		return nil, errors.New("hostname is required")
	}

	ch := &Host{Hostname: hostname}
	for _, option := range options {
		option(ch)
	}
	if ch.Log == nil {
		ch.Log = logger.New()
	}
	if ch.SSHClient == nil {
		ch.SSHClient = commandmanager.RealSSHDialer{}
	}

	// The command manager is needed before the OS can be determined.
	if ch.CommandManager == nil {
		ch.CommandManager = &commandmanager.UnixCommandManager{
			Hostname:    hostname,
			SSHClient:   ch.SSHClient,
			Prompt:      ch.Prompt,
			Log:         ch.Log,
			Credentials: ch.Credentials,
		}
	}

	if ch.OSType == "" {
		osType, err := ch.DetermineOS(ctx)
		if err != nil {
			return nil, err
		}
		ch.OSType = osType
	}

	switch ch.OSType {
	case LinuxUbuntu, LinuxDebian, LinuxFedora, LinuxRedHat, LinuxCentOS, LinuxAlpine, LinuxArch, LinuxOpenSUSE:
		configureLinuxHost(ch)
	case Darwin:
		configureMacHost(ch)
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", ch.OSType)
	}

	for _, m := range ch.managers {
		if err := m.Detect(ctx); err != nil {
			ch.Log.Warn("Package manager detection failed", "host", hostname, "manager", m.Name(), "error", err)
		}
	}
	return ch, nil
}

// DetermineOS asks the host for its kernel name and, on Linux, its os-release ID.
func (h *Host) DetermineOS(ctx context.Context) (OSType, error) {
	result, err := h.CommandManager.Run(ctx, commandmanager.CommandConfig{Command: "uname", Args: []string{"-s"}})
	if err != nil {
		return "", fmt.Errorf("determining OS of %s: %w", h.Hostname, err)
	}

	switch kernel := strings.TrimSpace(result.STDOUT); kernel {
	case "Darwin":
		return Darwin, nil
	case "Linux":
	default:
		return OSType(kernel), nil
	}

	result, err = h.CommandManager.Run(ctx, commandmanager.CommandConfig{Command: "cat", Args: []string{"/etc/os-release"}})
	if err != nil {
		return "", fmt.Errorf("reading os-release of %s: %w", h.Hostname, err)
	}
	return parseOSRelease(result.STDOUT), nil
}

// parseOSRelease maps ID, then each ID_LIKE entry, to a known distribution.
func parseOSRelease(content string) OSType {
	values := map[string]string{}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		values[key] = strings.ToLower(strings.Trim(value, `"'`))
	}

	candidates := append([]string{values["ID"]}, strings.Fields(values["ID_LIKE"])...)
	for _, id := range candidates {
		if osType, ok := osReleaseIDs[id]; ok {
			return osType
		}
		if strings.HasPrefix(id, "opensuse") {
			return LinuxOpenSUSE
		}
	}
	return Unknown
}

// configureLinuxHost registers the distribution's system manager, if one is supported, followed
// by the language managers.
func configureLinuxHost(ch *Host) {
	var pkgManager *packagemanager.Manager

	switch ch.OSType {
	case LinuxUbuntu, LinuxDebian:
		pkgManager = packagemanager.NewAptPackageManager(ch.CommandManager, ch.Log)
	case LinuxFedora:
		pkgManager = packagemanager.NewDnfPackageManager(ch.CommandManager, ch.Log)
	case LinuxRedHat, LinuxCentOS:
		pkgManager = packagemanager.NewYumPackageManager(ch.CommandManager, ch.Log)
	case LinuxAlpine:
		pkgManager = packagemanager.NewApkPackageManager(ch.CommandManager, ch.Log)
	}

	if pkgManager != nil {
		ch.managers = append(ch.managers, pkgManager)
	}
	ch.managers = append(ch.managers, languageManagers(ch)...)
}

func configureMacHost(ch *Host) {
	ch.managers = append(ch.managers, packagemanager.NewBrewPackageManager(ch.CommandManager, ch.Log))
	ch.managers = append(ch.managers, languageManagers(ch)...)
}

func languageManagers(ch *Host) []*packagemanager.Manager {
	return []*packagemanager.Manager{
		packagemanager.NewPipPackageManager(ch.CommandManager, ch.Log),
		packagemanager.NewNpmPackageManager(ch.CommandManager, ch.Log),
	}
}
