package serializable

import (
	"slices"
	"strings"
)

// InstallOptions are the manager-agnostic knobs a caller can set for one operation.
// Each backend maps the subset it understands onto its own command line.
type InstallOptions struct {
	SkipHashCheck           bool
	InteractiveInstallation bool
	RunAsAdministrator      bool
	PreRelease              bool
	RemoveDataOnUninstall   bool
	SkipMinorUpdates        bool

	Version               string
	Architecture          string
	InstallationScope     string
	CustomInstallLocation string

	CustomParametersInstall   []string
	CustomParametersUpdate    []string
	CustomParametersUninstall []string
}

const (
	ScopeUser   = "user"
	ScopeGlobal = "global"
)

var _ Component[*InstallOptions] = (*InstallOptions)(nil)

func DefaultInstallOptions() *InstallOptions {
	return &InstallOptions{}
}

func NewInstallOptions(doc Document) *InstallOptions {
	return Load(doc, DefaultInstallOptions)
}

func (o *InstallOptions) Copy() *InstallOptions {
	c := *o
	c.CustomParametersInstall = copyStrings(o.CustomParametersInstall)
	c.CustomParametersUpdate = copyStrings(o.CustomParametersUpdate)
	c.CustomParametersUninstall = copyStrings(o.CustomParametersUninstall)
	return &c
}

func (o *InstallOptions) LoadFromJSON(doc Document) {
	o.SkipHashCheck = readBool(doc, "SkipHashCheck", false)
	o.InteractiveInstallation = readBool(doc, "InteractiveInstallation", false)
	o.RunAsAdministrator = readBool(doc, "RunAsAdministrator", false)
	o.PreRelease = readBool(doc, "PreRelease", false)
	o.RemoveDataOnUninstall = readBool(doc, "RemoveDataOnUninstall", false)
	o.SkipMinorUpdates = readBool(doc, "SkipMinorUpdates", false)

	o.Version = readString(doc, "Version", "")
	o.Architecture = readString(doc, "Architecture", "")
	o.InstallationScope = readString(doc, "InstallationScope", "")
	o.CustomInstallLocation = readString(doc, "CustomInstallLocation", "")

	o.CustomParametersInstall = readStringList(doc, "CustomParameters_Install")
	o.CustomParametersUpdate = readStringList(doc, "CustomParameters_Update")
	o.CustomParametersUninstall = readStringList(doc, "CustomParameters_Uninstall")
}

func (o *InstallOptions) AsDocument() Document {
	doc := Document{}
	putBool(doc, "SkipHashCheck", o.SkipHashCheck, false)
	putBool(doc, "InteractiveInstallation", o.InteractiveInstallation, false)
	putBool(doc, "RunAsAdministrator", o.RunAsAdministrator, false)
	putBool(doc, "PreRelease", o.PreRelease, false)
	putBool(doc, "RemoveDataOnUninstall", o.RemoveDataOnUninstall, false)
	putBool(doc, "SkipMinorUpdates", o.SkipMinorUpdates, false)

	putString(doc, "Version", o.Version, "")
	putString(doc, "Architecture", o.Architecture, "")
	putString(doc, "InstallationScope", o.InstallationScope, "")
	putString(doc, "CustomInstallLocation", o.CustomInstallLocation, "")

	putStringList(doc, "CustomParameters_Install", o.CustomParametersInstall)
	putStringList(doc, "CustomParameters_Update", o.CustomParametersUpdate)
	putStringList(doc, "CustomParameters_Uninstall", o.CustomParametersUninstall)
	return doc
}

// Equal compares field by field. A nil list and an empty list are the same value.
func (o *InstallOptions) Equal(other *InstallOptions) bool {
	return o.SkipHashCheck == other.SkipHashCheck &&
		o.InteractiveInstallation == other.InteractiveInstallation &&
		o.RunAsAdministrator == other.RunAsAdministrator &&
		o.PreRelease == other.PreRelease &&
		o.RemoveDataOnUninstall == other.RemoveDataOnUninstall &&
		o.SkipMinorUpdates == other.SkipMinorUpdates &&
		o.Version == other.Version &&
		o.Architecture == other.Architecture &&
		o.InstallationScope == other.InstallationScope &&
		o.CustomInstallLocation == other.CustomInstallLocation &&
		slices.Equal(o.CustomParametersInstall, other.CustomParametersInstall) &&
		slices.Equal(o.CustomParametersUpdate, other.CustomParametersUpdate) &&
		slices.Equal(o.CustomParametersUninstall, other.CustomParametersUninstall)
}

// SkipsUpdate reports whether an update from one version to another is held back because
// SkipMinorUpdates is set and both versions share the same major component.
func (o *InstallOptions) SkipsUpdate(from, to string) bool {
	if !o.SkipMinorUpdates || from == "" || to == "" || from == to {
		return false
	}
	major := majorComponent(from)
	return major != "" && major == majorComponent(to)
}

func majorComponent(version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	major, _, _ := strings.Cut(version, ".")
	return major
}
