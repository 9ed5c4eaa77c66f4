package serializable

// IgnoreAllVersions as IgnoredVersion ignores every future version of a package.
const IgnoreAllVersions = "*"

// UpdatesOptions is the per-package update-ignore policy.
type UpdatesOptions struct {
	UpdatesIgnored bool
	IgnoredVersion string
}

var _ Component[*UpdatesOptions] = (*UpdatesOptions)(nil)

func DefaultUpdatesOptions() *UpdatesOptions {
	return &UpdatesOptions{}
}

func NewUpdatesOptions(doc Document) *UpdatesOptions {
	return Load(doc, DefaultUpdatesOptions)
}

func (o *UpdatesOptions) Copy() *UpdatesOptions {
	return &UpdatesOptions{
		UpdatesIgnored: o.UpdatesIgnored,
		IgnoredVersion: o.IgnoredVersion,
	}
}

func (o *UpdatesOptions) LoadFromJSON(doc Document) {
	o.UpdatesIgnored = readBool(doc, "UpdatesIgnored", false)
	o.IgnoredVersion = readString(doc, "IgnoredVersion", "")
}

func (o *UpdatesOptions) AsDocument() Document {
	doc := Document{}
	putBool(doc, "UpdatesIgnored", o.UpdatesIgnored, false)
	putString(doc, "IgnoredVersion", o.IgnoredVersion, "")
	return doc
}

func (o *UpdatesOptions) Equal(other *UpdatesOptions) bool {
	return *o == *other
}

// IsVersionIgnored reports whether an update to version should be held back.
func (o *UpdatesOptions) IsVersionIgnored(version string) bool {
	if o.UpdatesIgnored || o.IgnoredVersion == IgnoreAllVersions {
		return true
	}
	return o.IgnoredVersion != "" && o.IgnoredVersion == version
}
