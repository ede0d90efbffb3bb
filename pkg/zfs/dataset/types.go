package dataset

// CreateConfig creates a filesystem, or a volume when VolumeSize is set.
type CreateConfig struct {
	Name       string         `json:"name" binding:"required"`
	Properties map[string]any `json:"properties,omitempty"`
	// CreateParent creates missing parent datasets (-p).
	CreateParent bool `json:"create_parent"`
	// VolumeSize accepts a byte count or a size such as "10G".
	VolumeSize any  `json:"volume_size,omitempty"`
	Sparse     bool `json:"sparse"`
}

// DestroyOptions maps onto -f, -r and -R.
type DestroyOptions struct {
	Force bool `json:"force"`
	// Recursive destroys children (-r).
	Recursive bool `json:"recursive"`
	// RecursiveAll also destroys dependents such as clones (-R).
	RecursiveAll bool `json:"recursive_all"`
}

// RenameOptions for dataset renaming. Recursive applies to snapshots only;
// CreateParent and Force to everything else.
type RenameOptions struct {
	CreateParent bool `json:"create_parent"`
	Force        bool `json:"force"`
	Recursive    bool `json:"recursive"`
}

// ListOptions defines parameters for listing datasets
type ListOptions struct {
	Name       string   `json:"name,omitempty"`
	Type       string   `json:"type,omitempty"`
	Recursive  bool     `json:"recursive"`
	Depth      int      `json:"depth,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Sort       string   `json:"sort,omitempty"`
	Descending bool     `json:"descending"`
	// Parsable decodes values; otherwise sizes are humanized.
	Parsable bool `json:"parsable"`
}

// DefaultListProperties are the columns List reports when none are given.
var DefaultListProperties = []string{"used", "avail", "refer", "mountpoint"}

// GetOptions selects what `zfs get` reports.
type GetOptions struct {
	Properties []string `json:"properties,omitempty"`
	// Fields besides name and property; value and source by default.
	Fields    []string `json:"fields,omitempty"`
	Recursive bool     `json:"recursive"`
	Depth     int      `json:"depth,omitempty"`
	Type      string   `json:"type,omitempty"`
	Source    string   `json:"source,omitempty"`
	Raw       bool     `json:"raw"`
	Humanize  bool     `json:"humanize"`
	// Parsable emits -p so sizes come back exact.
	Parsable bool `json:"parsable"`
}

// RollbackOptions for snapshot rollback. Force needs one of the recursive
// options.
type RollbackOptions struct {
	Recursive    bool `json:"recursive"`
	RecursiveAll bool `json:"recursive_all"`
	Force        bool `json:"force"`
}

// MountOptions defines mount options
type MountOptions struct {
	Overlay bool   `json:"overlay"`
	Options string `json:"options,omitempty"`
}
