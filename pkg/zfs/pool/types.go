// pkg/zfs/pool/types.go

package pool

// Status is one pool section of `zpool status`.
type Status struct {
	Name string `json:"name"`
	// Fields holds the "key: value" lines (state, scan, errors, ...).
	// Continuation lines are joined with a newline.
	Fields map[string]string `json:"fields"`
	// Config is the parsed vdev table; the first entry is the pool root.
	Config []*VDev `json:"config,omitempty"`
}

// State returns the "state" field.
func (s *Status) State() string {
	return s.Fields["state"]
}

// VDev is a row of the status config table or the iostat table.
type VDev struct {
	Name string `json:"name"`
	// Stats maps column names (state, read, write, cksum or the iostat
	// columns) to decoded values.
	Stats    map[string]any `json:"stats,omitempty"`
	Note     string         `json:"note,omitempty"`
	Children []*VDev        `json:"children,omitempty"`
}

// Layout reduces a vdev tree to names only, e.g.
// [{mirror-0: [sda, sdb]}, sdc].
func (v *VDev) Layout() []any {
	out := make([]any, 0, len(v.Children))
	for _, c := range v.Children {
		if len(c.Children) == 0 {
			out = append(out, c.Name)
			continue
		}
		out = append(out, map[string]any{c.Name: c.Layout()})
	}
	return out
}

// Find returns the vdev named name in the subtree rooted at v.
func (v *VDev) Find(name string) *VDev {
	if v.Name == name {
		return v
	}
	for _, c := range v.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// VDevSpec describes one vdev group for create/add.
type VDevSpec struct {
	Type     string     // mirror, raidz2, log, cache, spare; empty or stripe for plain disks
	Devices  []string   // Device paths
	Children []VDevSpec // For nested vdev configurations
}

// CreateConfig defines parameters for pool creation
type CreateConfig struct {
	Name  string
	VDevs []VDevSpec
	// Properties are pool properties (-o); FilesystemProperties apply to
	// the root dataset (-O).
	Properties           map[string]any
	FilesystemProperties map[string]any
	Force                bool
	CreateBoot           bool
	AltRoot              string
	MountPoint           string
}

// Recovery selects the -F family of import flags.
type Recovery string

const (
	RecoveryNone   Recovery = ""
	RecoveryRewind Recovery = "rewind" // -F
	RecoveryTest   Recovery = "test"   // -F -n
	RecoveryNoLog  Recovery = "nolog"  // -m
)

// ImportConfig defines parameters for pool import. An empty Name imports
// every pool found (-a).
type ImportConfig struct {
	Name          string
	NewName       string
	Properties    map[string]any
	Force         bool
	OnlyDestroyed bool
	NoMount       bool
	AltRoot       string
	MountOptions  string
	Dirs          []string // Search directories
	Recovery      Recovery
}

// SplitConfig defines parameters for splitting a mirrored pool.
type SplitConfig struct {
	AltRoot    string
	Properties map[string]any
}

// ScrubAction selects start, stop or pause.
type ScrubAction int

const (
	ScrubStart ScrubAction = iota
	ScrubStop
	ScrubPause
)

// ListOptions selects the columns of `zpool list`.
type ListOptions struct {
	Name       string
	Properties []string
	// Parsable decodes values; otherwise they are humanized.
	Parsable bool
}

// DefaultListProperties are the columns List reports when none are given.
var DefaultListProperties = []string{"size", "alloc", "free", "cap", "frag", "health"}

// GetOptions controls how Get decodes values.
type GetOptions struct {
	// Raw keeps the tool's text.
	Raw bool
	// Humanize re-encodes decoded sizes for display.
	Humanize bool
	// Parsable asks the tool for exact numbers (-p) instead of rounded
	// sizes.
	Parsable bool
}

// HistoryEntry is one logged command.
type HistoryEntry struct {
	Pool      string `json:"pool"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
}
