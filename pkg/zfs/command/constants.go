// pkg/zfs/command/constants.go

package command

import "time"

const (
	// Default binaries, overridable through config.
	BinZFS   = "/usr/sbin/zfs"
	BinZpool = "/usr/sbin/zpool"

	// Default timeout for command execution
	DefaultTimeout = 30 * time.Second
)

// Subcommands that only read state. Everything else counts as a mutation.
var ReadOnlySubcommands = map[string]bool{
	"get":     true,
	"list":    true,
	"status":  true,
	"iostat":  true,
	"history": true,
	"version": true,
	"diff":    true,
	"holds":   true,
}

// Commands that require sudo
var SudoRequiredCommands = map[string]bool{
	"zfs create":       true,
	"zfs destroy":      true,
	"zfs rename":       true,
	"zfs snapshot":     true,
	"zfs bookmark":     true,
	"zfs rollback":     true,
	"zfs clone":        true,
	"zfs promote":      true,
	"zfs mount":        true,
	"zfs unmount":      true,
	"zfs set":          true,
	"zfs inherit":      true,
	"zpool create":     true,
	"zpool destroy":    true,
	"zpool import":     true,
	"zpool export":     true,
	"zpool scrub":      true,
	"zpool add":        true,
	"zpool attach":     true,
	"zpool detach":     true,
	"zpool split":      true,
	"zpool replace":    true,
	"zpool online":     true,
	"zpool offline":    true,
	"zpool labelclear": true,
	"zpool clear":      true,
	"zpool reguid":     true,
	"zpool reopen":     true,
	"zpool upgrade":    true,
	"zpool set":        true,
}
