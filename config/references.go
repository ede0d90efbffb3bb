// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
)

var configDir string

func init() {
	configDir = defaultConfigDir(os.Geteuid())
}

func defaultConfigDir(euid int) string {
	if euid == 0 {
		return "/etc/zstate"
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "zstate")
	}
	return filepath.Join(homeDir, ".zstate")
}

// GetConfigDir returns /etc/zstate when running as root and ~/.zstate
// otherwise.
func GetConfigDir() string {
	return configDir
}

// EnsureDirectories creates the configuration directory if needed.
func EnsureDirectories() error {
	return os.MkdirAll(configDir, 0755)
}
