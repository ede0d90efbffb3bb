// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"golang.org/x/exp/rand"
)

// IntegrationEnv gates tests that need real zfs, root and loop devices.
const IntegrationEnv = "ZSTATE_INTEGRATION"

type LoopDevice struct {
	File   *os.File
	Device string
}

type TestEnv struct {
	Devices []*LoopDevice
}

const (
	TestPoolPrefix     = "zstate"
	TestPoolNameLength = 6
	poolNameChars      = "abcdefghijklmnopqrstuvwxyz0123456789"

	LoopDeviceSize = 64 // required minimum size in MB
)

// RequireIntegration skips t unless integration tests were requested.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv(IntegrationEnv) != "1" {
		t.Skipf("set %s=1 to run against real zfs", IntegrationEnv)
	}
	if os.Geteuid() != 0 {
		t.Skip("integration tests need root")
	}
}

// GeneratePoolName creates a unique pool name for testing
func GeneratePoolName() string {
	rand.Seed(uint64(time.Now().UnixNano()))
	suffix := make([]byte, TestPoolNameLength)
	for i := range suffix {
		suffix[i] = poolNameChars[rand.Intn(len(poolNameChars))]
	}
	return fmt.Sprintf("%s-%s", TestPoolPrefix, string(suffix))
}

func createLoopDevice(sizeMB int64) (*LoopDevice, error) {
	f, err := os.CreateTemp("", "zstate-test-*.img")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	if err := f.Truncate(sizeMB << 20); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to size disk image: %v", err)
	}

	out, err := exec.Command("losetup", "-f", "--show", f.Name()).Output()
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to setup loop device: %v", err)
	}

	return &LoopDevice{File: f, Device: strings.TrimSpace(string(out))}, nil
}

func (l *LoopDevice) Cleanup() error {
	if l.Device != "" {
		if err := exec.Command("losetup", "-d", l.Device).Run(); err != nil {
			return fmt.Errorf("failed to detach loop device: %v", err)
		}
	}
	if l.File != nil {
		l.File.Close()
		if err := os.Remove(l.File.Name()); err != nil {
			return fmt.Errorf("failed to remove file: %v", err)
		}
	}
	return nil
}

// NewTestEnv attaches diskCount loop devices and detaches them when t ends.
func NewTestEnv(t *testing.T, diskCount int) *TestEnv {
	t.Helper()
	env := &TestEnv{}
	for i := 0; i < diskCount; i++ {
		device, err := createLoopDevice(LoopDeviceSize)
		if err != nil {
			env.Cleanup()
			t.Fatalf("failed to create loop device %d: %v", i, err)
		}
		env.Devices = append(env.Devices, device)
	}
	t.Cleanup(env.Cleanup)
	return env
}

func (e *TestEnv) GetLoopDevices() []string {
	devices := make([]string, len(e.Devices))
	for i, d := range e.Devices {
		devices[i] = d.Device
	}
	return devices
}

func (e *TestEnv) Cleanup() {
	for i := len(e.Devices) - 1; i >= 0; i-- {
		if err := e.Devices[i].Cleanup(); err != nil {
			fmt.Printf("cleanup %s: %v\n", e.Devices[i].Device, err)
		}
	}
	e.Devices = nil
}
