// pkg/platform/platform.go

// Package platform classifies the host the installer runs on. Detection is
// a pure read of the environment; every later provisioning decision hangs
// off the InstallTarget it produces.
package platform

import (
	"bufio"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
)

// OSFamily is the supported operating system family.
type OSFamily string

const (
	Linux   OSFamily = "linux"
	Windows OSFamily = "windows"
)

// Arch is the supported CPU architecture.
type Arch string

const (
	X64   Arch = "x64"
	ARM64 Arch = "arm64"
)

// InstallTarget is the detected host classification. Immutable once
// detected; it drives every later installation decision.
type InstallTarget struct {
	OSFamily   OSFamily
	Arch       Arch
	DistroHint string // "debian", "rhel", or empty
}

// Detect classifies the running host. Unknown OS families and architectures
// are a hard stop, never a silent fallback to x64.
func Detect() (InstallTarget, error) {
	return detectFrom(runtime.GOOS, runtime.GOARCH, readOSRelease())
}

func detectFrom(goos, goarch, osRelease string) (InstallTarget, error) {
	var family OSFamily
	switch goos {
	case "linux":
		family = Linux
	case "windows":
		family = Windows
	default:
		return InstallTarget{}, xui_err.NewUnsupportedPlatformError(goos, goarch)
	}

	var arch Arch
	switch goarch {
	case "amd64":
		arch = X64
	case "arm64":
		arch = ARM64
	default:
		return InstallTarget{}, xui_err.NewUnsupportedPlatformError(goos, goarch)
	}

	target := InstallTarget{OSFamily: family, Arch: arch}
	if family == Linux {
		target.DistroHint = distroHint(osRelease)
	}
	return target, nil
}

// distroHint maps /etc/os-release contents to "debian", "rhel", or "".
func distroHint(osRelease string) string {
	scanner := bufio.NewScanner(strings.NewReader(osRelease))
	var id, idLike string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "ID="):
			id = strings.Trim(strings.TrimPrefix(line, "ID="), `"`)
		case strings.HasPrefix(line, "ID_LIKE="):
			idLike = strings.Trim(strings.TrimPrefix(line, "ID_LIKE="), `"`)
		}
	}

	combined := id + " " + idLike
	switch {
	case containsAny(combined, "debian", "ubuntu", "raspbian"):
		return "debian"
	case containsAny(combined, "rhel", "centos", "fedora"):
		return "rhel"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func readOSRelease() string {
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return ""
	}
	return string(data)
}

// IsCommandAvailable checks if a command exists in the system PATH.
func IsCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
