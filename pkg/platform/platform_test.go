package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ubuntuOSRelease = `NAME="Ubuntu"
ID=ubuntu
ID_LIKE=debian
VERSION_ID="22.04"
`

const rockyOSRelease = `NAME="Rocky Linux"
ID="rocky"
ID_LIKE="rhel centos fedora"
`

func TestDetectFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		goos      string
		goarch    string
		osRelease string
		want      InstallTarget
		wantErr   bool
	}{
		{
			name:      "linux amd64 ubuntu",
			goos:      "linux",
			goarch:    "amd64",
			osRelease: ubuntuOSRelease,
			want:      InstallTarget{OSFamily: Linux, Arch: X64, DistroHint: "debian"},
		},
		{
			name:      "linux arm64 rhel-like",
			goos:      "linux",
			goarch:    "arm64",
			osRelease: rockyOSRelease,
			want:      InstallTarget{OSFamily: Linux, Arch: ARM64, DistroHint: "rhel"},
		},
		{
			name:   "windows amd64",
			goos:   "windows",
			goarch: "amd64",
			want:   InstallTarget{OSFamily: Windows, Arch: X64},
		},
		{
			name:    "32-bit arm is a hard stop",
			goos:    "linux",
			goarch:  "arm",
			wantErr: true,
		},
		{
			name:    "386 is a hard stop",
			goos:    "windows",
			goarch:  "386",
			wantErr: true,
		},
		{
			name:    "darwin unsupported",
			goos:    "darwin",
			goarch:  "arm64",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := detectFrom(tt.goos, tt.goarch, tt.osRelease)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, xui_err.CategoryPlatform, xui_err.CategoryOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDistroHintUnknown(t *testing.T) {
	t.Parallel()

	assert.Empty(t, distroHint(""))
	assert.Empty(t, distroHint("ID=alpine\nID_LIKE=musl\n"))
}

func TestIsCommandAvailable(t *testing.T) {
	// .exe keeps the lookup valid on windows; unix matches the literal name.
	dir := t.TempDir()
	name := "xui-probe.exe"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", dir)

	assert.True(t, IsCommandAvailable(name))
	assert.False(t, IsCommandAvailable("xui-no-such-command"))
}
