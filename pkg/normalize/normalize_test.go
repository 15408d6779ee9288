package normalize

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linuxTarget = platform.InstallTarget{OSFamily: platform.Linux, Arch: platform.X64}

func writeScript(t *testing.T, dir, name string, content []byte, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, mode))
	return path
}

func TestRunStripsCarriageReturns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeScript(t, dir, "start_xui.sh",
		[]byte("#!/usr/bin/env bash\r\necho hello\r\n"), 0o644)

	changed, err := Run(context.Background(), linuxTarget, []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/usr/bin/env bash\necho hello\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o111, "executable bit should be set")
}

func TestRunIsAFixedPoint(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeScript(t, dir, "dashboard.sh",
		[]byte("#!/usr/bin/env bash\r\nexec python3 dashboard.py\r\n"), 0o644)

	_, err := Run(context.Background(), linuxTarget, []string{path})
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	changed, err := Run(context.Background(), linuxTarget, []string{path})
	require.NoError(t, err)
	assert.Empty(t, changed, "second run must observe nothing to change")

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second run must be byte-identical")
}

func TestRunSkipsMissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := writeScript(t, dir, "present.sh", []byte("#!/bin/sh\n"), 0o755)
	missing := filepath.Join(dir, "absent.sh")

	changed, err := Run(context.Background(), linuxTarget, []string{missing, existing})
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestRunWindowsKeepsMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeScript(t, dir, "start_xui.cmd", []byte("@echo off\r\n"), 0o644)

	winTarget := platform.InstallTarget{OSFamily: platform.Windows, Arch: platform.X64}
	changed, err := Run(context.Background(), winTarget, []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, changed)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o111, "windows targets keep the mode untouched")
}
