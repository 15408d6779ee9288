package privilege

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptAll(ctx context.Context, path string) error { return nil }

func testRule() Rule {
	return Rule{
		User: "kiosk",
		Commands: []string{
			"/opt/xui/start_xui.sh",
			"/opt/xui/dashboard.sh",
		},
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	want := "kiosk ALL=(root) NOPASSWD: /opt/xui/dashboard.sh, /opt/xui/start_xui.sh\n"
	assert.Equal(t, want, testRule().Render())

	reversed := Rule{User: "kiosk", Commands: []string{
		"/opt/xui/dashboard.sh", "/opt/xui/start_xui.sh",
	}}
	assert.Equal(t, want, reversed.Render(), "command order must not change the rendered rule")
}

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid", testRule(), false},
		{"no user", Rule{Commands: []string{"/a"}}, true},
		{"no commands", Rule{User: "kiosk"}, true},
		{"relative command", Rule{User: "kiosk", Commands: []string{"start.sh"}}, true},
		{"comma in command", Rule{User: "kiosk", Commands: []string{"/a,b"}}, true},
		{"space in command", Rule{User: "kiosk", Commands: []string{"/a b"}}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyWritesRestrictedRule(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, acceptAll)

	require.NoError(t, s.Apply(context.Background(), testRule()))

	path := s.RulePath("kiosk")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testRule().Render(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o440), info.Mode().Perm())
}

func TestApplyOverwritesNeverAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, acceptAll)

	require.NoError(t, s.Apply(context.Background(), testRule()))
	require.NoError(t, s.Apply(context.Background(), testRule()))

	data, err := os.ReadFile(s.RulePath("kiosk"))
	require.NoError(t, err)
	assert.Equal(t, testRule().Render(), string(data), "re-applying must not duplicate entries")
}

func TestApplyValidationFailureRollsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, acceptAll)
	require.NoError(t, s.Apply(context.Background(), testRule()))
	prior, err := os.ReadFile(s.RulePath("kiosk"))
	require.NoError(t, err)

	rejecting := NewScoper(dir, func(ctx context.Context, path string) error {
		return cerr.New("visudo: syntax error")
	})
	changed := testRule()
	changed.Commands = []string{"/opt/xui/new_start.sh"}
	err = rejecting.Apply(context.Background(), changed)
	require.Error(t, err)
	assert.Equal(t, xui_err.CategoryPrivilege, xui_err.CategoryOf(err))

	// Prior rule untouched, no candidate left behind.
	current, err := os.ReadFile(s.RulePath("kiosk"))
	require.NoError(t, err)
	assert.Equal(t, prior, current)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rolled-back candidate must not linger")
}

func TestApplyValidatorSeesRestrictedCandidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, func(ctx context.Context, path string) error {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(),
			"candidate must be owner-only before validation reads it")
		return nil
	})
	require.NoError(t, s.Apply(context.Background(), testRule()))
}

func TestApplyRejectsUnsafeRuleBeforeTouchingDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, acceptAll)

	err := s.Apply(context.Background(), Rule{User: "kiosk", Commands: []string{"relative.sh"}})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewScoper(dir, acceptAll)
	require.NoError(t, s.Apply(context.Background(), testRule()))

	require.NoError(t, s.Revoke(context.Background(), "kiosk"))
	_, err := os.Stat(s.RulePath("kiosk"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Revoke(context.Background(), "kiosk"), "revoking an absent rule is a no-op")
}

func TestRulePath(t *testing.T) {
	t.Parallel()

	s := NewScoper("", nil)
	assert.Equal(t, filepath.Join(DefaultRuleDir, "xui-kiosk"), s.RulePath("kiosk"))
}

func TestVisudoValidatorMissingVisudo(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := VisudoValidator(context.Background(), "/nonexistent/candidate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visudo not found")
}
