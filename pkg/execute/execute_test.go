package execute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDryRun(t *testing.T) {
	t.Parallel()

	out, err := Run(context.Background(), Options{
		Command: "definitely-not-a-real-command",
		Args:    []string{"--flag"},
		DryRun:  true,
		Capture: true,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunMissingCommand(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), Options{
		Command: "xui-installer-test-no-such-binary",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestRunSimpleMissingCommand(t *testing.T) {
	t.Parallel()

	err := RunSimple(context.Background(), "xui-installer-test-no-such-binary", "--version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestTail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"empty", "", 3, ""},
		{"short", "one\ntwo", 3, "one\ntwo"},
		{"trims blank lines", "one\n\ntwo\n\n", 2, "one\ntwo"},
		{"keeps last n", "a\nb\nc\nd", 2, "c\nd"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tail(tt.in, tt.n))
		})
	}
}
