package xui_err

import (
	"context"
	"testing"

	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category Category
		want     int
	}{
		{"system", CategorySystem, 1},
		{"validation", CategoryValidation, 2},
		{"platform", CategoryPlatform, 10},
		{"dependency", CategoryDependency, 11},
		{"privilege", CategoryPrivilege, 12},
		{"service", CategoryService, 13},
		{"lock", CategoryLock, 14},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.category.ExitCode())
			assert.Equal(t, tt.name, tt.category.String())
		})
	}
}

func TestExitCodeWalksChain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))

	dep := NewDependencyInstallError("python3", cerr.New("apt-get exited 100"))
	wrapped := cerr.Wrap(dep, "resolve dependencies")
	assert.Equal(t, 11, ExitCode(wrapped))
	assert.Equal(t, CategoryDependency, CategoryOf(wrapped))

	assert.Equal(t, 1, ExitCode(cerr.New("disk full")))
	assert.Equal(t, CategorySystem, CategoryOf(cerr.New("disk full")))
}

func TestExitCodeUserError(t *testing.T) {
	t.Parallel()

	err := NewUserError("installation declined")
	assert.Equal(t, 2, ExitCode(err))
	assert.True(t, IsExpectedUserError(err))
	assert.True(t, IsExpectedUserError(cerr.Wrap(err, "install")))
	assert.False(t, IsExpectedUserError(cerr.New("boom")))
}

func TestNewExpectedError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Nil(t, NewExpectedError(ctx, nil))

	err := NewExpectedError(ctx, cerr.New("missing config"))
	require.NotNil(t, err)
	assert.True(t, IsExpectedUserError(err))
}

func TestAlreadyRunningRemediation(t *testing.T) {
	t.Parallel()

	err := NewAlreadyRunningError("/tmp/installer.lock", "4242")
	assert.Contains(t, err.Error(), "4242")
	hint := err.RemediationHint()
	assert.Contains(t, hint, "/tmp/installer.lock")
	assert.Equal(t, hint, RemediationOf(err))
}

func TestUnsupportedPlatformMessage(t *testing.T) {
	t.Parallel()

	err := NewUnsupportedPlatformError("linux", "arm")
	assert.Equal(t, 10, err.ExitCode())
	assert.Contains(t, err.Error(), "arch=arm")
}
