package deps

import (
	"context"
	"strings"
	"testing"

	"github.com/afitler79-alt/xui-installer/pkg/execute"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var debianTarget = platform.InstallTarget{
	OSFamily:   platform.Linux,
	Arch:       platform.X64,
	DistroHint: "debian",
}

// fakeHost scripts command results keyed by "command arg0 arg1 ...".
type fakeHost struct {
	outputs  map[string]string
	failures map[string]error
	calls    []string
}

func (h *fakeHost) run(ctx context.Context, opts execute.Options) (string, error) {
	key := strings.TrimSpace(opts.Command + " " + strings.Join(opts.Args, " "))
	h.calls = append(h.calls, key)
	if err, ok := h.failures[key]; ok {
		return "", err
	}
	if out, ok := h.outputs[key]; ok {
		return out, nil
	}
	return "", nil
}

func (h *fakeHost) called(prefix string) bool {
	for _, c := range h.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func TestResolveAllPresentInstallsNothing(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		outputs: map[string]string{
			"python3 --version": "Python 3.10.12",
		},
		failures: map[string]error{
			// fuser failing means no process holds the apt locks.
			"fuser /var/lib/dpkg/lock-frontend /var/lib/dpkg/lock /var/lib/apt/lists/lock": cerr.New("exit 1"),
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run))
	specs := []Spec{
		{
			Name:       "python3",
			Tier:       TierRequired,
			Probe:      Probe{Command: "python3", Args: []string{"--version"}, ParseVersion: true},
			Constraint: ">= 3.8",
			Packages:   []string{"python3"},
		},
	}

	require.NoError(t, r.Resolve(context.Background(), specs))
	assert.False(t, host.called("apt-get"), "present dependency must not trigger apt")
}

func TestResolveInstallsAbsentAndRecords(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		outputs: map[string]string{
			"python3 --version": "Python 3.10.12",
		},
		failures: map[string]error{
			"python3 -c import PyQt5": cerr.New("ModuleNotFoundError"),
			"fuser /var/lib/dpkg/lock-frontend /var/lib/dpkg/lock /var/lib/apt/lists/lock": cerr.New("exit 1"),
		},
	}

	var recorded []string
	r := NewResolver(debianTarget,
		WithRunner(host.run),
		WithRecorder(func(pkg string) error {
			recorded = append(recorded, pkg)
			return nil
		}),
	)

	require.NoError(t, r.Resolve(context.Background(), Catalog(debianTarget, false)[:2]))
	assert.True(t, host.called("apt-get update"))
	assert.True(t, host.called("apt-get install -y -q python3-pyqt5"))
	assert.Equal(t, []string{"python3-pyqt5", "python3-pyqt5.qtsvg"}, recorded)
}

func TestResolveRequiredFailureIsFailFast(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		failures: map[string]error{
			"python3 --version":                 cerr.New("not found"),
			"python3 -c import PyQt5":           cerr.New("not found"),
			"apt-get install -y -q python3":     cerr.New("apt-get exited 100"),
			"fuser /var/lib/dpkg/lock-frontend /var/lib/dpkg/lock /var/lib/apt/lists/lock": cerr.New("exit 1"),
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run))
	err := r.Resolve(context.Background(), Catalog(debianTarget, false))
	require.Error(t, err)
	assert.Equal(t, xui_err.CategoryDependency, xui_err.CategoryOf(err))
	assert.Contains(t, err.Error(), "python3")
	assert.False(t, host.called("apt-get install -y -q python3-requests"),
		"later dependencies must not be attempted after a required failure")
}

func TestResolveOptionalFailureIsSkipped(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		failures: map[string]error{
			"unclutter -help":                 cerr.New("not found"),
			"xdotool version":                 cerr.New("not found"),
			"apt-get install -y -q unclutter": cerr.New("no candidate"),
			"fuser /var/lib/dpkg/lock-frontend /var/lib/dpkg/lock /var/lib/apt/lists/lock": cerr.New("exit 1"),
		},
	}

	specs := []Spec{
		{
			Name:     "unclutter",
			Tier:     TierOptional,
			Probe:    Probe{Command: "unclutter", Args: []string{"-help"}},
			Packages: []string{"unclutter"},
		},
		{
			Name:     "xdotool",
			Tier:     TierOptional,
			Probe:    Probe{Command: "xdotool", Args: []string{"version"}},
			Packages: []string{"xdotool"},
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run))
	require.NoError(t, r.Resolve(context.Background(), specs))
	assert.True(t, host.called("apt-get install -y -q xdotool"),
		"chain continues past a failed optional dependency")
}

func TestResolveSkipAptWaitSkipsFuser(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		failures: map[string]error{
			"python3 --version": cerr.New("not found"),
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run), WithSkipAptWait())
	specs := []Spec{
		{
			Name:     "python3",
			Tier:     TierRequired,
			Probe:    Probe{Command: "python3", Args: []string{"--version"}},
			Packages: []string{"python3"},
		},
	}
	require.NoError(t, r.Resolve(context.Background(), specs))
	assert.False(t, host.called("fuser"))
	assert.True(t, host.called("apt-get update"))
}

func TestSurveyProbesWithoutInstalling(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		outputs: map[string]string{
			"python3 --version": "Python 3.10.12",
		},
		failures: map[string]error{
			"python3 -c import PyQt5": cerr.New("ModuleNotFoundError"),
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run))
	results := r.Survey(context.Background(), Catalog(debianTarget, false)[:2])

	require.Len(t, results, 2)
	assert.Equal(t, "python3", results[0].Name)
	assert.Equal(t, StatusPresent, results[0].Status)
	assert.Equal(t, StatusAbsent, results[1].Status)
	assert.False(t, host.called("apt-get"), "survey must never install")
}

func TestProbeVersionMismatch(t *testing.T) {
	t.Parallel()

	host := &fakeHost{
		outputs: map[string]string{
			"python3 --version": "Python 3.6.9",
		},
	}

	r := NewResolver(debianTarget, WithRunner(host.run))
	status := r.probe(context.Background(), Spec{
		Name:       "python3",
		Probe:      Probe{Command: "python3", Args: []string{"--version"}, ParseVersion: true},
		Constraint: ">= 3.8",
	})
	assert.Equal(t, StatusVersionMismatch, status)
}

func TestExtractVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Python 3.10.12", "3.10.12"},
		{"git version 2.39.2.windows.1", "2.39.2"},
		{"no digits here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractVersion(tt.in))
	}
}

func TestCatalogFiltersOptionalTier(t *testing.T) {
	t.Parallel()

	for _, spec := range Catalog(debianTarget, false) {
		assert.Equal(t, TierRequired, spec.Tier)
	}

	full := Catalog(debianTarget, true)
	var optional int
	for _, spec := range full {
		if spec.Tier == TierOptional {
			optional++
		}
	}
	assert.Positive(t, optional, "extras catalog must include the optional tier")
}
