// pkg/deps/catalog.go

package deps

import (
	"github.com/afitler79-alt/xui-installer/pkg/platform"
)

// Catalog returns the dependency specs for one install target, in install
// order. withExtras appends the optional companion tier.
func Catalog(target platform.InstallTarget, withExtras bool) []Spec {
	var specs []Spec
	switch target.OSFamily {
	case platform.Windows:
		specs = windowsCatalog()
	default:
		specs = linuxCatalog()
	}
	if !withExtras {
		required := specs[:0]
		for _, s := range specs {
			if s.Tier == TierRequired {
				required = append(required, s)
			}
		}
		return required
	}
	return specs
}

// linuxCatalog lists what the PyQt dashboard needs on Debian-family
// systems. The python runtime precedes the toolkit modules that import it.
func linuxCatalog() []Spec {
	return []Spec{
		{
			Name:       "python3",
			Tier:       TierRequired,
			Probe:      Probe{Command: "python3", Args: []string{"--version"}, ParseVersion: true},
			Constraint: ">= 3.8",
			Packages:   []string{"python3"},
		},
		{
			Name:     "python3-pyqt5",
			Tier:     TierRequired,
			Probe:    Probe{Command: "python3", Args: []string{"-c", "import PyQt5"}},
			Packages: []string{"python3-pyqt5", "python3-pyqt5.qtsvg"},
		},
		{
			Name:     "python3-requests",
			Tier:     TierRequired,
			Probe:    Probe{Command: "python3", Args: []string{"-c", "import requests"}},
			Packages: []string{"python3-requests"},
		},
		{
			Name:     "x11-xserver-utils",
			Tier:     TierRequired,
			Probe:    Probe{Command: "xset", Args: []string{"-version"}},
			Packages: []string{"x11-xserver-utils"},
		},
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
}

// windowsCatalog lists the winget identifiers for the same stack.
func windowsCatalog() []Spec {
	return []Spec{
		{
			Name:       "python",
			Tier:       TierRequired,
			Probe:      Probe{Command: "python", Args: []string{"--version"}, ParseVersion: true},
			Constraint: ">= 3.8",
			Packages:   []string{"Python.Python.3.11"},
		},
		{
			Name:     "git",
			Tier:     TierOptional,
			Probe:    Probe{Command: "git", Args: []string{"--version"}},
			Packages: []string{"Git.Git"},
		},
	}
}
