// pkg/svcreg/svcreg.go

// Package svcreg registers the kiosk startup supervisor with the platform
// service manager (systemd, the Windows service manager, or the per-user
// equivalents). Registration is an upsert keyed by a deterministic service
// name, so re-install updates the same entry instead of creating duplicates.
package svcreg

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	"github.com/afitler79-alt/xui-installer/pkg/state"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// RunAt selects the execution point of the registration.
type RunAt string

const (
	RunAtBoot  RunAt = "boot"  // system service, starts with the machine
	RunAtLogin RunAt = "login" // user service, starts with the session
)

// ParseRunAt validates a --run-at flag value.
func ParseRunAt(s string) (RunAt, error) {
	switch RunAt(s) {
	case RunAtBoot:
		return RunAtBoot, nil
	case RunAtLogin:
		return RunAtLogin, nil
	default:
		return "", cerr.Newf("invalid run-at value %q (want boot or login)", s)
	}
}

// Registration describes the desired autostart entry.
type Registration struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	ExecPath    string   `json:"executable_path"`
	Args        []string `json:"arguments"`
	RunAt       RunAt    `json:"run_at"`
	Enabled     bool     `json:"enabled"`
}

// Controller is the slice of the platform service manager the registrar
// needs. The production implementation wraps kardianos/service.
type Controller interface {
	// Installed reports whether an entry with the registration's name exists.
	Installed() (bool, error)
	// Install registers the entry. Service managers enable autostart as part
	// of installation; Disable turns it back off while leaving the entry
	// registered.
	Install() error
	Uninstall() error
	Start() error
	Stop() error
	Disable() error
}

// ControllerFactory builds a controller for one registration.
type ControllerFactory func(reg Registration) (Controller, error)

// Registrar upserts and removes service registrations, remembering the
// desired state on disk so unchanged re-runs are observable no-ops.
type Registrar struct {
	stateDir      string
	newController ControllerFactory
}

// NewRegistrar builds a registrar persisting desired state in stateDir.
// A nil factory selects the kardianos/service implementation.
func NewRegistrar(stateDir string, factory ControllerFactory) *Registrar {
	if factory == nil {
		factory = newServiceController
	}
	return &Registrar{stateDir: stateDir, newController: factory}
}

// Upsert creates or updates the registration. Returns false when the
// installed entry already matches and nothing was touched.
func (r *Registrar) Upsert(ctx context.Context, reg Registration) (bool, error) {
	log := otelzap.Ctx(ctx)

	ctl, err := r.newController(reg)
	if err != nil {
		return false, xui_err.NewServiceRegistrationError(reg.Name, err)
	}

	installed, err := ctl.Installed()
	if err != nil {
		return false, xui_err.NewServiceRegistrationError(reg.Name, err)
	}

	stored, hasStored, err := r.loadDesired(reg.Name)
	if err != nil {
		return false, xui_err.NewServiceRegistrationError(reg.Name, err)
	}

	if installed && hasStored && reflect.DeepEqual(stored, reg) {
		log.Info("Service registration unchanged",
			zap.String("name", reg.Name), zap.String("run_at", string(reg.RunAt)))
		return false, nil
	}

	// Changed or absent: reinstall under the same name.
	if installed {
		log.Info("Updating existing service registration", zap.String("name", reg.Name))
		_ = ctl.Stop() // a stopped or never-started service is fine
		if err := ctl.Uninstall(); err != nil {
			return false, xui_err.NewServiceRegistrationError(reg.Name, cerr.Wrap(err, "remove outdated entry"))
		}
	}

	if err := ctl.Install(); err != nil {
		return false, xui_err.NewServiceRegistrationError(reg.Name, cerr.Wrap(err, "install entry"))
	}
	if reg.Enabled {
		if err := ctl.Start(); err != nil {
			return false, xui_err.NewServiceRegistrationError(reg.Name, cerr.Wrap(err, "start service"))
		}
	} else {
		// Install left the entry enabled; the registration asked for a
		// registered-but-disabled service.
		if err := ctl.Disable(); err != nil {
			return false, xui_err.NewServiceRegistrationError(reg.Name, cerr.Wrap(err, "disable autostart"))
		}
	}

	if err := r.saveDesired(reg); err != nil {
		return false, xui_err.NewServiceRegistrationError(reg.Name, err)
	}

	log.Info("Service registered",
		zap.String("name", reg.Name),
		zap.String("executable", reg.ExecPath),
		zap.String("run_at", string(reg.RunAt)),
		zap.Bool("enabled", reg.Enabled))
	return true, nil
}

// Remove unregisters the named service. Removing a registration that does
// not exist is a no-op, not an error.
func (r *Registrar) Remove(ctx context.Context, name string) error {
	log := otelzap.Ctx(ctx)

	reg, hasStored, err := r.loadDesired(name)
	if err != nil {
		return xui_err.NewServiceRegistrationError(name, err)
	}
	if !hasStored {
		// No desired state recorded; build a minimal registration so the
		// controller can still find a leftover entry by name.
		reg = Registration{Name: name}
	}

	ctl, err := r.newController(reg)
	if err != nil {
		return xui_err.NewServiceRegistrationError(name, err)
	}

	installed, err := ctl.Installed()
	if err != nil {
		return xui_err.NewServiceRegistrationError(name, err)
	}
	if installed {
		_ = ctl.Stop()
		if err := ctl.Uninstall(); err != nil {
			return xui_err.NewServiceRegistrationError(name, cerr.Wrap(err, "uninstall entry"))
		}
		log.Info("Service unregistered", zap.String("name", name))
	} else {
		log.Info("Service not registered, nothing to remove", zap.String("name", name))
	}

	if err := os.Remove(r.desiredPath(name)); err != nil && !os.IsNotExist(err) {
		return xui_err.NewServiceRegistrationError(name, cerr.Wrap(err, "clear desired state"))
	}
	return nil
}

// Desired returns the persisted desired registration for name, if any.
// Read-only; used by the status report.
func (r *Registrar) Desired(name string) (Registration, bool, error) {
	return r.loadDesired(name)
}

func (r *Registrar) desiredPath(name string) string {
	return filepath.Join(r.stateDir, "service-"+name+".json")
}

func (r *Registrar) loadDesired(name string) (Registration, bool, error) {
	var reg Registration
	data, err := os.ReadFile(r.desiredPath(name))
	if os.IsNotExist(err) {
		return reg, false, nil
	}
	if err != nil {
		return reg, false, cerr.Wrap(err, "read desired service state")
	}
	if err := json.Unmarshal(data, &reg); err != nil {
		return reg, false, cerr.Wrap(err, "parse desired service state")
	}
	return reg, true, nil
}

func (r *Registrar) saveDesired(reg Registration) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return cerr.Wrap(err, "encode desired service state")
	}
	return state.WriteFileAtomic(r.desiredPath(reg.Name), append(data, '\n'), 0o600)
}
