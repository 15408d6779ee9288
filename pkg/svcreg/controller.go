// pkg/svcreg/controller.go

package svcreg

import (
	"context"
	"runtime"
	"time"

	"github.com/afitler79-alt/xui-installer/pkg/execute"
	cerr "github.com/cockroachdb/errors"
	"github.com/kardianos/service"
)

// program satisfies service.Interface. The registrar only manages the
// registration; it never runs as the service itself, so both hooks are
// no-ops.
type program struct{}

func (p *program) Start(s service.Service) error { return nil }
func (p *program) Stop(s service.Service) error  { return nil }

type serviceController struct {
	svc service.Service
	reg Registration
}

// newServiceController wraps kardianos/service for one registration.
func newServiceController(reg Registration) (Controller, error) {
	cfg := &service.Config{
		Name:        reg.Name,
		DisplayName: reg.DisplayName,
		Description: reg.Description,
		Executable:  reg.ExecPath,
		Arguments:   reg.Args,
		Option:      service.KeyValue{},
	}

	if reg.RunAt == RunAtLogin {
		// Per-user entry: systemd --user on linux, the user service manager
		// elsewhere.
		cfg.Option["UserService"] = true
	}

	if runtime.GOOS == "linux" {
		cfg.Dependencies = []string{"After=network.target"}
	}
	if runtime.GOOS == "windows" {
		cfg.Option["OnFailure"] = "restart"
	}

	svc, err := service.New(&program{}, cfg)
	if err != nil {
		return nil, cerr.Wrap(err, "create service handle")
	}
	return &serviceController{svc: svc, reg: reg}, nil
}

func (c *serviceController) Installed() (bool, error) {
	_, err := c.svc.Status()
	if err == nil {
		return true, nil
	}
	if cerr.Is(err, service.ErrNotInstalled) {
		return false, nil
	}
	return false, cerr.Wrap(err, "query service status")
}

func (c *serviceController) Install() error   { return c.svc.Install() }
func (c *serviceController) Uninstall() error { return c.svc.Uninstall() }
func (c *serviceController) Start() error     { return c.svc.Start() }
func (c *serviceController) Stop() error      { return c.svc.Stop() }

// Disable turns autostart off for an installed entry. The service library
// enables entries unconditionally on Install and offers no disable action,
// so this goes through the platform tooling directly.
func (c *serviceController) Disable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch runtime.GOOS {
	case "linux":
		args := []string{"disable", c.reg.Name + ".service"}
		if c.reg.RunAt == RunAtLogin {
			args = append([]string{"--user"}, args...)
		}
		return execute.RunSimple(ctx, "systemctl", args...)
	case "windows":
		return execute.RunSimple(ctx, "sc", "config", c.reg.Name, "start=", "demand")
	default:
		return nil
	}
}
