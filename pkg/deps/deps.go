// pkg/deps/deps.go

// Package deps detects and installs the runtime components the kiosk shell
// needs. Resolution is sequential and fail-fast for the required tier; the
// optional tier is best effort.
package deps

import (
	"context"
	"regexp"
	"strings"

	"github.com/afitler79-alt/xui-installer/pkg/execute"
	"github.com/afitler79-alt/xui-installer/pkg/platform"
	"github.com/afitler79-alt/xui-installer/pkg/xui_err"
	cerr "github.com/cockroachdb/errors"
	version "github.com/hashicorp/go-version"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Tier separates must-have dependencies from optional companion tools.
type Tier int

const (
	TierRequired Tier = iota
	TierOptional
)

// Status is the result of probing one dependency.
type Status int

const (
	StatusPresent Status = iota
	StatusAbsent
	StatusVersionMismatch
)

func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusAbsent:
		return "absent"
	case StatusVersionMismatch:
		return "version-mismatch"
	default:
		return "unknown"
	}
}

// Probe describes how a dependency is detected: a command is run and its
// exit status decides presence. When ParseVersion is set, the output is
// parsed and checked against the spec's constraint.
type Probe struct {
	Command      string
	Args         []string
	ParseVersion bool
}

// Spec describes one dependency: how to detect it and which packages
// install it. Specs are evaluated strictly in declaration order, so a
// language runtime always precedes the toolkit modules that need it.
type Spec struct {
	Name       string
	Tier       Tier
	Probe      Probe
	Constraint string   // go-version constraint, e.g. ">= 3.8"; empty = any
	Packages   []string // package-manager identifiers
}

// Runner abstracts command execution so tests can stub the host.
type Runner func(ctx context.Context, opts execute.Options) (string, error)

// Resolver walks a dependency catalog for one install target.
type Resolver struct {
	target      platform.InstallTarget
	run         Runner
	record      func(pkg string) error
	skipAptWait bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRunner overrides command execution (tests).
func WithRunner(run Runner) Option {
	return func(r *Resolver) { r.run = run }
}

// WithRecorder sets the callback invoked for every package installed, so
// the install state can list them.
func WithRecorder(record func(pkg string) error) Option {
	return func(r *Resolver) { r.record = record }
}

// WithSkipAptWait disables waiting for the apt/dpkg locks before the first
// package operation.
func WithSkipAptWait() Option {
	return func(r *Resolver) { r.skipAptWait = true }
}

// NewResolver builds a resolver for the detected target.
func NewResolver(target platform.InstallTarget, opts ...Option) *Resolver {
	r := &Resolver{
		target: target,
		run:    execute.Run,
		record: func(string) error { return nil },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve probes each spec in order and installs what is absent or
// mismatched. The first required-tier failure aborts the chain with
// DependencyInstallError; optional-tier failures are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, specs []Spec) error {
	log := otelzap.Ctx(ctx)

	mgr, err := r.manager()
	if err != nil {
		return err
	}

	prepared := false
	for _, spec := range specs {
		status := r.probe(ctx, spec)
		log.Info("Dependency probed",
			zap.String("name", spec.Name),
			zap.String("status", status.String()),
			zap.String("constraint", spec.Constraint))

		if status == StatusPresent {
			continue
		}

		if !prepared {
			if err := mgr.prepare(ctx, r.run); err != nil {
				if spec.Tier == TierOptional {
					log.Warn("Optional dependency skipped, package manager not ready",
						zap.String("name", spec.Name), zap.Error(err))
					continue
				}
				return xui_err.NewDependencyInstallError(spec.Name, err)
			}
			prepared = true
		}

		if err := mgr.install(ctx, r.run, spec.Packages); err != nil {
			if spec.Tier == TierOptional {
				log.Warn("Optional dependency skipped",
					zap.String("name", spec.Name), zap.Error(err))
				continue
			}
			return xui_err.NewDependencyInstallError(spec.Name, err)
		}

		for _, pkg := range spec.Packages {
			if err := r.record(pkg); err != nil {
				log.Warn("Failed to record installed package",
					zap.String("package", pkg), zap.Error(err))
			}
		}
		log.Info("Dependency installed",
			zap.String("name", spec.Name),
			zap.Strings("packages", spec.Packages))
	}
	return nil
}

// SurveyResult pairs one dependency with its probed status.
type SurveyResult struct {
	Name   string
	Tier   Tier
	Status Status
}

// Survey probes every spec without installing anything. Read-only; used by
// the status report.
func (r *Resolver) Survey(ctx context.Context, specs []Spec) []SurveyResult {
	results := make([]SurveyResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, SurveyResult{
			Name:   spec.Name,
			Tier:   spec.Tier,
			Status: r.probe(ctx, spec),
		})
	}
	return results
}

// probe classifies one dependency on the host.
func (r *Resolver) probe(ctx context.Context, spec Spec) Status {
	out, err := r.run(ctx, execute.Options{
		Command: spec.Probe.Command,
		Args:    spec.Probe.Args,
		Capture: true,
	})
	if err != nil {
		return StatusAbsent
	}
	if !spec.Probe.ParseVersion || spec.Constraint == "" {
		return StatusPresent
	}

	detected := extractVersion(out)
	if detected == "" {
		// Probe succeeded but the version is unreadable; treat as present
		// rather than reinstalling on every run.
		return StatusPresent
	}
	ok, err := checkConstraint(detected, spec.Constraint)
	if err != nil || !ok {
		return StatusVersionMismatch
	}
	return StatusPresent
}

var versionRe = regexp.MustCompile(`\d+(\.\d+)+`)

// extractVersion pulls the first dotted version number out of probe output.
func extractVersion(out string) string {
	return versionRe.FindString(strings.TrimSpace(out))
}

func checkConstraint(detected, constraint string) (bool, error) {
	v, err := version.NewVersion(detected)
	if err != nil {
		return false, cerr.Wrapf(err, "parse version %q", detected)
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return false, cerr.Wrapf(err, "parse constraint %q", constraint)
	}
	return c.Check(v), nil
}
