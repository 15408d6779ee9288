// pkg/xui_err/errors.go

package xui_err

import (
	"fmt"
)

// NewUnsupportedPlatformError reports an OS family or architecture the
// installer refuses to provision. Unknown architectures are a hard stop,
// never a fallback to x64.
func NewUnsupportedPlatformError(osFamily, arch string) *ClassifiedError {
	return &ClassifiedError{
		Category: CategoryPlatform,
		Message:  fmt.Sprintf("unsupported platform: os=%s arch=%s", osFamily, arch),
		Remediation: []string{
			"the kiosk shell supports linux and windows on x64 or arm64 only",
		},
	}
}

// NewDependencyInstallError reports a required dependency that could not be
// detected or installed. Resolution is fail-fast: the first one aborts the
// remaining chain.
func NewDependencyInstallError(name string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Category: CategoryDependency,
		Message:  fmt.Sprintf("failed to install dependency %q", name),
		Cause:    cause,
		Remediation: []string{
			fmt.Sprintf("install %q manually, then re-run the installer", name),
			"re-running install is safe: completed steps are skipped",
		},
	}
}

// NewPrivilegeRuleError reports a failure writing or validating the
// elevation rule. The partially written rule is rolled back before this
// error is returned.
func NewPrivilegeRuleError(cause error) *ClassifiedError {
	return &ClassifiedError{
		Category: CategoryPrivilege,
		Message:  "failed to write elevation rule",
		Cause:    cause,
		Remediation: []string{
			"check that visudo is available and /etc/sudoers.d is writable by root",
		},
	}
}

// NewServiceRegistrationError reports a failure registering or updating the
// autostart entry.
func NewServiceRegistrationError(name string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Category: CategoryService,
		Message:  fmt.Sprintf("failed to register service %q", name),
		Cause:    cause,
		Remediation: []string{
			"inspect the service manager logs, then re-run install",
		},
	}
}

// NewAlreadyRunningError reports that another installer invocation holds
// the lock. holderPID may be empty when the holder could not be read.
func NewAlreadyRunningError(lockPath, holderPID string) *ClassifiedError {
	msg := "another installer run is in progress"
	if holderPID != "" {
		msg = fmt.Sprintf("another installer run is in progress (PID %s holds the lock)", holderPID)
	}
	return &ClassifiedError{
		Category: CategoryLock,
		Message:  msg,
		Remediation: []string{
			"wait for the current run to complete and retry",
			fmt.Sprintf("if no installer is running, remove the stale lock: %s", lockPath),
		},
	}
}
