// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package apt

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const installTimeout = 1800 // seconds; package installs can be slow

// Partition splits required into packages already installed and packages
// missing, preserving the declared order within each part.
func Partition(ctx context.Context, shell steps.ShellRunner, required []string) (present []string, missing []string, err *internal.InstallerError) {
	for _, pkg := range required {
		out, runErr := shell.Run(ctx, steps.ShellRunnerInput{
			Command: []string{"dpkg-query", "-W", "-f=${Status}", pkg},
			Timeout: steps.DefaultTimeout,
			// dpkg-query exits non-zero for unknown packages; that just
			// means the package is missing.
			SkipError: true,
		})
		if runErr != nil {
			return nil, nil, runErr
		}
		if out.Error == nil && strings.Contains(out.Stdout.String(), "install ok installed") {
			present = append(present, pkg)
		} else {
			missing = append(missing, pkg)
		}
	}
	return present, missing, nil
}

// InstallPackagesStep installs the declared system packages. It issues at
// most one batched apt-get call per run, covering exactly the missing set.
type InstallPackagesStep struct {
	Shell    steps.ShellRunner
	Packages []string
}

func CreateInstallPackagesStep(shell steps.ShellRunner, packages []string) *InstallPackagesStep {
	return &InstallPackagesStep{Shell: shell, Packages: packages}
}

func (s *InstallPackagesStep) Name() string {
	return "InstallPackagesStep"
}

func (s *InstallPackagesStep) Labels() []string {
	return []string{"install", "update", "packages"}
}

func (s *InstallPackagesStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	_, missing, err := Partition(ctx, s.Shell, s.Packages)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

func (s *InstallPackagesStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	logger := internal.Logger()
	present, missing, err := Partition(ctx, s.Shell, s.Packages)
	if err != nil {
		return rs, err
	}
	if len(present) > 0 {
		logger.Infof("Packages already installed: %s", strings.Join(present, ", "))
	}
	if len(missing) == 0 {
		return rs, nil
	}

	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"apt-get", "update"},
		Timeout: installTimeout,
	}); err != nil {
		return rs, err
	}

	cmd := append([]string{"apt-get", "install", "-y"}, missing...)
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: cmd,
		Timeout: installTimeout,
	}); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  fmt.Sprintf("failed to install packages %s: %s", strings.Join(missing, ", "), err.ErrorMsg),
		}
	}
	logger.Infof("Installed packages: %s", strings.Join(missing, ", "))
	return rs, nil
}

func (s *InstallPackagesStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
