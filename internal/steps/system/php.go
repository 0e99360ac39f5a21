// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const MinPHPVersion = "8.1"

// PHPCheckStep confirms the PHP runtime installed by the package step is
// recent enough for the application, and records the detected version.
type PHPCheckStep struct {
	Shell steps.ShellRunner
}

func CreatePHPCheckStep(shell steps.ShellRunner) *PHPCheckStep {
	return &PHPCheckStep{Shell: shell}
}

func (s *PHPCheckStep) Name() string {
	return "PHPCheckStep"
}

func (s *PHPCheckStep) Labels() []string {
	return []string{"install", "update", "preflight"}
}

func (s *PHPCheckStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	return false, nil
}

func (s *PHPCheckStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	out, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"php", "-r", "echo PHP_VERSION;"},
		Timeout: steps.DefaultTimeout,
	})
	if err != nil {
		return rs, err
	}
	detected := strings.TrimSpace(out.Stdout.String())
	current, parseErr := version.NewVersion(detected)
	if parseErr != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("cannot parse PHP version %q: %v", detected, parseErr),
		}
	}
	if current.LessThan(version.Must(version.NewVersion(MinPHPVersion))) {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("PHP %s or newer is required, found %s", MinPHPVersion, detected),
		}
	}
	rs.PHPVersion = detected
	return rs, nil
}

func (s *PHPCheckStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
