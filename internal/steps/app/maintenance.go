// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

// MaintenanceStep puts the served application into maintenance mode before
// an update touches its files. Restoration happens in Cleanup, which the
// orchestrator runs on every exit path, so an aborted update still
// attempts to bring the application back up.
type MaintenanceStep struct {
	Shell steps.ShellRunner
}

func CreateMaintenanceStep(shell steps.ShellRunner) *MaintenanceStep {
	return &MaintenanceStep{Shell: shell}
}

func (s *MaintenanceStep) Name() string {
	return "MaintenanceStep"
}

func (s *MaintenanceStep) Labels() []string {
	return []string{"update", "maintenance"}
}

func (s *MaintenanceStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	return rs.Action != "update", nil
}

func (s *MaintenanceStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"php", "artisan", "down"},
		Timeout: steps.DefaultTimeout,
		Dir:     cfg.App.InstallDir,
	}); err != nil {
		return rs, err
	}
	rs.MaintenanceEngaged = true
	internal.Logger().Info("Application is in maintenance mode")
	return rs, nil
}

func (s *MaintenanceStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	if !rs.MaintenanceEngaged {
		return rs, nil
	}
	// Best effort: the run may be unwinding after a failure.
	out, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command:   []string{"php", "artisan", "up"},
		Timeout:   steps.DefaultTimeout,
		Dir:       cfg.App.InstallDir,
		SkipError: true,
	})
	if err != nil {
		internal.Logger().Warnf("cannot leave maintenance mode: %s", err.ErrorMsg)
		return rs, nil
	}
	if out.Error != nil {
		internal.Logger().Warnf("cannot leave maintenance mode: %v", out.Error)
		return rs, nil
	}
	rs.MaintenanceEngaged = false
	internal.Logger().Info("Application is back up")
	return rs, nil
}
