// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

// SchedulerCronLine is the recurring entry that drives the application
// scheduler for a given install directory.
func SchedulerCronLine(installDir string) string {
	return fmt.Sprintf("* * * * * cd %s && php artisan schedule:run >> /dev/null 2>&1", installDir)
}

// MergeCrontab appends line to an existing crontab unless it is already
// present, returning the new table. Unrelated lines keep their order.
func MergeCrontab(current, line string) (merged string, changed bool) {
	trimmed := strings.TrimRight(current, "\n")
	for _, l := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(l) == line {
			return current, false
		}
	}
	if trimmed == "" {
		return line + "\n", true
	}
	return trimmed + "\n" + line + "\n", true
}

// SchedulerCronStep installs the per-user schedule entry that runs the
// application scheduler every minute.
type SchedulerCronStep struct {
	Shell steps.ShellRunner
}

func CreateSchedulerCronStep(shell steps.ShellRunner) *SchedulerCronStep {
	return &SchedulerCronStep{Shell: shell}
}

func (s *SchedulerCronStep) Name() string {
	return "SchedulerCronStep"
}

func (s *SchedulerCronStep) Labels() []string {
	return []string{"install", "cron"}
}

func (s *SchedulerCronStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if !cfg.Features.Cron {
		internal.Logger().Info("Scheduler cron entry declined; skipping")
		return true, nil
	}
	current, err := s.currentCrontab(ctx)
	if err != nil {
		return false, err
	}
	_, changed := MergeCrontab(current, SchedulerCronLine(cfg.App.InstallDir))
	return !changed, nil
}

func (s *SchedulerCronStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	current, err := s.currentCrontab(ctx)
	if err != nil {
		return rs, err
	}
	merged, changed := MergeCrontab(current, SchedulerCronLine(cfg.App.InstallDir))
	if !changed {
		return rs, nil
	}
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"crontab", "-"},
		Timeout: steps.DefaultTimeout,
		Stdin:   merged,
	}); err != nil {
		return rs, err
	}
	internal.Logger().Info("Scheduler cron entry installed")
	return rs, nil
}

func (s *SchedulerCronStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

func (s *SchedulerCronStep) currentCrontab(ctx context.Context) (string, *internal.InstallerError) {
	// crontab -l exits non-zero when the user has no crontab yet.
	out, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command:   []string{"crontab", "-l"},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	})
	if err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", nil
	}
	return out.Stdout.String(), nil
}
