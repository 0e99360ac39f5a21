// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const dependencyTimeout = 1800 // seconds

// ComposerInstallStep installs the PHP dependency set shipped with the
// release.
type ComposerInstallStep struct {
	Shell steps.ShellRunner
}

func CreateComposerInstallStep(shell steps.ShellRunner) *ComposerInstallStep {
	return &ComposerInstallStep{Shell: shell}
}

func (s *ComposerInstallStep) Name() string {
	return "ComposerInstallStep"
}

func (s *ComposerInstallStep) Labels() []string {
	return []string{"install", "update", "dependencies"}
}

func (s *ComposerInstallStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if rs.Action == "update" {
		// Updated releases may have changed the lock file.
		return false, nil
	}
	_, err := os.Stat(filepath.Join(cfg.App.InstallDir, "vendor", "autoload.php"))
	return err == nil, nil
}

func (s *ComposerInstallStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"composer", "install", "--no-dev", "--optimize-autoloader", "--no-interaction"},
		Timeout: dependencyTimeout,
		Dir:     cfg.App.InstallDir,
	}); err != nil {
		return rs, err
	}
	return rs, nil
}

func (s *ComposerInstallStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

// NpmBuildStep installs frontend dependencies and builds the assets.
type NpmBuildStep struct {
	Shell steps.ShellRunner
}

func CreateNpmBuildStep(shell steps.ShellRunner) *NpmBuildStep {
	return &NpmBuildStep{Shell: shell}
}

func (s *NpmBuildStep) Name() string {
	return "NpmBuildStep"
}

func (s *NpmBuildStep) Labels() []string {
	return []string{"install", "update", "dependencies"}
}

func (s *NpmBuildStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if rs.Action == "update" {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(cfg.App.InstallDir, "public", "build"))
	return err == nil, nil
}

func (s *NpmBuildStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	for _, cmd := range [][]string{
		{"npm", "install", "--no-audit", "--no-fund"},
		{"npm", "run", "build"},
	} {
		if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
			Command: cmd,
			Timeout: dependencyTimeout,
			Dir:     cfg.App.InstallDir,
		}); err != nil {
			return rs, err
		}
	}
	return rs, nil
}

func (s *NpmBuildStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

// MigrateStep applies pending database migrations. The migration runner
// tracks what has been applied, and its status report is the precondition:
// no pending migrations means nothing to run.
type MigrateStep struct {
	Shell steps.ShellRunner
}

func CreateMigrateStep(shell steps.ShellRunner) *MigrateStep {
	return &MigrateStep{Shell: shell}
}

func (s *MigrateStep) Name() string {
	return "MigrateStep"
}

func (s *MigrateStep) Labels() []string {
	return []string{"install", "update", "database"}
}

func (s *MigrateStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	// migrate:status exits non-zero when the migrations table does not
	// exist yet; that just means everything is still pending.
	out, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command:   []string{"php", "artisan", "migrate:status", "--pending"},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
		Dir:       cfg.App.InstallDir,
	})
	if err != nil {
		return false, err
	}
	if out.Error != nil {
		return false, nil
	}
	return strings.Contains(out.Stdout.String(), "No pending migrations"), nil
}

func (s *MigrateStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"php", "artisan", "migrate", "--force"},
		Timeout: dependencyTimeout,
		Dir:     cfg.App.InstallDir,
	}); err != nil {
		return rs, err
	}
	return rs, nil
}

func (s *MigrateStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
