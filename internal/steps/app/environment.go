// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/envfile"
	"github.com/arvobill/installer/internal/steps"
)

// EnvFileStep writes the resolved settings into the application's
// persisted key=value configuration store. Existing unrelated keys and
// their order survive the update.
type EnvFileStep struct{}

func CreateEnvFileStep() *EnvFileStep {
	return &EnvFileStep{}
}

func (s *EnvFileStep) Name() string {
	return "EnvFileStep"
}

func (s *EnvFileStep) Labels() []string {
	return []string{"install", "env"}
}

func envPath(cfg config.InstallConfig) string {
	return filepath.Join(cfg.App.InstallDir, ".env")
}

func desiredPairs(cfg config.InstallConfig) [][2]string {
	scheme := "http"
	if cfg.Features.SSL {
		scheme = "https"
	}
	return [][2]string{
		{"APP_ENV", "production"},
		{"APP_DEBUG", "false"},
		{"APP_URL", fmt.Sprintf("%s://%s", scheme, cfg.App.Domain)},
		{"DB_HOST", "127.0.0.1"},
		{"DB_DATABASE", cfg.Database.Name},
		{"DB_USERNAME", cfg.Database.User},
		{"DB_PASSWORD", cfg.Database.Password},
	}
}

func (s *EnvFileStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	path := envPath(cfg)
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	for _, pair := range desiredPairs(cfg) {
		current, err := envfile.Get(path, pair[0])
		if err != nil || current != pair[1] {
			return false, nil
		}
	}
	return true, nil
}

func (s *EnvFileStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	path := envPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		example := filepath.Join(cfg.App.InstallDir, ".env.example")
		if _, err := os.Stat(example); err == nil {
			if copyErr := copyFile(example, path, 0o600); copyErr != nil {
				return rs, &internal.InstallerError{
					ErrorCode: internal.InstallerErrorCodeInternal,
					ErrorMsg:  fmt.Sprintf("seed %s from example: %v", path, copyErr),
				}
			}
		}
	}
	if err := envfile.SetAll(path, desiredPairs(cfg)); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("update %s: %v", path, err),
		}
	}
	internal.Logger().Infof("Environment file %s updated", path)
	return rs, nil
}

func (s *EnvFileStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

// AppKeyStep generates the application key once; an already populated
// APP_KEY is never rotated.
type AppKeyStep struct {
	Shell steps.ShellRunner
}

func CreateAppKeyStep(shell steps.ShellRunner) *AppKeyStep {
	return &AppKeyStep{Shell: shell}
}

func (s *AppKeyStep) Name() string {
	return "AppKeyStep"
}

func (s *AppKeyStep) Labels() []string {
	return []string{"install", "env"}
}

func (s *AppKeyStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	key, err := envfile.Get(envPath(cfg), "APP_KEY")
	if err != nil {
		return false, nil
	}
	return key != "", nil
}

func (s *AppKeyStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"php", "artisan", "key:generate", "--force"},
		Timeout: steps.DefaultTimeout,
		Dir:     cfg.App.InstallDir,
	}); err != nil {
		return rs, err
	}
	return rs, nil
}

func (s *AppKeyStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
