// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package webserver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const certbotTimeout = 300 // seconds; includes the ACME round trips

// CertbotStep obtains and installs a TLS certificate for the domain via
// the certificate authority client. The client rewrites the active nginx
// configuration itself.
type CertbotStep struct {
	Shell   steps.ShellRunner
	LiveDir string
}

func CreateCertbotStep(shell steps.ShellRunner) *CertbotStep {
	return &CertbotStep{
		Shell:   shell,
		LiveDir: "/etc/letsencrypt/live",
	}
}

func (s *CertbotStep) Name() string {
	return "CertbotStep"
}

func (s *CertbotStep) Labels() []string {
	return []string{"install", "webserver", "ssl"}
}

func (s *CertbotStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if !cfg.Features.SSL {
		internal.Logger().Info("TLS certificate declined; skipping")
		return true, nil
	}
	cert := filepath.Join(s.LiveDir, cfg.App.Domain, "fullchain.pem")
	if _, err := os.Stat(cert); err == nil {
		return true, nil
	}
	return false, nil
}

func (s *CertbotStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{
			"certbot", "--nginx",
			"-d", cfg.App.Domain,
			"-m", cfg.App.AdminEmail,
			"--agree-tos", "--non-interactive", "--redirect",
		},
		Timeout: certbotTimeout,
	}); err != nil {
		return rs, err
	}
	internal.Logger().Infof("TLS certificate issued for %s", cfg.App.Domain)
	return rs, nil
}

func (s *CertbotStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
