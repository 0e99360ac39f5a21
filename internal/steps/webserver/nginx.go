// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package webserver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/bitfield/script"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const vhostTemplate = `server {
    listen 80;
    listen [::]:80;
    server_name {{.Domain}};
    root {{.InstallDir}}/public;

    add_header X-Frame-Options "SAMEORIGIN";
    add_header X-Content-Type-Options "nosniff";

    index index.php;
    charset utf-8;

    location / {
        try_files $uri $uri/ /index.php?$query_string;
    }

    location = /favicon.ico { access_log off; log_not_found off; }
    location = /robots.txt  { access_log off; log_not_found off; }

    error_page 404 /index.php;

    location ~ \.php$ {
        fastcgi_pass unix:{{.PHPSocket}};
        fastcgi_param SCRIPT_FILENAME $realpath_root$fastcgi_script_name;
        include fastcgi_params;
    }

    location ~ /\.(?!well-known).* {
        deny all;
    }
}
`

type VhostData struct {
	Domain     string
	InstallDir string
	PHPSocket  string
}

// RenderVhost renders the reverse-proxy virtual host definition.
func RenderVhost(data VhostData) ([]byte, error) {
	tmpl, err := template.New("vhost").Parse(vhostTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// VhostStep materializes the nginx virtual host: render, validate with
// nginx -t, then link into the active set and reload. A render that fails
// validation is removed and never activated.
type VhostStep struct {
	Shell          steps.ShellRunner
	SitesAvailable string
	SitesEnabled   string
	PHPRunDir      string
}

func CreateVhostStep(shell steps.ShellRunner) *VhostStep {
	return &VhostStep{
		Shell:          shell,
		SitesAvailable: "/etc/nginx/sites-available",
		SitesEnabled:   "/etc/nginx/sites-enabled",
		PHPRunDir:      "/run/php",
	}
}

func (s *VhostStep) Name() string {
	return "NginxVhostStep"
}

func (s *VhostStep) Labels() []string {
	return []string{"install", "webserver"}
}

func (s *VhostStep) vhostPath(cfg config.InstallConfig) string {
	return filepath.Join(s.SitesAvailable, cfg.App.Domain+".conf")
}

func (s *VhostStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	logger := internal.Logger()
	if !cfg.Features.SSL {
		logger.Info("Web server configuration declined; set up the virtual host manually")
		return true, nil
	}
	if _, err := os.Stat(s.vhostPath(cfg)); err == nil && !cfg.Confirm.OverwriteVhost {
		logger.Warnf("Virtual host %s already exists and overwrite was not confirmed; skipping", s.vhostPath(cfg))
		return true, nil
	}
	return false, nil
}

func (s *VhostStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	socket, err := s.phpSocket()
	if err != nil {
		return rs, err
	}
	rendered, renderErr := RenderVhost(VhostData{
		Domain:     cfg.App.Domain,
		InstallDir: cfg.App.InstallDir,
		PHPSocket:  socket,
	})
	if renderErr != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("render virtual host: %v", renderErr),
		}
	}

	path := s.vhostPath(cfg)
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("write %s: %v", path, err),
		}
	}

	// Validate before the render can reach the live serving path.
	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"nginx", "-t"},
		Timeout: steps.DefaultTimeout,
	}); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			internal.Logger().Warnf("cannot remove invalid vhost %s: %v", path, rmErr)
		}
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  fmt.Sprintf("rendered virtual host failed validation: %s", err.ErrorMsg),
		}
	}

	link := filepath.Join(s.SitesEnabled, cfg.App.Domain+".conf")
	if _, err := os.Lstat(link); os.IsNotExist(err) {
		if err := os.Symlink(path, link); err != nil {
			return rs, &internal.InstallerError{
				ErrorCode: internal.InstallerErrorCodeInternal,
				ErrorMsg:  fmt.Sprintf("enable virtual host: %v", err),
			}
		}
	}

	if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
		Command: []string{"systemctl", "reload", "nginx"},
		Timeout: steps.DefaultTimeout,
	}); err != nil {
		return rs, err
	}
	internal.Logger().Infof("Virtual host for %s activated", cfg.App.Domain)
	return rs, nil
}

func (s *VhostStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

// phpSocket locates the php-fpm socket for whatever PHP minor version the
// package step installed.
func (s *VhostStep) phpSocket() (string, *internal.InstallerError) {
	name, err := script.ListFiles(s.PHPRunDir).Match("fpm.sock").First(1).String()
	if err != nil || strings.TrimSpace(name) == "" {
		return "", &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeAmbiguousEnvironment,
			ErrorMsg:  fmt.Sprintf("no php-fpm socket found under %s", s.PHPRunDir),
		}
	}
	return strings.TrimSpace(name), nil
}
