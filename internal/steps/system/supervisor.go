// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

const workerProgram = "arvobill-worker"

const workerConfTemplate = `[program:{{.Program}}]
process_name=%(program_name)s_%(process_num)02d
command=php {{.InstallDir}}/artisan queue:work --sleep=3 --tries=3 --max-time=3600
autostart=true
autorestart=true
stopasgroup=true
killasgroup=true
user=www-data
numprocs=2
redirect_stderr=true
stdout_logfile={{.InstallDir}}/storage/logs/worker.log
stopwaitsecs=3600
`

// QueueWorkerStep registers the queue worker with the process supervisor.
type QueueWorkerStep struct {
	Shell   steps.ShellRunner
	ConfDir string
}

func CreateQueueWorkerStep(shell steps.ShellRunner) *QueueWorkerStep {
	return &QueueWorkerStep{
		Shell:   shell,
		ConfDir: "/etc/supervisor/conf.d",
	}
}

func (s *QueueWorkerStep) Name() string {
	return "QueueWorkerStep"
}

func (s *QueueWorkerStep) Labels() []string {
	return []string{"install", "queue"}
}

func (s *QueueWorkerStep) confPath() string {
	return filepath.Join(s.ConfDir, workerProgram+".conf")
}

func (s *QueueWorkerStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if !cfg.Features.QueueWorker {
		internal.Logger().Info("Queue worker declined; skipping")
		return true, nil
	}
	if _, err := os.Stat(s.confPath()); err == nil {
		return true, nil
	}
	return false, nil
}

func (s *QueueWorkerStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	tmpl, err := template.New("worker").Parse(workerConfTemplate)
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("worker template: %v", err),
		}
	}
	f, err := os.OpenFile(s.confPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("cannot write %s: %v", s.confPath(), err),
		}
	}
	defer f.Close()
	if err := tmpl.Execute(f, map[string]string{
		"Program":    workerProgram,
		"InstallDir": cfg.App.InstallDir,
	}); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("render worker config: %v", err),
		}
	}

	for _, cmd := range [][]string{
		{"supervisorctl", "reread"},
		{"supervisorctl", "update"},
		{"supervisorctl", "start", workerProgram + ":*"},
	} {
		if _, err := s.Shell.Run(ctx, steps.ShellRunnerInput{
			Command: cmd,
			Timeout: steps.DefaultTimeout,
		}); err != nil {
			return rs, err
		}
	}
	internal.Logger().Infof("Queue worker registered with supervisor as %s", workerProgram)
	return rs, nil
}

func (s *QueueWorkerStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
