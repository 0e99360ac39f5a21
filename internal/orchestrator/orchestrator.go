// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

// Orchestrator executes an ordered list of provisioning steps. Steps whose
// precondition is already satisfied are skipped; the first failing action
// aborts the run. Cleanup of every attempted step is guaranteed on all
// exit paths, in reverse order, with failures logged and suppressed.
type Orchestrator struct {
	Steps []steps.Step

	mutex     *sync.Mutex
	cancelled bool
}

func CreateOrchestrator(stepList []steps.Step) *Orchestrator {
	return &Orchestrator{
		Steps: stepList,
		mutex: &sync.Mutex{},
	}
}

func (o *Orchestrator) Run(ctx context.Context, cfg *config.InstallConfig) (runErr *internal.InstallerError) {
	logger := internal.Logger()
	action := cfg.Generated.Action
	if action != "install" && action != "update" {
		return &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInvalidArgument,
			ErrorMsg:  fmt.Sprintf("unsupported action: %q", action),
		}
	}

	var attempted []steps.Step
	defer func() {
		// The run context may already be cancelled (interrupt); the unwind
		// must still be able to execute compensation commands.
		cleanupCtx := context.WithoutCancel(ctx)
		for i := len(attempted) - 1; i >= 0; i-- {
			step := attempted[i]
			newRS, err := step.Cleanup(cleanupCtx, *cfg, cfg.Generated, runErr)
			if err != nil {
				// Best-effort compensation only; never fatal during unwind.
				logger.Warnf("cleanup of step %s failed: %s", step.Name(), err.ErrorMsg)
				continue
			}
			if mergeErr := config.UpdateRuntimeState(&cfg.Generated, newRS); mergeErr != nil {
				logger.Warnf("cleanup of step %s: %s", step.Name(), mergeErr.ErrorMsg)
			}
		}
	}()

	for _, step := range o.Steps {
		if o.Cancelled() {
			logger.Info("Run cancelled")
			runErr = &internal.InstallerError{
				ErrorCode: internal.InstallerErrorCodeInternal,
				ErrorMsg:  "run cancelled",
			}
			return runErr
		}
		name := step.Name()

		skip, err := step.Skip(ctx, *cfg, cfg.Generated)
		if err != nil {
			runErr = &internal.InstallerError{
				ErrorCode: err.ErrorCode,
				ErrorMsg:  BuildErrorMessage(name, err),
			}
			return runErr
		}
		if skip {
			logger.Infof("Skipping step %s: already satisfied", name)
			continue
		}

		logger.Infof("Running step: %s", name)
		attempted = append(attempted, step)
		newRS, err := step.Run(ctx, *cfg, cfg.Generated)
		if err != nil {
			runErr = &internal.InstallerError{
				ErrorCode: err.ErrorCode,
				ErrorMsg:  BuildErrorMessage(name, err),
			}
			return runErr
		}
		if err := config.UpdateRuntimeState(&cfg.Generated, newRS); err != nil {
			runErr = &internal.InstallerError{
				ErrorCode: internal.InstallerErrorCodeInternal,
				ErrorMsg:  BuildErrorMessage(name, err),
			}
			return runErr
		}
	}
	return nil
}

func (o *Orchestrator) Cancel() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.cancelled = true
}

func (o *Orchestrator) Cancelled() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.cancelled
}

func BuildErrorMessage(stepName string, err *internal.InstallerError) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Step: %s\nError: %s", stepName, err.ErrorMsg)
}
