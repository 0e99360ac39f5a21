// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

// GoThroughStepFunctions drives a single step the way the orchestrator
// would: precondition, action, then unwind. Intended for step tests.
func GoThroughStepFunctions(step Step, cfg *config.InstallConfig) (config.RuntimeState, *internal.InstallerError) {
	ctx := context.Background()

	skip, err := step.Skip(ctx, *cfg, cfg.Generated)
	if err != nil {
		return cfg.Generated, err
	}
	if skip {
		return cfg.Generated, nil
	}

	newRS, runErr := step.Run(ctx, *cfg, cfg.Generated)
	if runErr == nil {
		if err := config.UpdateRuntimeState(&cfg.Generated, newRS); err != nil {
			return newRS, err
		}
	}

	newRS, cleanupErr := step.Cleanup(ctx, *cfg, cfg.Generated, runErr)
	if runErr != nil {
		return newRS, runErr
	}
	if cleanupErr != nil {
		return newRS, cleanupErr
	}
	if err := config.UpdateRuntimeState(&cfg.Generated, newRS); err != nil {
		return newRS, err
	}
	return cfg.Generated, nil
}
