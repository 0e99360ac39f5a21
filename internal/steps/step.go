// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

type Step interface {
	// The name of the step
	Name() string

	// Labels for the step. We can selectively run a subset of steps by specifying labels.
	Labels() []string

	// Skip reports whether the step's outcome is already in place, or the
	// step was deselected. A skipped step must perform no side effects.
	Skip(ctx context.Context, config config.InstallConfig, runtimeState config.RuntimeState) (bool, *internal.InstallerError)

	// Run performs the step's one externally visible action. A failure
	// aborts the whole run; there are no retries.
	Run(ctx context.Context, config config.InstallConfig, runtimeState config.RuntimeState) (config.RuntimeState, *internal.InstallerError)

	// Cleanup runs during unwind for every step whose Run was attempted,
	// in reverse order, on success and failure alike. Its errors are
	// logged and suppressed by the orchestrator.
	Cleanup(ctx context.Context, config config.InstallConfig, runtimeState config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError)
}

func matchAnyLabel(stepLabels []string, filterLabels []string) bool {
	for _, label := range stepLabels {
		for _, filterLabel := range filterLabels {
			if label == filterLabel {
				return true
			}
		}
	}
	return false
}

func FilterSteps(steps []Step, labels []string) []Step {
	if len(labels) == 0 {
		return steps
	}
	var filteredSteps []Step
	for _, step := range steps {
		if matchAnyLabel(step.Labels(), labels) {
			filteredSteps = append(filteredSteps, step)
		}
	}
	return filteredSteps
}
