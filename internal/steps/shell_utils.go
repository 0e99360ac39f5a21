// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/arvobill/installer/internal"
)

const DefaultTimeout = 60 // seconds

type ShellRunner interface {
	Run(ctx context.Context, input ShellRunnerInput) (*ShellRunnerOutput, *internal.InstallerError)
}

type shellRunnerImpl struct {
	dryRun bool
}

type ShellRunnerInput struct {
	Command []string
	Timeout int
	// SkipError suppresses the error return for best-effort invocations,
	// e.g. compensation actions during unwind.
	SkipError bool
	Stdin     string
	Dir       string
}

type ShellRunnerOutput struct {
	Stdout strings.Builder
	Stderr strings.Builder
	Error  error
}

func CreateShellRunner(dryRun bool) ShellRunner {
	return &shellRunnerImpl{dryRun: dryRun}
}

func (s *shellRunnerImpl) Run(ctx context.Context, input ShellRunnerInput) (*ShellRunnerOutput, *internal.InstallerError) {
	logger := internal.Logger()
	if len(input.Command) == 0 {
		return nil, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInvalidArgument,
			ErrorMsg:  "empty command",
		}
	}
	if s.dryRun {
		logger.Infof("[dry-run] would execute: %s", strings.Join(input.Command, " "))
		return &ShellRunnerOutput{}, nil
	}
	logger.Debugf("Running shell command: %s", input.Command)
	if input.Timeout <= 0 {
		input.Timeout = DefaultTimeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(input.Timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, input.Command[0], input.Command[1:]...)
	if input.Stdin != "" {
		cmd.Stdin = strings.NewReader(input.Stdin)
	}
	if input.Dir != "" {
		cmd.Dir = input.Dir
	}

	stderrWriter := strings.Builder{}
	stdoutWriter := strings.Builder{}
	cmd.Stdout = &stdoutWriter
	cmd.Stderr = &stderrWriter
	err := cmd.Run()

	output := &ShellRunnerOutput{
		Stdout: stdoutWriter,
		Stderr: stderrWriter,
		Error:  err,
	}

	if err != nil && !input.SkipError {
		return output, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  fmt.Sprintf("failed to execute %s: %v: %s", input.Command[0], err, strings.TrimSpace(stderrWriter.String())),
		}
	}
	return output, nil
}

// CommandExists reports whether command resolves on PATH.
func CommandExists(ctx context.Context, shellRunner ShellRunner, command string) bool {
	_, err := shellRunner.Run(ctx, ShellRunnerInput{
		Command: []string{"which", command},
		Timeout: DefaultTimeout,
	})
	return err == nil
}
