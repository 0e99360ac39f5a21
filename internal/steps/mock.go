// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arvobill/installer/internal"
)

// ShellRunnerMock is shared by step tests across packages.
type ShellRunnerMock struct {
	mock.Mock
}

func (m *ShellRunnerMock) Run(ctx context.Context, input ShellRunnerInput) (*ShellRunnerOutput, *internal.InstallerError) {
	args := m.Called(ctx, input)
	var out *ShellRunnerOutput
	if v := args.Get(0); v != nil {
		out = v.(*ShellRunnerOutput)
	}
	if v := args.Get(1); v != nil {
		return out, v.(*internal.InstallerError)
	}
	return out, nil
}

// OutputWithStdout builds a ShellRunnerOutput whose stdout holds s.
func OutputWithStdout(s string) *ShellRunnerOutput {
	out := &ShellRunnerOutput{}
	out.Stdout.WriteString(s)
	return out
}

// FailedOutput builds a ShellRunnerOutput carrying a non-nil command error,
// as produced by SkipError invocations of failing tools.
func FailedOutput(err error) *ShellRunnerOutput {
	return &ShellRunnerOutput{Error: err}
}
