// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package internal

type InstallerErrorCode int

const (
	InstallerErrorCodeUnknown InstallerErrorCode = iota
	InstallerErrorCodeInternal
	InstallerErrorCodeInvalidArgument
	// Host does not satisfy a hard requirement (OS, privilege, missing input).
	InstallerErrorCodePrecondition
	// An invoked external tool exited non-zero.
	InstallerErrorCodeExternalTool
	// The environment is ambiguous in a way that blocks a required capability.
	InstallerErrorCodeAmbiguousEnvironment
)

type InstallerError struct {
	ErrorCode InstallerErrorCode
	ErrorMsg  string
}

func (e *InstallerError) Error() string {
	return e.ErrorMsg
}
