// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bitfield/script"
	"github.com/hashicorp/go-version"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

const MinUbuntuVersion = "20.04"

var osReleaseID = regexp.MustCompile(`^ID=`)
var osReleaseVersion = regexp.MustCompile(`^VERSION_ID=`)

// PreflightStep verifies the hard host requirements: root privilege and a
// supported Ubuntu release. It never skips and performs no side effects.
type PreflightStep struct {
	OSReleasePath string
	EUID          func() int
}

func CreatePreflightStep() *PreflightStep {
	return &PreflightStep{
		OSReleasePath: "/etc/os-release",
		EUID:          os.Geteuid,
	}
}

func (s *PreflightStep) Name() string {
	return "PreflightStep"
}

func (s *PreflightStep) Labels() []string {
	return []string{"install", "update", "preflight"}
}

func (s *PreflightStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	return false, nil
}

func (s *PreflightStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	if s.EUID() != 0 {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  "this tool must run as root",
		}
	}

	id, err := script.File(s.OSReleasePath).MatchRegexp(osReleaseID).First(1).String()
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("cannot read %s: %v", s.OSReleasePath, err),
		}
	}
	if osReleaseValue(id) != "ubuntu" {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("unsupported distribution %q; only Ubuntu is supported", osReleaseValue(id)),
		}
	}

	verLine, err := script.File(s.OSReleasePath).MatchRegexp(osReleaseVersion).First(1).String()
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("cannot read %s: %v", s.OSReleasePath, err),
		}
	}
	current, verErr := version.NewVersion(osReleaseValue(verLine))
	if verErr != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("cannot parse VERSION_ID in %s: %v", s.OSReleasePath, verErr),
		}
	}
	minimum := version.Must(version.NewVersion(MinUbuntuVersion))
	if current.LessThan(minimum) {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("Ubuntu %s or newer is required, found %s", MinUbuntuVersion, current),
		}
	}
	return rs, nil
}

func (s *PreflightStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

func osReleaseValue(line string) string {
	_, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return ""
	}
	return strings.Trim(value, `"`)
}
