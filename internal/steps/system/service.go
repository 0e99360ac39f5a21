// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
)

// Candidate unit names for the database capability. The actual unit name
// varies with the distribution and the package that provided the server.
var DatabaseServiceCandidates = []string{"mysql", "mariadb", "mysqld"}

// Client binaries that may front the database server. Absence is cosmetic
// and only degrades to a warning.
var databaseClientCandidates = []string{"mysql", "mariadb"}

// EnsureActiveService tries candidates in declared order, enabling and
// starting each until one reports active. Exhausting the list is fatal and
// the error references every attempted name.
func EnsureActiveService(ctx context.Context, shell steps.ShellRunner, candidates []string) (string, *internal.InstallerError) {
	logger := internal.Logger()
	for _, name := range candidates {
		if _, err := shell.Run(ctx, steps.ShellRunnerInput{
			Command:   []string{"systemctl", "enable", "--now", name},
			Timeout:   steps.DefaultTimeout,
			SkipError: true,
		}); err != nil {
			return "", err
		}
		if ServiceActive(ctx, shell, name) {
			logger.Infof("Service %s is active", name)
			return name, nil
		}
	}
	return "", &internal.InstallerError{
		ErrorCode: internal.InstallerErrorCodeAmbiguousEnvironment,
		ErrorMsg:  fmt.Sprintf("no startable service found; tried: %s", strings.Join(candidates, ", ")),
	}
}

// ServiceActive probes a unit without side effects.
func ServiceActive(ctx context.Context, shell steps.ShellRunner, name string) bool {
	out, err := shell.Run(ctx, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "is-active", name},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	})
	if err != nil {
		return false
	}
	return out.Error == nil && strings.TrimSpace(out.Stdout.String()) == "active"
}

// DatabaseServiceStep brings up the database server under whichever unit
// name this host knows it by.
type DatabaseServiceStep struct {
	Shell      steps.ShellRunner
	Candidates []string
}

func CreateDatabaseServiceStep(shell steps.ShellRunner) *DatabaseServiceStep {
	return &DatabaseServiceStep{Shell: shell, Candidates: DatabaseServiceCandidates}
}

func (s *DatabaseServiceStep) Name() string {
	return "DatabaseServiceStep"
}

func (s *DatabaseServiceStep) Labels() []string {
	return []string{"install", "database"}
}

func (s *DatabaseServiceStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	// Always runs: an already-active unit is detected inside Run with
	// read-only probes, so its name still lands in the runtime state.
	return rs.DatabaseService != "", nil
}

func (s *DatabaseServiceStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	logger := internal.Logger()
	name := ""
	for _, candidate := range s.Candidates {
		if ServiceActive(ctx, s.Shell, candidate) {
			logger.Infof("Service %s already active", candidate)
			name = candidate
			break
		}
	}
	if name == "" {
		active, err := EnsureActiveService(ctx, s.Shell, s.Candidates)
		if err != nil {
			return rs, err
		}
		name = active
	}
	rs.DatabaseService = name

	clientFound := false
	for _, client := range databaseClientCandidates {
		if steps.CommandExists(ctx, s.Shell, client) {
			clientFound = true
			break
		}
	}
	if !clientFound {
		logger.Warnf("no database client binary found (tried %s); continuing", strings.Join(databaseClientCandidates, ", "))
	}
	return rs, nil
}

func (s *DatabaseServiceStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
