// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package system_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
	"github.com/arvobill/installer/internal/steps/system"
)

type ServiceTestSuite struct {
	suite.Suite
	shellMock *steps.ShellRunnerMock
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.shellMock = &steps.ShellRunnerMock{}
}

func (suite *ServiceTestSuite) expectEnable(name string) {
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "enable", "--now", name},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	}).Return(&steps.ShellRunnerOutput{}, nil)
}

func (suite *ServiceTestSuite) expectIsActive(name, state string) {
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "is-active", name},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	}).Return(steps.OutputWithStdout(state+"\n"), nil)
}

func (suite *ServiceTestSuite) TestStopsAtFirstActiveCandidate() {
	suite.expectEnable("mysql")
	suite.expectIsActive("mysql", "active")

	// No expectations for mariadb or mysqld: probing them would fail the
	// test as an unexpected call.
	name, err := system.EnsureActiveService(context.Background(), suite.shellMock, []string{"mysql", "mariadb", "mysqld"})
	suite.Require().Nil(err)
	suite.Equal("mysql", name)
}

func (suite *ServiceTestSuite) TestFallsThroughToLaterCandidate() {
	suite.expectEnable("mysql")
	suite.expectIsActive("mysql", "inactive")
	suite.expectEnable("mariadb")
	suite.expectIsActive("mariadb", "active")

	name, err := system.EnsureActiveService(context.Background(), suite.shellMock, []string{"mysql", "mariadb"})
	suite.Require().Nil(err)
	suite.Equal("mariadb", name)
}

func (suite *ServiceTestSuite) TestAllCandidatesFailingNamesEveryAttempt() {
	for _, name := range []string{"mysql", "mariadb", "mysqld"} {
		suite.expectEnable(name)
		suite.expectIsActive(name, "inactive")
	}

	_, err := system.EnsureActiveService(context.Background(), suite.shellMock, []string{"mysql", "mariadb", "mysqld"})
	suite.Require().NotNil(err)
	suite.Equal(internal.InstallerErrorCodeAmbiguousEnvironment, err.ErrorCode)
	suite.Contains(err.ErrorMsg, "mysql")
	suite.Contains(err.ErrorMsg, "mariadb")
	suite.Contains(err.ErrorMsg, "mysqld")
}

func (suite *ServiceTestSuite) TestStepRecordsAlreadyActiveServiceWithoutEnabling() {
	suite.expectIsActive("mysql", "active")
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command: []string{"which", "mysql"},
		Timeout: steps.DefaultTimeout,
	}).Return(steps.OutputWithStdout("/usr/bin/mysql"), nil)

	step := system.CreateDatabaseServiceStep(suite.shellMock)
	cfg := &config.InstallConfig{}
	cfg.Generated.Action = "install"

	rs, err := steps.GoThroughStepFunctions(step, cfg)
	suite.Require().Nil(err)
	// The name is recorded even though only read-only probes ran.
	suite.Equal("mysql", rs.DatabaseService)
	suite.shellMock.AssertNotCalled(suite.T(), "Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "enable", "--now", "mysql"},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	})
}

func (suite *ServiceTestSuite) TestStepSkipsOnceResolved() {
	step := system.CreateDatabaseServiceStep(suite.shellMock)
	cfg := config.InstallConfig{}

	skip, err := step.Skip(context.Background(), cfg, config.RuntimeState{DatabaseService: "mariadb"})
	suite.Require().Nil(err)
	suite.True(skip)
	suite.shellMock.AssertNumberOfCalls(suite.T(), "Run", 0)
}

func (suite *ServiceTestSuite) TestStepRecordsResolvedServiceName() {
	// The first probe sees the unit inactive, Run enables it and the
	// second probe reports active.
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "is-active", "mysql"},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	}).Return(steps.OutputWithStdout("inactive\n"), nil).Once()
	suite.expectEnable("mysql")
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"systemctl", "is-active", "mysql"},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	}).Return(steps.OutputWithStdout("active\n"), nil).Once()
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command: []string{"which", "mysql"},
		Timeout: steps.DefaultTimeout,
	}).Return(steps.OutputWithStdout("/usr/bin/mysql"), nil)

	step := system.CreateDatabaseServiceStep(suite.shellMock)
	step.Candidates = []string{"mysql"}

	cfg := &config.InstallConfig{}
	cfg.Generated.Action = "install"

	rs, err := steps.GoThroughStepFunctions(step, cfg)
	suite.Require().Nil(err)
	suite.Equal("mysql", rs.DatabaseService)
}
