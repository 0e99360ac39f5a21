// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package apt_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/steps"
	"github.com/arvobill/installer/internal/steps/apt"
)

type InstallPackagesTestSuite struct {
	suite.Suite
	shellMock *steps.ShellRunnerMock
}

func TestInstallPackagesSuite(t *testing.T) {
	suite.Run(t, new(InstallPackagesTestSuite))
}

func (suite *InstallPackagesTestSuite) SetupTest() {
	suite.shellMock = &steps.ShellRunnerMock{}
}

func (suite *InstallPackagesTestSuite) expectQuery(pkg string, installed bool) {
	out := steps.OutputWithStdout("install ok installed")
	if !installed {
		out = steps.FailedOutput(errors.New("no packages found matching " + pkg))
	}
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command:   []string{"dpkg-query", "-W", "-f=${Status}", pkg},
		Timeout:   steps.DefaultTimeout,
		SkipError: true,
	}).Return(out, nil)
}

func (suite *InstallPackagesTestSuite) TestPartitionIsExact() {
	suite.expectQuery("nginx", true)
	suite.expectQuery("php", true)
	suite.expectQuery("composer", false)

	present, missing, err := apt.Partition(context.Background(), suite.shellMock, []string{"nginx", "php", "composer"})
	suite.Require().Nil(err)
	suite.Equal([]string{"nginx", "php"}, present)
	suite.Equal([]string{"composer"}, missing)
}

func (suite *InstallPackagesTestSuite) TestRunIssuesOneBatchedInstall() {
	suite.expectQuery("nginx", true)
	suite.expectQuery("composer", false)
	suite.expectQuery("npm", false)

	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command: []string{"apt-get", "update"},
		Timeout: 1800,
	}).Return(&steps.ShellRunnerOutput{}, nil).Once()
	suite.shellMock.On("Run", mock.Anything, steps.ShellRunnerInput{
		Command: []string{"apt-get", "install", "-y", "composer", "npm"},
		Timeout: 1800,
	}).Return(&steps.ShellRunnerOutput{}, nil).Once()

	step := apt.CreateInstallPackagesStep(suite.shellMock, []string{"nginx", "composer", "npm"})
	cfg := &config.InstallConfig{}
	cfg.Generated.Action = "install"

	_, err := steps.GoThroughStepFunctions(step, cfg)
	suite.Require().Nil(err)
	suite.shellMock.AssertExpectations(suite.T())
}

func (suite *InstallPackagesTestSuite) TestSkipsWhenEverythingInstalled() {
	suite.expectQuery("nginx", true)
	suite.expectQuery("php", true)

	step := apt.CreateInstallPackagesStep(suite.shellMock, []string{"nginx", "php"})
	cfg := &config.InstallConfig{}
	cfg.Generated.Action = "install"

	// No apt-get expectation is registered: any install attempt fails the
	// test as an unexpected call.
	_, err := steps.GoThroughStepFunctions(step, cfg)
	suite.Require().Nil(err)
}
