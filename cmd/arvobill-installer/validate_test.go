// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidateTestSuite struct {
	suite.Suite
}

func TestValidateSuite(t *testing.T) {
	suite.Run(t, new(ValidateTestSuite))
}

func (suite *ValidateTestSuite) TestValidateInstallDir() {
	suite.NoError(validateInstallDir("/var/www/arvobill"))
	suite.Error(validateInstallDir(""))
	suite.Error(validateInstallDir("var/www/arvobill"))
	suite.Error(validateInstallDir("./arvobill"))
}

func (suite *ValidateTestSuite) TestValidateDomain() {
	suite.NoError(validateDomain("billing.example.com"))
	suite.NoError(validateDomain("example.com"))
	suite.NoError(validateDomain("Billing.Example.COM"))

	suite.Error(validateDomain(""))
	suite.Error(validateDomain("localhost"))
	suite.Error(validateDomain("http://example.com"))
	suite.Error(validateDomain("example"))
	suite.Error(validateDomain("-bad.example.com"))
}

func (suite *ValidateTestSuite) TestValidateEmail() {
	suite.NoError(validateEmail("ops@example.com"))
	suite.Error(validateEmail(""))
	suite.Error(validateEmail("ops"))
	suite.Error(validateEmail("ops@example"))
	suite.Error(validateEmail("ops @example.com"))
}

func (suite *ValidateTestSuite) TestValidateDBIdentifier() {
	suite.NoError(validateDBIdentifier("arvobill"))
	suite.Error(validateDBIdentifier("arvo-bill"))
	suite.Error(validateDBIdentifier(""))
}

func (suite *ValidateTestSuite) TestValidatePassword() {
	suite.NoError(validatePassword("longenough"))
	suite.Error(validatePassword("short"))
	suite.Error(validatePassword(""))
}
