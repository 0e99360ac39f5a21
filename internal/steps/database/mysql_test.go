// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

type MySQLTestSuite struct {
	suite.Suite
}

func TestMySQLSuite(t *testing.T) {
	suite.Run(t, new(MySQLTestSuite))
}

func (suite *MySQLTestSuite) TestValidIdentifier() {
	valid := []string{"arvobill", "arvobill_prod", "Billing2026", "a", "_leading"}
	for _, name := range valid {
		suite.True(ValidIdentifier(name), name)
	}

	invalid := []string{
		"",
		"arvo-bill",
		"arvo bill",
		"arvo;DROP TABLE users",
		"arvo`bill",
		"arvo'bill",
		"über",
		// 65 chars, one past the MySQL identifier limit.
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}
	for _, name := range invalid {
		suite.False(ValidIdentifier(name), name)
	}
}

func (suite *MySQLTestSuite) TestProvisionRejectsUnsafeIdentifiers() {
	err := Provision(context.Background(), nil, ProvisionParams{
		Name: "arvobill", User: "bad'user", Password: "secret",
	})
	suite.Require().NotNil(err)
	suite.Equal(internal.InstallerErrorCodeInvalidArgument, err.ErrorCode)

	err = Provision(context.Background(), nil, ProvisionParams{
		Name: "bad`name", User: "arvobill", Password: "secret",
	})
	suite.Require().NotNil(err)
	suite.Equal(internal.InstallerErrorCodeInvalidArgument, err.ErrorCode)
}

func (suite *MySQLTestSuite) TestSocketSelection() {
	step := CreateProvisionStep()

	cfg := config.InstallConfig{}
	suite.Equal(DefaultSocket, step.socket(cfg))

	cfg.Database.Socket = "/tmp/custom.sock"
	suite.Equal("/tmp/custom.sock", step.socket(cfg))
}
