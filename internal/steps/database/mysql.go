// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/go-sql-driver/mysql"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

const DefaultSocket = "/var/run/mysqld/mysqld.sock"

// identifierPattern gates every name that ends up inside DDL. MySQL cannot
// parameterize CREATE DATABASE, so identifiers must be validated before
// they are quoted into a statement.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

type ProvisionParams struct {
	Name     string
	User     string
	Password string
}

// Provision creates the application schema and user and grants the user
// full access to the schema. It is idempotent: existing objects are left
// untouched. The password travels as a statement parameter, never as
// interpolated text.
func Provision(ctx context.Context, db *sql.DB, p ProvisionParams) *internal.InstallerError {
	if !ValidIdentifier(p.Name) || !ValidIdentifier(p.User) {
		return &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInvalidArgument,
			ErrorMsg:  fmt.Sprintf("invalid database identifier (%q / %q): only [A-Za-z0-9_] allowed", p.Name, p.User),
		}
	}

	stmts := []struct {
		query string
		args  []any
	}{
		{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", p.Name), nil},
		{fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY ?", p.User), []any{p.Password}},
		{fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", p.Name, p.User), nil},
		{"FLUSH PRIVILEGES", nil},
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return &internal.InstallerError{
				ErrorCode: internal.InstallerErrorCodeExternalTool,
				ErrorMsg:  fmt.Sprintf("database provisioning failed: %v", err),
			}
		}
	}
	return nil
}

func SchemaExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var found string
	err := db.QueryRowContext(ctx,
		"SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func UserExists(ctx context.Context, db *sql.DB, user string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = 'localhost'", user).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ProvisionStep creates the application database and user through the
// server's local unix socket, authenticating as root.
type ProvisionStep struct {
	// OpenDB is swappable for tests.
	OpenDB func(socket string) (*sql.DB, error)
}

func CreateProvisionStep() *ProvisionStep {
	return &ProvisionStep{OpenDB: openRootSocket}
}

func openRootSocket(socket string) (*sql.DB, error) {
	dsnCfg := mysql.NewConfig()
	dsnCfg.User = "root"
	dsnCfg.Net = "unix"
	dsnCfg.Addr = socket
	return sql.Open("mysql", dsnCfg.FormatDSN())
}

func (s *ProvisionStep) Name() string {
	return "DatabaseProvisionStep"
}

func (s *ProvisionStep) Labels() []string {
	return []string{"install", "database"}
}

func (s *ProvisionStep) socket(cfg config.InstallConfig) string {
	if cfg.Database.Socket != "" {
		return cfg.Database.Socket
	}
	return DefaultSocket
}

func (s *ProvisionStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	db, err := s.OpenDB(s.socket(cfg))
	if err != nil {
		return false, nil
	}
	defer db.Close()
	schemaOK, err := SchemaExists(ctx, db, cfg.Database.Name)
	if err != nil {
		return false, nil
	}
	userOK, err := UserExists(ctx, db, cfg.Database.User)
	if err != nil {
		return false, nil
	}
	return schemaOK && userOK, nil
}

func (s *ProvisionStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	db, err := s.OpenDB(s.socket(cfg))
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  fmt.Sprintf("cannot connect to database server at %s: %v", s.socket(cfg), err),
		}
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  fmt.Sprintf("database server not reachable at %s: %v", s.socket(cfg), err),
		}
	}
	if provErr := Provision(ctx, db, ProvisionParams{
		Name:     cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
	}); provErr != nil {
		return rs, provErr
	}
	internal.Logger().Infof("Database %s and user %s provisioned", cfg.Database.Name, cfg.Database.User)
	return rs, nil
}

func (s *ProvisionStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
