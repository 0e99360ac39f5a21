// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arvobill/installer/internal/steps/database"
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateInstallDir(value string) error {
	if value == "" {
		return fmt.Errorf("install directory is required")
	}
	if !filepath.IsAbs(value) {
		return fmt.Errorf("install directory must be an absolute path")
	}
	return nil
}

func validateDomain(value string) error {
	if !domainPattern.MatchString(strings.ToLower(value)) {
		return fmt.Errorf("not a valid domain name")
	}
	return nil
}

func validateEmail(value string) error {
	if !emailPattern.MatchString(value) {
		return fmt.Errorf("not a valid email address")
	}
	return nil
}

func validateDBIdentifier(value string) error {
	if !database.ValidIdentifier(value) {
		return fmt.Errorf("only letters, digits and underscore are allowed")
	}
	return nil
}

func validatePassword(value string) error {
	if len(value) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
