// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/arvobill/installer/internal/steps/app"
)

func appGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Install Directory").
			Description("Absolute path the application lives in").
			Placeholder("/var/www/arvobill").
			Validate(validateInstallDir).
			Value(&input.App.InstallDir),
		huh.NewInput().
			Title("Domain").
			Description("Fully qualified domain the application is served on").
			Placeholder("billing.example.com").
			Validate(validateDomain).
			Value(&input.App.Domain),
		huh.NewInput().
			Title("Admin Email").
			Description("Used for the TLS certificate registration").
			Placeholder("admin@example.com").
			Validate(validateEmail).
			Value(&input.App.AdminEmail),
	).Title("Step 1: Application\n")
}

func databaseGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Database Name").
			Placeholder("arvobill").
			Validate(validateDBIdentifier).
			Value(&input.Database.Name),
		huh.NewInput().
			Title("Database User").
			Placeholder("arvobill").
			Validate(validateDBIdentifier).
			Value(&input.Database.User),
		huh.NewInput().
			Title("Database Password").
			EchoMode(huh.EchoModePassword).
			Validate(validatePassword).
			Value(&input.Database.Password),
	).Title("Step 2: Database\n")
}

func featuresGroup() *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Configure the web server and obtain a TLS certificate?").
			Description("Declining leaves the web server untouched; set it up manually afterwards").
			Value(&input.Features.SSL),
		huh.NewConfirm().
			Title("Install the scheduler cron entry?").
			Value(&input.Features.Cron),
		huh.NewConfirm().
			Title("Run the queue worker under supervisor?").
			Value(&input.Features.QueueWorker),
	).Title("Step 3: Optional Stages\n")
}

// collectAnswers prompts for whatever the answers file did not provide.
func collectAnswers(action string) error {
	groups := []*huh.Group{}
	if input.App.InstallDir == "" || input.App.Domain == "" || input.App.AdminEmail == "" {
		groups = append(groups, appGroup())
	}
	if action == "install" {
		// The password is never persisted, so this group always runs
		// unless it was already collected in this process.
		if input.Database.Name == "" || input.Database.User == "" || input.Database.Password == "" {
			groups = append(groups, databaseGroup())
		}
		if !answersLoaded {
			groups = append(groups, featuresGroup())
		}
	}
	if len(groups) == 0 {
		return nil
	}
	return huh.NewForm(groups...).Run()
}

// collectConfirmations asks the destructive-overwrite questions up front so
// steps never have to prompt mid-run.
func collectConfirmations(action string) error {
	if action != "install" {
		return nil
	}

	vhost := filepath.Join("/etc/nginx/sites-available", input.App.Domain+".conf")
	if input.Features.SSL {
		if _, err := os.Stat(vhost); err == nil {
			confirm := huh.NewConfirm().
				Title("A virtual host for this domain already exists. Overwrite it?").
				Value(&input.Confirm.OverwriteVhost)
			if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
				return err
			}
		}
	}

	if entries, err := os.ReadDir(input.App.InstallDir); err == nil && len(entries) > 0 && !app.Installed(input.App.InstallDir) {
		confirm := huh.NewConfirm().
			Title("The install directory is not empty. Install into it anyway?").
			Value(&input.Confirm.NonEmptyInstallDir)
		if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
			return err
		}
	}
	return nil
}
