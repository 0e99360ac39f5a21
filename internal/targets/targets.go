// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

// Package targets fixes the step order for each action. Order is decided
// here at build time; the orchestrator never reorders at runtime.
package targets

import (
	"github.com/arvobill/installer/internal/steps"
	"github.com/arvobill/installer/internal/steps/app"
	"github.com/arvobill/installer/internal/steps/apt"
	"github.com/arvobill/installer/internal/steps/database"
	"github.com/arvobill/installer/internal/steps/system"
	"github.com/arvobill/installer/internal/steps/webserver"
)

// BasePackages is the full system dependency set of the application host.
var BasePackages = []string{
	"nginx",
	"mariadb-server",
	"php",
	"php-fpm",
	"php-mysql",
	"php-mbstring",
	"php-xml",
	"php-curl",
	"php-zip",
	"php-bcmath",
	"composer",
	"npm",
	"unzip",
	"supervisor",
	"certbot",
	"python3-certbot-nginx",
}

func InstallSteps(shell steps.ShellRunner) []steps.Step {
	return []steps.Step{
		system.CreatePreflightStep(),
		apt.CreateInstallPackagesStep(shell, BasePackages),
		system.CreatePHPCheckStep(shell),
		system.CreateDatabaseServiceStep(shell),
		app.CreateFetchReleaseStep(app.CreateFetcher()),
		app.CreateInstallFilesStep(),
		database.CreateProvisionStep(),
		app.CreateEnvFileStep(),
		app.CreateComposerInstallStep(shell),
		app.CreateAppKeyStep(shell),
		app.CreateMigrateStep(shell),
		app.CreateNpmBuildStep(shell),
		webserver.CreateVhostStep(shell),
		webserver.CreateCertbotStep(shell),
		system.CreateSchedulerCronStep(shell),
		system.CreateQueueWorkerStep(shell),
	}
}

func UpdateSteps(shell steps.ShellRunner) []steps.Step {
	return []steps.Step{
		system.CreatePreflightStep(),
		apt.CreateInstallPackagesStep(shell, BasePackages),
		system.CreatePHPCheckStep(shell),
		app.CreateMaintenanceStep(shell),
		app.CreateFetchReleaseStep(app.CreateFetcher()),
		app.CreateUpdateFilesStep(),
		app.CreateComposerInstallStep(shell),
		app.CreateMigrateStep(shell),
		app.CreateNpmBuildStep(shell),
	}
}
