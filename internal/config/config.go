// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package config

const ConfigVersion = 1

// Default release archive for fresh installs.
const DefaultReleaseURL = "https://releases.arvobill.com/arvobill-latest.tar.gz"

// RuntimeState is mutable run-scoped state threaded through steps. It is
// created at process start and discarded at process end; only the answers
// in InstallConfig persist across runs.
type RuntimeState struct {
	// Action is one of "install" or "update".
	Action string `yaml:"action"`

	LogDir string `yaml:"logDir"`
	DryRun bool   `yaml:"dryRun"`

	// StageDir is the ephemeral download+extract workspace. It is owned by
	// exactly one run and removed on every exit path.
	StageDir string `yaml:"stageDir"`
	// StagedRelease is the extracted release root inside StageDir.
	StagedRelease string `yaml:"stagedRelease"`

	// DatabaseService is the systemd unit that answered for the database
	// capability (mysql, mariadb or mysqld depending on distribution).
	DatabaseService string `yaml:"databaseService"`
	PHPVersion      string `yaml:"phpVersion"`

	// MaintenanceEngaged records that the served application was put into
	// maintenance mode, so the unwind path can attempt to restore it.
	MaintenanceEngaged bool `yaml:"maintenanceEngaged"`
}

type InstallConfig struct {
	Version   int          `yaml:"version"`
	Generated RuntimeState `yaml:"generated"`
	App       struct {
		InstallDir string `yaml:"installDir"`
		Domain     string `yaml:"domain"`
		AdminEmail string `yaml:"adminEmail"`
		ReleaseURL string `yaml:"releaseUrl,omitempty"`
	} `yaml:"app"`
	Database struct {
		Name string `yaml:"name"`
		User string `yaml:"user"`
		// Prompted every run, never written to the answers file.
		Password string `yaml:"-"`
		Socket   string `yaml:"socket,omitempty"`
	} `yaml:"database"`
	Features struct {
		SSL         bool `yaml:"ssl"`
		Cron        bool `yaml:"cron"`
		QueueWorker bool `yaml:"queueWorker"`
	} `yaml:"features"`
	// Interactive confirmations collected before the run starts. These are
	// intermediate answers and are not saved back to the answers file.
	Confirm struct {
		OverwriteVhost     bool `yaml:"-"`
		NonEmptyInstallDir bool `yaml:"-"`
	} `yaml:"-"`
}
