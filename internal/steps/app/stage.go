// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
)

// appMarker identifies an install directory that already holds the
// application.
const appMarker = "artisan"

func Installed(installDir string) bool {
	_, err := os.Stat(filepath.Join(installDir, appMarker))
	return err == nil
}

// FetchReleaseStep downloads the release archive into an ephemeral staging
// directory, extracts it, and locates the release root. The staging
// directory is owned by this run and removed on every exit path.
type FetchReleaseStep struct {
	Fetcher *Fetcher
}

func CreateFetchReleaseStep(fetcher *Fetcher) *FetchReleaseStep {
	return &FetchReleaseStep{Fetcher: fetcher}
}

func (s *FetchReleaseStep) Name() string {
	return "FetchReleaseStep"
}

func (s *FetchReleaseStep) Labels() []string {
	return []string{"install", "update", "fetch"}
}

func (s *FetchReleaseStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	// A completed install needs no second download; updates always pull
	// the current release.
	if rs.Action == "install" && Installed(cfg.App.InstallDir) {
		return true, nil
	}
	return false, nil
}

func (s *FetchReleaseStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	logger := internal.Logger()
	url := cfg.App.ReleaseURL
	if url == "" {
		url = config.DefaultReleaseURL
	}

	stageDir, err := os.MkdirTemp("", "arvobill-stage-*")
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("create staging directory: %v", err),
		}
	}
	rs.StageDir = stageDir

	archive := filepath.Join(stageDir, "release.tar.gz")
	logger.Infof("Downloading %s", url)
	if err := s.Fetcher.Download(ctx, url, archive); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  err.Error(),
		}
	}

	extractDir := filepath.Join(stageDir, "extract")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("create extract directory: %v", err),
		}
	}
	if err := ExtractTarGz(archive, extractDir); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  err.Error(),
		}
	}

	root, err := LocateReleaseRoot(extractDir)
	if err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeExternalTool,
			ErrorMsg:  err.Error(),
		}
	}
	rs.StagedRelease = root
	logger.Infof("Release staged at %s", root)
	return rs, nil
}

func (s *FetchReleaseStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	if rs.StageDir == "" {
		return rs, nil
	}
	if err := os.RemoveAll(rs.StageDir); err != nil {
		internal.Logger().Warnf("cannot remove staging directory %s: %v", rs.StageDir, err)
	}
	rs.StageDir = ""
	rs.StagedRelease = ""
	return rs, nil
}

// InstallFilesStep materializes the staged release into the install
// directory on a fresh install. A non-empty, unrelated destination needs
// explicit confirmation before anything is written into it.
type InstallFilesStep struct{}

func CreateInstallFilesStep() *InstallFilesStep {
	return &InstallFilesStep{}
}

func (s *InstallFilesStep) Name() string {
	return "InstallFilesStep"
}

func (s *InstallFilesStep) Labels() []string {
	return []string{"install", "files"}
}

func (s *InstallFilesStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	if rs.Action != "install" {
		return true, nil
	}
	return Installed(cfg.App.InstallDir), nil
}

func (s *InstallFilesStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	dest := cfg.App.InstallDir
	entries, err := os.ReadDir(dest)
	if err != nil && !os.IsNotExist(err) {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("read install directory %s: %v", dest, err),
		}
	}
	if len(entries) > 0 && !cfg.Confirm.NonEmptyInstallDir {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("install directory %s is not empty and overwrite was not confirmed", dest),
		}
	}
	if err := CopyTree(rs.StagedRelease, dest); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("copy release into %s: %v", dest, err),
		}
	}
	internal.Logger().Infof("Application files installed to %s", dest)
	return rs, nil
}

func (s *InstallFilesStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}

// UpdateFilesStep mirrors the staged release over the install directory,
// deleting files the new release dropped, while the exclusion filter
// protects local configuration, user data and generated caches.
type UpdateFilesStep struct {
	Exclusions []string
}

func CreateUpdateFilesStep() *UpdateFilesStep {
	return &UpdateFilesStep{Exclusions: DefaultExclusions}
}

func (s *UpdateFilesStep) Name() string {
	return "UpdateFilesStep"
}

func (s *UpdateFilesStep) Labels() []string {
	return []string{"update", "files"}
}

func (s *UpdateFilesStep) Skip(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (bool, *internal.InstallerError) {
	return rs.Action != "update", nil
}

func (s *UpdateFilesStep) Run(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState) (config.RuntimeState, *internal.InstallerError) {
	dest := cfg.App.InstallDir
	if !Installed(dest) {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodePrecondition,
			ErrorMsg:  fmt.Sprintf("no existing installation found at %s", dest),
		}
	}
	if err := Mirror(rs.StagedRelease, dest, NewExclusionFilter(s.Exclusions)); err != nil {
		return rs, &internal.InstallerError{
			ErrorCode: internal.InstallerErrorCodeInternal,
			ErrorMsg:  fmt.Sprintf("sync release into %s: %v", dest, err),
		}
	}
	internal.Logger().Infof("Application files updated in %s", dest)
	return rs, nil
}

func (s *UpdateFilesStep) Cleanup(ctx context.Context, cfg config.InstallConfig, rs config.RuntimeState, prevErr *internal.InstallerError) (config.RuntimeState, *internal.InstallerError) {
	return rs, nil
}
