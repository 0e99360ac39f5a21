// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app_test

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/suite"

	"github.com/arvobill/installer/internal/steps/app"
)

type FetchTestSuite struct {
	suite.Suite
}

func TestFetchSuite(t *testing.T) {
	suite.Run(t, new(FetchTestSuite))
}

type tarEntry struct {
	name    string
	content string
	dir     bool
}

func (suite *FetchTestSuite) buildArchive(entries []tarEntry) string {
	path := filepath.Join(suite.T().TempDir(), "release.tar.gz")
	f, err := os.Create(path)
	suite.Require().NoError(err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.content))
		}
		suite.Require().NoError(tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.content))
			suite.Require().NoError(err)
		}
	}
	suite.Require().NoError(tw.Close())
	suite.Require().NoError(gz.Close())
	return path
}

func (suite *FetchTestSuite) TestExtractTarGz() {
	archive := suite.buildArchive([]tarEntry{
		{name: "arvobill/", dir: true},
		{name: "arvobill/artisan", content: "#!/usr/bin/env php"},
		{name: "arvobill/app/Kernel.php", content: "<?php"},
	})
	dest := suite.T().TempDir()

	suite.Require().NoError(app.ExtractTarGz(archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "arvobill", "artisan"))
	suite.Require().NoError(err)
	suite.Equal("#!/usr/bin/env php", string(data))
	_, err = os.Stat(filepath.Join(dest, "arvobill", "app", "Kernel.php"))
	suite.NoError(err)
}

func (suite *FetchTestSuite) TestExtractRejectsPathTraversal() {
	archive := suite.buildArchive([]tarEntry{
		{name: "../evil.txt", content: "nope"},
	})
	err := app.ExtractTarGz(archive, suite.T().TempDir())
	suite.Require().Error(err)
	suite.Contains(err.Error(), "escapes destination")
}

func (suite *FetchTestSuite) TestLocateReleaseRoot() {
	dir := suite.T().TempDir()
	suite.Require().NoError(os.MkdirAll(filepath.Join(dir, "arvobill-3.2.0"), 0o755))

	root, err := app.LocateReleaseRoot(dir)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(dir, "arvobill-3.2.0"), root)
}

func (suite *FetchTestSuite) TestLocateReleaseRootEmpty() {
	_, err := app.LocateReleaseRoot(suite.T().TempDir())
	suite.ErrorIs(err, app.ErrNoReleaseRoot)
}

func (suite *FetchTestSuite) TestLocateReleaseRootAmbiguous() {
	dir := suite.T().TempDir()
	suite.Require().NoError(os.MkdirAll(filepath.Join(dir, "one"), 0o755))
	suite.Require().NoError(os.MkdirAll(filepath.Join(dir, "two"), 0o755))

	_, err := app.LocateReleaseRoot(dir)
	suite.Require().ErrorIs(err, app.ErrAmbiguousReleaseRoot)
	suite.Contains(err.Error(), "one")
	suite.Contains(err.Error(), "two")
}

func (suite *FetchTestSuite) TestLocateReleaseRootSingleFile() {
	dir := suite.T().TempDir()
	suite.Require().NoError(os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))

	_, err := app.LocateReleaseRoot(dir)
	suite.ErrorIs(err, app.ErrNoReleaseRoot)
}
