// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/arvobill/installer/internal/steps/app"
)

type SyncTestSuite struct {
	suite.Suite
	src string
	dst string
}

func TestSyncSuite(t *testing.T) {
	suite.Run(t, new(SyncTestSuite))
}

func (suite *SyncTestSuite) SetupTest() {
	suite.src = suite.T().TempDir()
	suite.dst = suite.T().TempDir()
}

func (suite *SyncTestSuite) writeFile(root, rel, content string) {
	path := filepath.Join(root, rel)
	suite.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
}

func (suite *SyncTestSuite) readFile(root, rel string) string {
	data, err := os.ReadFile(filepath.Join(root, rel))
	suite.Require().NoError(err)
	return string(data)
}

func (suite *SyncTestSuite) exists(root, rel string) bool {
	_, err := os.Lstat(filepath.Join(root, rel))
	return err == nil
}

func (suite *SyncTestSuite) TestMirrorCopiesAndDeletes() {
	suite.writeFile(suite.src, "index.php", "v2")
	suite.writeFile(suite.src, "app/Kernel.php", "new")
	suite.writeFile(suite.dst, "index.php", "v1")
	suite.writeFile(suite.dst, "legacy/old.php", "gone")

	suite.Require().NoError(app.Mirror(suite.src, suite.dst, app.NewExclusionFilter(nil)))

	suite.Equal("v2", suite.readFile(suite.dst, "index.php"))
	suite.Equal("new", suite.readFile(suite.dst, "app/Kernel.php"))
	suite.False(suite.exists(suite.dst, "legacy/old.php"))
	suite.False(suite.exists(suite.dst, "legacy"))
}

func (suite *SyncTestSuite) TestMirrorNeverDeletesExcludedPaths() {
	// None of these exist in the source tree; without the filter every
	// one of them would be deleted.
	suite.writeFile(suite.dst, ".env", "APP_KEY=secret")
	suite.writeFile(suite.dst, "storage/logs/app.log", "log")
	suite.writeFile(suite.dst, "public/uploads/invoice.pdf", "pdf")
	suite.writeFile(suite.src, "index.php", "v2")

	filter := app.NewExclusionFilter(app.DefaultExclusions)
	suite.Require().NoError(app.Mirror(suite.src, suite.dst, filter))

	suite.Equal("APP_KEY=secret", suite.readFile(suite.dst, ".env"))
	suite.Equal("log", suite.readFile(suite.dst, "storage/logs/app.log"))
	suite.Equal("pdf", suite.readFile(suite.dst, "public/uploads/invoice.pdf"))
	suite.Equal("v2", suite.readFile(suite.dst, "index.php"))
}

func (suite *SyncTestSuite) TestMirrorPrunesAroundProtectedContent() {
	// The source dropped public/ entirely; the protected uploads beneath
	// it must survive while its unprotected siblings are still pruned.
	suite.writeFile(suite.dst, "public/uploads/invoice.pdf", "pdf")
	suite.writeFile(suite.dst, "public/stale.css", "old")
	suite.writeFile(suite.src, "index.php", "v2")

	filter := app.NewExclusionFilter(app.DefaultExclusions)
	suite.Require().NoError(app.Mirror(suite.src, suite.dst, filter))

	suite.Equal("pdf", suite.readFile(suite.dst, "public/uploads/invoice.pdf"))
	suite.False(suite.exists(suite.dst, "public/stale.css"))
	suite.True(suite.exists(suite.dst, "public"))
}

func (suite *SyncTestSuite) TestMirrorNeverOverwritesExcludedPaths() {
	suite.writeFile(suite.src, ".env", "APP_KEY=from-release")
	suite.writeFile(suite.src, "storage/seed.txt", "release")
	suite.writeFile(suite.dst, ".env", "APP_KEY=local")
	suite.writeFile(suite.dst, "storage/seed.txt", "local")

	filter := app.NewExclusionFilter(app.DefaultExclusions)
	suite.Require().NoError(app.Mirror(suite.src, suite.dst, filter))

	suite.Equal("APP_KEY=local", suite.readFile(suite.dst, ".env"))
	suite.Equal("local", suite.readFile(suite.dst, "storage/seed.txt"))
}

func (suite *SyncTestSuite) TestExclusionFilterMatchesPrefixes() {
	filter := app.NewExclusionFilter([]string{"storage", ".env"})
	suite.True(filter.Match("storage"))
	suite.True(filter.Match("storage/logs/app.log"))
	suite.True(filter.Match(".env"))
	suite.False(filter.Match(".env.example"))
	suite.False(filter.Match("storagex/file"))
	suite.False(filter.Match("index.php"))
}

func (suite *SyncTestSuite) TestExclusionFilterKnowsProtectedAncestors() {
	filter := app.NewExclusionFilter([]string{"public/uploads", "storage"})
	suite.True(filter.ContainsProtected("public"))
	suite.False(filter.ContainsProtected("public/uploads"))
	suite.False(filter.ContainsProtected("storage"))
	suite.False(filter.ContainsProtected("app"))
	suite.False(filter.ContainsProtected("pub"))
}

func (suite *SyncTestSuite) TestCopyTreeKeepsUnrelatedDestinationFiles() {
	suite.writeFile(suite.src, "index.php", "v1")
	suite.writeFile(suite.dst, "notes.txt", "keep me")

	suite.Require().NoError(app.CopyTree(suite.src, suite.dst))

	suite.Equal("v1", suite.readFile(suite.dst, "index.php"))
	suite.Equal("keep me", suite.readFile(suite.dst, "notes.txt"))
}
