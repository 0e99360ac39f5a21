// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
)

// The release archive is expected to contain exactly one top-level
// directory. Anything else means a broken or repackaged archive and is
// reported loudly instead of guessing.
var (
	ErrNoReleaseRoot        = errors.New("archive contains no top-level directory")
	ErrAmbiguousReleaseRoot = errors.New("archive contains more than one top-level entry")
)

type Fetcher struct {
	client *resty.Client
}

func CreateFetcher() *Fetcher {
	return &Fetcher{client: resty.New()}
}

// Download saves the release archive at url to dest.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status())
	}
	return nil
}

// ExtractTarGz unpacks a gzip-compressed tar archive into destDir,
// rejecting entries that would escape it.
func ExtractTarGz(archive, destDir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", archive, err)
		}

		target, err := securePath(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode).Perm()|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) || strings.Contains(hdr.Linkname, "..") {
				return fmt.Errorf("archive entry %s: unsafe link target %q", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		default:
			// Hard links, devices and the like have no business in a
			// release archive.
			return fmt.Errorf("archive entry %s: unsupported type %d", hdr.Name, hdr.Typeflag)
		}
	}
}

func securePath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

// LocateReleaseRoot returns the single top-level directory inside dir.
// Zero entries or more than one entry is an error, never a guess.
func LocateReleaseRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", ErrNoReleaseRoot
	}
	if len(entries) > 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguousReleaseRoot, strings.Join(names, ", "))
	}
	if !entries[0].IsDir() {
		return "", ErrNoReleaseRoot
	}
	return filepath.Join(dir, entries[0].Name()), nil
}
