// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

// Package envfile updates flat KEY=value files in place. The application
// reads its persisted configuration from such a file, so updates must keep
// at most one line per key and must not disturb unrelated lines.
package envfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Set upserts key=value into the file at path. An existing line for key is
// replaced in place, keeping its position; otherwise the pair is appended.
// A missing file is created.
func Set(path, key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n") {
		return fmt.Errorf("invalid env key %q", key)
	}
	if strings.Contains(value, "\n") {
		return fmt.Errorf("invalid env value for %s: contains newline", key)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	line := key + "=" + value
	lines := []string{}
	if len(data) > 0 {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, l := range lines {
		if keyOf(l) == key {
			if replaced {
				// Collapse stray duplicates left behind by manual edits.
				continue
			}
			out = append(out, line)
			replaced = true
			continue
		}
		out = append(out, l)
	}
	if !replaced {
		out = append(out, line)
	}

	return os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o600)
}

// SetAll applies pairs in the given order.
func SetAll(path string, pairs [][2]string) error {
	for _, p := range pairs {
		if err := Set(path, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a single value from the file. A missing file or key yields "".
func Get(path, key string) (string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return values[key], nil
}

func keyOf(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "export ")
	eq := strings.IndexByte(trimmed, '=')
	if eq < 0 || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	return strings.TrimSpace(trimmed[:eq])
}
