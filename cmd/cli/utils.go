// Copyright 2025 Matteo Brambilla - TEADAL
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"c3-policy-manager/internal/accounts"
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type SourceProtocol int

const (
	File SourceProtocol = iota
	Minio
)

const (
	minioScheme = "minio://"
	fileScheme  = "file://"

	defaultDsnUsage = `If dsn is not provided, the bundles stored in MinIO are used.
The dsn format is:
  minio:// - to reference the bundles stored in the configured MinIO bucket
  file://<dir> - to reference the bundles stored in a local directory
  <dir> - to reference the bundles stored in a local directory (same as file://<dir>)

To specify further minio config using environment variables:
  MINIO_SERVER - MinIO server address (default: localhost:9000)
  MINIO_ACCESS_KEY - MinIO access key (default: admin)
  MINIO_SECRET_KEY - MinIO secret key (default: adminadmin)
  BUCKET_NAME - MinIO bucket name (default: c3-policy-bundles)
`
)

func parseDsn(dsn string) (SourceProtocol, string) {
	if dsn == "" {
		return Minio, ""
	}
	if path, found := strings.CutPrefix(dsn, minioScheme); found {
		return Minio, path
	}
	if path, found := strings.CutPrefix(dsn, fileScheme); found {
		return File, path
	}
	return File, dsn
}

func getRepository(dsn string) (bundle.Repository, error) {
	proto, path := parseDsn(dsn)
	switch proto {
	case Minio:
		repo, err := bundle.NewMinioRepositoryFromConfig()
		if err != nil {
			return nil, fmt.Errorf("error creating minio repository: %w", err)
		}
		return repo, nil
	default:
		if path == "" {
			path = "."
		}
		return bundle.NewFileSystemRepository(path), nil
	}
}

// currentAccount returns the account flag value, or the alias of AWS_ACCOUNT_ID when empty.
func currentAccount(account string) (string, error) {
	if account != "" {
		return account, nil
	}
	return accounts.AccountName(config.AccountMapFile())
}

// parseTags decodes key=value pairs.
func parseTags(pairs []string) (map[string]string, error) {
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid tag %q, expected key=value", pair)
		}
		tags[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return tags, nil
}

// loadRegoTests reads the rego test files found at paths. Directories are walked for *_test.rego files.
// Modules are keyed under the bundle root so that they can import data.c3.
func loadRegoTests(paths []string) (map[string]string, error) {
	tests := make(map[string]string)
	add := func(path string) error {
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read test file: %w", err)
		}
		tests[fmt.Sprintf("/c3/tests/%d/%s", len(tests), filepath.Base(path))] = string(source)
		return nil
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open test path: %w", err)
		}
		if !info.IsDir() {
			if err := add(path); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), "_test.rego") {
				return nil
			}
			return add(p)
		})
		if err != nil {
			return nil, err
		}
	}
	if len(tests) == 0 {
		return nil, fmt.Errorf("no rego test files found in %v", paths)
	}
	return tests, nil
}
