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

package cli

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"testing"

	"github.com/open-policy-agent/opa/v1/bundle"
)

const latestBundle = "c3-policy-bundle-LATEST.tar.gz"

type bundleContent struct {
	files    []string
	manifest bundle.Manifest
	data     map[string]any
}

func readBundle(t *testing.T, bundlePath string) bundleContent {
	t.Helper()
	file, err := os.Open(bundlePath)
	if err != nil {
		t.Fatalf("Failed to open bundle file: %v", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer gzipReader.Close()

	content := bundleContent{}
	tarReader := tar.NewReader(gzipReader)
	for header, err := tarReader.Next(); err == nil; header, err = tarReader.Next() {
		content.files = append(content.files, header.Name)
		switch header.Name {
		case "/.manifest":
			data, err := io.ReadAll(tarReader)
			if err != nil {
				t.Fatalf("Failed to read .manifest content: %v", err)
			}
			if err := json.Unmarshal(data, &content.manifest); err != nil {
				t.Fatalf("Failed to unmarshal .manifest content: %v", err)
			}
		case "/data.json":
			if err := json.NewDecoder(tarReader).Decode(&content.data); err != nil {
				t.Fatalf("Failed to decode data.json: %v", err)
			}
		}
	}
	return content
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "C3_BUNDLE_PREFIX=c3-policy-bundle")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to execute %v: %v\nOutput: %s", args, err, string(output))
	}
	return string(output)
}

func bucketsOf(t *testing.T, manifest bundle.Manifest) []any {
	t.Helper()
	buckets, ok := manifest.Metadata["buckets"].([]any)
	if !ok {
		t.Fatalf("Manifest metadata 'buckets' is not a slice: %v", manifest.Metadata["buckets"])
	}
	return buckets
}

func TestAddBucket(t *testing.T) {
	dir := t.TempDir()
	rules := getProjectRoot() + "/testdata/opsqa-devzzz.ini"
	run(t, "bundle", "add", "mybucket", rules, "devzzz", "--account", "123456789012", "--dsn", "file://"+dir)

	content := readBundle(t, dir+"/"+latestBundle)
	for _, name := range []string{"/.manifest", "/data.json", "/c3/policy.rego"} {
		if !slices.Contains(content.files, name) {
			t.Errorf("Bundle does not contain %s: %v", name, content.files)
		}
	}
	if content.manifest.Roots == nil || !slices.Equal(*content.manifest.Roots, []string{"c3"}) {
		t.Fatalf("Manifest roots are not [c3]: %v", content.manifest.Roots)
	}
	if buckets := bucketsOf(t, content.manifest); len(buckets) != 1 || buckets[0] != "mybucket" {
		t.Fatalf("Manifest metadata 'buckets' does not contain mybucket: %v", buckets)
	}
	policies := content.data["c3"].(map[string]any)["policies"].(map[string]any)
	document := policies["mybucket"].(map[string]any)
	if statements := document["Statement"].([]any); len(statements) != 3 {
		t.Errorf("Expected 3 statements for mybucket, got %d", len(statements))
	}
}

func TestRemoveBucket(t *testing.T) {
	dir := t.TempDir()
	rules := getProjectRoot() + "/testdata/opsqa-devzzz.ini"
	run(t, "bundle", "add", "mybucket", rules, "devzzz", "--account", "opsqa", "--dsn", dir)
	run(t, "bundle", "add", "another", rules, "devqqq", "--account", "opsqa", "--dsn", dir)
	run(t, "bundle", "remove", "mybucket", "--dsn", dir)

	content := readBundle(t, dir+"/"+latestBundle)
	if buckets := bucketsOf(t, content.manifest); len(buckets) != 1 || buckets[0] != "another" {
		t.Fatalf("Manifest metadata 'buckets' = %v, want [another]", buckets)
	}

	output := run(t, "bundle", "describe", "--dsn", dir)
	if !strings.Contains(output, "Buckets: [another]") {
		t.Errorf("Unexpected describe output: %s", output)
	}

	backups, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list bundles: %v", err)
	}
	if len(backups) < 2 {
		t.Errorf("Expected backups next to the latest bundle, got %d files", len(backups))
	}
}

func TestPolicyEntries(t *testing.T) {
	output := run(t, "policy", "entries", getProjectRoot()+"/testdata/opsqa-devzzz.ini", "devzzz", "--account", "opsqa")
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 || lines[0] != "Allow|s3:get*,s3:list*|devzzz|opsqa|mybucket/*|IpAddress,aws:SourceIp,216.1.187.128/27" {
		t.Errorf("Unexpected entries: %q", lines)
	}
}
