package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"C3_CONFIG_FILE", "AWS_CONF_DIR", "C3_DOMAIN", "C3_REGION", "C3_BACKEND", "C3_S3_ENDPOINT",
		"MINIO_SERVER", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_SECURE",
		"BUCKET_NAME", "C3_BUNDLE_PREFIX", "MINIO_TIMEOUT", "C3_NAMESERVER",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoadDefaultConfig(t *testing.T) {
	clearEnv(t)
	ReloadConfig()
	if MinioEndpoint != "localhost:9000" {
		t.Errorf("Expected MinioEndpoint to be 'localhost:9000', got '%s'", MinioEndpoint)
	}
	if MinioAccessKey != "admin" {
		t.Errorf("Expected MinioAccessKey to be 'admin', got '%s'", MinioAccessKey)
	}
	if MinioSecretKey != "adminadmin" {
		t.Errorf("Expected MinioSecretKey to be 'adminadmin', got '%s'", MinioSecretKey)
	}
	if MinioBucket != "c3-policy-bundles" {
		t.Errorf("Expected MinioBucket to be 'c3-policy-bundles', got '%s'", MinioBucket)
	}
	if Domain != "ctgrd.com" {
		t.Errorf("Expected Domain to be 'ctgrd.com', got '%s'", Domain)
	}
	if Region != "us-east-1" {
		t.Errorf("Expected Region to be 'us-east-1', got '%s'", Region)
	}
	if Backend != "minio" {
		t.Errorf("Expected Backend to be 'minio', got '%s'", Backend)
	}
	if LatestBundleName != "c3-policy-bundle-LATEST.tar.gz" {
		t.Errorf("Expected LatestBundleName to be 'c3-policy-bundle-LATEST.tar.gz', got '%s'", LatestBundleName)
	}
	if TagBundleName("v1") != "c3-policy-bundle-v1.tar.gz" {
		t.Errorf("Expected TagBundleName('v1') to be 'c3-policy-bundle-v1.tar.gz', got '%s'", TagBundleName("v1"))
	}
	if MinioTimeout != 5 {
		t.Errorf("Expected MinioTimeout to be 5, got %d", MinioTimeout)
	}
}

func TestLoadEnvConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("MINIO_SERVER", "test-endpoint")
	t.Setenv("MINIO_ACCESS_KEY", "test-access-key")
	t.Setenv("MINIO_SECRET_KEY", "test-secret-key")
	t.Setenv("BUCKET_NAME", "test-bucket")
	t.Setenv("C3_BUNDLE_PREFIX", "test-bundle-prefix")
	t.Setenv("AWS_CONF_DIR", "/etc/c3")
	t.Setenv("MINIO_TIMEOUT", "not-a-number")
	ReloadConfig()
	t.Cleanup(ReloadConfig)
	if MinioEndpoint != "test-endpoint" {
		t.Errorf("Expected MinioEndpoint to be 'test-endpoint', got '%s'", MinioEndpoint)
	}
	if MinioAccessKey != "test-access-key" {
		t.Errorf("Expected MinioAccessKey to be 'test-access-key', got '%s'", MinioAccessKey)
	}
	if MinioSecretKey != "test-secret-key" {
		t.Errorf("Expected MinioSecretKey to be 'test-secret-key', got '%s'", MinioSecretKey)
	}
	if MinioBucket != "test-bucket" {
		t.Errorf("Expected MinioBucket to be 'test-bucket', got '%s'", MinioBucket)
	}
	if LatestBundleName != "test-bundle-prefix-LATEST.tar.gz" {
		t.Errorf("Expected LatestBundleName to be 'test-bundle-prefix-LATEST.tar.gz', got '%s'", LatestBundleName)
	}
	if AccountMapFile() != "/etc/c3/account_aliases_map.txt" {
		t.Errorf("Expected AccountMapFile() to be '/etc/c3/account_aliases_map.txt', got '%s'", AccountMapFile())
	}
	if MinioTimeout != 5 {
		t.Errorf("Expected MinioTimeout to fall back to 5, got %d", MinioTimeout)
	}
}

func TestLoadFileConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c3.yaml")
	content := `domain: example.org
region: us-west-2
backend: s3
minio:
  endpoint: minio.internal:9000
  bucket: policies
  timeout: 12
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("C3_CONFIG_FILE", path)
	t.Setenv("C3_REGION", "eu-west-1")
	ReloadConfig()
	t.Cleanup(ReloadConfig)

	if Domain != "example.org" {
		t.Errorf("Expected Domain from file, got '%s'", Domain)
	}
	if Region != "eu-west-1" {
		t.Errorf("Expected environment to override file region, got '%s'", Region)
	}
	if Backend != "s3" {
		t.Errorf("Expected Backend 's3', got '%s'", Backend)
	}
	if MinioEndpoint != "minio.internal:9000" || MinioBucket != "policies" {
		t.Errorf("Unexpected minio settings %s/%s", MinioEndpoint, MinioBucket)
	}
	if MinioTimeout != 12 {
		t.Errorf("Expected MinioTimeout 12, got %d", MinioTimeout)
	}
}
