package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

func GetEnvOrDefault(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

var (
	// Directory holding the account alias map and the cluster ini files.
	// The default value is "$HOME/.aws", load from environment variable AWS_CONF_DIR.
	ConfDir string

	// Account id of the current credentials, load from environment variable AWS_ACCOUNT_ID.
	AccountID string

	// Domain appended to generated hostnames.
	// The default value is "ctgrd.com", load from environment variable C3_DOMAIN.
	Domain string

	// Default region used for naming and bucket creation.
	// The default value is "us-east-1", load from environment variable C3_REGION.
	Region string

	// Storage backend used by the bucket commands, either "minio" or "s3".
	// The default value is "minio", load from environment variable C3_BACKEND.
	Backend string

	// Custom endpoint of the S3 API, empty to use the AWS one.
	// Load from environment variable C3_S3_ENDPOINT.
	S3Endpoint string

	// Address of the MinIO server, without the protocol (http:// or https://).
	// The default value is "localhost:9000", load from environment variable MINIO_SERVER.
	MinioEndpoint string

	// The access key for MinIO.
	// The default value is "admin", load from environment variable MINIO_ACCESS_KEY.
	MinioAccessKey string

	// The secret key for MinIO.
	// The default value is "adminadmin", load from environment variable MINIO_SECRET_KEY.
	MinioSecretKey string

	// Use TLS when talking to MinIO, load from environment variable MINIO_SECURE.
	MinioSecure bool

	// The bucket name where to store the policy bundles.
	// The default value is "c3-policy-bundles", load from environment variable BUCKET_NAME.
	MinioBucket string

	// The bundle name prefix, used to create the bundle name adding a -version tag suffix.
	// The default value is "c3-policy-bundle", load from environment variable C3_BUNDLE_PREFIX.
	BundlePrefix string

	// The name of the latest bundle.
	LatestBundleName string

	// A function to generate a bundle name with a specific tag.
	TagBundleName func(tag string) string

	// The timeout for storage operations in seconds.
	// The default value is 5 seconds, load from environment variable MINIO_TIMEOUT.
	MinioTimeout int

	// Nameserver queried when probing hostname availability.
	// The default value is "127.0.0.1:53", load from environment variable C3_NAMESERVER.
	Nameserver string

	// Log output format for the web server, "text" or "json".
	LogFormat string

	// Listen address of the web server.
	// The default value is ":8080", load from environment variable C3_LISTEN_ADDR.
	ListenAddr string
)

// fileConfig mirrors the environment variables for the optional YAML file
// referenced by C3_CONFIG_FILE. Environment variables win over the file.
type fileConfig struct {
	ConfDir      string `yaml:"conf_dir"`
	Domain       string `yaml:"domain"`
	Region       string `yaml:"region"`
	Backend      string `yaml:"backend"`
	S3Endpoint   string `yaml:"s3_endpoint"`
	Nameserver   string `yaml:"nameserver"`
	BundlePrefix string `yaml:"bundle_prefix"`
	Minio        struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Secure    bool   `yaml:"secure"`
		Bucket    string `yaml:"bucket"`
		Timeout   int    `yaml:"timeout"`
	} `yaml:"minio"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return fc, nil
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// ReloadConfig initializes or reloads the global variables based on the current environment variables
// and on the optional YAML file pointed by C3_CONFIG_FILE. There is no need to call this function manually,
// as it is automatically called when the package is loaded.
func ReloadConfig() {
	fc := &fileConfig{}
	if path := os.Getenv("C3_CONFIG_FILE"); path != "" {
		loaded, err := loadFileConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading C3_CONFIG_FILE: %v\n", err)
		} else {
			fc = loaded
		}
	}

	home, _ := os.UserHomeDir()
	ConfDir = GetEnvOrDefault("AWS_CONF_DIR", or(fc.ConfDir, filepath.Join(home, ".aws")))
	AccountID = os.Getenv("AWS_ACCOUNT_ID")
	Domain = GetEnvOrDefault("C3_DOMAIN", or(fc.Domain, "ctgrd.com"))
	Region = GetEnvOrDefault("C3_REGION", or(fc.Region, "us-east-1"))
	Backend = GetEnvOrDefault("C3_BACKEND", or(fc.Backend, "minio"))
	S3Endpoint = GetEnvOrDefault("C3_S3_ENDPOINT", fc.S3Endpoint)
	MinioEndpoint = GetEnvOrDefault("MINIO_SERVER", or(fc.Minio.Endpoint, "localhost:9000"))
	MinioAccessKey = GetEnvOrDefault("MINIO_ACCESS_KEY", or(fc.Minio.AccessKey, "admin"))
	MinioSecretKey = GetEnvOrDefault("MINIO_SECRET_KEY", or(fc.Minio.SecretKey, "adminadmin"))
	MinioBucket = GetEnvOrDefault("BUCKET_NAME", or(fc.Minio.Bucket, "c3-policy-bundles"))
	BundlePrefix = GetEnvOrDefault("C3_BUNDLE_PREFIX", or(fc.BundlePrefix, "c3-policy-bundle"))
	Nameserver = GetEnvOrDefault("C3_NAMESERVER", or(fc.Nameserver, "127.0.0.1:53"))
	LogFormat = GetEnvOrDefault("C3_LOG_FORMAT", "text")
	ListenAddr = GetEnvOrDefault("C3_LISTEN_ADDR", ":8080")
	LatestBundleName = BundlePrefix + "-LATEST.tar.gz"
	TagBundleName = func(tag string) string {
		return BundlePrefix + "-" + tag + ".tar.gz"
	}

	var err error
	MinioSecure, err = strconv.ParseBool(GetEnvOrDefault("MINIO_SECURE", strconv.FormatBool(fc.Minio.Secure)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing MINIO_SECURE: %v\n", err)
		MinioSecure = false
	}
	defaultTimeout := "5"
	if fc.Minio.Timeout > 0 {
		defaultTimeout = strconv.Itoa(fc.Minio.Timeout)
	}
	MinioTimeout, err = strconv.Atoi(GetEnvOrDefault("MINIO_TIMEOUT", defaultTimeout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing MINIO_TIMEOUT: %v\n", err)
		MinioTimeout = 5
	}
}

// AccountMapFile returns the path of the account alias map inside ConfDir.
func AccountMapFile() string {
	return filepath.Join(ConfDir, "account_aliases_map.txt")
}

func init() {
	ReloadConfig()
}
