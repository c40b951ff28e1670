// Package config loads the browser's configuration from environment
// variables (the primary surface, matching the original deployment's
// env-file driven settings) and an optional YAML override file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Configuration is the complete set of settings the CLI entrypoint needs to
// wire the object store adapter, snapshot adapter, version mapper, and HTTP
// server.
type Configuration struct {
	S3       S3Config       `yaml:"s3"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Auth     AuthConfig     `yaml:"auth"`
	Remote   RemoteYAML     `yaml:"remote"`
	Paging   PagingConfig   `yaml:"paging"`
	Global   GlobalConfig   `yaml:"global"`
}

// S3Config configures the object store adapter's connection to the
// S3-compatible gateway.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	PublicEndpoint  string `yaml:"public_endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Region          string `yaml:"region"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	PoolSize        int    `yaml:"pool_size"`
}

// SnapshotConfig configures the snapshot adapter's SSH/SFTP connection to
// the historical filesystem host.
type SnapshotConfig struct {
	Host          string `yaml:"host"`
	User          string `yaml:"user"`
	SSHKeyPath    string `yaml:"ssh_key_path"`
	KnownHostsKey string `yaml:"known_hosts_key"`
	Dir           string `yaml:"dir"`
	RootPrefix    string `yaml:"root_prefix"`
}

// AuthMode selects how the HTTP surface authenticates requests.
type AuthMode string

const (
	AuthModeBasic  AuthMode = "basic"
	AuthModeHeader AuthMode = "header"
	AuthModeNone   AuthMode = "none"
)

// AuthConfig configures the (thin, spec-interface-level) HTTP auth layer.
type AuthConfig struct {
	Mode        AuthMode `yaml:"mode"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	TrustHeader string   `yaml:"trust_header"`
}

// RemoteYAML configures where the remote bucket-filter document lives.
type RemoteYAML struct {
	ConfigPath string `yaml:"config_path"`
}

// PagingConfig configures default/allowed page sizes for listing endpoints.
type PagingConfig struct {
	DefaultPageSize int   `yaml:"default_page_size"`
	PageSizeOptions []int `yaml:"page_size_options"`
}

// GlobalConfig groups ambient settings independent of any one component.
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsPort int    `yaml:"metrics_port"`
	HealthPort  int    `yaml:"health_port"`
}

// NewDefault returns a configuration with sensible defaults, mirroring the
// original deployment's defaults.
func NewDefault() *Configuration {
	return &Configuration{
		S3: S3Config{
			Endpoint:       "http://s3-gateway:9000",
			Region:         "us-east-1",
			ForcePathStyle: true,
			PoolSize:       8,
		},
		Snapshot: SnapshotConfig{
			SSHKeyPath: "/secrets/snapshot_id_ed25519",
			Dir:        ".zfs",
			RootPrefix: "s3root",
		},
		Auth: AuthConfig{
			Mode:        AuthModeBasic,
			Username:    "admin",
			Password:    "changeme",
			TrustHeader: "CF-Access-Authenticated-User-Email",
		},
		Remote: RemoteYAML{
			ConfigPath: ".config/snapvault/snapvault.yml",
		},
		Paging: PagingConfig{
			DefaultPageSize: 20,
			PageSizeOptions: []int{20, 50, 100},
		},
		Global: GlobalConfig{
			LogLevel:    "INFO",
			ListenAddr:  ":8080",
			MetricsPort: 9090,
			HealthPort:  8081,
		},
	}
}

// LoadFromFile overlays a YAML file onto the configuration.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// LoadFromEnv overlays environment variables onto the configuration. Env
// var names match the lowercase settings names from the original deployment,
// uppercased with an SNAPVAULT_ prefix.
func (c *Configuration) LoadFromEnv() error {
	if v := os.Getenv("SNAPVAULT_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("SNAPVAULT_S3_PUBLIC_ENDPOINT"); v != "" {
		c.S3.PublicEndpoint = v
	}
	if v := os.Getenv("SNAPVAULT_S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKeyID = v
	}
	if v := os.Getenv("SNAPVAULT_S3_SECRET_KEY"); v != "" {
		c.S3.SecretAccessKey = v
	}
	if v := os.Getenv("SNAPVAULT_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("SNAPVAULT_S3_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.S3.PoolSize = n
		}
	}

	if v := os.Getenv("SNAPVAULT_RSYNC_HOST"); v != "" {
		c.Snapshot.Host = v
	}
	if v := os.Getenv("SNAPVAULT_RSYNC_USER"); v != "" {
		c.Snapshot.User = v
	}
	if v := os.Getenv("SNAPVAULT_SSH_KEY_PATH"); v != "" {
		c.Snapshot.SSHKeyPath = v
	}
	if v := os.Getenv("SNAPVAULT_SNAPSHOT_DIR"); v != "" {
		c.Snapshot.Dir = v
	}
	if v := os.Getenv("SNAPVAULT_S3_ROOT_PREFIX"); v != "" {
		c.Snapshot.RootPrefix = v
	}

	if v := os.Getenv("SNAPVAULT_AUTH_MODE"); v != "" {
		c.Auth.Mode = AuthMode(strings.ToLower(v))
	}
	if v := os.Getenv("SNAPVAULT_AUTH_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("SNAPVAULT_AUTH_PASSWORD"); v != "" {
		c.Auth.Password = v
	}

	if v := os.Getenv("SNAPVAULT_REMOTE_CONFIG_PATH"); v != "" {
		c.Remote.ConfigPath = v
	}

	if v := os.Getenv("SNAPVAULT_LOG_LEVEL"); v != "" {
		c.Global.LogLevel = v
	}
	if v := os.Getenv("SNAPVAULT_LISTEN_ADDR"); v != "" {
		c.Global.ListenAddr = v
	}
	if v := os.Getenv("SNAPVAULT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Global.MetricsPort = n
		}
	}

	return nil
}

// Validate rejects configurations the rest of the system cannot run with.
func (c *Configuration) Validate() error {
	if c.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint must be set")
	}
	if c.S3.PoolSize <= 0 {
		return fmt.Errorf("s3.pool_size must be greater than 0")
	}
	if c.Snapshot.Host == "" {
		return fmt.Errorf("snapshot.host must be set")
	}
	if c.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot.dir must be set")
	}

	validModes := []AuthMode{AuthModeBasic, AuthModeHeader, AuthModeNone}
	ok := false
	for _, m := range validModes {
		if c.Auth.Mode == m {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid auth.mode: %s (must be one of basic, header, none)", c.Auth.Mode)
	}

	if c.Global.MetricsPort != 0 && c.Global.MetricsPort == c.Global.HealthPort {
		return fmt.Errorf("metrics_port and health_port cannot be the same")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if strings.EqualFold(c.Global.LogLevel, level) {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// SSHTimeout is the dial timeout used by the snapshot adapter's SSH client.
const SSHTimeout = 10 * time.Second
