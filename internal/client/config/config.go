// Package config loads runtime configuration for the moodsync CLI.
//
// Sources & precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file, selected by --config/-c or the MOODSYNC_CONFIG
//     environment variable.
//  3. Environment variables for the S3 credentials, so secrets can stay out
//     of files: MOODSYNC_S3_ACCESS_KEY_ID, MOODSYNC_S3_SECRET_ACCESS_KEY.
//
// Command-line flags registered by the CLI override all of the above.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/flagx"
)

// S3Settings configures the remote object store. Endpoint is optional and
// only set for S3-compatible services such as MinIO.
type S3Settings struct {
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

// Config holds runtime settings for the moodsync CLI.
type Config struct {
	// DatabasePath is the SQLite file holding all entities and sync state.
	DatabasePath string `json:"database_path"`
	// BlobDir is the root of the local image/thumbnail file store.
	BlobDir string `json:"blob_dir"`
	// DeviceName labels this device in the manifests it writes.
	DeviceName string `json:"device_name"`
	// ConflictStrategy is one of local-wins, remote-wins, newest-wins, ask.
	ConflictStrategy string `json:"conflict_strategy"`
	// MaxItemRetries bounds per-item retries before an item is skipped.
	MaxItemRetries int `json:"max_item_retries"`
	// Parallelism caps concurrent uploads within one entity type.
	Parallelism int `json:"parallelism"`

	S3 S3Settings `json:"s3"`
}

// LoadDefaults populates c with sensible defaults. Data lands under the
// user config dir so the CLI works with zero configuration plus a bucket.
func (c *Config) LoadDefaults() {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	root := filepath.Join(dir, "moodsync")
	c.DatabasePath = filepath.Join(root, "moodsync.db")
	c.BlobDir = filepath.Join(root, "blobs")
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-device"
	}
	c.DeviceName = host
	c.ConflictStrategy = "newest-wins"
	c.MaxItemRetries = 3
	c.Parallelism = 4
	c.S3.Region = "us-east-1"
}

// Load constructs a Config: defaults, then the JSON file at path (or the one
// named by -c/-config or MOODSYNC_CONFIG when path is empty), then credential
// environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path == "" {
		path = flagx.JsonConfigFlags()
	}
	if path == "" {
		path = os.Getenv("MOODSYNC_CONFIG")
	}
	if path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("MOODSYNC_S3_ACCESS_KEY_ID"); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := os.Getenv("MOODSYNC_S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.S3.SecretAccessKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the sync engine cannot run with.
func (c *Config) Validate() error {
	switch c.ConflictStrategy {
	case "local-wins", "remote-wins", "newest-wins", "ask":
	default:
		return fmt.Errorf("unknown conflict strategy %q", c.ConflictStrategy)
	}
	if c.MaxItemRetries < 0 {
		return fmt.Errorf("max_item_retries must not be negative")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	return nil
}
