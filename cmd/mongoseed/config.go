// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/mongoseed/internal/bootstrap"
	"github.com/kraklabs/mongoseed/pkg/product"
	"github.com/kraklabs/mongoseed/pkg/storage"
)

const (
	configDirName  = ".mongoseed"
	configFileName = "project.yaml"
	configVersion  = "1"

	defaultURI              = "mongodb://localhost:27017"
	defaultDatabase         = "productdb"
	defaultConnectTimeout   = 10 * time.Second
	defaultOperationTimeout = 30 * time.Second
	defaultJob              = "mongoseed"
)

// Config is the content of .mongoseed/project.yaml.
type Config struct {
	Version   string          `yaml:"version"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
}

// MongoConfig says where the target database lives.
type MongoConfig struct {
	URI              string        `yaml:"uri"`
	Database         string        `yaml:"database"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	AppName          string        `yaml:"app_name,omitempty"`
}

// BootstrapConfig says what the bootstrap creates.
type BootstrapConfig struct {
	Collection string          `yaml:"collection"`
	Strategy   string          `yaml:"strategy"`
	Seed       product.Product `yaml:"seed"`
}

// MetricsConfig configures the Pushgateway that receives run metrics.
// An empty Pushgateway disables pushing.
type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway,omitempty"`
	Job         string `yaml:"job,omitempty"`
}

// envOverlay lists the environment variables that override the project
// file. Empty values leave the file value in place.
type envOverlay struct {
	URI         string `env:"MONGO_URI"`
	Database    string `env:"MONGOSEED_DATABASE"`
	Collection  string `env:"MONGOSEED_COLLECTION"`
	Strategy    string `env:"MONGOSEED_STRATEGY"`
	Pushgateway string `env:"MONGOSEED_PUSHGATEWAY"`
}

// DefaultConfig returns the configuration used when no project file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Mongo: MongoConfig{
			URI:              defaultURI,
			Database:         defaultDatabase,
			ConnectTimeout:   defaultConnectTimeout,
			OperationTimeout: defaultOperationTimeout,
			AppName:          "mongoseed",
		},
		Bootstrap: BootstrapConfig{
			Collection: bootstrap.DefaultCollection,
			Strategy:   string(bootstrap.StrategyCheck),
			Seed:       product.DefaultSeed(),
		},
		Metrics: MetricsConfig{Job: defaultJob},
	}
}

// ConfigDir returns the .mongoseed directory under dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, configDirName)
}

// ConfigPath returns the project file path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), configFileName)
}

// LoadConfig builds the effective configuration: defaults, then the
// project file, then the process environment. An explicit configPath must
// exist; the default ./.mongoseed/project.yaml may be absent. main loads
// .env into the environment before any command runs.
func LoadConfig(ctx context.Context, configPath string) (*Config, error) {
	return loadConfigWith(ctx, configPath, envconfig.OsLookuper())
}

func loadConfigWith(ctx context.Context, configPath string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := DefaultConfig()

	explicit := configPath != ""
	if !explicit {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get current directory: %w", err)
		}
		configPath = ConfigPath(cwd)
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from the user or the working directory
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if err := applyEnv(ctx, cfg, lookuper); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func applyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	var env envOverlay
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setIf(&cfg.Mongo.URI, env.URI)
	setIf(&cfg.Mongo.Database, env.Database)
	setIf(&cfg.Bootstrap.Collection, env.Collection)
	setIf(&cfg.Bootstrap.Strategy, env.Strategy)
	setIf(&cfg.Metrics.Pushgateway, env.Pushgateway)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// fillDefaults restores defaults for settings a project file set to empty
// or zero values.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	setIf(&c.Version, d.Version)
	if c.Mongo.URI == "" {
		c.Mongo.URI = d.Mongo.URI
	}
	if c.Mongo.ConnectTimeout <= 0 {
		c.Mongo.ConnectTimeout = d.Mongo.ConnectTimeout
	}
	if c.Mongo.OperationTimeout <= 0 {
		c.Mongo.OperationTimeout = d.Mongo.OperationTimeout
	}
	if c.Bootstrap.Strategy == "" {
		c.Bootstrap.Strategy = d.Bootstrap.Strategy
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = d.Metrics.Job
	}
}

// Validate checks everything a run depends on and returns all problems
// at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri is required"))
	}
	if err := storage.ValidateDatabaseName(c.Mongo.Database); err != nil {
		errs = append(errs, fmt.Errorf("mongo.database: %w", err))
	}
	if err := storage.ValidateCollectionName(c.Bootstrap.Collection); err != nil {
		errs = append(errs, fmt.Errorf("bootstrap.collection: %w", err))
	}
	if _, err := bootstrap.ParseStrategy(c.Bootstrap.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("bootstrap.strategy: %w", err))
	}
	if err := c.Bootstrap.Seed.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bootstrap.seed: %w", err))
	}
	return errors.Join(errs...)
}

// SaveConfig writes cfg to path as YAML, creating the parent directory.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
