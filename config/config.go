/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Server holds the configuration parameters for the application.
type Server struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Server configurations
	Port string `envconfig:"PORT" default:"8443"`

	// Database configurations
	Database Database `envconfig:"DATABASE"`

	// JWT Authentication configurations
	JWT JWT `envconfig:"JWT"`

	// Startup kit workspace (artifact store) configurations
	Workspace Workspace `envconfig:"WORKSPACE"`

	// Provisioning engine configurations
	Provisioning Provisioning `envconfig:"PROVISIONING"`

	// WebSocket configurations
	WebSocket WebSocket `envconfig:"WEBSOCKET"`

	// First-run seed data
	Bootstrap Bootstrap `envconfig:"BOOTSTRAP"`

	// TLS configurations
	TLS TLS `envconfig:"TLS"`
}

// TLS holds TLS certificate configuration
type TLS struct {
	Enabled bool   `envconfig:"ENABLED" default:"false"`
	CertDir string `envconfig:"CERT_DIR" default:"./data/certs"`
}

// JWT holds JWT-specific configuration
type JWT struct {
	SecretKey string   `envconfig:"SECRET_KEY" default:"sorachain-provisioning-secret-change-in-production"`
	Issuer    string   `envconfig:"ISSUER" default:"sora-provisioning"`
	TokenTTL  int      `envconfig:"TOKEN_TTL" default:"1440"` // minutes
	SkipPaths []string `envconfig:"SKIP_PATHS" default:"/health,/metrics,/api/v1/login,/api/v1/openapi.yaml"`
}

// Workspace holds the filesystem artifact store configuration
type Workspace struct {
	Dir         string `envconfig:"DIR" default:"./workspace"`
	Compression string `envconfig:"COMPRESSION" default:"zstd"` // zstd, lz4 or none
}

// Provisioning holds provisioning engine configuration
type Provisioning struct {
	MaxParallel  int `envconfig:"MAX_PARALLEL" default:"4"`
	StoreRetries int `envconfig:"STORE_RETRIES" default:"3"`
}

// WebSocket holds WebSocket-specific configuration
type WebSocket struct {
	MaxConnections    int `envconfig:"MAX_CONNECTIONS" default:"1000"`
	ConnectionTimeout int `envconfig:"CONNECTION_TIMEOUT" default:"30"` // seconds
	MaxPerProject     int `envconfig:"MAX_PER_PROJECT" default:"20"`
	RateLimitPerMin   int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
}

// Bootstrap holds the seed data created when the user table is empty
type Bootstrap struct {
	Enabled        bool   `envconfig:"ENABLED" default:"true"`
	AdminEmail     string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword  string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	AdminName      string `envconfig:"ADMIN_NAME" default:"System Administrator"`
	Organization   string `envconfig:"ORGANIZATION" default:"Sorachain"`
	ExampleProject bool   `envconfig:"EXAMPLE_PROJECT" default:"true"`
}

// Database holds database-specific configuration
type Database struct {
	// Driver is one of sqlite3, postgres or memory
	Driver string `envconfig:"DRIVER" default:"sqlite3"`
	// DBPath is the file path for SQLite databases.
	// Use DATABASE_DB_PATH to override; keeping it distinct from the OS PATH variable.
	Path            string `envconfig:"DB_PATH" default:"./data/provisioning_dashboard.db"`
	Host            string `envconfig:"HOST" default:"localhost"`
	Port            int    `envconfig:"PORT" default:"5432"`
	Name            string `envconfig:"NAME" default:"provisioning"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	SSLMode         string `envconfig:"SSL_MODE" default:"disable"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME" default:"300"` // seconds

	// ExecuteSchemaDDL controls whether to run the schema DDL (CREATE TABLE, etc.) on startup.
	// Set to false when the DB user lacks DDL privileges.
	// Env: DATABASE_EXECUTE_SCHEMA_DDL (default: true)
	ExecuteSchemaDDL bool `envconfig:"EXECUTE_SCHEMA_DDL" default:"true"`
}

// Load reads and validates the configuration from the environment
func Load() (*Server, error) {
	cfg := &Server{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for values the server cannot run with
func (s *Server) Validate() error {
	switch strings.ToLower(s.Database.Driver) {
	case "sqlite3", "postgres", "postgresql", "memory":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q: expected sqlite3, postgres or memory", s.Database.Driver)
	}

	switch strings.ToLower(s.Workspace.Compression) {
	case "zstd", "lz4", "none":
	default:
		return fmt.Errorf("unsupported WORKSPACE_COMPRESSION %q: expected zstd, lz4 or none", s.Workspace.Compression)
	}

	if strings.TrimSpace(s.JWT.SecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if s.JWT.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_TTL must be positive, got %d", s.JWT.TokenTTL)
	}
	if s.Provisioning.MaxParallel <= 0 {
		return fmt.Errorf("PROVISIONING_MAX_PARALLEL must be positive, got %d", s.Provisioning.MaxParallel)
	}
	if s.Provisioning.StoreRetries < 0 {
		return fmt.Errorf("PROVISIONING_STORE_RETRIES must not be negative, got %d", s.Provisioning.StoreRetries)
	}

	if s.Bootstrap.Enabled && (s.Bootstrap.AdminEmail == "" || s.Bootstrap.AdminPassword == "") {
		return fmt.Errorf("bootstrap is enabled but BOOTSTRAP_ADMIN_EMAIL or BOOTSTRAP_ADMIN_PASSWORD is not configured")
	}
	return nil
}
