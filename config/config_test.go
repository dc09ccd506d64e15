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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "zstd", cfg.Workspace.Compression)
	assert.Equal(t, 4, cfg.Provisioning.MaxParallel)
	assert.Equal(t, 3, cfg.Provisioning.StoreRetries)
	assert.Equal(t, "admin@example.com", cfg.Bootstrap.AdminEmail)
	assert.Contains(t, cfg.JWT.SkipPaths, "/api/v1/login")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("PROVISIONING_MAX_PARALLEL", "8")
	t.Setenv("WORKSPACE_DIR", "/tmp/kits")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Provisioning.MaxParallel)
	assert.Equal(t, "/tmp/kits", cfg.Workspace.Dir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Server)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(s *Server) {},
			wantErr: false,
		},
		{
			name:    "unknown driver",
			mutate:  func(s *Server) { s.Database.Driver = "mysql" },
			wantErr: true,
		},
		{
			name:    "unknown compression",
			mutate:  func(s *Server) { s.Workspace.Compression = "brotli" },
			wantErr: true,
		},
		{
			name:    "empty jwt secret",
			mutate:  func(s *Server) { s.JWT.SecretKey = "  " },
			wantErr: true,
		},
		{
			name:    "zero parallelism",
			mutate:  func(s *Server) { s.Provisioning.MaxParallel = 0 },
			wantErr: true,
		},
		{
			name:    "bootstrap without password",
			mutate:  func(s *Server) { s.Bootstrap.AdminPassword = "" },
			wantErr: true,
		},
		{
			name: "bootstrap disabled without password",
			mutate: func(s *Server) {
				s.Bootstrap.Enabled = false
				s.Bootstrap.AdminPassword = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
