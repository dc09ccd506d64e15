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

package service

import (
	"testing"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoginAndResolveIdentity(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Register(&dto.RegisterUserRequest{
		Name:         "Alice",
		Email:        "Alice@Example.com",
		Password:     "secret123",
		Organization: "Acme",
	})
	require.NoError(t, err)

	resp, err := f.auth.Login("alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, user.ID, resp.User.ID)
	require.NotEmpty(t, resp.AccessToken)

	identity, err := f.auth.ResolveIdentity(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, constants.RoleUser, identity.Role)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Register(&dto.RegisterUserRequest{Name: "Bob", Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.auth.Login("bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, constants.ErrInvalidCredentials)

	_, err = f.auth.Login("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, constants.ErrInvalidCredentials)

	user.IsActive = false
	require.NoError(t, f.repos.Users.UpdateUser(user))
	_, err = f.auth.Login("bob@example.com", "secret123")
	assert.ErrorIs(t, err, constants.ErrInvalidCredentials)
	assert.ErrorIs(t, err, constants.ErrUnauthenticated)
}

func TestResolveIdentityRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Register(&dto.RegisterUserRequest{Name: "Carol", Email: "carol@example.com", Password: "secret123"})
	require.NoError(t, err)

	valid, err := f.auth.IssueToken(user)
	require.NoError(t, err)

	otherSecret := NewAuthService(f.repos.Users, config.JWT{SecretKey: "other", Issuer: "test", TokenTTL: 60}, zap.NewNop())
	forged, err := otherSecret.IssueToken(user)
	require.NoError(t, err)

	otherIssuer := NewAuthService(f.repos.Users, config.JWT{SecretKey: "test-secret", Issuer: "elsewhere", TokenTTL: 60}, zap.NewNop())
	wrongIssuer, err := otherIssuer.IssueToken(user)
	require.NoError(t, err)

	past := NewAuthService(f.repos.Users, config.JWT{SecretKey: "test-secret", Issuer: "test", TokenTTL: 1}, zap.NewNop())
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := past.IssueToken(user)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: forged},
		{name: "wrong issuer", token: wrongIssuer},
		{name: "expired", token: expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.ResolveIdentity(tt.token)
			assert.ErrorIs(t, err, constants.ErrUnauthenticated)
		})
	}

	identity, err := f.auth.ResolveIdentity(valid)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)

	user.IsActive = false
	require.NoError(t, f.repos.Users.UpdateUser(user))
	_, err = f.auth.ResolveIdentity(valid)
	assert.ErrorIs(t, err, constants.ErrInactiveUser)
}
