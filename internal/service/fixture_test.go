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
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/artifact"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/lock"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	repos        *repository.Repositories
	locks        *lock.KeyedMutex
	store        *artifact.MemoryStore
	users        *UserService
	auth         *AuthService
	projects     *ProjectService
	participants *ParticipantService
	applications *ApplicationService
	engine       *ProvisioningEngine
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore wires every service over the memory backends. A
// non-nil store replaces the artifact store used by the engine.
func newFixtureWithStore(t *testing.T, store artifact.Store) *fixture {
	t.Helper()

	repos, err := repository.NewMemoryRepositories()
	require.NoError(t, err)

	logger := zap.NewNop()
	locks := lock.NewKeyedMutex()
	mem := artifact.NewMemoryStore()
	if store == nil {
		store = mem
	}

	f := &fixture{
		repos:        repos,
		locks:        locks,
		store:        mem,
		users:        NewUserService(repos.Users, logger),
		auth:         NewAuthService(repos.Users, config.JWT{SecretKey: "test-secret", Issuer: "test", TokenTTL: 60}, logger),
		projects:     NewProjectService(repos, locks, nil, logger),
		participants: NewParticipantService(repos, locks, logger),
		applications: NewApplicationService(repos, locks, logger),
		engine:       NewProvisioningEngine(repos, store, locks, nil, 2, logger),
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = f.engine.Shutdown(ctx)
	})
	return f
}

// user stores an active user without going through password hashing
func (f *fixture) user(t *testing.T, name, role string) *model.Identity {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(name) + "@example.com",
		Name:         name,
		Organization: name + " Labs",
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.repos.Users.CreateUser(u))
	return model.IdentityFromUser(u)
}

func (f *fixture) project(t *testing.T, owner *model.Identity, name string) *model.Project {
	t.Helper()
	project, err := f.projects.CreateProject(owner, &dto.CreateProjectRequest{Name: name, Scheme: constants.SchemeGRPC})
	require.NoError(t, err)
	return project
}

func (f *fixture) server(t *testing.T, owner *model.Identity, projectID, name string, fedPort, adminPort int) *model.Server {
	t.Helper()
	server, err := f.participants.CreateServer(owner, projectID, &dto.CreateServerRequest{
		Name:         name,
		FedLearnPort: &fedPort,
		AdminPort:    &adminPort,
	})
	require.NoError(t, err)
	return server
}

func (f *fixture) client(t *testing.T, owner *model.Identity, projectID, name string) *model.Client {
	t.Helper()
	client, err := f.participants.CreateClient(owner, projectID, &dto.CreateClientRequest{Name: name, Org: "site"})
	require.NoError(t, err)
	return client
}

// waitFor blocks until the project's in-flight run has published
func (f *fixture) waitFor(t *testing.T, projectID string) {
	t.Helper()
	select {
	case <-f.engine.Wait(projectID):
	case <-time.After(10 * time.Second):
		t.Fatalf("provisioning of %s did not finish", projectID)
	}
}

func (f *fixture) provision(t *testing.T, actor *model.Identity, projectID string) *dto.ProvisioningStatusResponse {
	t.Helper()
	_, err := f.engine.Provision(actor, projectID)
	require.NoError(t, err)
	f.waitFor(t, projectID)

	status, err := f.engine.Status(actor, projectID)
	require.NoError(t, err)
	return status
}

func (f *fixture) reprovision(t *testing.T, actor *model.Identity, projectID string) *dto.ProvisioningStatusResponse {
	t.Helper()
	_, err := f.engine.Reprovision(actor, projectID)
	require.NoError(t, err)
	f.waitFor(t, projectID)

	status, err := f.engine.Status(actor, projectID)
	require.NoError(t, err)
	return status
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
