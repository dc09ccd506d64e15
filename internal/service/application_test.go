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
	"sync"
	"testing"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitApplication(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	app, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{Message: "let me in"})
	require.NoError(t, err)
	assert.Equal(t, constants.ApplicationPending, app.Status)
	assert.Equal(t, constants.ParticipantClient, app.RoleRequested)
	assert.Equal(t, "alice Labs", app.Organization)
	assert.Nil(t, app.DecidedAt)

	_, err = f.applications.Submit(alice, project.ID, &dto.ApplyRequest{RoleRequested: "server"})
	assert.ErrorIs(t, err, constants.ErrDuplicateApplication)
	assert.ErrorIs(t, err, constants.ErrConflict)

	_, err = f.applications.Submit(alice, "missing", &dto.ApplyRequest{})
	assert.ErrorIs(t, err, constants.ErrProjectNotFound)

	_, err = f.applications.Submit(nil, project.ID, &dto.ApplyRequest{})
	assert.ErrorIs(t, err, constants.ErrUnauthenticated)
}

func TestRoleRequestedAliases(t *testing.T) {
	tests := []struct {
		requested string
		want      string
		wantErr   bool
	}{
		{requested: "", want: constants.ParticipantClient},
		{requested: "user", want: constants.ParticipantClient},
		{requested: "Client", want: constants.ParticipantClient},
		{requested: "server", want: constants.ParticipantServer},
		{requested: "admin", want: constants.ProjectRoleAdmin},
		{requested: "proj_admin", want: constants.ProjectRoleAdmin},
		{requested: "project_lead", want: constants.ProjectRoleLead},
		{requested: "researcher", want: constants.ProjectRoleResearcher},
		{requested: "overlord", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			got, err := canonicalRole(tt.requested)
			if tt.wantErr {
				assert.ErrorIs(t, err, constants.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApproveCreatesMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	bob := f.user(t, "bob", constants.RoleUser)
	carol := f.user(t, "carol", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	clientApp, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{RoleRequested: "client"})
	require.NoError(t, err)
	serverApp, err := f.applications.Submit(bob, project.ID, &dto.ApplyRequest{RoleRequested: "server", Organization: "Bob Hospital"})
	require.NoError(t, err)
	adminApp, err := f.applications.Submit(carol, project.ID, &dto.ApplyRequest{RoleRequested: "proj_admin"})
	require.NoError(t, err)

	resp, err := f.applications.Decide(owner, clientApp.ID, constants.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, constants.ApplicationApproved, resp.Application.Status)
	require.NotNil(t, resp.Application.DecidedBy)
	assert.Equal(t, owner.UserID, *resp.Application.DecidedBy)
	require.NotNil(t, resp.Client)
	assert.Equal(t, "alice-labs", resp.Client.Name)
	assert.Equal(t, "Joined via application", resp.Client.Description)
	assert.Equal(t, constants.DefaultNumGPUs, resp.Client.NumGPUs)

	resp, err = f.applications.Decide(owner, serverApp.ID, constants.DecisionApprove)
	require.NoError(t, err)
	require.NotNil(t, resp.Server)
	assert.Equal(t, "bob-hospital", resp.Server.Name)
	assert.Equal(t, constants.DefaultFedLearnPort, resp.Server.FedLearnPort)

	resp, err = f.applications.Decide(owner, adminApp.ID, constants.DecisionApprove)
	require.NoError(t, err)
	require.NotNil(t, resp.Admin)
	assert.Equal(t, "carol@example.com", resp.Admin.Email)
	assert.Equal(t, constants.ProjectRoleAdmin, resp.Admin.Role)

	membership, err := f.repos.Participants.GetMembership(project.ID)
	require.NoError(t, err)
	assert.Len(t, membership.Servers, 1)
	assert.Len(t, membership.Clients, 1)
	assert.Len(t, membership.Admins, 1)
}

func TestDecideIsTerminal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	app, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)

	_, err = f.applications.Decide(alice, app.ID, constants.DecisionApprove)
	assert.ErrorIs(t, err, constants.ErrForbidden)

	_, err = f.applications.Decide(owner, app.ID, "maybe")
	assert.ErrorIs(t, err, constants.ErrValidation)

	_, err = f.applications.Decide(owner, app.ID, constants.DecisionApprove)
	require.NoError(t, err)

	_, err = f.applications.Decide(owner, app.ID, constants.DecisionReject)
	assert.ErrorIs(t, err, constants.ErrApplicationDecided)
	assert.ErrorIs(t, err, constants.ErrInvalidTransition)

	stored, err := f.applications.GetApplication(owner, app.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ApplicationApproved, stored.Status)

	membership, err := f.repos.Participants.GetMembership(project.ID)
	require.NoError(t, err)
	assert.Len(t, membership.Clients, 1)

	_, err = f.applications.Decide(owner, "missing", constants.DecisionApprove)
	assert.ErrorIs(t, err, constants.ErrApplicationNotFound)
}

func TestConcurrentDecisionsApplyOnce(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	app, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)

	const deciders = 8
	var wg sync.WaitGroup
	errs := make(chan error, deciders)
	for i := 0; i < deciders; i++ {
		action := constants.DecisionApprove
		if i%2 == 1 {
			action = constants.DecisionReject
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.applications.Decide(owner, app.ID, action)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, constants.ErrApplicationDecided)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.applications.GetApplication(alice, app.ID)
	require.NoError(t, err)
	membership, err := f.repos.Participants.GetMembership(project.ID)
	require.NoError(t, err)
	if stored.Status == constants.ApplicationApproved {
		assert.Len(t, membership.Clients, 1)
	} else {
		assert.Equal(t, constants.ApplicationRejected, stored.Status)
		assert.Empty(t, membership.Clients)
	}
}

func TestRejectAllowsReapplication(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	app, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)
	resp, err := f.applications.Decide(owner, app.ID, constants.DecisionReject)
	require.NoError(t, err)
	assert.Nil(t, resp.Client)

	membership, err := f.repos.Participants.GetMembership(project.ID)
	require.NoError(t, err)
	assert.True(t, membership.Empty())

	_, err = f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)
}

func TestApproveOnFrozenProject(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	bob := f.user(t, "bob", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	first, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)
	second, err := f.applications.Submit(bob, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)

	_, err = f.projects.UpdateProject(owner, project.ID, &dto.UpdateProjectRequest{Frozen: boolPtr(true)})
	require.NoError(t, err)

	_, err = f.applications.Decide(owner, first.ID, constants.DecisionApprove)
	assert.ErrorIs(t, err, constants.ErrProjectFrozen)

	// rejections do not touch membership and stay possible
	_, err = f.applications.Decide(owner, second.ID, constants.DecisionReject)
	require.NoError(t, err)

	stored, err := f.applications.GetApplication(owner, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPending())
}

func TestGeneratedNamesAvoidCollisions(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	bob := f.user(t, "bob", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	_, err := f.participants.CreateClient(owner, project.ID, &dto.CreateClientRequest{Name: "acme"})
	require.NoError(t, err)

	for _, actor := range []*model.Identity{alice, bob} {
		app, err := f.applications.Submit(actor, project.ID, &dto.ApplyRequest{Organization: "ACME"})
		require.NoError(t, err)
		_, err = f.applications.Decide(owner, app.ID, constants.DecisionApprove)
		require.NoError(t, err)
	}

	membership, err := f.repos.Participants.GetMembership(project.ID)
	require.NoError(t, err)
	var names []string
	for _, c := range membership.Clients {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"acme", "acme-1", "acme-2"}, names)
}

func TestListAndGetApplications(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner", constants.RoleUser)
	alice := f.user(t, "alice", constants.RoleUser)
	bob := f.user(t, "bob", constants.RoleUser)
	project := f.project(t, owner, "FL-Trial")

	aliceApp, err := f.applications.Submit(alice, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)
	bobApp, err := f.applications.Submit(bob, project.ID, &dto.ApplyRequest{})
	require.NoError(t, err)
	_, err = f.applications.Decide(owner, aliceApp.ID, constants.DecisionReject)
	require.NoError(t, err)

	apps, err := f.applications.ListApplications(owner, project.ID, "")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, bobApp.ID, apps[0].ID)
	assert.Equal(t, aliceApp.ID, apps[1].ID)

	pending, err := f.applications.ListApplications(owner, project.ID, constants.ApplicationPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bobApp.ID, pending[0].ID)

	_, err = f.applications.ListApplications(owner, project.ID, "archived")
	assert.ErrorIs(t, err, constants.ErrValidation)

	_, err = f.applications.ListApplications(alice, project.ID, "")
	assert.ErrorIs(t, err, constants.ErrForbidden)

	got, err := f.applications.GetApplication(bob, bobApp.ID)
	require.NoError(t, err)
	assert.Equal(t, bobApp.ID, got.ID)

	_, err = f.applications.GetApplication(alice, bobApp.ID)
	assert.ErrorIs(t, err, constants.ErrForbidden)
}
