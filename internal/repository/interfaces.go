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

package repository

import (
	"context"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
)

// UserRepository defines the interface for user data access.
// Getters return (nil, nil) when the record does not exist.
type UserRepository interface {
	CreateUser(user *model.User) error
	GetUserByID(id string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	ListUsers() ([]*model.User, error)
	UpdateUser(user *model.User) error
	CountUsers() (int, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	CreateProject(project *model.Project) error
	GetProjectByID(id string) (*model.Project, error)
	ListProjectSummaries() ([]*model.ProjectSummary, error)
	UpdateProject(project *model.Project) error
	// DeleteProject removes the project and every record it owns in one
	// transaction. Returns constants.ErrProjectNotFound when absent.
	DeleteProject(id string) error
}

// ParticipantRepository defines the interface for server, client and
// project admin records nested under a project
type ParticipantRepository interface {
	CreateServer(server *model.Server) error
	GetServer(projectID, serverID string) (*model.Server, error)
	UpdateServer(server *model.Server) error
	DeleteServer(projectID, serverID string) error

	CreateClient(client *model.Client) error
	GetClient(projectID, clientID string) (*model.Client, error)
	UpdateClient(client *model.Client) error
	DeleteClient(projectID, clientID string) error

	CreateAdmin(admin *model.ProjectAdmin) error
	GetAdmin(projectID, adminID string) (*model.ProjectAdmin, error)
	UpdateAdmin(admin *model.ProjectAdmin) error
	DeleteAdmin(projectID, adminID string) error

	// GetMembership returns all participants of a project from a single
	// consistent read
	GetMembership(projectID string) (*model.Membership, error)
}

// ApplicationRepository defines the interface for join application data access
type ApplicationRepository interface {
	CreateApplication(app *model.Application) error
	GetApplicationByID(id string) (*model.Application, error)
	ListApplications(projectID, status string) ([]*model.Application, error)
	HasPendingApplication(projectID, userID string) (bool, error)
	// DecideApplication persists the decided application and, when grant is
	// non-nil, inserts the membership record in the same transaction. The
	// stored application must still be pending, otherwise
	// constants.ErrApplicationDecided is returned and nothing changes.
	DecideApplication(app *model.Application, grant *model.MembershipGrant) error
}

// ProvisioningRepository defines the interface for provisioning state
type ProvisioningRepository interface {
	// GetProvisioningRecord returns (nil, nil) for never-provisioned projects
	GetProvisioningRecord(projectID string) (*model.ProvisioningRecord, error)
	// SaveProvisioningRecord replaces the project's record and artifact
	// references atomically. Returns constants.ErrProjectNotFound if the
	// project no longer exists.
	SaveProvisioningRecord(record *model.ProvisioningRecord) error
}

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Repositories bundles every repository backed by the same store
type Repositories struct {
	Users        UserRepository
	Projects     ProjectRepository
	Participants ParticipantRepository
	Applications ApplicationRepository
	Provisioning ProvisioningRepository
	Health       HealthChecker
}
