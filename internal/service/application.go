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
	"strings"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/authz"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/lock"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/metrics"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// joinedDescription marks clients created by an approved application
const joinedDescription = "Joined via application"

// ApplicationService runs the join request workflow. An application moves
// from pending to approved or rejected exactly once; approval creates the
// matching membership record in the same transaction.
type ApplicationService struct {
	userRepo        repository.UserRepository
	projectRepo     repository.ProjectRepository
	participantRepo repository.ParticipantRepository
	appRepo         repository.ApplicationRepository
	locks           *lock.KeyedMutex
	logger          *zap.Logger
	now             func() time.Time
}

func NewApplicationService(repos *repository.Repositories, locks *lock.KeyedMutex, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		userRepo:        repos.Users,
		projectRepo:     repos.Projects,
		participantRepo: repos.Participants,
		appRepo:         repos.Applications,
		locks:           locks,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// canonicalRole maps a requested role, including its accepted aliases, to
// the membership role it produces
func canonicalRole(requested string) (string, error) {
	role, ok := constants.RoleRequestedAliases[strings.ToLower(strings.TrimSpace(requested))]
	if !ok {
		return "", constants.NewValidationError("role_requested", "unsupported role %q", requested)
	}
	return role, nil
}

// Submit files a pending application for the actor
func (s *ApplicationService) Submit(actor *model.Identity, projectID string, req *dto.ApplyRequest) (*model.Application, error) {
	if actor == nil {
		return nil, constants.ErrUnauthenticated
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := loadProject(s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	pending, err := s.appRepo.HasPendingApplication(projectID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{
		Actor:                 actor,
		Project:               project,
		Action:                authz.ActionSubmitApplication,
		HasPendingApplication: pending,
	}); err != nil {
		return nil, err
	}

	role, err := canonicalRole(req.RoleRequested)
	if err != nil {
		return nil, err
	}

	app := &model.Application{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		UserID:        actor.UserID,
		Organization:  orDefault(req.Organization, actor.Organization),
		RoleRequested: role,
		Message:       req.Message,
		Status:        constants.ApplicationPending,
		CreatedAt:     s.now(),
	}
	if err := s.appRepo.CreateApplication(app); err != nil {
		return nil, err
	}

	s.logger.Info("Application submitted",
		zap.String("application_id", app.ID),
		zap.String("project_id", projectID),
		zap.String("user_id", actor.UserID),
		zap.String("role", role))
	return app, nil
}

func (s *ApplicationService) loadApplication(id string) (*model.Application, error) {
	app, err := s.appRepo.GetApplicationByID(id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, constants.ErrApplicationNotFound
	}
	return app, nil
}

// Decide approves or rejects a pending application. Deciding an already
// decided application fails with ErrApplicationDecided and changes nothing.
func (s *ApplicationService) Decide(actor *model.Identity, applicationID, action string) (*dto.DecideApplicationResponse, error) {
	if actor == nil {
		return nil, constants.ErrUnauthenticated
	}

	app, err := s.loadApplication(applicationID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(app.ProjectID)
	defer unlock()

	project, err := loadProject(s.projectRepo, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionDecideApplication}); err != nil {
		return nil, err
	}

	var status string
	switch action {
	case constants.DecisionApprove:
		status = constants.ApplicationApproved
	case constants.DecisionReject:
		status = constants.ApplicationRejected
	default:
		return nil, constants.NewValidationError("action", "action must be %q or %q", constants.DecisionApprove, constants.DecisionReject)
	}

	// Re-read under the lock; the repository re-checks inside its transaction
	if app, err = s.loadApplication(applicationID); err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, constants.ErrApplicationDecided
	}

	var grant *model.MembershipGrant
	if status == constants.ApplicationApproved {
		if project.Frozen {
			return nil, constants.ErrProjectFrozen
		}
		if grant, err = s.deriveMembership(app); err != nil {
			return nil, err
		}
	}

	app.Decide(status, actor.UserID, s.now())
	if err := s.appRepo.DecideApplication(app, grant); err != nil {
		return nil, err
	}
	metrics.ApplicationDecisionsTotal.WithLabelValues(action).Inc()

	s.logger.Info("Application decided",
		zap.String("application_id", app.ID),
		zap.String("project_id", app.ProjectID),
		zap.String("status", status),
		zap.String("decided_by", actor.UserID))

	resp := &dto.DecideApplicationResponse{Application: app}
	if grant != nil {
		resp.Server, resp.Client, resp.Admin = grant.Server, grant.Client, grant.Admin
	}
	return resp, nil
}

// deriveMembership builds the participant record an approval creates.
// Server and client names are derived from the applicant's organization and
// suffixed until unique within the project.
func (s *ApplicationService) deriveMembership(app *model.Application) (*model.MembershipGrant, error) {
	applicant, err := s.userRepo.GetUserByID(app.UserID)
	if err != nil {
		return nil, err
	}
	if applicant == nil {
		return nil, constants.ErrUserNotFound
	}

	membership, err := s.participantRepo.GetMembership(app.ProjectID)
	if err != nil {
		return nil, err
	}
	org := orDefault(app.Organization, applicant.Organization)
	source := orDefault(org, applicant.Name)
	now := s.now()

	switch app.RoleRequested {
	case constants.ParticipantServer:
		taken := make(map[string]bool, len(membership.Servers))
		for _, srv := range membership.Servers {
			taken[srv.Name] = true
		}
		name, err := utils.GenerateHandle(source, func(h string) (bool, error) { return taken[h], nil })
		if err != nil {
			return nil, err
		}
		return &model.MembershipGrant{Server: &model.Server{
			ID:                 uuid.New().String(),
			ProjectID:          app.ProjectID,
			Name:               name,
			Org:                org,
			FedLearnPort:       constants.DefaultFedLearnPort,
			AdminPort:          constants.DefaultAdminPort,
			ConnectionSecurity: constants.ConnectionSecurityMTLS,
			CreatedAt:          now,
		}}, nil

	case constants.ParticipantClient:
		taken := make(map[string]bool, len(membership.Clients))
		for _, c := range membership.Clients {
			taken[c.Name] = true
		}
		name, err := utils.GenerateHandle(source, func(h string) (bool, error) { return taken[h], nil })
		if err != nil {
			return nil, err
		}
		return &model.MembershipGrant{Client: &model.Client{
			ID:          uuid.New().String(),
			ProjectID:   app.ProjectID,
			Name:        name,
			Org:         org,
			Description: joinedDescription,
			NumGPUs:     constants.DefaultNumGPUs,
			GPUMemoryGB: constants.DefaultGPUMemoryGB,
			CreatedAt:   now,
		}}, nil

	default:
		if !constants.ValidProjectAdminRoles[app.RoleRequested] {
			return nil, constants.NewValidationError("role_requested", "unsupported role %q", app.RoleRequested)
		}
		return &model.MembershipGrant{Admin: &model.ProjectAdmin{
			ID:        uuid.New().String(),
			ProjectID: app.ProjectID,
			Email:     normalizeEmail(applicant.Email),
			Org:       org,
			Role:      app.RoleRequested,
			CreatedAt: now,
		}}, nil
	}
}

// ListApplications returns the project's applications newest first,
// optionally filtered by status
func (s *ApplicationService) ListApplications(actor *model.Identity, projectID, status string) ([]*model.Application, error) {
	project, err := loadProject(s.projectRepo, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionListApplications}); err != nil {
		return nil, err
	}
	if status != "" {
		if err := validateEnum("status", status, constants.ValidApplicationStatuses); err != nil {
			return nil, err
		}
	}
	return s.appRepo.ListApplications(projectID, status)
}

// GetApplication returns one application to its applicant or to anyone who
// may decide it
func (s *ApplicationService) GetApplication(actor *model.Identity, applicationID string) (*model.Application, error) {
	if actor == nil {
		return nil, constants.ErrUnauthenticated
	}
	app, err := s.loadApplication(applicationID)
	if err != nil {
		return nil, err
	}
	if app.UserID == actor.UserID {
		return app, nil
	}

	project, err := loadProject(s.projectRepo, app.ProjectID)
	if err != nil {
		return nil, err
	}
	if !authz.IsCreatorOrAdmin(actor, project) {
		return nil, constants.ErrForbidden
	}
	return app, nil
}
