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
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/authz"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/lock"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectService struct {
	projectRepo      repository.ProjectRepository
	participantRepo  repository.ParticipantRepository
	provisioningRepo repository.ProvisioningRepository
	locks            *lock.KeyedMutex
	events           *ProjectEventsService
	logger           *zap.Logger
}

func NewProjectService(repos *repository.Repositories, locks *lock.KeyedMutex, events *ProjectEventsService,
	logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo:      repos.Projects,
		participantRepo:  repos.Participants,
		provisioningRepo: repos.Provisioning,
		locks:            locks,
		events:           events,
		logger:           logger,
	}
}

// loadProject returns the project or ErrProjectNotFound
func loadProject(repo repository.ProjectRepository, id string) (*model.Project, error) {
	project, err := repo.GetProjectByID(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, constants.ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) CreateProject(actor *model.Identity, req *dto.CreateProjectRequest) (*model.Project, error) {
	if err := authz.Authorize(authz.Request{Actor: actor, Action: authz.ActionCreateProject}); err != nil {
		return nil, err
	}

	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, constants.ErrInvalidProjectName
	}
	scheme := orDefault(req.Scheme, constants.DefaultScheme)
	if err := validateEnum("scheme", scheme, constants.ValidSchemes); err != nil {
		return nil, err
	}
	apiVersion := constants.DefaultAPIVersion
	if req.APIVersion != nil {
		apiVersion = *req.APIVersion
	}
	if apiVersion < 1 {
		return nil, constants.NewValidationError("api_version", "api_version must be positive")
	}

	now := time.Now().UTC()
	project := &model.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: req.Description,
		Scheme:      scheme,
		ServerName:  orDefault(req.ServerName, constants.DefaultServerName),
		APIVersion:  apiVersion,
		HAMode:      req.HAMode,
		Public:      req.Public,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projectRepo.CreateProject(project); err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID),
		zap.String("name", project.Name),
		zap.String("created_by", actor.UserID))
	return project, nil
}

// GetProject returns the project with its participants and provisioning state
func (s *ProjectService) GetProject(actor *model.Identity, id string) (*dto.ProjectDetailResponse, error) {
	project, err := loadProject(s.projectRepo, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionReadProject}); err != nil {
		return nil, err
	}

	membership, err := s.participantRepo.GetMembership(id)
	if err != nil {
		return nil, err
	}
	record, err := s.provisioningRepo.GetProvisioningRecord(id)
	if err != nil {
		return nil, err
	}

	status := constants.ProvisioningNotProvisioned
	if record != nil {
		status = record.Status
	}
	return &dto.ProjectDetailResponse{
		Project:            project,
		Servers:            membership.Servers,
		Clients:            membership.Clients,
		Admins:             membership.Admins,
		Provisioned:        status == constants.ProvisioningProvisioned,
		ProvisioningStatus: status,
	}, nil
}

// ListProjects returns every project summary, newest first. Reads are
// unrestricted for authenticated callers.
func (s *ProjectService) ListProjects(actor *model.Identity) ([]*model.ProjectSummary, error) {
	if actor == nil {
		return nil, constants.ErrUnauthenticated
	}
	return s.projectRepo.ListProjectSummaries()
}

// UpdateProject applies the present fields of req. Unfreezing and freezing
// are project updates and follow the same rules.
func (s *ProjectService) UpdateProject(actor *model.Identity, id string, req *dto.UpdateProjectRequest) (*model.Project, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	project, err := loadProject(s.projectRepo, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionUpdateProject}); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := requireText("name", *req.Name)
		if err != nil {
			return nil, constants.ErrInvalidProjectName
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Scheme != nil {
		if err := validateEnum("scheme", *req.Scheme, constants.ValidSchemes); err != nil {
			return nil, err
		}
		project.Scheme = *req.Scheme
	}
	if req.ServerName != nil {
		serverName, err := requireText("server_name", *req.ServerName)
		if err != nil {
			return nil, err
		}
		project.ServerName = serverName
	}
	if req.APIVersion != nil {
		if *req.APIVersion < 1 {
			return nil, constants.NewValidationError("api_version", "api_version must be positive")
		}
		project.APIVersion = *req.APIVersion
	}
	if req.HAMode != nil {
		project.HAMode = *req.HAMode
	}
	if req.Frozen != nil {
		project.Frozen = *req.Frozen
	}
	if req.Public != nil {
		project.Public = *req.Public
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projectRepo.UpdateProject(project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes the project and everything it owns. An in-flight
// provisioning run notices the deletion when it tries to publish.
func (s *ProjectService) DeleteProject(actor *model.Identity, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	project, err := loadProject(s.projectRepo, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: authz.ActionDeleteProject}); err != nil {
		return err
	}

	if err := s.projectRepo.DeleteProject(id); err != nil {
		return err
	}
	s.events.DisconnectProject(id)

	s.logger.Info("Project deleted", zap.String("project_id", id), zap.String("deleted_by", actor.UserID))
	return nil
}
