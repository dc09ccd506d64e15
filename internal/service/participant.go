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

// ParticipantService manages the servers, clients and project admins of a
// project. Every mutation runs under the project lock.
type ParticipantService struct {
	projectRepo     repository.ProjectRepository
	participantRepo repository.ParticipantRepository
	locks           *lock.KeyedMutex
	logger          *zap.Logger
}

func NewParticipantService(repos *repository.Repositories, locks *lock.KeyedMutex, logger *zap.Logger) *ParticipantService {
	return &ParticipantService{
		projectRepo:     repos.Projects,
		participantRepo: repos.Participants,
		locks:           locks,
		logger:          logger,
	}
}

// mutate runs fn under the project lock once the project exists, the actor
// may perform action and the project is not frozen
func (s *ParticipantService) mutate(actor *model.Identity, projectID string, action authz.Action, fn func() error) error {
	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := loadProject(s.projectRepo, projectID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(authz.Request{Actor: actor, Project: project, Action: action}); err != nil {
		return err
	}
	if project.Frozen {
		return constants.ErrProjectFrozen
	}
	return fn()
}

// Servers

func validateServer(server *model.Server) error {
	if err := validatePort("fed_learn_port", server.FedLearnPort); err != nil {
		return err
	}
	if err := validatePort("admin_port", server.AdminPort); err != nil {
		return err
	}
	return validateEnum("connection_security", server.ConnectionSecurity, constants.ValidConnectionSecurity)
}

func (s *ParticipantService) CreateServer(actor *model.Identity, projectID string, req *dto.CreateServerRequest) (*model.Server, error) {
	var server *model.Server
	err := s.mutate(actor, projectID, authz.ActionCreateServer, func() error {
		name, err := requireName("name", req.Name)
		if err != nil {
			return err
		}
		server = &model.Server{
			ID:                 uuid.New().String(),
			ProjectID:          projectID,
			Name:               name,
			Org:                req.Org,
			FedLearnPort:       intOr(req.FedLearnPort, constants.DefaultFedLearnPort),
			AdminPort:          intOr(req.AdminPort, constants.DefaultAdminPort),
			ConnectionSecurity: orDefault(req.ConnectionSecurity, constants.ConnectionSecurityMTLS),
			CreatedAt:          time.Now().UTC(),
		}
		if err := validateServer(server); err != nil {
			return err
		}
		return s.participantRepo.CreateServer(server)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Server added",
		zap.String("project_id", projectID),
		zap.String("server_id", server.ID),
		zap.String("name", server.Name))
	return server, nil
}

func (s *ParticipantService) UpdateServer(actor *model.Identity, projectID, serverID string, req *dto.UpdateServerRequest) (*model.Server, error) {
	var server *model.Server
	err := s.mutate(actor, projectID, authz.ActionUpdateServer, func() error {
		var err error
		server, err = s.participantRepo.GetServer(projectID, serverID)
		if err != nil {
			return err
		}
		if server == nil {
			return constants.ErrServerNotFound
		}

		if req.Name != nil {
			if server.Name, err = requireName("name", *req.Name); err != nil {
				return err
			}
		}
		if req.Org != nil {
			server.Org = *req.Org
		}
		if req.FedLearnPort != nil {
			server.FedLearnPort = *req.FedLearnPort
		}
		if req.AdminPort != nil {
			server.AdminPort = *req.AdminPort
		}
		if req.ConnectionSecurity != nil {
			server.ConnectionSecurity = *req.ConnectionSecurity
		}
		if err := validateServer(server); err != nil {
			return err
		}
		return s.participantRepo.UpdateServer(server)
	})
	if err != nil {
		return nil, err
	}
	return server, nil
}

func (s *ParticipantService) DeleteServer(actor *model.Identity, projectID, serverID string) error {
	return s.mutate(actor, projectID, authz.ActionDeleteServer, func() error {
		return s.participantRepo.DeleteServer(projectID, serverID)
	})
}

// Clients

func validateClient(client *model.Client) error {
	if err := validateNonNegative("num_gpus", client.NumGPUs); err != nil {
		return err
	}
	return validateNonNegative("gpu_memory", client.GPUMemoryGB)
}

func (s *ParticipantService) CreateClient(actor *model.Identity, projectID string, req *dto.CreateClientRequest) (*model.Client, error) {
	var client *model.Client
	err := s.mutate(actor, projectID, authz.ActionCreateClient, func() error {
		name, err := requireName("name", req.Name)
		if err != nil {
			return err
		}
		client = &model.Client{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			Name:        name,
			Org:         req.Org,
			Description: req.Description,
			NumGPUs:     intOr(req.NumGPUs, constants.DefaultNumGPUs),
			GPUMemoryGB: intOr(req.GPUMemoryGB, constants.DefaultGPUMemoryGB),
			CreatedAt:   time.Now().UTC(),
		}
		if err := validateClient(client); err != nil {
			return err
		}
		return s.participantRepo.CreateClient(client)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Client added",
		zap.String("project_id", projectID),
		zap.String("client_id", client.ID),
		zap.String("name", client.Name))
	return client, nil
}

func (s *ParticipantService) UpdateClient(actor *model.Identity, projectID, clientID string, req *dto.UpdateClientRequest) (*model.Client, error) {
	var client *model.Client
	err := s.mutate(actor, projectID, authz.ActionUpdateClient, func() error {
		var err error
		client, err = s.participantRepo.GetClient(projectID, clientID)
		if err != nil {
			return err
		}
		if client == nil {
			return constants.ErrClientNotFound
		}

		if req.Name != nil {
			if client.Name, err = requireName("name", *req.Name); err != nil {
				return err
			}
		}
		if req.Org != nil {
			client.Org = *req.Org
		}
		if req.Description != nil {
			client.Description = *req.Description
		}
		if req.NumGPUs != nil {
			client.NumGPUs = *req.NumGPUs
		}
		if req.GPUMemoryGB != nil {
			client.GPUMemoryGB = *req.GPUMemoryGB
		}
		if err := validateClient(client); err != nil {
			return err
		}
		return s.participantRepo.UpdateClient(client)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ParticipantService) DeleteClient(actor *model.Identity, projectID, clientID string) error {
	return s.mutate(actor, projectID, authz.ActionDeleteClient, func() error {
		return s.participantRepo.DeleteClient(projectID, clientID)
	})
}

// Project admins

func validateAdmin(admin *model.ProjectAdmin) error {
	if err := validateEmail("email", admin.Email); err != nil {
		return err
	}
	return validateEnum("role", admin.Role, constants.ValidProjectAdminRoles)
}

func (s *ParticipantService) CreateAdmin(actor *model.Identity, projectID string, req *dto.CreateAdminRequest) (*model.ProjectAdmin, error) {
	var admin *model.ProjectAdmin
	err := s.mutate(actor, projectID, authz.ActionCreateAdmin, func() error {
		admin = &model.ProjectAdmin{
			ID:        uuid.New().String(),
			ProjectID: projectID,
			Email:     normalizeEmail(req.Email),
			Org:       req.Org,
			Role:      orDefault(req.Role, constants.ProjectRoleAdmin),
			CreatedAt: time.Now().UTC(),
		}
		if err := validateAdmin(admin); err != nil {
			return err
		}
		return s.participantRepo.CreateAdmin(admin)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project admin added",
		zap.String("project_id", projectID),
		zap.String("admin_id", admin.ID),
		zap.String("role", admin.Role))
	return admin, nil
}

func (s *ParticipantService) UpdateAdmin(actor *model.Identity, projectID, adminID string, req *dto.UpdateAdminRequest) (*model.ProjectAdmin, error) {
	var admin *model.ProjectAdmin
	err := s.mutate(actor, projectID, authz.ActionUpdateAdmin, func() error {
		var err error
		admin, err = s.participantRepo.GetAdmin(projectID, adminID)
		if err != nil {
			return err
		}
		if admin == nil {
			return constants.ErrAdminNotFound
		}

		if req.Email != nil {
			admin.Email = normalizeEmail(*req.Email)
		}
		if req.Org != nil {
			admin.Org = *req.Org
		}
		if req.Role != nil {
			admin.Role = *req.Role
		}
		if err := validateAdmin(admin); err != nil {
			return err
		}
		return s.participantRepo.UpdateAdmin(admin)
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *ParticipantService) DeleteAdmin(actor *model.Identity, projectID, adminID string) error {
	return s.mutate(actor, projectID, authz.ActionDeleteAdmin, func() error {
		return s.participantRepo.DeleteAdmin(projectID, adminID)
	})
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
