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

	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const exampleProjectName = "Example Sorachain Project"

// Seeder creates the first-run data: a global admin and, optionally, an
// example project with one server and one project admin.
type Seeder struct {
	repos  *repository.Repositories
	users  *UserService
	cfg    config.Bootstrap
	logger *zap.Logger
}

func NewSeeder(repos *repository.Repositories, users *UserService, cfg config.Bootstrap, logger *zap.Logger) *Seeder {
	return &Seeder{
		repos:  repos,
		users:  users,
		cfg:    cfg,
		logger: logger,
	}
}

// Seed runs only against an empty user table. Returns true when data was created.
func (s *Seeder) Seed() (bool, error) {
	if !s.cfg.Enabled {
		return false, nil
	}
	count, err := s.repos.Users.CountUsers()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	admin, err := s.users.createUser(&dto.RegisterUserRequest{
		Name:         s.cfg.AdminName,
		Email:        s.cfg.AdminEmail,
		Password:     s.cfg.AdminPassword,
		Organization: s.cfg.Organization,
	}, constants.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("Seeded global administrator", zap.String("email", admin.Email))

	if !s.cfg.ExampleProject {
		return true, nil
	}
	if err := s.seedExampleProject(admin); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Seeder) seedExampleProject(admin *model.User) error {
	now := time.Now().UTC()
	project := &model.Project{
		ID:          uuid.New().String(),
		Name:        exampleProjectName,
		Description: "Example federated learning project",
		Scheme:      constants.DefaultScheme,
		ServerName:  constants.DefaultServerName,
		APIVersion:  constants.DefaultAPIVersion,
		CreatedBy:   admin.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Projects.CreateProject(project); err != nil {
		return err
	}

	server := &model.Server{
		ID:                 uuid.New().String(),
		ProjectID:          project.ID,
		Name:               constants.DefaultServerName,
		Org:                s.cfg.Organization,
		FedLearnPort:       constants.DefaultFedLearnPort,
		AdminPort:          constants.DefaultAdminPort,
		ConnectionSecurity: constants.ConnectionSecurityMTLS,
		CreatedAt:          now,
	}
	if err := s.repos.Participants.CreateServer(server); err != nil {
		return err
	}

	projectAdmin := &model.ProjectAdmin{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Email:     admin.Email,
		Org:       s.cfg.Organization,
		Role:      constants.ProjectRoleAdmin,
		CreatedAt: now,
	}
	if err := s.repos.Participants.CreateAdmin(projectAdmin); err != nil {
		return err
	}

	s.logger.Info("Seeded example project", zap.String("project_id", project.ID))
	return nil
}
