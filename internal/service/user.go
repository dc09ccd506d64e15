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

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 6

type UserService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a regular, active user account
func (s *UserService) Register(req *dto.RegisterUserRequest) (*model.User, error) {
	return s.createUser(req, constants.RoleUser)
}

func (s *UserService) createUser(req *dto.RegisterUserRequest, role string) (*model.User, error) {
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := validateEmail("email", email); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, constants.NewValidationError("password", "password must be at least %d characters", minPasswordLength)
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, constants.ErrUserExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Organization: req.Organization,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", role))
	return user, nil
}

func (s *UserService) ListUsers() ([]*model.User, error) {
	return s.userRepo.ListUsers()
}

func (s *UserService) GetUser(id string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, constants.ErrUserNotFound
	}
	return user, nil
}

// UpdateUser applies a profile update. Users may edit their own name and
// organization; role and active flag changes require a global admin.
func (s *UserService) UpdateUser(actor *model.Identity, id string, req *dto.UpdateUserRequest) (*model.User, error) {
	if actor == nil {
		return nil, constants.ErrUnauthenticated
	}
	if actor.UserID != id && !actor.IsAdmin() {
		return nil, constants.ErrForbidden
	}
	if (req.Role != nil || req.IsActive != nil) && !actor.IsAdmin() {
		return nil, constants.ErrForbidden
	}

	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := requireText("name", *req.Name)
		if err != nil {
			return nil, err
		}
		user.Name = name
	}
	if req.Organization != nil {
		user.Organization = *req.Organization
	}
	if req.Role != nil {
		if err := validateEnum("role", *req.Role, constants.ValidUserRoles); err != nil {
			return nil, err
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if actor.UserID == id && !*req.IsActive {
			return nil, constants.NewValidationError("is_active", "you cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.UpdateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
