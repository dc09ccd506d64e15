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
	"database/sql"
	"errors"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/database"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
)

// UserRepo implements UserRepository
type UserRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &UserRepo{db: db}
}

const userColumns = `id, email, name, organization, role, password_hash, is_active, created_at`

// CreateUser inserts a new user
func (r *UserRepo) CreateUser(user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.Exec(query, user.ID, user.Email, user.Name, user.Organization, user.Role,
		user.PasswordHash, user.IsActive, user.CreatedAt)
	if database.IsUniqueViolation(err) {
		return constants.ErrUserExists
	}
	return err
}

// GetUserByID retrieves a user by ID
func (r *UserRepo) GetUserByID(id string) (*model.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email
func (r *UserRepo) GetUserByEmail(email string) (*model.User, error) {
	return r.getOne(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepo) getOne(query string, args ...interface{}) (*model.User, error) {
	user := &model.User{}
	if err := r.db.Get(user, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves all users ordered by registration time
func (r *UserRepo) ListUsers() ([]*model.User, error) {
	users := []*model.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	if err := r.db.Select(&users, query); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser modifies the mutable fields of a user
func (r *UserRepo) UpdateUser(user *model.User) error {
	query := r.db.Rebind(`
		UPDATE users
		SET name = ?, organization = ?, role = ?, is_active = ?
		WHERE id = ?
	`)
	result, err := r.db.Exec(query, user.Name, user.Organization, user.Role, user.IsActive, user.ID)
	if err != nil {
		return err
	}
	return requireAffected(result, constants.ErrUserNotFound)
}

// CountUsers returns the number of registered users
func (r *UserRepo) CountUsers() (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, err
	}
	return count, nil
}

// requireAffected maps a zero-row write to notFound
func requireAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
