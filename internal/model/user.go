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

package model

import (
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
)

// User represents a registered dashboard user
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Organization string    `json:"organization" db:"organization"`
	Role         string    `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON responses
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// Identity is the resolved caller of a request. It never exists without a
// backing User record.
type Identity struct {
	UserID       string
	Email        string
	Name         string
	Organization string
	Role         string
}

// IsAdmin reports whether the identity holds the global admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == constants.RoleAdmin
}

// IdentityFromUser builds the request identity for a stored user
func IdentityFromUser(u *User) *Identity {
	return &Identity{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Organization: u.Organization,
		Role:         u.Role,
	}
}
