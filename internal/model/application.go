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

// Application is a user's request to join a project in a given role
type Application struct {
	ID            string     `json:"id" db:"id"`
	ProjectID     string     `json:"project_id" db:"project_id"`
	UserID        string     `json:"user_id" db:"user_id"`
	Organization  string     `json:"organization" db:"organization"`
	RoleRequested string     `json:"role_requested" db:"role_requested"`
	Message       string     `json:"message" db:"message"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	DecidedAt     *time.Time `json:"reviewed_at,omitempty" db:"decided_at"`
	DecidedBy     *string    `json:"reviewed_by,omitempty" db:"decided_by"`

	// Populated on list reads
	UserName  string `json:"user_name,omitempty" db:"user_name"`
	UserEmail string `json:"user_email,omitempty" db:"user_email"`
}

// TableName returns the table name for the Application model
func (Application) TableName() string {
	return "applications"
}

// IsPending returns true if the application has not been decided yet
func (a *Application) IsPending() bool {
	return a.Status == constants.ApplicationPending
}

// Decide moves the application to a terminal status
func (a *Application) Decide(status, deciderID string, at time.Time) {
	a.Status = status
	a.DecidedAt = &at
	a.DecidedBy = &deciderID
}

// MembershipGrant is the participant record an approved application creates.
// Exactly one of the fields is set.
type MembershipGrant struct {
	Server *Server
	Client *Client
	Admin  *ProjectAdmin
}
