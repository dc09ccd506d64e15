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
)

// Project represents a federated-learning deployment definition
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Scheme      string    `json:"scheme" db:"scheme"`
	ServerName  string    `json:"server_name" db:"server_name"`
	APIVersion  int       `json:"api_version" db:"api_version"`
	HAMode      bool      `json:"ha_mode" db:"ha_mode"`
	Frozen      bool      `json:"frozen" db:"frozen"`
	Public      bool      `json:"public" db:"public"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// ProjectSummary is a project annotated with creator display info and child
// counts for list views.
type ProjectSummary struct {
	Project
	CreatorName        string `json:"creator_name" db:"creator_name"`
	CreatorEmail       string `json:"creator_email" db:"creator_email"`
	ServerCount        int    `json:"server_count" db:"server_count"`
	ClientCount        int    `json:"client_count" db:"client_count"`
	AdminCount         int    `json:"admin_count" db:"admin_count"`
	ProvisioningStatus string `json:"provisioning_status" db:"provisioning_status"`
}

// Server is an FL server participant of a project
type Server struct {
	ID                 string    `json:"id" db:"id"`
	ProjectID          string    `json:"project_id" db:"project_id"`
	Name               string    `json:"name" db:"name"`
	Org                string    `json:"org" db:"org"`
	FedLearnPort       int       `json:"fed_learn_port" db:"fed_learn_port"`
	AdminPort          int       `json:"admin_port" db:"admin_port"`
	ConnectionSecurity string    `json:"connection_security" db:"connection_security"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Server model
func (Server) TableName() string {
	return "servers"
}

// Client is an FL client site of a project
type Client struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	Name        string    `json:"name" db:"name"`
	Org         string    `json:"org" db:"org"`
	Description string    `json:"description" db:"description"`
	NumGPUs     int       `json:"num_gpus" db:"num_gpus"`
	GPUMemoryGB int       `json:"gpu_memory" db:"gpu_memory_gb"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// ProjectAdmin scopes administrative authority to a single project. Its role
// is independent of the global User role.
type ProjectAdmin struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Email     string    `json:"email" db:"email"`
	Org       string    `json:"org" db:"org"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ProjectAdmin model
func (ProjectAdmin) TableName() string {
	return "project_admins"
}

// Membership is a consistent snapshot of a project's participants, each list
// in creation order.
type Membership struct {
	Servers []*Server
	Clients []*Client
	Admins  []*ProjectAdmin
}

// Empty reports whether the membership has no participants at all
func (m *Membership) Empty() bool {
	return m == nil || len(m.Servers)+len(m.Clients)+len(m.Admins) == 0
}
