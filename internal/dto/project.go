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

package dto

import (
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
)

// CreateProjectRequest represents the request body for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Scheme      string `json:"scheme"`
	ServerName  string `json:"server_name"`
	APIVersion  *int   `json:"api_version,omitempty"`
	HAMode      bool   `json:"ha_mode"`
	Public      bool   `json:"public"`
}

// UpdateProjectRequest represents the request body for updating a project.
// Absent fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Scheme      *string `json:"scheme,omitempty"`
	ServerName  *string `json:"server_name,omitempty"`
	APIVersion  *int    `json:"api_version,omitempty"`
	HAMode      *bool   `json:"ha_mode,omitempty"`
	Frozen      *bool   `json:"frozen,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}

// ProjectDetailResponse is returned by GET /projects/:projectId
type ProjectDetailResponse struct {
	Project            *model.Project        `json:"project"`
	Servers            []*model.Server       `json:"servers"`
	Clients            []*model.Client       `json:"clients"`
	Admins             []*model.ProjectAdmin `json:"admins"`
	Provisioned        bool                  `json:"provisioned"`
	ProvisioningStatus string                `json:"provisioning_status"`
}

// ProjectListResponse wraps the project summaries
type ProjectListResponse struct {
	Projects []*model.ProjectSummary `json:"projects"`
}
