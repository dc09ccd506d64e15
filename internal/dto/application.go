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

// ApplyRequest represents the request body for POST /projects/:projectId/apply
type ApplyRequest struct {
	Organization  string `json:"organization"`
	RoleRequested string `json:"role_requested"`
	Message       string `json:"message"`
}

// DecideApplicationRequest represents the request body for
// POST /applications/:applicationId/approve
type DecideApplicationRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

// DecideApplicationResponse is returned after a decision
type DecideApplicationResponse struct {
	Application *model.Application  `json:"application"`
	Server      *model.Server       `json:"server,omitempty"`
	Client      *model.Client       `json:"client,omitempty"`
	Admin       *model.ProjectAdmin `json:"admin,omitempty"`
}

// ApplicationListResponse wraps a list of applications
type ApplicationListResponse struct {
	Applications []*model.Application `json:"applications"`
}
