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

package authz

import (
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
)

// Action is an operation subject to authorization
type Action string

// Project actions
const (
	ActionCreateProject     Action = "create_project"
	ActionReadProject       Action = "read_project"
	ActionUpdateProject     Action = "update_project"
	ActionDeleteProject     Action = "delete_project"
	ActionCreateServer      Action = "create_server"
	ActionUpdateServer      Action = "update_server"
	ActionDeleteServer      Action = "delete_server"
	ActionCreateClient      Action = "create_client"
	ActionUpdateClient      Action = "update_client"
	ActionDeleteClient      Action = "delete_client"
	ActionCreateAdmin       Action = "create_admin"
	ActionUpdateAdmin       Action = "update_admin"
	ActionDeleteAdmin       Action = "delete_admin"
	ActionProvision         Action = "provision"
	ActionDownloadKit       Action = "download_kit"
	ActionViewStatus        Action = "view_status"
	ActionSubmitApplication Action = "submit_application"
	ActionDecideApplication Action = "decide_application"
	ActionListApplications  Action = "list_applications"
)

// creatorActions may only be performed by the project creator (or a global admin)
var creatorActions = map[Action]bool{
	ActionCreateServer:     true,
	ActionUpdateServer:     true,
	ActionDeleteServer:     true,
	ActionCreateClient:     true,
	ActionUpdateClient:     true,
	ActionDeleteClient:     true,
	ActionCreateAdmin:      true,
	ActionUpdateAdmin:      true,
	ActionDeleteAdmin:      true,
	ActionProvision:        true,
	ActionDownloadKit:      true,
	ActionUpdateProject:    true,
	ActionDeleteProject:    true,
	ActionListApplications: true,
}

// Request is the input to an authorization decision
type Request struct {
	Actor   *model.Identity
	Project *model.Project
	Action  Action
	// HasPendingApplication must be set for ActionSubmitApplication
	HasPendingApplication bool
}

// Authorize evaluates the policy rules in order; the first match wins.
// It returns nil to allow, constants.ErrForbidden to deny, and
// constants.ErrDuplicateApplication when a submission is denied because the
// actor already has a pending application.
func Authorize(req Request) error {
	if req.Actor == nil {
		return constants.ErrUnauthenticated
	}
	if req.Actor.IsAdmin() {
		return nil
	}
	if req.Action == ActionCreateProject {
		return nil
	}
	if req.Project == nil {
		return constants.ErrForbidden
	}

	switch {
	case req.Action == ActionReadProject || req.Action == ActionViewStatus:
		return nil
	case creatorActions[req.Action]:
		return requireCreator(req)
	case req.Action == ActionSubmitApplication:
		if req.HasPendingApplication {
			return constants.ErrDuplicateApplication
		}
		return nil
	case req.Action == ActionDecideApplication:
		return requireCreator(req)
	}
	return constants.ErrForbidden
}

func requireCreator(req Request) error {
	if req.Actor.UserID != "" && req.Actor.UserID == req.Project.CreatedBy {
		return nil
	}
	return constants.ErrForbidden
}

// IsCreatorOrAdmin reports whether the actor created the project or holds
// the global admin role
func IsCreatorOrAdmin(actor *model.Identity, project *model.Project) bool {
	if actor == nil || project == nil {
		return false
	}
	return actor.IsAdmin() || actor.UserID == project.CreatedBy
}
