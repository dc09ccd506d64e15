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
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
)

// ProvisionResponse is returned when a provisioning run is accepted
type ProvisionResponse struct {
	Status    string `json:"status"`
	ProjectID string `json:"project_id"`
	Message   string `json:"message"`
}

// ProvisioningStatusResponse is returned by GET /status/:projectId
type ProvisioningStatusResponse struct {
	Status      string               `json:"status"`
	GeneratedAt *time.Time           `json:"generated_at"`
	Artifacts   []*model.ArtifactRef `json:"artifacts"`
	Error       string               `json:"error,omitempty"`
}

// ProvisioningEvent is pushed to subscribed dashboard sessions on every
// provisioning state change
type ProvisioningEvent struct {
	Type          string     `json:"type"`
	ProjectID     string     `json:"project_id"`
	Status        string     `json:"status"`
	GeneratedAt   *time.Time `json:"generated_at,omitempty"`
	Error         string     `json:"error,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
	CorrelationID string     `json:"correlation_id"`
}

// ConnectionAck is the first message of an event stream
type ConnectionAck struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	ConnectionID string `json:"connection_id"`
	Timestamp    string `json:"timestamp"`
}
