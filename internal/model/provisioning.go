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

// ProvisioningRecord is the single active provisioning state of a project.
// Re-provisioning supersedes it.
type ProvisioningRecord struct {
	ProjectID   string         `json:"project_id" db:"project_id"`
	Status      string         `json:"status" db:"status"`
	GeneratedAt *time.Time     `json:"generated_at" db:"generated_at"`
	Error       string         `json:"error,omitempty" db:"error"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	Artifacts   []*ArtifactRef `json:"artifacts" db:"-"`
}

// TableName returns the table name for the ProvisioningRecord model
func (ProvisioningRecord) TableName() string {
	return "provisioning_records"
}

// Lookup finds the artifact reference for a participant
func (r *ProvisioningRecord) Lookup(participantType, participantID string) *ArtifactRef {
	for _, ref := range r.Artifacts {
		if ref.ParticipantType == participantType && ref.ParticipantID == participantID {
			return ref
		}
	}
	return nil
}

// ArtifactRef maps a (participant_type, participant_id) pair to a stored kit.
// The aggregate topology kit uses participant type "server" with an empty
// participant id.
type ArtifactRef struct {
	ProjectID       string `json:"-" db:"project_id"`
	ParticipantType string `json:"type" db:"participant_type"`
	ParticipantID   string `json:"id" db:"participant_id"`
	Name            string `json:"name" db:"name"`
	ArtifactID      string `json:"artifact_id" db:"artifact_id"`
	Size            int64  `json:"size" db:"size"`
	Position        int    `json:"-" db:"position"`
}

// TableName returns the table name for the ArtifactRef model
func (ArtifactRef) TableName() string {
	return "artifact_refs"
}
