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
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/database"
)

// NewSQLRepositories wires every repository to the given database connection
func NewSQLRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:        NewUserRepo(db),
		Projects:     NewProjectRepo(db),
		Participants: NewParticipantRepo(db),
		Applications: NewApplicationRepo(db),
		Provisioning: NewProvisioningRepo(db),
		Health:       db,
	}
}
