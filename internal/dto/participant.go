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

// CreateServerRequest represents the request body for adding a server
type CreateServerRequest struct {
	Name               string `json:"name" binding:"required"`
	Org                string `json:"org"`
	FedLearnPort       *int   `json:"fed_learn_port,omitempty"`
	AdminPort          *int   `json:"admin_port,omitempty"`
	ConnectionSecurity string `json:"connection_security"`
}

// UpdateServerRequest represents the request body for updating a server
type UpdateServerRequest struct {
	Name               *string `json:"name,omitempty"`
	Org                *string `json:"org,omitempty"`
	FedLearnPort       *int    `json:"fed_learn_port,omitempty"`
	AdminPort          *int    `json:"admin_port,omitempty"`
	ConnectionSecurity *string `json:"connection_security,omitempty"`
}

// CreateClientRequest represents the request body for adding a client
type CreateClientRequest struct {
	Name        string `json:"name" binding:"required"`
	Org         string `json:"org"`
	Description string `json:"description"`
	NumGPUs     *int   `json:"num_gpus,omitempty"`
	GPUMemoryGB *int   `json:"gpu_memory,omitempty"`
}

// UpdateClientRequest represents the request body for updating a client
type UpdateClientRequest struct {
	Name        *string `json:"name,omitempty"`
	Org         *string `json:"org,omitempty"`
	Description *string `json:"description,omitempty"`
	NumGPUs     *int    `json:"num_gpus,omitempty"`
	GPUMemoryGB *int    `json:"gpu_memory,omitempty"`
}

// CreateAdminRequest represents the request body for adding a project admin
type CreateAdminRequest struct {
	Email string `json:"email" binding:"required,email"`
	Org   string `json:"org"`
	Role  string `json:"role"`
}

// UpdateAdminRequest represents the request body for updating a project admin
type UpdateAdminRequest struct {
	Email *string `json:"email,omitempty"`
	Org   *string `json:"org,omitempty"`
	Role  *string `json:"role,omitempty"`
}
