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

package constants

// Global user roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidUserRoles Valid global user roles
var ValidUserRoles = map[string]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// Project communication schemes
const (
	SchemeGRPC = "grpc"
	SchemeHTTP = "http"
	SchemeTCP  = "tcp"
)

// ValidSchemes Valid project schemes
var ValidSchemes = map[string]bool{
	SchemeGRPC: true,
	SchemeHTTP: true,
	SchemeTCP:  true,
}

// Server connection security modes
const (
	ConnectionSecurityClear = "clear"
	ConnectionSecurityTLS   = "tls"
	ConnectionSecurityMTLS  = "mtls"
)

// ValidConnectionSecurity Valid server connection security modes
var ValidConnectionSecurity = map[string]bool{
	ConnectionSecurityClear: true,
	ConnectionSecurityTLS:   true,
	ConnectionSecurityMTLS:  true,
}

// Project-scoped admin roles
const (
	ProjectRoleAdmin      = "project_admin"
	ProjectRoleLead       = "project_lead"
	ProjectRoleResearcher = "researcher"
)

// ValidProjectAdminRoles Valid per-project admin roles
var ValidProjectAdminRoles = map[string]bool{
	ProjectRoleAdmin:      true,
	ProjectRoleLead:       true,
	ProjectRoleResearcher: true,
}

// Participant types
const (
	ParticipantServer = "server"
	ParticipantClient = "client"
	ParticipantAdmin  = "admin"
)

// ValidParticipantTypes Valid participant types for kit downloads
var ValidParticipantTypes = map[string]bool{
	ParticipantServer: true,
	ParticipantClient: true,
	ParticipantAdmin:  true,
}

// Application statuses
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// ValidApplicationStatuses Valid application statuses
var ValidApplicationStatuses = map[string]bool{
	ApplicationPending:  true,
	ApplicationApproved: true,
	ApplicationRejected: true,
}

// Application decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// RoleRequestedAliases maps accepted role_requested values to the canonical
// membership role they produce.
var RoleRequestedAliases = map[string]string{
	"":                    ParticipantClient,
	"user":                ParticipantClient,
	ParticipantClient:     ParticipantClient,
	ParticipantServer:     ParticipantServer,
	"admin":               ProjectRoleAdmin,
	"proj_admin":          ProjectRoleAdmin,
	ProjectRoleAdmin:      ProjectRoleAdmin,
	ProjectRoleLead:       ProjectRoleLead,
	ProjectRoleResearcher: ProjectRoleResearcher,
}

// Provisioning statuses
const (
	ProvisioningNotProvisioned = "not_provisioned"
	ProvisioningInProgress     = "provisioning"
	ProvisioningProvisioned    = "provisioned"
	ProvisioningFailed         = "failed"
)

// Project defaults
const (
	DefaultScheme       = SchemeGRPC
	DefaultServerName   = "FLServer.com"
	DefaultAPIVersion   = 3
	DefaultFedLearnPort = 8002
	DefaultAdminPort    = 8003
	DefaultNumGPUs      = 1
	DefaultGPUMemoryGB  = 16
)

// Port range accepted for server ports
const (
	MinPort = 1024
	MaxPort = 65535
)
