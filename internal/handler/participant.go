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

package handler

import (
	"net/http"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/service"

	"github.com/gin-gonic/gin"
)

// ParticipantHandler serves the server, client and admin sub-resources of
// a project
type ParticipantHandler struct {
	participantService *service.ParticipantService
}

func NewParticipantHandler(participantService *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: participantService}
}

// CreateServer handles POST /api/v1/projects/:projectId/servers
func (h *ParticipantHandler) CreateServer(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.CreateServerRequest
	if !bindJSON(c, &req) {
		return
	}

	server, err := h.participantService.CreateServer(identity, c.Param("projectId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, server)
}

// UpdateServer handles PUT /api/v1/projects/:projectId/servers/:serverId
func (h *ParticipantHandler) UpdateServer(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.UpdateServerRequest
	if !bindJSON(c, &req) {
		return
	}

	server, err := h.participantService.UpdateServer(identity, c.Param("projectId"), c.Param("serverId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

// DeleteServer handles DELETE /api/v1/projects/:projectId/servers/:serverId
func (h *ParticipantHandler) DeleteServer(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.participantService.DeleteServer(identity, c.Param("projectId"), c.Param("serverId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateClient handles POST /api/v1/projects/:projectId/clients
func (h *ParticipantHandler) CreateClient(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.participantService.CreateClient(identity, c.Param("projectId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// UpdateClient handles PUT /api/v1/projects/:projectId/clients/:clientId
func (h *ParticipantHandler) UpdateClient(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.UpdateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.participantService.UpdateClient(identity, c.Param("projectId"), c.Param("clientId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// DeleteClient handles DELETE /api/v1/projects/:projectId/clients/:clientId
func (h *ParticipantHandler) DeleteClient(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.participantService.DeleteClient(identity, c.Param("projectId"), c.Param("clientId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateAdmin handles POST /api/v1/projects/:projectId/admins
func (h *ParticipantHandler) CreateAdmin(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.CreateAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.participantService.CreateAdmin(identity, c.Param("projectId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

// UpdateAdmin handles PUT /api/v1/projects/:projectId/admins/:adminId
func (h *ParticipantHandler) UpdateAdmin(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req dto.UpdateAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.participantService.UpdateAdmin(identity, c.Param("projectId"), c.Param("adminId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

// DeleteAdmin handles DELETE /api/v1/projects/:projectId/admins/:adminId
func (h *ParticipantHandler) DeleteAdmin(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.participantService.DeleteAdmin(identity, c.Param("projectId"), c.Param("adminId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers participant routes with the router
func (h *ParticipantHandler) RegisterRoutes(r *gin.Engine) {
	projectGroup := r.Group(APIPrefix + "/projects/:projectId")
	{
		projectGroup.POST("/servers", h.CreateServer)
		projectGroup.PUT("/servers/:serverId", h.UpdateServer)
		projectGroup.DELETE("/servers/:serverId", h.DeleteServer)

		projectGroup.POST("/clients", h.CreateClient)
		projectGroup.PUT("/clients/:clientId", h.UpdateClient)
		projectGroup.DELETE("/clients/:clientId", h.DeleteClient)

		projectGroup.POST("/admins", h.CreateAdmin)
		projectGroup.PUT("/admins/:adminId", h.UpdateAdmin)
		projectGroup.DELETE("/admins/:adminId", h.DeleteAdmin)
	}
}
