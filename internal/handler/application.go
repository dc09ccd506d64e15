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

type ApplicationHandler struct {
	applicationService *service.ApplicationService
}

func NewApplicationHandler(applicationService *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

// Apply handles POST /api/v1/projects/:projectId/apply
func (h *ApplicationHandler) Apply(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	// An empty body applies as a client with the caller's organization
	var req dto.ApplyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.Submit(identity, c.Param("projectId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

// ListApplications handles GET /api/v1/projects/:projectId/applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListApplications(identity, c.Param("projectId"), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ApplicationListResponse{Applications: apps})
}

// GetApplication handles GET /api/v1/applications/:applicationId
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	app, err := h.applicationService.GetApplication(identity, c.Param("applicationId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

// Decide handles POST /api/v1/applications/:applicationId/approve with
// action "approve" or "reject"
func (h *ApplicationHandler) Decide(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req dto.DecideApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.applicationService.Decide(identity, c.Param("applicationId"), req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterRoutes registers application routes with the router
func (h *ApplicationHandler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group(APIPrefix)
	{
		v1.POST("/projects/:projectId/apply", h.Apply)
		v1.GET("/projects/:projectId/applications", h.ListApplications)
		v1.GET("/applications/:applicationId", h.GetApplication)
		v1.POST("/applications/:applicationId/approve", h.Decide)
	}
}
