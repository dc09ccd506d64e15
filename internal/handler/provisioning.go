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
	"fmt"
	"net/http"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/service"

	"github.com/gin-gonic/gin"
)

type ProvisioningHandler struct {
	engine *service.ProvisioningEngine
}

func NewProvisioningHandler(engine *service.ProvisioningEngine) *ProvisioningHandler {
	return &ProvisioningHandler{engine: engine}
}

// Provision handles POST /api/v1/provision/:projectId
func (h *ProvisioningHandler) Provision(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	resp, err := h.engine.Provision(identity, c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// Reprovision handles POST /api/v1/reprovision/:projectId
func (h *ProvisioningHandler) Reprovision(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	resp, err := h.engine.Reprovision(identity, c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// Status handles GET /api/v1/status/:projectId
func (h *ProvisioningHandler) Status(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	status, err := h.engine.Status(identity, c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// DownloadKit handles GET /api/v1/download/:type/:projectId[/:itemId]
func (h *ProvisioningHandler) DownloadKit(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	kit, err := h.engine.DownloadKit(identity, c.Param("projectId"), c.Param("type"), c.Param("itemId"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendZip(c, kit)
}

// DownloadAll handles GET /api/v1/download-all/:projectId
func (h *ProvisioningHandler) DownloadAll(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	bundle, err := h.engine.DownloadAll(identity, c.Param("projectId"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendZip(c, bundle)
}

func sendZip(c *gin.Context, kit *service.KitDownload) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", kit.Filename))
	c.Data(http.StatusOK, "application/zip", kit.Data)
}

// RegisterRoutes registers provisioning routes with the router
func (h *ProvisioningHandler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group(APIPrefix)
	{
		v1.POST("/provision/:projectId", h.Provision)
		v1.POST("/reprovision/:projectId", h.Reprovision)
		v1.GET("/status/:projectId", h.Status)
		v1.GET("/download/:type/:projectId", h.DownloadKit)
		v1.GET("/download/:type/:projectId/:itemId", h.DownloadKit)
		v1.GET("/download-all/:projectId", h.DownloadAll)
	}
}
