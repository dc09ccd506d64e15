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

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/middleware"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIPrefix is the mount point of every dashboard route
const APIPrefix = "/api/v1"

// writeError renders err through the shared error mapping. Server errors
// are logged since their detail never reaches the response body.
func writeError(c *gin.Context, err error) {
	status, body := utils.GetErrorResponse(err)
	if status >= http.StatusInternalServerError {
		middleware.GetLogger(c, zap.NewNop()).Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into obj, answering 400 on failure
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(400, "Bad Request",
			utils.FormatValidationError(err)))
		return false
	}
	return true
}

// requireIdentity returns the authenticated caller or answers 401
func requireIdentity(c *gin.Context) (*model.Identity, bool) {
	identity, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(401, "Unauthorized",
			"Authentication is required"))
		return nil, false
	}
	return identity, true
}
