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

	"github.com/gin-gonic/gin"
)

// OpenAPIHandler serves the static OpenAPI document
type OpenAPIHandler struct {
	document []byte
}

func NewOpenAPIHandler(document []byte) *OpenAPIHandler {
	return &OpenAPIHandler{document: document}
}

// GetDocument handles GET /api/v1/openapi.yaml
func (h *OpenAPIHandler) GetDocument(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", h.document)
}

func (h *OpenAPIHandler) RegisterRoutes(r *gin.Engine) {
	r.GET(APIPrefix+"/openapi.yaml", h.GetDocument)
}
