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

package middleware

import (
	"net/http"
	"strings"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// IdentityResolver turns a bearer token into the acting identity
type IdentityResolver interface {
	ResolveIdentity(token string) (*model.Identity, error)
}

// AuthConfig holds the configuration for JWT authentication
type AuthConfig struct {
	Resolver  IdentityResolver
	SkipPaths []string // Paths to skip authentication for every method
	// PublicRoutes are "METHOD /path" pairs reachable without a token
	PublicRoutes []string
	// QueryTokenPrefix enables ?access_token= for paths under it, since
	// browsers cannot set headers on WebSocket upgrades
	QueryTokenPrefix string
}

func (cfg AuthConfig) skip(c *gin.Context) bool {
	path := c.Request.URL.Path
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	route := c.Request.Method + " " + path
	for _, r := range cfg.PublicRoutes {
		if route == r {
			return true
		}
	}
	return false
}

func (cfg AuthConfig) token(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cfg.QueryTokenPrefix != "" && strings.HasPrefix(c.Request.URL.Path, cfg.QueryTokenPrefix) {
			if token := c.Query("access_token"); token != "" {
				return token, true
			}
		}
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// AuthMiddleware creates a JWT authentication middleware. Every request
// outside the skip lists must carry a token that resolves to an active user.
func AuthMiddleware(config AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.skip(c) {
			c.Next()
			return
		}

		tokenString, ok := config.token(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(401, "Unauthorized",
				"Authorization header is required. Expected: Bearer <token>"))
			c.Abort()
			return
		}

		identity, err := config.Resolver.ResolveIdentity(tokenString)
		if err != nil {
			status, body := utils.GetErrorResponse(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// GetIdentityFromContext extracts the authenticated identity from the Gin context
func GetIdentityFromContext(c *gin.Context) (*model.Identity, bool) {
	identity, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	id, ok := identity.(*model.Identity)
	return id, ok && id != nil
}

// GetUserIDFromContext extracts the user ID from the Gin context
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
