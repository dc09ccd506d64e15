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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubResolver map[string]*model.Identity

func (s stubResolver) ResolveIdentity(token string) (*model.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, constants.ErrUnauthenticated
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(AuthConfig{
		Resolver:         stubResolver{"good": {UserID: "u1", Email: "u1@example.com", Role: constants.RoleUser}},
		SkipPaths:        []string{"/health"},
		PublicRoutes:     []string{"POST /api/v1/users"},
		QueryTokenPrefix: "/api/v1/ws/",
	}))
	handler := func(c *gin.Context) {
		identity, ok := GetIdentityFromContext(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, identity.UserID)
	}
	router.GET("/health", handler)
	router.GET("/api/v1/users", handler)
	router.POST("/api/v1/users", handler)
	router.GET("/api/v1/ws/projects/p1/events", handler)
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	tests := []struct {
		name       string
		method     string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "skip path", method: http.MethodGet, target: "/health", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "public route", method: http.MethodPost, target: "/api/v1/users", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "public route is method specific", method: http.MethodGet, target: "/api/v1/users", wantStatus: http.StatusUnauthorized},
		{name: "valid bearer", method: http.MethodGet, target: "/api/v1/users", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "missing bearer prefix", method: http.MethodGet, target: "/api/v1/users", header: "good", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", method: http.MethodGet, target: "/api/v1/users", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "query token on websocket path", method: http.MethodGet, target: "/api/v1/ws/projects/p1/events?access_token=good", wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "query token elsewhere", method: http.MethodGet, target: "/api/v1/users?access_token=good", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"code":401`)
			}
		})
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))

	var seen string
	router.GET("/test", func(c *gin.Context) {
		seen = GetCorrelationID(c)
		assert.NotNil(t, GetLogger(c, nil))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, "corr-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "corr-123", seen)
	assert.Equal(t, "corr-123", w.Header().Get(CorrelationIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "corr-123", seen)
	assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, strings.Repeat("x", maxCorrelationIDLength+1))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, seen, 36)
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	router := gin.New()
	router.Use(LoggingMiddleware(logger))
	router.GET("/ok", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok?access_token=secret", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ok", fields["path"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.NotContains(t, fields["query"], "secret")
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware(zap.NewNop()))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/projects/:projectId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/abc", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
