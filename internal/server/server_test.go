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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/api"
	"github.com/SoraChain-AI/Sora-provisioning-tool/config"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/kit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Driver = "memory"
	cfg.Bootstrap.ExampleProject = false

	s, err := NewProvisioningServer(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (c *client) login(email, password string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/login", map[string]string{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	c.token = decode(c.t, w)["access_token"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	anon := &client{t: t, router: s.GetRouter()}

	w := anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sora_provisioning_up")

	w = anon.do(http.MethodGet, "/api/v1/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)
	anon := &client{t: t, router: s.GetRouter()}

	w := anon.do(http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = anon.do(http.MethodPost, "/api/v1/login", map[string]string{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = anon.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProvisioningWorkflow(t *testing.T) {
	s := newTestServer(t)
	router := s.GetRouter()

	admin := &client{t: t, router: router}
	admin.login("admin@example.com", "admin123")

	anon := &client{t: t, router: router}
	w := anon.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name":         "Alice",
		"email":        "alice@example.com",
		"password":     "secret-pw",
		"organization": "Alice Labs",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = anon.do(http.MethodPost, "/api/v1/users", map[string]string{
		"name":     "Alice Again",
		"email":    "ALICE@example.com",
		"password": "secret-pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	alice := &client{t: t, router: router}
	alice.login("alice@example.com", "secret-pw")

	w = admin.do(http.MethodPost, "/api/v1/projects", map[string]interface{}{"name": "fl-trial"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projectID := decode(t, w)["id"].(string)
	base := "/api/v1/projects/" + projectID

	// Kits cannot be built without a server
	w = admin.do(http.MethodPost, "/api/v1/provision/"+projectID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = admin.do(http.MethodPost, base+"/servers", map[string]interface{}{
		"name": "srv1", "fed_learn_port": 8002, "admin_port": 8003,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = admin.do(http.MethodPost, base+"/servers", map[string]interface{}{"name": "srv1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = alice.do(http.MethodPost, base+"/clients", map[string]interface{}{"name": "site-x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Join request
	w = alice.do(http.MethodPost, base+"/apply", map[string]interface{}{"role_requested": "client"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	applicationID := decode(t, w)["id"].(string)

	w = alice.do(http.MethodPost, base+"/apply", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = alice.do(http.MethodPost, "/api/v1/applications/"+applicationID+"/approve", map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = admin.do(http.MethodPost, "/api/v1/applications/"+applicationID+"/approve", map[string]string{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = admin.do(http.MethodPost, "/api/v1/applications/"+applicationID+"/approve", map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decided := decode(t, w)
	assert.Equal(t, "approved", decided["application"].(map[string]interface{})["status"])
	clientID := decided["client"].(map[string]interface{})["id"].(string)
	assert.Equal(t, "alice-labs", decided["client"].(map[string]interface{})["name"])

	w = admin.do(http.MethodPost, "/api/v1/applications/"+applicationID+"/approve", map[string]string{"action": "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = admin.do(http.MethodGet, base+"/applications?status=approved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["applications"], 1)

	// Nothing to download yet
	w = admin.do(http.MethodGet, "/api/v1/download/client/"+projectID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = admin.do(http.MethodPost, "/api/v1/provision/"+projectID, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "provisioning", decode(t, w)["status"])

	select {
	case <-s.engine.Wait(projectID):
	case <-time.After(10 * time.Second):
		t.Fatal("provisioning did not finish")
	}

	w = alice.do(http.MethodGet, "/api/v1/status/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, "provisioned", status["status"])
	assert.Len(t, status["artifacts"], 3)

	w = admin.do(http.MethodPost, "/api/v1/provision/"+projectID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = admin.do(http.MethodGet, "/api/v1/download/client/"+projectID+"/"+clientID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))
	entries, err := kit.ReadZip(w.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, entries, "startup/fed_client.yml")

	w = admin.do(http.MethodGet, "/api/v1/download/client/"+projectID+"/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = admin.do(http.MethodGet, "/api/v1/download/robot/"+projectID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = admin.do(http.MethodGet, "/api/v1/download-all/"+projectID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bundle, err := kit.ReadZip(w.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, bundle, "project.yml")
	assert.Contains(t, bundle, "server/srv1.zip")
	assert.Contains(t, bundle, "client/alice-labs.zip")

	w = admin.do(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = admin.do(http.MethodGet, "/api/v1/status/"+projectID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Every registered API route must be described by the OpenAPI document
func TestRoutesAreDocumented(t *testing.T) {
	s := newTestServer(t)

	doc, err := api.Load(context.Background())
	require.NoError(t, err)

	for _, route := range s.GetRouter().Routes() {
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			continue
		}
		path := strings.TrimPrefix(route.Path, "/api/v1")
		segments := strings.Split(path, "/")
		for i, segment := range segments {
			if strings.HasPrefix(segment, ":") {
				segments[i] = "{" + strings.TrimPrefix(segment, ":") + "}"
			}
		}
		path = strings.Join(segments, "/")

		item := doc.Paths.Value(path)
		if !assert.NotNil(t, item, "undocumented path %s", path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(route.Method), "undocumented operation %s %s", route.Method, path)
	}
}
