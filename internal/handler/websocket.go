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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/service"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"
	ws "github.com/SoraChain-AI/Sora-provisioning-tool/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades dashboard sessions to provisioning event streams
type WebSocketHandler struct {
	manager        *ws.Manager
	projectService *service.ProjectService
	upgrader       websocket.Upgrader
	logger         *zap.Logger

	// Rate limiting: track connection attempts per IP
	rateLimitMu    sync.Mutex
	rateLimitMap   map[string][]time.Time // IP -> timestamps of connection attempts
	rateLimitCount int                    // Attempts allowed per minute
	rateLimitSwept time.Time              // Last removal of idle IPs
}

func NewWebSocketHandler(manager *ws.Manager, projectService *service.ProjectService, rateLimitCount int,
	logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:        manager,
		projectService: projectService,
		upgrader: websocket.Upgrader{
			// The dashboard is served from any origin, as with the CORS policy
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
		logger:         logger,
		rateLimitMap:   make(map[string][]time.Time),
		rateLimitCount: rateLimitCount,
	}
}

// Connect handles GET /api/v1/ws/projects/:projectId/events
func (h *WebSocketHandler) Connect(c *gin.Context) {
	clientIP := c.ClientIP()
	if !h.checkRateLimit(clientIP) {
		h.logger.Warn("Rate limit exceeded", zap.String("client_ip", clientIP))
		c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse(429, "Too Many Requests",
			"Connection rate limit exceeded. Please try again later."))
		return
	}

	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	projectID := c.Param("projectId")
	if _, err := h.projectService.GetProject(identity, projectID); err != nil {
		writeError(c, err)
		return
	}

	if !h.manager.CanAcceptProjectConnection(projectID) {
		stats := h.manager.GetProjectConnectionStats(projectID)
		c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse(429, "Too Many Requests",
			fmt.Sprintf("Project connection limit reached. Maximum allowed connections: %d", stats.MaxAllowed)))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already answered the request
		h.logger.Error("WebSocket upgrade failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}

	connection, err := h.manager.Register(projectID, identity.UserID, ws.NewWebSocketTransport(conn))
	if err != nil {
		h.rejectConnection(conn, err)
		return
	}

	ack := dto.ConnectionAck{
		Type:         "connection.ack",
		ProjectID:    projectID,
		ConnectionID: connection.ConnectionID,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if ackJSON, err := json.Marshal(ack); err == nil {
		if err := connection.Send(ackJSON); err != nil {
			h.logger.Error("Failed to send connection ACK",
				zap.String("project_id", projectID),
				zap.String("connection_id", connection.ConnectionID),
				zap.Error(err))
		}
	}

	// Blocks until the peer goes away
	h.readLoop(connection)
	h.manager.Unregister(projectID, connection.ConnectionID)
}

func (h *WebSocketHandler) rejectConnection(conn *websocket.Conn, err error) {
	msg := map[string]interface{}{
		"type":    "error",
		"message": err.Error(),
	}
	var limitErr *ws.ProjectConnectionLimitError
	if errors.As(err, &limitErr) {
		msg["code"] = "PROJECT_CONNECTION_LIMIT_EXCEEDED"
		msg["currentCount"] = limitErr.CurrentCount
		msg["maxAllowed"] = limitErr.MaxAllowed
	}
	if payload, marshalErr := json.Marshal(msg); marshalErr == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
	h.logger.Warn("Event stream rejected", zap.Error(err))
	conn.Close()
}

// readLoop drains the connection so control frames are processed and a
// disconnect is noticed. Sessions are not expected to send messages.
func (h *WebSocketHandler) readLoop(conn *ws.Connection) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in WebSocket read loop",
				zap.String("project_id", conn.ProjectID),
				zap.String("connection_id", conn.ConnectionID),
				zap.Any("panic", r))
		}
	}()

	wsTransport, ok := conn.Transport.(*ws.WebSocketTransport)
	if !ok {
		return
	}
	for !conn.IsClosed() {
		if _, _, err := wsTransport.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.String("project_id", conn.ProjectID),
					zap.String("connection_id", conn.ConnectionID),
					zap.Error(err))
			}
			return
		}
	}
}

// checkRateLimit allows rateLimitCount connection attempts per minute per IP
func (h *WebSocketHandler) checkRateLimit(clientIP string) bool {
	h.rateLimitMu.Lock()
	defer h.rateLimitMu.Unlock()

	now := time.Now()
	oneMinuteAgo := now.Add(-1 * time.Minute)

	// IPs with no attempt in the last minute are dropped, at most once a minute
	if h.rateLimitSwept.Before(oneMinuteAgo) {
		for ip, attempts := range h.rateLimitMap {
			if len(attempts) == 0 || !attempts[len(attempts)-1].After(oneMinuteAgo) {
				delete(h.rateLimitMap, ip)
			}
		}
		h.rateLimitSwept = now
	}

	var recentAttempts []time.Time
	for _, t := range h.rateLimitMap[clientIP] {
		if t.After(oneMinuteAgo) {
			recentAttempts = append(recentAttempts, t)
		}
	}
	if len(recentAttempts) >= h.rateLimitCount {
		if len(recentAttempts) == 0 {
			delete(h.rateLimitMap, clientIP)
		} else {
			h.rateLimitMap[clientIP] = recentAttempts
		}
		return false
	}

	h.rateLimitMap[clientIP] = append(recentAttempts, now)
	return true
}

// RegisterRoutes registers WebSocket routes with the router
func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	wsGroup := r.Group(APIPrefix + "/ws/projects")
	{
		wsGroup.GET("/:projectId/events", h.Connect)
	}
}
