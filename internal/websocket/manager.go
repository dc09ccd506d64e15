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

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager keeps the registry of dashboard sessions subscribed to project
// provisioning events, enforces connection limits and runs heartbeats.
type Manager struct {
	mu sync.RWMutex

	// connections maps projectID -> subscribed sessions
	connections     map[string][]*Connection
	connectionCount int

	maxConnections           int
	maxConnectionsPerProject int
	heartbeatInterval        time.Duration
	heartbeatTimeout         time.Duration

	logger *zap.Logger

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
	wg          sync.WaitGroup
}

// ManagerConfig contains configuration parameters for the connection manager
type ManagerConfig struct {
	MaxConnections           int           // Maximum concurrent sessions (default 1000)
	MaxConnectionsPerProject int           // Maximum sessions per project (default 20)
	HeartbeatInterval        time.Duration // Ping interval (default 20s)
	HeartbeatTimeout         time.Duration // Pong timeout (default 30s)
}

// ProjectConnectionStats reports the subscriber count of one project
type ProjectConnectionStats struct {
	ProjectID    string `json:"project_id"`
	CurrentCount int    `json:"current_count"`
	MaxAllowed   int    `json:"max_allowed"`
}

// DefaultManagerConfig returns the default limits and heartbeat timings
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxConnections:           1000,
		MaxConnectionsPerProject: 20,
		HeartbeatInterval:        20 * time.Second,
		HeartbeatTimeout:         30 * time.Second,
	}
}

// NewManager creates a connection manager. A nil logger disables logging.
func NewManager(config ManagerConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		connections:              make(map[string][]*Connection),
		maxConnections:           config.MaxConnections,
		maxConnectionsPerProject: config.MaxConnectionsPerProject,
		heartbeatInterval:        config.HeartbeatInterval,
		heartbeatTimeout:         config.HeartbeatTimeout,
		logger:                   logger,
		shutdownCtx:              ctx,
		shutdownFn:               cancel,
	}
}

// Register adds a session for projectID and starts its heartbeat monitor.
// Limit checks and insertion happen under one lock so concurrent upgrades
// cannot overshoot either limit.
func (m *Manager) Register(projectID, userID string, transport Transport) (*Connection, error) {
	m.mu.Lock()
	if m.shutdownCtx.Err() != nil {
		m.mu.Unlock()
		return nil, ErrManagerShutdown
	}
	if current := len(m.connections[projectID]); current >= m.maxConnectionsPerProject {
		m.mu.Unlock()
		return nil, &ProjectConnectionLimitError{
			ProjectID:    projectID,
			CurrentCount: current,
			MaxAllowed:   m.maxConnectionsPerProject,
		}
	}
	if m.connectionCount >= m.maxConnections {
		m.mu.Unlock()
		return nil, &ConnectionLimitError{MaxAllowed: m.maxConnections}
	}

	conn := NewConnection(projectID, uuid.New().String(), userID, transport)
	m.connections[projectID] = append(m.connections[projectID], conn)
	m.connectionCount++
	total := m.connectionCount
	perProject := len(m.connections[projectID])
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.WebSocketConnections.Inc()

	go func() {
		defer m.wg.Done()
		m.monitorHeartbeat(conn)
	}()

	m.logger.Info("Event stream connected",
		zap.String("project_id", projectID),
		zap.String("connection_id", conn.ConnectionID),
		zap.String("user_id", userID),
		zap.Int("total_connections", total),
		zap.Int("project_connections", perProject))

	return conn, nil
}

// Unregister removes a session and closes it. Unknown ids are ignored.
func (m *Manager) Unregister(projectID, connectionID string) {
	m.mu.Lock()
	conns := m.connections[projectID]
	var removed *Connection
	remaining := make([]*Connection, 0, len(conns))
	for _, conn := range conns {
		if conn.ConnectionID == connectionID {
			removed = conn
			continue
		}
		remaining = append(remaining, conn)
	}
	if removed == nil {
		m.mu.Unlock()
		return
	}
	if len(remaining) == 0 {
		delete(m.connections, projectID)
	} else {
		m.connections[projectID] = remaining
	}
	m.connectionCount--
	total := m.connectionCount
	m.mu.Unlock()

	metrics.WebSocketConnections.Dec()

	if err := removed.Close(1000, "normal closure"); err != nil {
		m.logger.Debug("Failed to close event stream",
			zap.String("project_id", projectID),
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}

	m.logger.Info("Event stream disconnected",
		zap.String("project_id", projectID),
		zap.String("connection_id", connectionID),
		zap.Int("total_connections", total))
}

// DisconnectProject closes every session of a deleted project
func (m *Manager) DisconnectProject(projectID string) {
	for _, conn := range m.GetConnections(projectID) {
		m.Unregister(projectID, conn.ConnectionID)
	}
}

// GetConnections returns a snapshot of the sessions subscribed to projectID
func (m *Manager) GetConnections(projectID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := m.connections[projectID]
	out := make([]*Connection, len(conns))
	copy(out, conns)
	return out
}

// GetConnectionCount returns the total number of sessions
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectionCount
}

// CanAcceptProjectConnection reports whether projectID is below its
// subscriber limit. Used before the HTTP upgrade so a rejected client gets
// a plain HTTP error.
func (m *Manager) CanAcceptProjectConnection(projectID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[projectID]) < m.maxConnectionsPerProject
}

// GetProjectConnectionStats returns the subscriber count of projectID
func (m *Manager) GetProjectConnectionStats(projectID string) ProjectConnectionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ProjectConnectionStats{
		ProjectID:    projectID,
		CurrentCount: len(m.connections[projectID]),
		MaxAllowed:   m.maxConnectionsPerProject,
	}
}

// monitorHeartbeat pings conn every heartbeatInterval and unregisters it
// when no pong arrived within heartbeatTimeout or a ping cannot be written.
func (m *Manager) monitorHeartbeat(conn *Connection) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	conn.Transport.EnablePongHandler(func(string) error {
		conn.UpdateHeartbeat()
		return nil
	})

	for {
		select {
		case <-m.shutdownCtx.Done():
			return

		case <-ticker.C:
			if conn.IsClosed() {
				return
			}

			if time.Since(conn.GetLastHeartbeat()) > m.heartbeatTimeout {
				m.logger.Warn("Heartbeat timeout detected",
					zap.String("project_id", conn.ProjectID),
					zap.String("connection_id", conn.ConnectionID),
					zap.Time("last_heartbeat", conn.GetLastHeartbeat()))
				m.Unregister(conn.ProjectID, conn.ConnectionID)
				return
			}

			if err := conn.Transport.SendPing(); err != nil {
				m.logger.Warn("Failed to send ping",
					zap.String("project_id", conn.ProjectID),
					zap.String("connection_id", conn.ConnectionID),
					zap.Error(err))
				m.Unregister(conn.ProjectID, conn.ConnectionID)
				return
			}
		}
	}
}

// Shutdown closes every session and waits for the heartbeat monitors to exit
func (m *Manager) Shutdown() {
	m.logger.Info("Shutting down WebSocket manager")
	m.shutdownFn()

	m.mu.Lock()
	var all []*Connection
	for _, conns := range m.connections {
		all = append(all, conns...)
	}
	m.connections = make(map[string][]*Connection)
	m.connectionCount = 0
	m.mu.Unlock()

	for _, conn := range all {
		metrics.WebSocketConnections.Dec()
		if err := conn.Close(1001, "server shutdown"); err != nil {
			m.logger.Debug("Failed to close event stream during shutdown",
				zap.String("project_id", conn.ProjectID),
				zap.String("connection_id", conn.ConnectionID),
				zap.Error(err))
		}
	}

	m.wg.Wait()
	m.logger.Info("WebSocket manager shutdown complete")
}
