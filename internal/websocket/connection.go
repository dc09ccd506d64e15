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
	"sync"
	"time"
)

// Connection is one dashboard session subscribed to a project's provisioning
// events. It wraps a Transport with the metadata the Manager needs for
// routing and heartbeat tracking.
type Connection struct {
	// ProjectID is the project whose events this session receives
	ProjectID string

	// ConnectionID distinguishes several sessions watching the same project
	ConnectionID string

	// UserID identifies the authenticated dashboard user
	UserID string

	ConnectedAt time.Time

	// LastHeartbeat is refreshed by the pong handler
	LastHeartbeat time.Time

	Transport Transport

	DeliveryStats *DeliveryStats

	// mu protects LastHeartbeat and closed
	mu     sync.RWMutex
	closed bool
}

// NewConnection creates a Connection ready for event delivery
func NewConnection(projectID, connectionID, userID string, transport Transport) *Connection {
	now := time.Now()
	return &Connection{
		ProjectID:     projectID,
		ConnectionID:  connectionID,
		UserID:        userID,
		ConnectedAt:   now,
		LastHeartbeat: now,
		Transport:     transport,
		DeliveryStats: &DeliveryStats{},
	}
}

// Send delivers a message through the underlying transport.
// Returns ErrConnectionClosed once the connection has been closed.
func (c *Connection) Send(message []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	return c.Transport.Send(message)
}

// Close terminates the connection with a close code and reason.
// Calling it more than once is a no-op.
func (c *Connection) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.Transport.Close(code, reason)
}

// IsClosed reports whether Close has been called
func (c *Connection) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// UpdateHeartbeat records the current time as the last heartbeat
func (c *Connection) UpdateHeartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastHeartbeat = time.Now()
}

// GetLastHeartbeat returns the time of the most recent heartbeat
func (c *Connection) GetLastHeartbeat() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LastHeartbeat
}

// ConnectionStatus is a monitoring view of a connection
type ConnectionStatus struct {
	ProjectID     string    `json:"project_id"`
	ConnectionID  string    `json:"connection_id"`
	UserID        string    `json:"user_id"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Status        string    `json:"status"` // connected, stale or closed
}

// GetStatus returns the connection state. A connection without a heartbeat
// within heartbeatTimeout is reported as stale.
func (c *Connection) GetStatus(heartbeatTimeout time.Duration) ConnectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := "connected"
	if c.closed {
		status = "closed"
	} else if time.Since(c.LastHeartbeat) > heartbeatTimeout {
		status = "stale"
	}

	return ConnectionStatus{
		ProjectID:     c.ProjectID,
		ConnectionID:  c.ConnectionID,
		UserID:        c.UserID,
		ConnectedAt:   c.ConnectedAt,
		LastHeartbeat: c.LastHeartbeat,
		Status:        status,
	}
}
