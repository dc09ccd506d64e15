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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu       sync.Mutex
	sent     [][]byte
	closed   bool
	code     int
	pings    int
	failPing bool
}

func (f *fakeTransport) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.code = code
	return nil
}

func (f *fakeTransport) SetReadDeadline(time.Time) error {
	return nil
}

func (f *fakeTransport) SetWriteDeadline(time.Time) error {
	return nil
}

func (f *fakeTransport) EnablePongHandler(func(string) error) {}

func (f *fakeTransport) SendPing() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if f.failPing {
		return errors.New("broken pipe")
	}
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestManager(perProject, total int) *Manager {
	return NewManager(ManagerConfig{
		MaxConnections:           total,
		MaxConnectionsPerProject: perProject,
		HeartbeatInterval:        time.Hour,
		HeartbeatTimeout:         time.Hour,
	}, nil)
}

func TestManagerRegisterAndUnregister(t *testing.T) {
	m := newTestManager(5, 10)
	defer m.Shutdown()

	transport := &fakeTransport{}
	conn, err := m.Register("p1", "u1", transport)
	require.NoError(t, err)
	assert.Equal(t, "p1", conn.ProjectID)
	assert.Equal(t, "u1", conn.UserID)
	assert.NotEmpty(t, conn.ConnectionID)
	assert.Equal(t, 1, m.GetConnectionCount())
	assert.Len(t, m.GetConnections("p1"), 1)
	assert.Empty(t, m.GetConnections("p2"))

	m.Unregister("p1", conn.ConnectionID)
	assert.Equal(t, 0, m.GetConnectionCount())
	assert.Empty(t, m.GetConnections("p1"))
	assert.True(t, transport.isClosed())
	assert.True(t, conn.IsClosed())

	// second unregister is a no-op
	m.Unregister("p1", conn.ConnectionID)
	assert.Equal(t, 0, m.GetConnectionCount())
}

func TestManagerLimits(t *testing.T) {
	m := newTestManager(2, 3)
	defer m.Shutdown()

	_, err := m.Register("p1", "u1", &fakeTransport{})
	require.NoError(t, err)
	_, err = m.Register("p1", "u2", &fakeTransport{})
	require.NoError(t, err)
	assert.False(t, m.CanAcceptProjectConnection("p1"))

	_, err = m.Register("p1", "u3", &fakeTransport{})
	var projectErr *ProjectConnectionLimitError
	require.ErrorAs(t, err, &projectErr)
	assert.Equal(t, 2, projectErr.CurrentCount)
	assert.True(t, IsConnectionLimitError(err))

	_, err = m.Register("p2", "u1", &fakeTransport{})
	require.NoError(t, err)

	_, err = m.Register("p3", "u1", &fakeTransport{})
	var globalErr *ConnectionLimitError
	require.ErrorAs(t, err, &globalErr)
	assert.Equal(t, 3, globalErr.MaxAllowed)

	stats := m.GetProjectConnectionStats("p1")
	assert.Equal(t, 2, stats.CurrentCount)
	assert.Equal(t, 2, stats.MaxAllowed)
}

func TestManagerDisconnectProject(t *testing.T) {
	m := newTestManager(5, 10)
	defer m.Shutdown()

	a, b := &fakeTransport{}, &fakeTransport{}
	_, err := m.Register("p1", "u1", a)
	require.NoError(t, err)
	_, err = m.Register("p1", "u2", b)
	require.NoError(t, err)
	_, err = m.Register("p2", "u1", &fakeTransport{})
	require.NoError(t, err)

	m.DisconnectProject("p1")
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Equal(t, 1, m.GetConnectionCount())
}

func TestManagerHeartbeatFailureUnregisters(t *testing.T) {
	m := NewManager(ManagerConfig{
		MaxConnections:           10,
		MaxConnectionsPerProject: 10,
		HeartbeatInterval:        5 * time.Millisecond,
		HeartbeatTimeout:         time.Hour,
	}, nil)
	defer m.Shutdown()

	transport := &fakeTransport{failPing: true}
	_, err := m.Register("p1", "u1", transport)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return m.GetConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, transport.isClosed())
}

func TestManagerHeartbeatTimeoutUnregisters(t *testing.T) {
	m := NewManager(ManagerConfig{
		MaxConnections:           10,
		MaxConnectionsPerProject: 10,
		HeartbeatInterval:        5 * time.Millisecond,
		HeartbeatTimeout:         10 * time.Millisecond,
	}, nil)
	defer m.Shutdown()

	_, err := m.Register("p1", "u1", &fakeTransport{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return m.GetConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestManagerShutdown(t *testing.T) {
	m := newTestManager(5, 10)

	transport := &fakeTransport{}
	_, err := m.Register("p1", "u1", transport)
	require.NoError(t, err)

	m.Shutdown()
	assert.True(t, transport.isClosed())
	assert.Equal(t, 1001, transport.code)
	assert.Equal(t, 0, m.GetConnectionCount())

	_, err = m.Register("p1", "u1", &fakeTransport{})
	assert.ErrorIs(t, err, ErrManagerShutdown)
}

func TestConnectionSendAfterClose(t *testing.T) {
	conn := NewConnection("p1", "c1", "u1", &fakeTransport{})
	require.NoError(t, conn.Send([]byte("hello")))
	require.NoError(t, conn.Close(1000, "bye"))
	require.NoError(t, conn.Close(1000, "bye"))
	assert.ErrorIs(t, conn.Send([]byte("hello")), ErrConnectionClosed)
	assert.Equal(t, "closed", conn.GetStatus(time.Minute).Status)
}

func TestDeliveryStats(t *testing.T) {
	stats := &DeliveryStats{}
	assert.Equal(t, 100.0, stats.GetSuccessRate())

	for i := 0; i < 4; i++ {
		stats.IncrementTotalSent()
	}
	stats.IncrementFailed("send failed")

	assert.Equal(t, int64(4), stats.GetTotalSent())
	assert.Equal(t, int64(1), stats.GetFailedCount())
	assert.Equal(t, 75.0, stats.GetSuccessRate())
	_, reason := stats.LastFailure()
	assert.Equal(t, "send failed", reason)
}
