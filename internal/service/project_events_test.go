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

package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	ws "github.com/SoraChain-AI/Sora-provisioning-tool/internal/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingTransport struct {
	mu       sync.Mutex
	messages [][]byte
}

func (r *recordingTransport) Send(message []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingTransport) Close(code int, reason string) error {
	return nil
}

func (r *recordingTransport) SetReadDeadline(deadline time.Time) error {
	return nil
}

func (r *recordingTransport) SetWriteDeadline(deadline time.Time) error {
	return nil
}

func (r *recordingTransport) EnablePongHandler(handler func(string) error) {}

func (r *recordingTransport) SendPing() error {
	return nil
}

func (r *recordingTransport) sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.messages...)
}

func TestBroadcastProvisioningStatus(t *testing.T) {
	manager := ws.NewManager(ws.DefaultManagerConfig(), zap.NewNop())
	defer manager.Shutdown()

	transport := &recordingTransport{}
	_, err := manager.Register("p1", "u1", transport)
	require.NoError(t, err)

	events := NewProjectEventsService(manager, zap.NewNop())
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	n, err := events.BroadcastProvisioningStatus(&model.ProvisioningRecord{
		ProjectID:   "p1",
		Status:      constants.ProvisioningProvisioned,
		GeneratedAt: &now,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	messages := transport.sent()
	require.Len(t, messages, 1)
	var event dto.ProvisioningEvent
	require.NoError(t, json.Unmarshal(messages[0], &event))
	assert.Equal(t, EventProvisioningStatus, event.Type)
	assert.Equal(t, "p1", event.ProjectID)
	assert.Equal(t, constants.ProvisioningProvisioned, event.Status)
	assert.NotEmpty(t, event.CorrelationID)

	// Other projects have no subscribers
	n, err = events.BroadcastProvisioningStatus(&model.ProvisioningRecord{ProjectID: "p2", Status: constants.ProvisioningFailed})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNilEventsServiceDropsEvents(t *testing.T) {
	var events *ProjectEventsService
	n, err := events.BroadcastProvisioningStatus(&model.ProvisioningRecord{ProjectID: "p1"})
	assert.NoError(t, err)
	assert.Zero(t, n)
	events.DisconnectProject("p1")
}
