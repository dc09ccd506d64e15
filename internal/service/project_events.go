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
	"fmt"
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/dto"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/model"
	ws "github.com/SoraChain-AI/Sora-provisioning-tool/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxEventPayloadSize caps a single pushed event (64KB)
	MaxEventPayloadSize = 64 * 1024

	// EventProvisioningStatus is the type of provisioning state change events
	EventProvisioningStatus = "provisioning.status"
)

// ProjectEventsService pushes provisioning state changes to the dashboard
// sessions subscribed to a project. Delivery is best effort; clients poll
// the status endpoint for the authoritative state. A nil service is valid
// and drops every event.
type ProjectEventsService struct {
	manager *ws.Manager
	logger  *zap.Logger
}

func NewProjectEventsService(manager *ws.Manager, logger *zap.Logger) *ProjectEventsService {
	return &ProjectEventsService{
		manager: manager,
		logger:  logger,
	}
}

// BroadcastProvisioningStatus sends the record's state to every session
// watching its project. Returns the number of sessions reached.
func (s *ProjectEventsService) BroadcastProvisioningStatus(record *model.ProvisioningRecord) (int, error) {
	if s == nil || s.manager == nil {
		return 0, nil
	}

	connections := s.manager.GetConnections(record.ProjectID)
	if len(connections) == 0 {
		return 0, nil
	}

	event := dto.ProvisioningEvent{
		Type:          EventProvisioningStatus,
		ProjectID:     record.ProjectID,
		Status:        record.Status,
		GeneratedAt:   record.GeneratedAt,
		Error:         record.Error,
		Timestamp:     time.Now().UTC(),
		CorrelationID: uuid.New().String(),
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal provisioning event: %w", err)
	}
	if len(eventJSON) > MaxEventPayloadSize {
		return 0, fmt.Errorf("event payload exceeds maximum size: %d bytes (limit: %d bytes)",
			len(eventJSON), MaxEventPayloadSize)
	}

	successCount := 0
	for _, conn := range connections {
		conn.DeliveryStats.IncrementTotalSent()
		if err := conn.Send(eventJSON); err != nil {
			conn.DeliveryStats.IncrementFailed(fmt.Sprintf("send error: %v", err))
			s.logger.Warn("Failed to send provisioning event",
				zap.String("project_id", record.ProjectID),
				zap.String("connection_id", conn.ConnectionID),
				zap.String("correlation_id", event.CorrelationID),
				zap.Error(err))
			continue
		}
		successCount++
	}

	s.logger.Debug("Provisioning event broadcast",
		zap.String("project_id", record.ProjectID),
		zap.String("status", record.Status),
		zap.String("correlation_id", event.CorrelationID),
		zap.Int("total", len(connections)),
		zap.Int("success", successCount))

	if successCount == 0 {
		return 0, fmt.Errorf("failed to deliver provisioning event to any of %d connections", len(connections))
	}
	return successCount, nil
}

// DisconnectProject closes the event streams of a deleted project
func (s *ProjectEventsService) DisconnectProject(projectID string) {
	if s == nil || s.manager == nil {
		return
	}
	s.manager.DisconnectProject(projectID)
}
