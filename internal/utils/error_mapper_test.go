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

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", constants.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", constants.ErrForbidden, http.StatusForbidden},
		{"project not found", constants.ErrProjectNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", constants.ErrServerNotFound), http.StatusNotFound},
		{"field validation", constants.NewValidationError("fed_learn_port", "must be between 1024 and 65535"), http.StatusBadRequest},
		{"duplicate application", constants.ErrDuplicateApplication, http.StatusConflict},
		{"participant exists", constants.ErrParticipantExists, http.StatusConflict},
		{"decided application", constants.ErrApplicationDecided, http.StatusConflict},
		{"not provisioned", constants.ErrNotProvisioned, http.StatusConflict},
		{"provisioning failure", &constants.ProvisioningError{ProjectID: "p1", Cause: errors.New("disk full")}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := GetErrorResponse(tt.err)
			assert.Equal(t, tt.wantStatus, status)

			resp, ok := body.(ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, http.StatusText(tt.wantStatus), resp.Message)
			assert.NotEmpty(t, resp.Description)
		})
	}
}

func TestGetErrorResponseHidesInternalDetail(t *testing.T) {
	_, body := GetErrorResponse(errors.New("pq: connection refused at 10.0.0.7"))
	resp := body.(ErrorResponse)
	assert.NotContains(t, resp.Description, "10.0.0.7")

	_, body = GetErrorResponse(&constants.ProvisioningError{ProjectID: "p1", Cause: errors.New("/var/secret/path")})
	resp = body.(ErrorResponse)
	assert.NotContains(t, resp.Description, "/var/secret/path")
}

func TestFormatValidationError(t *testing.T) {
	type request struct {
		Name   string `validate:"required"`
		Email  string `validate:"required,email"`
		Action string `validate:"required,oneof=approve reject"`
	}

	err := validator.New().Struct(request{Email: "nope", Action: "maybe"})
	require.Error(t, err)

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "name is required")
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "action must be one of: approve, reject")

	status, _ := GetErrorResponse(err)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Equal(t, "plain", FormatValidationError(errors.New("plain")))
}
