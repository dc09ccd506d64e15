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
	"strings"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"

	"github.com/go-playground/validator/v10"
)

// makeError creates a standardized error response tuple
func makeError(status int, message string) (int, interface{}) {
	return status, NewErrorResponse(status, http.StatusText(status), message)
}

// FormatValidationError converts validator errors to user-friendly messages (public API)
func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error() // Not a validation error, return as-is
	}
	return formatValidationError(validationErrors)
}

// formatValidationError converts ValidationErrors to user-friendly messages (internal)
func formatValidationError(validationErrors validator.ValidationErrors) string {
	var messages []string
	for _, fieldError := range validationErrors {
		fieldName := getUserFriendlyFieldName(fieldError.Field())
		message := getValidationErrorMessage(fieldName, fieldError.Tag(), fieldError.Param())
		messages = append(messages, message)
	}
	return strings.Join(messages, "; ")
}

// getUserFriendlyFieldName maps struct field names to the JSON names clients send
func getUserFriendlyFieldName(fieldName string) string {
	fieldMap := map[string]string{
		"Name":               "name",
		"Email":              "email",
		"Password":           "password",
		"Organization":       "organization",
		"ServerName":         "server_name",
		"APIVersion":         "api_version",
		"FedLearnPort":       "fed_learn_port",
		"AdminPort":          "admin_port",
		"ConnectionSecurity": "connection_security",
		"NumGPUs":            "num_gpus",
		"GPUMemoryGB":        "gpu_memory",
		"RoleRequested":      "role_requested",
		"Action":             "action",
	}

	if friendly, exists := fieldMap[fieldName]; exists {
		return friendly
	}
	return strings.ToLower(fieldName)
}

// getValidationErrorMessage creates user-friendly validation error messages
func getValidationErrorMessage(fieldName, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", fieldName)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fieldName, param)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fieldName, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fieldName)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldName, strings.ReplaceAll(param, " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", fieldName)
	}
}

// GetErrorResponse maps domain errors and validation errors to HTTP status and error response.
// Only the short message of the matched error is exposed.
func GetErrorResponse(err error) (int, interface{}) {
	// First check if it's a validation error
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		userFriendlyMessage := formatValidationError(validationErrors)
		return makeError(http.StatusBadRequest, userFriendlyMessage)
	}

	var fieldErr *constants.ValidationError
	if errors.As(err, &fieldErr) {
		return makeError(http.StatusBadRequest, fieldErr.Error())
	}

	switch {
	case errors.Is(err, constants.ErrUnauthenticated):
		return makeError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, constants.ErrForbidden):
		return makeError(http.StatusForbidden, "You are not allowed to perform this action on the project")

	case errors.Is(err, constants.ErrUserNotFound):
		return makeError(http.StatusNotFound, "User not found")
	case errors.Is(err, constants.ErrProjectNotFound):
		return makeError(http.StatusNotFound, "Project not found")
	case errors.Is(err, constants.ErrServerNotFound):
		return makeError(http.StatusNotFound, "Server not found")
	case errors.Is(err, constants.ErrClientNotFound):
		return makeError(http.StatusNotFound, "Client not found")
	case errors.Is(err, constants.ErrAdminNotFound):
		return makeError(http.StatusNotFound, "Admin not found")
	case errors.Is(err, constants.ErrApplicationNotFound):
		return makeError(http.StatusNotFound, "Application not found")
	case errors.Is(err, constants.ErrKitNotFound):
		return makeError(http.StatusNotFound, "Startup kit not found")
	case errors.Is(err, constants.ErrNotFound):
		return makeError(http.StatusNotFound, "Resource not found")

	case errors.Is(err, constants.ErrValidation):
		return makeError(http.StatusBadRequest, err.Error())

	case errors.Is(err, constants.ErrDuplicateApplication):
		return makeError(http.StatusConflict, "You already have a pending application for this project")
	case errors.Is(err, constants.ErrUserExists):
		return makeError(http.StatusConflict, "User already exists with the given email")
	case errors.Is(err, constants.ErrParticipantExists):
		return makeError(http.StatusConflict, "A participant with this name already exists in the project")
	case errors.Is(err, constants.ErrConflict):
		return makeError(http.StatusConflict, "Conflict")

	case errors.Is(err, constants.ErrProjectFrozen):
		return makeError(http.StatusConflict, "Project is frozen")
	case errors.Is(err, constants.ErrApplicationDecided):
		return makeError(http.StatusConflict, "Application has already been decided")
	case errors.Is(err, constants.ErrNotProvisioned):
		return makeError(http.StatusConflict, "Project is not provisioned")
	case errors.Is(err, constants.ErrProvisioningInProgress):
		return makeError(http.StatusConflict, "Provisioning is already in progress")
	case errors.Is(err, constants.ErrAlreadyProvisioned):
		return makeError(http.StatusConflict, "Project is already provisioned, use reprovision")
	case errors.Is(err, constants.ErrInvalidTransition):
		return makeError(http.StatusConflict, "Invalid state transition")

	case errors.Is(err, constants.ErrProvisioningFailure):
		return makeError(http.StatusInternalServerError, "Provisioning failed")
	}

	return makeError(http.StatusInternalServerError, "Internal server error")
}
