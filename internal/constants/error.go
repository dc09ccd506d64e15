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

package constants

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error below wraps exactly one of these so the
// HTTP boundary can map it with errors.Is.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrProvisioningFailure  = errors.New("provisioning failure")
	ErrDuplicateApplication = fmt.Errorf("%w: user already has a pending application for this project", ErrConflict)
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrInactiveUser       = fmt.Errorf("%w: user account is inactive", ErrUnauthenticated)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrUserExists         = fmt.Errorf("%w: user already exists with the given email", ErrConflict)
)

var (
	ErrProjectNotFound    = fmt.Errorf("project %w", ErrNotFound)
	ErrProjectFrozen      = fmt.Errorf("%w: project is frozen", ErrInvalidTransition)
	ErrInvalidProjectName = &ValidationError{Field: "name", Message: "project name is required"}
)

var (
	ErrServerNotFound    = fmt.Errorf("server %w", ErrNotFound)
	ErrClientNotFound    = fmt.Errorf("client %w", ErrNotFound)
	ErrAdminNotFound     = fmt.Errorf("admin %w", ErrNotFound)
	ErrParticipantExists = fmt.Errorf("%w: participant already exists in project", ErrConflict)
)

var (
	ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)
	ErrApplicationDecided  = fmt.Errorf("%w: application has already been decided", ErrInvalidTransition)
)

var (
	ErrNotProvisioned         = fmt.Errorf("%w: project is not provisioned", ErrInvalidTransition)
	ErrProvisioningInProgress = fmt.Errorf("%w: provisioning already in progress", ErrInvalidTransition)
	ErrAlreadyProvisioned     = fmt.Errorf("%w: project is already provisioned, use reprovision", ErrInvalidTransition)
	ErrArtifactNotFound       = fmt.Errorf("artifact %w", ErrNotFound)
	ErrKitNotFound            = fmt.Errorf("startup kit %w", ErrNotFound)
)

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ProvisioningError wraps the cause of a failed provisioning run.
type ProvisioningError struct {
	ProjectID string
	Cause     error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning project %s failed: %v", e.ProjectID, e.Cause)
}

func (e *ProvisioningError) Unwrap() []error {
	return []error{ErrProvisioningFailure, e.Cause}
}
