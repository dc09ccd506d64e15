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
	"strings"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/utils"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", constants.NewValidationError(field, "%s is required", field)
	}
	return value, nil
}

// requireName is requireText for names that become kit file names.
func requireName(field, value string) (string, error) {
	value, err := requireText(field, value)
	if err != nil {
		return "", err
	}
	if err := utils.ValidateParticipantName(value); err != nil {
		return "", constants.NewValidationError(field, "%s", err.Error())
	}
	return value, nil
}

func validatePort(field string, port int) error {
	if port < constants.MinPort || port > constants.MaxPort {
		return constants.NewValidationError(field, "port must be between %d and %d, got %d",
			constants.MinPort, constants.MaxPort, port)
	}
	return nil
}

func validateNonNegative(field string, value int) error {
	if value < 0 {
		return constants.NewValidationError(field, "%s must not be negative", field)
	}
	return nil
}

func validateEnum(field, value string, allowed map[string]bool) error {
	if !allowed[value] {
		return constants.NewValidationError(field, "unsupported %s %q", field, value)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(field, email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return constants.NewValidationError(field, "a valid email address is required")
	}
	if err := utils.ValidateParticipantName(email); err != nil {
		return constants.NewValidationError(field, "%s", err.Error())
	}
	return nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
