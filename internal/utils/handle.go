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
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	handleMinLength = 3
	handleMaxLength = 63
	maxSuffix       = 1000
	shortPadding    = "site"
)

var (
	// invalidCharsRegex matches any character that is not alphanumeric, hyphen, underscore, dot, or space
	invalidCharsRegex = regexp.MustCompile(`[^a-z0-9\-_. ]`)
	// multipleHyphensRegex matches consecutive hyphens
	multipleHyphensRegex = regexp.MustCompile(`-+`)
	// multipleDotsRegex matches consecutive dots
	multipleDotsRegex = regexp.MustCompile(`\.{2,}`)
)

var (
	ErrHandleGenFailed   = errors.New("failed to generate unique handle after maximum retries")
	ErrHandleSourceEmpty = errors.New("source string cannot be empty")
	ErrNameEmpty         = errors.New("name cannot be empty")
	ErrNameInvalid       = errors.New("name must be a single path segment (no '/', '\\', '..' or control characters)")
)

// ValidateParticipantName validates a name that ends up as a file name inside
// a kit bundle. Name must be:
// - Non-empty after trimming
// - Free of '/' and '\'
// - Free of '..' sequences
// - Free of control characters
func ValidateParticipantName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameEmpty
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || name == "." {
		return ErrNameInvalid
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrNameInvalid
		}
	}
	return nil
}

// GenerateHandle derives a participant name from a free-form source such as
// an organization. If existsCheck reports the name as taken, numeric
// suffixes -1, -2, ... are tried in order, so the result is reproducible for
// the same existing names.
func GenerateHandle(source string, existsCheck func(string) (bool, error)) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", ErrHandleSourceEmpty
	}

	handle := sanitizeToHandle(source)
	if existsCheck == nil {
		return handle, nil
	}

	exists, err := existsCheck(handle)
	if err != nil {
		return "", err
	}
	if !exists {
		return handle, nil
	}

	for i := 1; i < maxSuffix; i++ {
		suffix := "-" + strconv.Itoa(i)
		candidate := handle
		if len(candidate)+len(suffix) > handleMaxLength {
			candidate = strings.TrimRight(candidate[:handleMaxLength-len(suffix)], "-")
		}
		candidate += suffix

		exists, err := existsCheck(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", ErrHandleGenFailed
}

// sanitizeToHandle converts a string to a valid handle format
func sanitizeToHandle(s string) string {
	// Convert to lowercase
	handle := strings.ToLower(strings.TrimSpace(s))

	// Replace spaces and underscores with hyphens
	handle = strings.ReplaceAll(handle, " ", "-")
	handle = strings.ReplaceAll(handle, "_", "-")

	// Remove invalid characters
	handle = invalidCharsRegex.ReplaceAllString(handle, "")

	// Collapse multiple hyphens into single hyphen
	handle = multipleHyphensRegex.ReplaceAllString(handle, "-")
	handle = multipleDotsRegex.ReplaceAllString(handle, ".")

	// Trim leading and trailing hyphens and dots
	handle = strings.Trim(handle, "-.")

	// Enforce length limits
	if len(handle) > handleMaxLength {
		handle = handle[:handleMaxLength]
		// Trim trailing hyphen if truncation created one
		handle = strings.TrimRight(handle, "-.")
	}

	if len(handle) < handleMinLength {
		if handle == "" {
			handle = shortPadding
		} else {
			handle = handle + "-" + shortPadding
		}
	}

	return handle
}
