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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeToHandle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hospital A", "hospital-a"},
		{"  ACME_Labs  ", "acme-labs"},
		{"Univ. of Tokyo!", "univ.-of-tokyo"},
		{"--edge--", "edge"},
		{"Acme..Labs", "acme.labs"},
		{"ab", "ab-site"},
		{"!!!", "site"},
		{strings.Repeat("x", 80), strings.Repeat("x", 63)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeToHandle(tt.input))
		})
	}
}

func TestGenerateHandle(t *testing.T) {
	taken := map[string]bool{"acme": true, "acme-1": true}
	exists := func(h string) (bool, error) { return taken[h], nil }

	handle, err := GenerateHandle("ACME", exists)
	require.NoError(t, err)
	assert.Equal(t, "acme-2", handle)

	handle, err = GenerateHandle("Globex", exists)
	require.NoError(t, err)
	assert.Equal(t, "globex", handle)

	handle, err = GenerateHandle("Initech", nil)
	require.NoError(t, err)
	assert.Equal(t, "initech", handle)

	_, err = GenerateHandle("   ", exists)
	assert.ErrorIs(t, err, ErrHandleSourceEmpty)

	lookupErr := errors.New("store unavailable")
	_, err = GenerateHandle("acme", func(string) (bool, error) { return false, lookupErr })
	assert.ErrorIs(t, err, lookupErr)
}

func TestGenerateHandleKeepsMaxLength(t *testing.T) {
	long := strings.Repeat("a", 63)
	handle, err := GenerateHandle(long, func(h string) (bool, error) { return h == long, nil })
	require.NoError(t, err)
	assert.Len(t, handle, 63)
	assert.True(t, strings.HasSuffix(handle, "-1"))
}

func TestValidateParticipantName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"srv1", nil},
		{"fl.example.org", nil},
		{"lead@example.com", nil},
		{"Hospital A", nil},
		{"   ", ErrNameEmpty},
		{"../../../etc/cron.d/evil", ErrNameInvalid},
		{"/abs/site", ErrNameInvalid},
		{`site\a`, ErrNameInvalid},
		{"..", ErrNameInvalid},
		{".", ErrNameInvalid},
		{"site\nb", ErrNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParticipantName(tt.name)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
