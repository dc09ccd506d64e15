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
	"fmt"
)

var (
	// ErrConnectionClosed is returned when sending on a closed connection
	ErrConnectionClosed = errors.New("connection is closed")

	// ErrManagerShutdown is returned when registering after Shutdown
	ErrManagerShutdown = errors.New("websocket manager is shut down")
)

// ConnectionLimitError is returned when the global connection limit is reached
type ConnectionLimitError struct {
	MaxAllowed int
}

func (e *ConnectionLimitError) Error() string {
	return fmt.Sprintf("maximum connection limit reached (%d)", e.MaxAllowed)
}

// ProjectConnectionLimitError is returned when a project has reached its
// subscriber limit
type ProjectConnectionLimitError struct {
	ProjectID    string
	CurrentCount int
	MaxAllowed   int
}

func (e *ProjectConnectionLimitError) Error() string {
	return fmt.Sprintf("project %s has reached maximum connection limit: %d/%d",
		e.ProjectID, e.CurrentCount, e.MaxAllowed)
}

// IsConnectionLimitError reports whether err is a global or per-project limit error
func IsConnectionLimitError(err error) bool {
	var global *ConnectionLimitError
	var perProject *ProjectConnectionLimitError
	return errors.As(err, &global) || errors.As(err, &perProject)
}
