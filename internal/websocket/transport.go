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
	"time"
)

// Transport abstracts the protocol used to push events to a dashboard
// session so the Manager and Connection stay protocol independent.
type Transport interface {
	// Send writes one message (a JSON-encoded event)
	Send(message []byte) error

	// Close sends a protocol close frame with code and reason, then closes
	// the underlying connection
	Close(code int, reason string) error

	// SetReadDeadline sets the read deadline. A zero value disables it.
	SetReadDeadline(deadline time.Time) error

	// SetWriteDeadline sets the write deadline. A zero value disables it.
	SetWriteDeadline(deadline time.Time) error

	// EnablePongHandler installs the callback invoked on pong frames
	EnablePongHandler(handler func(string) error)

	// SendPing writes a liveness probe
	SendPing() error
}
