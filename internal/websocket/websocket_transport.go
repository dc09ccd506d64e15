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
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds every frame write so a stalled client cannot block a broadcast
const writeWait = 10 * time.Second

// WebSocketTransport implements Transport with gorilla/websocket. gorilla
// allows one concurrent writer, so writes are serialized by writeMu.
type WebSocketTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewWebSocketTransport wraps an upgraded gorilla connection
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

func (t *WebSocketTransport) write(messageType int, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(messageType, data)
}

// Send writes message as a text frame
func (t *WebSocketTransport) Send(message []byte) error {
	return t.write(websocket.TextMessage, message)
}

// Close sends a close frame and closes the connection. The underlying
// connection is closed even when the close frame cannot be written.
func (t *WebSocketTransport) Close(code int, reason string) error {
	writeErr := t.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	closeErr := t.conn.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func (t *WebSocketTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

func (t *WebSocketTransport) SetWriteDeadline(deadline time.Time) error {
	return t.conn.SetWriteDeadline(deadline)
}

func (t *WebSocketTransport) EnablePongHandler(handler func(string) error) {
	t.conn.SetPongHandler(handler)
}

// SendPing writes a ping frame; the client answers with a pong
func (t *WebSocketTransport) SendPing() error {
	return t.write(websocket.PingMessage, nil)
}

// ReadMessage reads the next frame. The event stream is server to client
// only, so callers read solely to process control frames and detect closure.
func (t *WebSocketTransport) ReadMessage() (messageType int, payload []byte, err error) {
	return t.conn.ReadMessage()
}
