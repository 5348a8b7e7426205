// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/shs/handshake"
)

// wsStream adapts a message-oriented gorilla/websocket connection to the
// handshake's byte-oriented Stream contract. The handshake's four frames
// are fixed-length, but a websocket message need not align to a frame
// boundary, so inbound bytes are buffered across ReadFull calls.
type wsStream struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	pending []byte
}

// FromWebsocket adapts a *websocket.Conn to a handshake.Stream. Each Write
// call is sent as one binary message; Flush is a no-op because gorilla's
// WriteMessage already sends immediately.
func FromWebsocket(conn *websocket.Conn) handshake.Stream {
	return &wsStream{conn: conn}
}

// withDeadline races a watcher goroutine against ctx: if ctx finishes
// before the caller's I/O does, it forces an immediate read/write deadline
// on the websocket connection so the blocked ReadMessage/WriteMessage call
// returns. The returned func must be deferred; it stops the watcher and
// clears the deadline it may have set.
func (s *wsStream) withDeadline(ctx context.Context) func() {
	if ctx.Err() != nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			now := time.Now()
			s.conn.SetReadDeadline(now)
			s.conn.SetWriteDeadline(now)
		case <-done:
		}
	}()
	return func() {
		close(done)
		s.conn.SetReadDeadline(time.Time{})
		s.conn.SetWriteDeadline(time.Time{})
	}
}

func (s *wsStream) ReadFull(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stop := s.withDeadline(ctx)
	defer stop()

	for len(s.pending) < len(buf) {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport: websocket read: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		s.pending = append(s.pending, data...)
	}

	copy(buf, s.pending[:len(buf)])
	s.pending = s.pending[len(buf):]
	return nil
}

func (s *wsStream) Write(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stop := s.withDeadline(ctx)
	defer stop()

	if err := s.conn.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("transport: websocket write: %w", err)
	}
	return nil
}

func (s *wsStream) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
