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

// Package transport adapts concrete byte-stream carriers — a net.Conn
// (with buffered reads and writes) and a websocket connection — to the
// handshake.Stream capability set, keeping framework-specific types out of
// the handshake core (§9 "Polymorphism over streams").
package transport

import (
	"bufio"
	"context"
	"io"
	"net"
	"time"

	"github.com/sage-x-project/shs/handshake"
)

type connStream struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

// FromConn adapts a net.Conn to a handshake.Stream. Reads are buffered so
// the driver's exact-length reads don't issue one syscall per byte; writes
// are flushed explicitly by the driver after each frame.
func FromConn(conn net.Conn) handshake.Stream {
	return &connStream{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

// withDeadline arranges for s.conn to be kicked out of a blocked I/O call
// when ctx is done, by racing a watcher goroutine against the call: if ctx
// finishes first, it forces an immediate read/write deadline so the pending
// syscall returns. The returned func must be deferred; it stops the watcher
// and clears any deadline it set, so the next call on the same connStream
// starts from a clean deadline.
func (s *connStream) withDeadline(ctx context.Context) func() {
	if ctx.Err() != nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func() {
		close(done)
		s.conn.SetDeadline(time.Time{})
	}
}

func (s *connStream) ReadFull(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := s.withDeadline(ctx)
	defer stop()

	_, err := io.ReadFull(s.r, buf)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *connStream) Write(ctx context.Context, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := s.withDeadline(ctx)
	defer stop()

	_, err := s.w.Write(buf)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *connStream) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := s.withDeadline(ctx)
	defer stop()

	err := s.w.Flush()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *connStream) Close() error {
	return s.conn.Close()
}
