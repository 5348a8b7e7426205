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

package handshake

import "context"

// Stream is the capability set the driver requires of the underlying byte
// transport: read-exact, write-all, flush, close. Any reliable, ordered,
// bidirectional carrier satisfying this small interface works — a
// net.Conn, a websocket frame reader/writer, an in-memory pipe for tests.
// The driver never leaks a framework-specific stream type into the core.
//
// ReadFull, Write, and Flush take a context so an implementation backed by
// a real connection can translate cancellation/deadline into
// SetReadDeadline/SetWriteDeadline (or equivalent) and unblock a call that
// is stuck waiting on the network. A Stream must return ctx.Err() (wrapped
// or not) once ctx is done, even if the underlying I/O call itself returns
// a different error as a result of being interrupted.
type Stream interface {
	// ReadFull reads exactly len(buf) bytes, or returns an error. A short
	// read before EOF is a TransportError, not a partial result.
	ReadFull(ctx context.Context, buf []byte) error
	// Write writes all of buf, or returns an error.
	Write(ctx context.Context, buf []byte) error
	// Flush pushes any buffered output to the underlying transport.
	Flush(ctx context.Context) error
	// Close closes the stream. Close failures are swallowed by the
	// driver's best-effort close on error; a direct caller may still
	// observe them.
	Close() error
}
