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

// Package session derives the post-handshake output — two symmetric
// transport keys and two nonce generators — from the accumulated shared
// secrets and identities. It is a pure function of its inputs: nothing here
// touches the stream.
package session

import (
	"sync"

	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/primitives"
)

// NonceGenerator holds a 24-byte big-endian counter seeded from a peer
// ephemeral public key. Each call to Next returns the current value and
// advances the counter. Overflow past 2^192 wraps silently — sessions end
// long before that many nonces are consumed (§9 Open Questions).
type NonceGenerator struct {
	mu      sync.Mutex
	counter [24]byte
}

// NewNonceGenerator seeds a generator from a 24-byte value, typically the
// first 24 bytes of auth(NetworkId, peer_eph_pk).
func NewNonceGenerator(seed [24]byte) *NonceGenerator {
	return &NonceGenerator{counter: seed}
}

// Next returns the current counter value and increments it as a big-endian
// 192-bit integer.
func (g *NonceGenerator) Next() [24]byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := g.counter
	for i := len(g.counter) - 1; i >= 0; i-- {
		g.counter[i]++
		if g.counter[i] != 0 {
			break
		}
	}
	return out
}

// Outcome is the tuple of session keys and nonce generators delivered to the
// caller on a successful handshake.
type Outcome struct {
	ReadKey      [32]byte
	WriteKey     [32]byte
	ReadNonceGen *NonceGenerator
	WriteNonceGen *NonceGenerator
}

// DeriveClientOutcome computes the client's view of the session output.
// client_to_server_key is the client's write key; server_to_client_key is
// the client's read key. The client's outbound nonce sequence is seeded
// from the server's ephemeral key; its inbound sequence from its own.
func DeriveClientOutcome(networkID keys.NetworkIdentifier, sharedA keys.SharedA, sharedB keys.SharedB, sharedC keys.SharedC, clientLongTermPk keys.ClientLongTermPublicKey, serverLongTermPk keys.ServerLongTermPublicKey, clientEph keys.ClientEphemeralPublicKey, serverEph keys.ServerEphemeralPublicKey) Outcome {
	hs := hSecret(networkID, sharedA, sharedB, sharedC)
	serverPk := serverLongTermPk.Bytes()
	clientPk := clientLongTermPk.Bytes()
	writeKey := primitives.SHA256(concat(hs[:], serverPk[:]))
	readKey := primitives.SHA256(concat(hs[:], clientPk[:]))

	nid := networkID.Bytes()
	writeSeed := seed24(primitives.Auth(nid, serverEphBytes(serverEph)))
	readSeed := seed24(primitives.Auth(nid, clientEphBytes(clientEph)))

	return Outcome{
		ReadKey:       readKey,
		WriteKey:      writeKey,
		ReadNonceGen:  NewNonceGenerator(readSeed),
		WriteNonceGen: NewNonceGenerator(writeSeed),
	}
}

// DeriveServerOutcome computes the server's view of the session output,
// symmetric to DeriveClientOutcome: the server's write key is
// server_to_client_key, its read key is client_to_server_key.
func DeriveServerOutcome(networkID keys.NetworkIdentifier, sharedA keys.SharedA, sharedB keys.SharedB, sharedC keys.SharedC, clientLongTermPk keys.ClientLongTermPublicKey, serverLongTermPk keys.ServerLongTermPublicKey, clientEph keys.ClientEphemeralPublicKey, serverEph keys.ServerEphemeralPublicKey) Outcome {
	hs := hSecret(networkID, sharedA, sharedB, sharedC)
	serverPk := serverLongTermPk.Bytes()
	clientPk := clientLongTermPk.Bytes()
	readKey := primitives.SHA256(concat(hs[:], serverPk[:]))
	writeKey := primitives.SHA256(concat(hs[:], clientPk[:]))

	nid := networkID.Bytes()
	readSeed := seed24(primitives.Auth(nid, serverEphBytes(serverEph)))
	writeSeed := seed24(primitives.Auth(nid, clientEphBytes(clientEph)))

	return Outcome{
		ReadKey:       readKey,
		WriteKey:      writeKey,
		ReadNonceGen:  NewNonceGenerator(readSeed),
		WriteNonceGen: NewNonceGenerator(writeSeed),
	}
}

func hSecret(networkID keys.NetworkIdentifier, sharedA keys.SharedA, sharedB keys.SharedB, sharedC keys.SharedC) [32]byte {
	nid := networkID.Bytes()
	a := sharedA.Bytes()
	b := sharedB.Bytes()
	c := sharedC.Bytes()
	inner := primitives.SHA256(concat(nid[:], a[:], b[:], c[:]))
	return primitives.SHA256(inner[:])
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func seed24(mac [32]byte) [24]byte {
	var out [24]byte
	copy(out[:], mac[:24])
	return out
}

func serverEphBytes(k keys.ServerEphemeralPublicKey) []byte {
	b := k.Bytes()
	return b[:]
}

func clientEphBytes(k keys.ClientEphemeralPublicKey) []byte {
	b := k.Bytes()
	return b[:]
}
