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

// Package keys defines distinct, nominal wrapper types for every role of key
// material in the handshake: client vs server, long-term vs ephemeral, public
// vs secret, and the three Diffie-Hellman outputs. A SharedB can never be
// passed where a SharedA is expected, nor a client's ephemeral secret where
// the server's is expected, because the compiler treats each as its own
// type. Construction is the only path from raw bytes into a wrapper, and
// every constructor is length-checked.
package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/sage-x-project/shs/primitives"
)

// NetworkIdentifier is the shared 32-byte secret that scopes a network: two
// peers that disagree on it cannot complete, or even recognize, a handshake
// with each other.
type NetworkIdentifier struct{ b [32]byte }

// NewNetworkIdentifier wraps raw, requiring exactly 32 bytes.
func NewNetworkIdentifier(raw []byte) (NetworkIdentifier, error) {
	var n NetworkIdentifier
	if len(raw) != 32 {
		return n, fmt.Errorf("keys: network identifier must be 32 bytes, got %d", len(raw))
	}
	copy(n.b[:], raw)
	return n, nil
}

// Bytes returns the raw 32-byte identifier.
func (n NetworkIdentifier) Bytes() [32]byte { return n.b }

// ClientLongTermPublicKey is the client's stable Ed25519 verifying key.
type ClientLongTermPublicKey struct{ b [32]byte }

// ClientLongTermSecretKey is the client's stable Ed25519 signing key.
type ClientLongTermSecretKey struct{ b [64]byte }

// ServerLongTermPublicKey is the server's stable Ed25519 verifying key.
type ServerLongTermPublicKey struct{ b [32]byte }

// ServerLongTermSecretKey is the server's stable Ed25519 signing key.
type ServerLongTermSecretKey struct{ b [64]byte }

// ClientEphemeralPublicKey is the client's per-handshake Curve25519 point.
type ClientEphemeralPublicKey struct{ b [32]byte }

// ClientEphemeralSecretKey is the client's per-handshake Curve25519 scalar.
type ClientEphemeralSecretKey struct{ b [32]byte }

// ServerEphemeralPublicKey is the server's per-handshake Curve25519 point.
type ServerEphemeralPublicKey struct{ b [32]byte }

// ServerEphemeralSecretKey is the server's per-handshake Curve25519 scalar.
type ServerEphemeralSecretKey struct{ b [32]byte }

// SharedA is DH(client ephemeral, server ephemeral).
type SharedA struct{ b [32]byte }

// SharedB is DH(client ephemeral, server long-term curve-mapped), equally
// DH(server long-term curve-mapped secret, client ephemeral public) from the
// server's side.
type SharedB struct{ b [32]byte }

// SharedC is DH(client long-term curve-mapped, server ephemeral).
type SharedC struct{ b [32]byte }

func newPublic32(raw []byte, label string) (out [32]byte, err error) {
	if len(raw) != 32 {
		return out, fmt.Errorf("keys: %s must be 32 bytes, got %d", label, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// NewClientLongTermPublicKey wraps a 32-byte Ed25519 verifying key.
func NewClientLongTermPublicKey(raw []byte) (ClientLongTermPublicKey, error) {
	b, err := newPublic32(raw, "client long-term public key")
	return ClientLongTermPublicKey{b}, err
}

// Bytes returns the raw key.
func (k ClientLongTermPublicKey) Bytes() [32]byte { return k.b }

// Ed25519 views the key as the stdlib ed25519.PublicKey type.
func (k ClientLongTermPublicKey) Ed25519() ed25519.PublicKey {
	out := make(ed25519.PublicKey, 32)
	copy(out, k.b[:])
	return out
}

// NewClientLongTermSecretKey wraps a 64-byte Ed25519 signing key.
func NewClientLongTermSecretKey(raw []byte) (ClientLongTermSecretKey, error) {
	var k ClientLongTermSecretKey
	if len(raw) != 64 {
		return k, fmt.Errorf("keys: client long-term secret key must be 64 bytes, got %d", len(raw))
	}
	copy(k.b[:], raw)
	return k, nil
}

// Ed25519 views the key as the stdlib ed25519.PrivateKey type.
func (k ClientLongTermSecretKey) Ed25519() ed25519.PrivateKey {
	out := make(ed25519.PrivateKey, 64)
	copy(out, k.b[:])
	return out
}

// Public derives the corresponding ClientLongTermPublicKey.
func (k ClientLongTermSecretKey) Public() ClientLongTermPublicKey {
	var pub ClientLongTermPublicKey
	copy(pub.b[:], k.Ed25519().Public().(ed25519.PublicKey))
	return pub
}

// ToCurve converts the signing key to its Curve25519 scalar equivalent, for
// use in deriving SharedC.
func (k ClientLongTermSecretKey) ToCurve() (ClientEphemeralSecretKey, error) {
	raw, err := primitives.SigningSecretToCurve(k.Ed25519())
	if err != nil {
		return ClientEphemeralSecretKey{}, fmt.Errorf("keys: convert client long-term secret key: %w", err)
	}
	return ClientEphemeralSecretKey{raw}, nil
}

// NewServerLongTermPublicKey wraps a 32-byte Ed25519 verifying key.
func NewServerLongTermPublicKey(raw []byte) (ServerLongTermPublicKey, error) {
	b, err := newPublic32(raw, "server long-term public key")
	return ServerLongTermPublicKey{b}, err
}

// Bytes returns the raw key.
func (k ServerLongTermPublicKey) Bytes() [32]byte { return k.b }

// Ed25519 views the key as the stdlib ed25519.PublicKey type.
func (k ServerLongTermPublicKey) Ed25519() ed25519.PublicKey {
	out := make(ed25519.PublicKey, 32)
	copy(out, k.b[:])
	return out
}

// ToCurve converts the verifying key to its Curve25519 Montgomery point, for
// use in deriving SharedB.
func (k ServerLongTermPublicKey) ToCurve() (ServerEphemeralPublicKey, error) {
	raw, err := primitives.SigningPublicToCurve(k.Ed25519())
	if err != nil {
		return ServerEphemeralPublicKey{}, fmt.Errorf("keys: convert server long-term public key: %w", err)
	}
	return ServerEphemeralPublicKey{raw}, nil
}

// NewServerLongTermSecretKey wraps a 64-byte Ed25519 signing key.
func NewServerLongTermSecretKey(raw []byte) (ServerLongTermSecretKey, error) {
	var k ServerLongTermSecretKey
	if len(raw) != 64 {
		return k, fmt.Errorf("keys: server long-term secret key must be 64 bytes, got %d", len(raw))
	}
	copy(k.b[:], raw)
	return k, nil
}

// Ed25519 views the key as the stdlib ed25519.PrivateKey type.
func (k ServerLongTermSecretKey) Ed25519() ed25519.PrivateKey {
	out := make(ed25519.PrivateKey, 64)
	copy(out, k.b[:])
	return out
}

// Public derives the corresponding ServerLongTermPublicKey.
func (k ServerLongTermSecretKey) Public() ServerLongTermPublicKey {
	var pub ServerLongTermPublicKey
	copy(pub.b[:], k.Ed25519().Public().(ed25519.PublicKey))
	return pub
}

// ToCurve converts the signing key to its Curve25519 scalar equivalent, for
// use in deriving SharedB.
func (k ServerLongTermSecretKey) ToCurve() (ServerEphemeralSecretKey, error) {
	raw, err := primitives.SigningSecretToCurve(k.Ed25519())
	if err != nil {
		return ServerEphemeralSecretKey{}, fmt.Errorf("keys: convert server long-term secret key: %w", err)
	}
	return ServerEphemeralSecretKey{raw}, nil
}

// NewClientEphemeralPublicKey wraps a 32-byte Curve25519 point.
func NewClientEphemeralPublicKey(raw []byte) (ClientEphemeralPublicKey, error) {
	b, err := newPublic32(raw, "client ephemeral public key")
	return ClientEphemeralPublicKey{b}, err
}

// Bytes returns the raw point.
func (k ClientEphemeralPublicKey) Bytes() [32]byte { return k.b }

// GenerateClientEphemeralKeyPair produces a fresh client ephemeral key pair.
func GenerateClientEphemeralKeyPair() (ClientEphemeralPublicKey, ClientEphemeralSecretKey, error) {
	pub, sec, err := primitives.GenerateEphemeralKeyPair()
	if err != nil {
		return ClientEphemeralPublicKey{}, ClientEphemeralSecretKey{}, fmt.Errorf("keys: generate client ephemeral key pair: %w", err)
	}
	return ClientEphemeralPublicKey{pub}, ClientEphemeralSecretKey{sec}, nil
}

// Bytes returns the raw scalar.
func (k ClientEphemeralSecretKey) Bytes() [32]byte { return k.b }

// DHWithServerEphemeral computes SharedA = DH(client_eph_sk, server_eph_pk).
func (k ClientEphemeralSecretKey) DHWithServerEphemeral(peer ServerEphemeralPublicKey) (SharedA, error) {
	out, err := primitives.DH(k.b, peer.b)
	if err != nil {
		return SharedA{}, fmt.Errorf("keys: derive SharedA: %w", err)
	}
	return SharedA{out}, nil
}

// DHWithServerLongTermCurve computes SharedB = DH(client_eph_sk, curve(server_longterm_pk)).
func (k ClientEphemeralSecretKey) DHWithServerLongTermCurve(peer ServerEphemeralPublicKey) (SharedB, error) {
	out, err := primitives.DH(k.b, peer.b)
	if err != nil {
		return SharedB{}, fmt.Errorf("keys: derive SharedB: %w", err)
	}
	return SharedB{out}, nil
}

// NewServerEphemeralPublicKey wraps a 32-byte Curve25519 point.
func NewServerEphemeralPublicKey(raw []byte) (ServerEphemeralPublicKey, error) {
	b, err := newPublic32(raw, "server ephemeral public key")
	return ServerEphemeralPublicKey{b}, err
}

// Bytes returns the raw point.
func (k ServerEphemeralPublicKey) Bytes() [32]byte { return k.b }

// GenerateServerEphemeralKeyPair produces a fresh server ephemeral key pair.
func GenerateServerEphemeralKeyPair() (ServerEphemeralPublicKey, ServerEphemeralSecretKey, error) {
	pub, sec, err := primitives.GenerateEphemeralKeyPair()
	if err != nil {
		return ServerEphemeralPublicKey{}, ServerEphemeralSecretKey{}, fmt.Errorf("keys: generate server ephemeral key pair: %w", err)
	}
	return ServerEphemeralPublicKey{pub}, ServerEphemeralSecretKey{sec}, nil
}

// Bytes returns the raw scalar.
func (k ServerEphemeralSecretKey) Bytes() [32]byte { return k.b }

// DHWithClientEphemeral computes SharedA = DH(server_eph_sk, client_eph_pk).
func (k ServerEphemeralSecretKey) DHWithClientEphemeral(peer ClientEphemeralPublicKey) (SharedA, error) {
	out, err := primitives.DH(k.b, peer.b)
	if err != nil {
		return SharedA{}, fmt.Errorf("keys: derive SharedA: %w", err)
	}
	return SharedA{out}, nil
}

// DHWithClientLongTermCurve computes SharedC = DH(server_eph_sk, curve(client_longterm_pk)).
func (k ServerEphemeralSecretKey) DHWithClientLongTermCurve(peer ClientEphemeralPublicKey) (SharedC, error) {
	out, err := primitives.DH(k.b, peer.b)
	if err != nil {
		return SharedC{}, fmt.Errorf("keys: derive SharedC: %w", err)
	}
	return SharedC{out}, nil
}

// DHServerLongTermWithClientEphemeral computes SharedB from the server's
// side: DH(curve(server_longterm_sk), client_eph_pk).
func DHServerLongTermWithClientEphemeral(serverLongTermCurveSecret ServerEphemeralSecretKey, clientEph ClientEphemeralPublicKey) (SharedB, error) {
	out, err := primitives.DH(serverLongTermCurveSecret.b, clientEph.b)
	if err != nil {
		return SharedB{}, fmt.Errorf("keys: derive SharedB (server side): %w", err)
	}
	return SharedB{out}, nil
}

// DHClientLongTermWithServerEphemeral computes SharedC from the client's
// side: DH(curve(client_longterm_sk), server_eph_pk).
func DHClientLongTermWithServerEphemeral(clientLongTermCurveSecret ClientEphemeralSecretKey, serverEph ServerEphemeralPublicKey) (SharedC, error) {
	out, err := primitives.DH(clientLongTermCurveSecret.b, serverEph.b)
	if err != nil {
		return SharedC{}, fmt.Errorf("keys: derive SharedC (client side): %w", err)
	}
	return SharedC{out}, nil
}

// Bytes returns the raw 32-byte secret.
func (s SharedA) Bytes() [32]byte { return s.b }

// Bytes returns the raw 32-byte secret.
func (s SharedB) Bytes() [32]byte { return s.b }

// Bytes returns the raw 32-byte secret.
func (s SharedC) Bytes() [32]byte { return s.b }

// GenerateClientLongTermKeyPair produces a fresh long-term Ed25519 identity
// for the client role.
func GenerateClientLongTermKeyPair() (ClientLongTermPublicKey, ClientLongTermSecretKey, error) {
	pub, sec, err := primitives.GenerateSigningKeyPair()
	if err != nil {
		return ClientLongTermPublicKey{}, ClientLongTermSecretKey{}, fmt.Errorf("keys: generate client long-term key pair: %w", err)
	}
	var pk ClientLongTermPublicKey
	var sk ClientLongTermSecretKey
	copy(pk.b[:], pub)
	copy(sk.b[:], sec)
	return pk, sk, nil
}

// GenerateServerLongTermKeyPair produces a fresh long-term Ed25519 identity
// for the server role.
func GenerateServerLongTermKeyPair() (ServerLongTermPublicKey, ServerLongTermSecretKey, error) {
	pub, sec, err := primitives.GenerateSigningKeyPair()
	if err != nil {
		return ServerLongTermPublicKey{}, ServerLongTermSecretKey{}, fmt.Errorf("keys: generate server long-term key pair: %w", err)
	}
	var pk ServerLongTermPublicKey
	var sk ServerLongTermSecretKey
	copy(pk.b[:], pub)
	copy(sk.b[:], sec)
	return pk, sk, nil
}
