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

// Package primitives is the thin, named facade over the black-box
// cryptographic operations the handshake core is built from: Curve25519 key
// agreement, Ed25519 signing, SHA-256, a truncated HMAC, and an authenticated
// seal. Every cryptographic operation of the other packages goes through
// here; they import crypto/ed25519 only for its key types, and wire imports
// crypto/subtle for a constant-time MAC comparison.
package primitives

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/nacl/secretbox"
)

// KeySize is the width, in bytes, of every raw key and secret in this
// protocol: Curve25519 points/scalars, Ed25519 public keys, SHA-256 digests,
// and the truncated HMAC output.
const KeySize = 32

// NonceSize is the width of a secretbox nonce; the handshake always uses the
// all-zero nonce (§4.3), but secretbox's API still requires the full size.
const NonceSize = 24

// SealOverhead is the authentication tag length secretbox appends.
const SealOverhead = secretbox.Overhead

// GenerateSigningKeyPair generates a fresh long-term Ed25519 identity.
func GenerateSigningKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// GenerateEphemeralKeyPair generates a fresh Curve25519 key pair for one
// handshake.
func GenerateEphemeralKeyPair() (pub [KeySize]byte, sec [KeySize]byte, err error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return pub, sec, fmt.Errorf("primitives: generate ephemeral key: %w", err)
	}
	copy(sec[:], priv.Bytes())
	copy(pub[:], priv.PublicKey().Bytes())
	return pub, sec, nil
}

// DH performs Curve25519 scalar multiplication of scalar against point. It
// fails if the result is the all-zero element, per §4.1.
func DH(scalar, point [KeySize]byte) ([KeySize]byte, error) {
	var out [KeySize]byte

	priv, err := ecdh.X25519().NewPrivateKey(scalar[:])
	if err != nil {
		return out, fmt.Errorf("primitives: invalid scalar: %w", err)
	}
	pub, err := ecdh.X25519().NewPublicKey(point[:])
	if err != nil {
		return out, fmt.Errorf("primitives: invalid point: %w", err)
	}

	shared, err := priv.ECDH(pub)
	if err != nil {
		// crypto/ecdh itself rejects the all-zero result for X25519.
		return out, fmt.Errorf("primitives: dh failed: %w", err)
	}

	var zero [KeySize]byte
	if subtle.ConstantTimeCompare(shared, zero[:]) == 1 {
		return out, fmt.Errorf("primitives: dh produced the identity element")
	}

	copy(out[:], shared)
	return out, nil
}

// SigningPublicToCurve converts an Ed25519 verifying key to its Curve25519
// Montgomery-form equivalent, for use as a DH point.
func SigningPublicToCurve(pub ed25519.PublicKey) ([KeySize]byte, error) {
	var out [KeySize]byte
	if len(pub) != ed25519.PublicKeySize {
		return out, fmt.Errorf("primitives: bad ed25519 public key length: %d", len(pub))
	}

	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return out, fmt.Errorf("primitives: invalid ed25519 public key: %w", err)
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// SigningSecretToCurve converts an Ed25519 signing key's seed to its
// Curve25519 scalar equivalent (RFC 8032 §5.1.5 clamped hash), for use in DH.
func SigningSecretToCurve(sk ed25519.PrivateKey) ([KeySize]byte, error) {
	var out [KeySize]byte
	if len(sk) != ed25519.PrivateKeySize {
		return out, fmt.Errorf("primitives: bad ed25519 private key length: %d", len(sk))
	}

	seed := sk.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	copy(out[:], h[:KeySize])
	return out, nil
}

// Sign produces a detached Ed25519 signature over msg.
func Sign(sk ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(sk, msg)
}

// Verify checks a detached Ed25519 signature.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

// SHA256 returns the SHA-256 digest of msg.
func SHA256(msg []byte) [KeySize]byte {
	return sha256.Sum256(msg)
}

// Auth computes HMAC-SHA-512/256 of msg under key: HMAC-SHA-512 with its
// 64-byte output truncated to the first 32 bytes (§4.1).
func Auth(key [KeySize]byte, msg []byte) [KeySize]byte {
	var out [KeySize]byte
	mac := hmac.New(sha512.New, key[:])
	mac.Write(msg)
	copy(out[:], mac.Sum(nil))
	return out
}

// Seal authenticates and encrypts msg under key using the deterministic
// all-zero nonce mandated for ClientAuth/ServerAccept (§4.3). Reuse across
// distinct keys is safe; reuse under the same key is not, which is why the
// handshake derives a fresh K1/K2 per session.
func Seal(key [KeySize]byte, msg []byte) []byte {
	var nonce [NonceSize]byte
	return secretbox.Seal(nil, msg, &nonce, &key)
}

// Open verifies and decrypts a Seal envelope. The boolean return is false on
// any authentication failure; callers must not distinguish the reason.
func Open(key [KeySize]byte, ct []byte) ([]byte, bool) {
	var nonce [NonceSize]byte
	return secretbox.Open(nil, ct, &nonce, &key)
}

// Zero overwrites b with zero bytes. Best-effort only — the Go runtime may
// have copied the backing array elsewhere before this runs (§5, §9 Open
// Questions).
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
