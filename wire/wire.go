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

// Package wire implements the fixed-length byte layouts for the four
// handshake messages — ClientHello, ServerHello, ClientAuth, ServerAccept —
// and their serialize/parse/verify contracts. No length prefixes, no
// version byte: every message has one, and only one, valid length, and a
// wrong-length input is rejected before any cryptographic work proceeds.
package wire

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/primitives"
)

// Exact wire sizes, per the data model.
const (
	ClientHelloSize  = 64
	ServerHelloSize  = 64
	ClientAuthSize   = 112
	ServerAcceptSize = 80

	clientAuthPayloadSize   = 96
	serverAcceptPayloadSize = 64

	sigSize = 64
)

// ErrBadLength is returned when a Verify*Hello or Open* call is given an
// input of the wrong length.
var ErrBadLength = errors.New("wire: bad input length")

// ErrHelloAuth is returned when a Hello's embedded MAC fails verification.
var ErrHelloAuth = errors.New("wire: hello MAC verification failed")

// ErrOpenFailed is returned when a sealed message fails to open or its
// opened payload is malformed; the cause is not distinguished, per §7's
// side-channel policy. The embedded signature is not checked here: callers
// verify it against the message-under-signature themselves.
var ErrOpenFailed = errors.New("wire: open or signature verification failed")

func checkLen(buf []byte, want int) error {
	if len(buf) != want {
		return fmt.Errorf("%w: want %d, got %d", ErrBadLength, want, len(buf))
	}
	return nil
}

// EncodeClientHello builds `auth(NetworkId, client_eph_pk) ‖ client_eph_pk`.
func EncodeClientHello(networkID keys.NetworkIdentifier, clientEph keys.ClientEphemeralPublicKey) [ClientHelloSize]byte {
	return encodeHello(networkID, clientEph.Bytes())
}

// VerifyClientHello recomputes the MAC and, on success, extracts the
// client's ephemeral public key. On failure no key is returned.
func VerifyClientHello(networkID keys.NetworkIdentifier, buf []byte) (keys.ClientEphemeralPublicKey, error) {
	raw, err := verifyHello(networkID, buf)
	if err != nil {
		return keys.ClientEphemeralPublicKey{}, err
	}
	return keys.NewClientEphemeralPublicKey(raw[:])
}

// EncodeServerHello builds `auth(NetworkId, server_eph_pk) ‖ server_eph_pk`.
func EncodeServerHello(networkID keys.NetworkIdentifier, serverEph keys.ServerEphemeralPublicKey) [ServerHelloSize]byte {
	return encodeHello(networkID, serverEph.Bytes())
}

// VerifyServerHello recomputes the MAC and, on success, extracts the
// server's ephemeral public key. On failure no key is returned.
func VerifyServerHello(networkID keys.NetworkIdentifier, buf []byte) (keys.ServerEphemeralPublicKey, error) {
	raw, err := verifyHello(networkID, buf)
	if err != nil {
		return keys.ServerEphemeralPublicKey{}, err
	}
	return keys.NewServerEphemeralPublicKey(raw[:])
}

func encodeHello(networkID keys.NetworkIdentifier, ephPub [32]byte) (out [64]byte) {
	nid := networkID.Bytes()
	mac := primitives.Auth(nid, ephPub[:])
	copy(out[:32], mac[:])
	copy(out[32:], ephPub[:])
	return out
}

func verifyHello(networkID keys.NetworkIdentifier, buf []byte) (out [32]byte, err error) {
	if err := checkLen(buf, 64); err != nil {
		return out, err
	}
	nid := networkID.Bytes()
	ephPub := buf[32:64]
	want := primitives.Auth(nid, ephPub)
	if subtle.ConstantTimeCompare(want[:], buf[:32]) != 1 {
		return out, ErrHelloAuth
	}
	copy(out[:], ephPub)
	return out, nil
}

// ClientAuthSignatureMessage is the exact byte string the client signs
// (and the server later verifies): NetworkId ‖ server_longterm_pk ‖
// sha256(SharedA).
func ClientAuthSignatureMessage(networkID keys.NetworkIdentifier, serverLongTermPk keys.ServerLongTermPublicKey, sharedA keys.SharedA) []byte {
	nid := networkID.Bytes()
	slpk := serverLongTermPk.Bytes()
	h := primitives.SHA256(sharedA.Bytes()[:])
	msg := make([]byte, 0, 32+32+32)
	msg = append(msg, nid[:]...)
	msg = append(msg, slpk[:]...)
	msg = append(msg, h[:]...)
	return msg
}

// ClientAuthKey derives K1 = sha256(NetworkId ‖ SharedA ‖ SharedB).
func ClientAuthKey(networkID keys.NetworkIdentifier, sharedA keys.SharedA, sharedB keys.SharedB) [32]byte {
	nid := networkID.Bytes()
	a := sharedA.Bytes()
	b := sharedB.Bytes()
	msg := make([]byte, 0, 96)
	msg = append(msg, nid[:]...)
	msg = append(msg, a[:]...)
	msg = append(msg, b[:]...)
	return primitives.SHA256(msg)
}

// EncodeClientAuth seals `client_sig ‖ client_longterm_pk` under k1 with the
// deterministic zero nonce.
func EncodeClientAuth(k1 [32]byte, clientSig []byte, clientLongTermPk keys.ClientLongTermPublicKey) ([ClientAuthSize]byte, error) {
	var out [ClientAuthSize]byte
	if len(clientSig) != sigSize {
		return out, fmt.Errorf("wire: client signature must be %d bytes, got %d", sigSize, len(clientSig))
	}
	pk := clientLongTermPk.Bytes()
	payload := make([]byte, 0, clientAuthPayloadSize)
	payload = append(payload, clientSig...)
	payload = append(payload, pk[:]...)
	ct := primitives.Seal(k1, payload)
	if len(ct) != ClientAuthSize {
		return out, fmt.Errorf("wire: unexpected ClientAuth ciphertext length %d", len(ct))
	}
	copy(out[:], ct)
	return out, nil
}

// OpenClientAuth opens the ClientAuth envelope under k1 and returns the
// embedded signature and long-term public key, without verifying the
// signature itself — the caller supplies the message-under-signature.
func OpenClientAuth(k1 [32]byte, buf []byte) (sig [sigSize]byte, pk keys.ClientLongTermPublicKey, err error) {
	if err := checkLen(buf, ClientAuthSize); err != nil {
		return sig, pk, err
	}
	payload, ok := primitives.Open(k1, buf)
	if !ok || len(payload) != clientAuthPayloadSize {
		return sig, pk, ErrOpenFailed
	}
	copy(sig[:], payload[:sigSize])
	pk, err = keys.NewClientLongTermPublicKey(payload[sigSize:])
	if err != nil {
		return sig, pk, ErrOpenFailed
	}
	return sig, pk, nil
}

// ServerAcceptSignatureMessage is the exact byte string the server signs:
// NetworkId ‖ client_sig ‖ client_longterm_pk ‖ sha256(SharedA).
func ServerAcceptSignatureMessage(networkID keys.NetworkIdentifier, clientSig [sigSize]byte, clientLongTermPk keys.ClientLongTermPublicKey, sharedA keys.SharedA) []byte {
	nid := networkID.Bytes()
	pk := clientLongTermPk.Bytes()
	h := primitives.SHA256(sharedA.Bytes()[:])
	msg := make([]byte, 0, 32+sigSize+32+32)
	msg = append(msg, nid[:]...)
	msg = append(msg, clientSig[:]...)
	msg = append(msg, pk[:]...)
	msg = append(msg, h[:]...)
	return msg
}

// ServerAcceptKey derives K2 = sha256(NetworkId ‖ SharedA ‖ SharedB ‖ SharedC).
func ServerAcceptKey(networkID keys.NetworkIdentifier, sharedA keys.SharedA, sharedB keys.SharedB, sharedC keys.SharedC) [32]byte {
	nid := networkID.Bytes()
	a := sharedA.Bytes()
	b := sharedB.Bytes()
	c := sharedC.Bytes()
	msg := make([]byte, 0, 128)
	msg = append(msg, nid[:]...)
	msg = append(msg, a[:]...)
	msg = append(msg, b[:]...)
	msg = append(msg, c[:]...)
	return primitives.SHA256(msg)
}

// EncodeServerAccept seals `server_sig` under k2 with the deterministic zero
// nonce.
func EncodeServerAccept(k2 [32]byte, serverSig []byte) ([ServerAcceptSize]byte, error) {
	var out [ServerAcceptSize]byte
	if len(serverSig) != sigSize {
		return out, fmt.Errorf("wire: server signature must be %d bytes, got %d", sigSize, len(serverSig))
	}
	ct := primitives.Seal(k2, serverSig)
	if len(ct) != ServerAcceptSize {
		return out, fmt.Errorf("wire: unexpected ServerAccept ciphertext length %d", len(ct))
	}
	copy(out[:], ct)
	return out, nil
}

// OpenServerAccept opens the ServerAccept envelope under k2 and returns the
// embedded signature, without verifying it.
func OpenServerAccept(k2 [32]byte, buf []byte) (sig [sigSize]byte, err error) {
	if err := checkLen(buf, ServerAcceptSize); err != nil {
		return sig, err
	}
	payload, ok := primitives.Open(k2, buf)
	if !ok || len(payload) != serverAcceptPayloadSize {
		return sig, ErrOpenFailed
	}
	copy(sig[:], payload)
	return sig, nil
}
