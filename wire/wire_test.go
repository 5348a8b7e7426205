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

package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/shs/keys"
)

func testNetworkID(t *testing.T) keys.NetworkIdentifier {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	nid, err := keys.NewNetworkIdentifier(raw)
	require.NoError(t, err)
	return nid
}

func TestClientHello_RoundTrip(t *testing.T) {
	nid := testNetworkID(t)
	pub, _, err := keys.GenerateClientEphemeralKeyPair()
	require.NoError(t, err)

	hello := EncodeClientHello(nid, pub)
	require.Len(t, hello, ClientHelloSize)

	got, err := VerifyClientHello(nid, hello[:])
	require.NoError(t, err)
	require.Equal(t, pub.Bytes(), got.Bytes())
}

func TestClientHello_WrongNetworkIDFailsMAC(t *testing.T) {
	nid := testNetworkID(t)
	other := make([]byte, 32)
	otherNid, err := keys.NewNetworkIdentifier(other)
	require.NoError(t, err)

	pub, _, err := keys.GenerateClientEphemeralKeyPair()
	require.NoError(t, err)

	hello := EncodeClientHello(nid, pub)
	_, err = VerifyClientHello(otherNid, hello[:])
	require.ErrorIs(t, err, ErrHelloAuth)
}

func TestClientHello_BitFlipFailsMAC(t *testing.T) {
	nid := testNetworkID(t)
	pub, _, err := keys.GenerateClientEphemeralKeyPair()
	require.NoError(t, err)

	hello := EncodeClientHello(nid, pub)
	hello[0] ^= 0x01

	_, err = VerifyClientHello(nid, hello[:])
	require.ErrorIs(t, err, ErrHelloAuth)
}

func TestClientHello_TruncatedFailsWithBadLength(t *testing.T) {
	nid := testNetworkID(t)
	pub, _, err := keys.GenerateClientEphemeralKeyPair()
	require.NoError(t, err)

	hello := EncodeClientHello(nid, pub)
	_, err = VerifyClientHello(nid, hello[:len(hello)-1])
	require.True(t, errors.Is(err, ErrBadLength))
}

func TestServerHello_RoundTrip(t *testing.T) {
	nid := testNetworkID(t)
	pub, _, err := keys.GenerateServerEphemeralKeyPair()
	require.NoError(t, err)

	hello := EncodeServerHello(nid, pub)
	got, err := VerifyServerHello(nid, hello[:])
	require.NoError(t, err)
	require.Equal(t, pub.Bytes(), got.Bytes())
}

func TestClientAuth_RoundTrip(t *testing.T) {
	var k1 [32]byte
	copy(k1[:], []byte("0123456789abcdef0123456789abcdef"))

	clientPk, _, err := keys.GenerateClientLongTermKeyPair()
	require.NoError(t, err)
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}

	ct, err := EncodeClientAuth(k1, sig, clientPk)
	require.NoError(t, err)
	require.Len(t, ct, ClientAuthSize)

	gotSig, gotPk, err := OpenClientAuth(k1, ct[:])
	require.NoError(t, err)
	require.Equal(t, sig, gotSig[:])
	require.Equal(t, clientPk.Bytes(), gotPk.Bytes())
}

func TestClientAuth_BitFlipFailsOpen(t *testing.T) {
	var k1 [32]byte
	copy(k1[:], []byte("0123456789abcdef0123456789abcdef"))

	clientPk, _, err := keys.GenerateClientLongTermKeyPair()
	require.NoError(t, err)
	sig := make([]byte, 64)

	ct, err := EncodeClientAuth(k1, sig, clientPk)
	require.NoError(t, err)
	ct[0] ^= 0x01

	_, _, err = OpenClientAuth(k1, ct[:])
	require.ErrorIs(t, err, ErrOpenFailed)
}

func TestClientAuth_TruncatedFailsWithBadLength(t *testing.T) {
	var k1 [32]byte
	clientPk, _, err := keys.GenerateClientLongTermKeyPair()
	require.NoError(t, err)
	sig := make([]byte, 64)

	ct, err := EncodeClientAuth(k1, sig, clientPk)
	require.NoError(t, err)

	_, _, err = OpenClientAuth(k1, ct[:len(ct)-1])
	require.ErrorIs(t, err, ErrBadLength)
}

func TestServerAccept_RoundTrip(t *testing.T) {
	var k2 [32]byte
	copy(k2[:], []byte("fedcba9876543210fedcba9876543210"))

	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(255 - i)
	}

	ct, err := EncodeServerAccept(k2, sig)
	require.NoError(t, err)
	require.Len(t, ct, ServerAcceptSize)

	gotSig, err := OpenServerAccept(k2, ct[:])
	require.NoError(t, err)
	require.Equal(t, sig, gotSig[:])
}

func TestServerAccept_BitFlipFailsOpen(t *testing.T) {
	var k2 [32]byte
	sig := make([]byte, 64)

	ct, err := EncodeServerAccept(k2, sig)
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0x01

	_, err = OpenServerAccept(k2, ct[:])
	require.ErrorIs(t, err, ErrOpenFailed)
}
