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

import (
	"crypto/ed25519"
	"errors"

	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/primitives"
)

// errSignatureMismatch is the internal cause attached to a ClientAuthFailure
// or ServerAcceptFailure triggered by a detached signature that fails to
// verify, as opposed to a secretbox open failure.
var errSignatureMismatch = errors.New("handshake: embedded signature did not verify")

// signer and verifier narrow the long-term key types (client or server) to
// the one capability this package needs: exposing the underlying Ed25519
// key. Both ClientLongTerm{Secret,Public}Key and
// ServerLongTerm{Secret,Public}Key satisfy these structurally.
type signer interface {
	Ed25519() ed25519.PrivateKey
}

type verifier interface {
	Ed25519() ed25519.PublicKey
}

func signDetached(sk signer, msg []byte) (out [64]byte) {
	copy(out[:], primitives.Sign(sk.Ed25519(), msg))
	return out
}

func verifyDetached(pk verifier, msg, sig []byte) bool {
	return primitives.Verify(pk.Ed25519(), msg, sig)
}

// clientLongTermToCurve converts a client's Ed25519 long-term public key to
// its Curve25519 equivalent for use in deriving SharedC on the server side.
func clientLongTermToCurve(pk keys.ClientLongTermPublicKey) (keys.ClientEphemeralPublicKey, error) {
	raw, err := primitives.SigningPublicToCurve(pk.Ed25519())
	if err != nil {
		return keys.ClientEphemeralPublicKey{}, err
	}
	return keys.NewClientEphemeralPublicKey(raw[:])
}
