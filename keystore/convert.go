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

package keystore

import (
	"fmt"

	"github.com/sage-x-project/shs/keys"
)

// GenerateClientIdentity generates a fresh client long-term key pair, saves
// it under id, and returns the typed key pair for immediate use.
func GenerateClientIdentity(store Store, id string) (keys.ClientLongTermPublicKey, keys.ClientLongTermSecretKey, error) {
	pub, sec, err := keys.GenerateClientLongTermKeyPair()
	if err != nil {
		return pub, sec, err
	}
	pubRaw := pub.Bytes()
	secRaw := sec.Ed25519()
	var ident Identity
	ident.ID = id
	ident.PublicKey = pubRaw
	copy(ident.SecretKey[:], secRaw)
	if err := store.Save(ident); err != nil {
		return pub, sec, fmt.Errorf("keystore: save client identity %s: %w", id, err)
	}
	return pub, sec, nil
}

// GenerateServerIdentity generates a fresh server long-term key pair, saves
// it under id, and returns the typed key pair for immediate use.
func GenerateServerIdentity(store Store, id string) (keys.ServerLongTermPublicKey, keys.ServerLongTermSecretKey, error) {
	pub, sec, err := keys.GenerateServerLongTermKeyPair()
	if err != nil {
		return pub, sec, err
	}
	pubRaw := pub.Bytes()
	secRaw := sec.Ed25519()
	var ident Identity
	ident.ID = id
	ident.PublicKey = pubRaw
	copy(ident.SecretKey[:], secRaw)
	if err := store.Save(ident); err != nil {
		return pub, sec, fmt.Errorf("keystore: save server identity %s: %w", id, err)
	}
	return pub, sec, nil
}

// LoadClientIdentity loads id from store as a client long-term key pair.
func LoadClientIdentity(store Store, id string) (keys.ClientLongTermPublicKey, keys.ClientLongTermSecretKey, error) {
	ident, err := store.Load(id)
	if err != nil {
		return keys.ClientLongTermPublicKey{}, keys.ClientLongTermSecretKey{}, err
	}
	pub, err := keys.NewClientLongTermPublicKey(ident.PublicKey[:])
	if err != nil {
		return pub, keys.ClientLongTermSecretKey{}, err
	}
	sec, err := keys.NewClientLongTermSecretKey(ident.SecretKey[:])
	return pub, sec, err
}

// LoadServerIdentity loads id from store as a server long-term key pair.
func LoadServerIdentity(store Store, id string) (keys.ServerLongTermPublicKey, keys.ServerLongTermSecretKey, error) {
	ident, err := store.Load(id)
	if err != nil {
		return keys.ServerLongTermPublicKey{}, keys.ServerLongTermSecretKey{}, err
	}
	pub, err := keys.NewServerLongTermPublicKey(ident.PublicKey[:])
	if err != nil {
		return pub, keys.ServerLongTermSecretKey{}, err
	}
	sec, err := keys.NewServerLongTermSecretKey(ident.SecretKey[:])
	return pub, sec, err
}
