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

package session

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNonceGenerator_IncrementsByOne(t *testing.T) {
	var seed [24]byte
	gen := NewNonceGenerator(seed)

	first := gen.Next()
	second := gen.Next()

	firstInt := new(big.Int).SetBytes(first[:])
	secondInt := new(big.Int).SetBytes(second[:])

	diff := new(big.Int).Sub(secondInt, firstInt)
	require.Equal(t, big.NewInt(1), diff)
}

func TestNonceGenerator_WrapsOnOverflow(t *testing.T) {
	var seed [24]byte
	for i := range seed {
		seed[i] = 0xff
	}
	gen := NewNonceGenerator(seed)

	max := gen.Next()
	for _, b := range max {
		require.Equal(t, byte(0xff), b)
	}

	wrapped := gen.Next()
	var zero [24]byte
	require.Equal(t, zero, wrapped)
}

func TestNonceGenerator_SeededIndependently(t *testing.T) {
	seedA := [24]byte{1}
	seedB := [24]byte{2}

	genA := NewNonceGenerator(seedA)
	genB := NewNonceGenerator(seedB)

	require.NotEqual(t, genA.Next(), genB.Next())
}
