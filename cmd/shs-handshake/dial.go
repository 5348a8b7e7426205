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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/shs/handshake"
	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/keystore"
	"github.com/sage-x-project/shs/transport"
)

var (
	dialAddr        string
	dialNetworkID   string
	dialStorageDir  string
	dialKeyID       string
	dialServerPkHex string
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Run the client side of the handshake against a listening server",
	RunE:  runDial,
}

func init() {
	rootCmd.AddCommand(dialCmd)

	dialCmd.Flags().StringVarP(&dialAddr, "addr", "a", "127.0.0.1:4848", "Address to dial")
	dialCmd.Flags().StringVar(&dialNetworkID, "network-id", "", "32-byte hex network identifier (required)")
	dialCmd.Flags().StringVarP(&dialStorageDir, "storage-dir", "s", "./keys", "Keystore directory")
	dialCmd.Flags().StringVarP(&dialKeyID, "key-id", "k", "", "Client identity key ID (required)")
	dialCmd.Flags().StringVar(&dialServerPkHex, "server-pk", "", "32-byte hex server long-term public key (required)")
}

func runDial(cmd *cobra.Command, args []string) error {
	networkID, err := parseNetworkID(dialNetworkID)
	if err != nil {
		return err
	}

	serverPkRaw, err := hex.DecodeString(dialServerPkHex)
	if err != nil {
		return fmt.Errorf("decode server public key: %w", err)
	}
	serverPk, err := keys.NewServerLongTermPublicKey(serverPkRaw)
	if err != nil {
		return err
	}

	store, err := keystore.NewFileStore(dialStorageDir)
	if err != nil {
		return err
	}
	clientPk, clientSk, err := keystore.LoadClientIdentity(store, dialKeyID)
	if err != nil {
		return fmt.Errorf("load client identity %s: %w", dialKeyID, err)
	}

	conn, err := net.Dial("tcp", dialAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", dialAddr, err)
	}

	stream := transport.FromConn(conn)
	outcome, err := handshake.Client(context.Background(), stream, networkID, clientPk, clientSk, serverPk)
	if err != nil {
		return fmt.Errorf("client handshake: %w", err)
	}

	fmt.Printf("handshake complete: read_key=%x write_key=%x\n", outcome.ReadKey, outcome.WriteKey)
	return nil
}
