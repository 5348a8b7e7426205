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
	"github.com/sage-x-project/shs/internal/logger"
	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/keystore"
	"github.com/sage-x-project/shs/transport"
)

var (
	listenAddr       string
	listenNetworkID  string
	listenStorageDir string
	listenKeyID      string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the server side of the handshake, once, on an accepted connection",
	RunE:  runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVarP(&listenAddr, "addr", "a", ":4848", "Address to listen on")
	listenCmd.Flags().StringVar(&listenNetworkID, "network-id", "", "32-byte hex network identifier (required)")
	listenCmd.Flags().StringVarP(&listenStorageDir, "storage-dir", "s", "./keys", "Keystore directory")
	listenCmd.Flags().StringVarP(&listenKeyID, "key-id", "k", "", "Server identity key ID (required)")
}

func runListen(cmd *cobra.Command, args []string) error {
	networkID, err := parseNetworkID(listenNetworkID)
	if err != nil {
		return err
	}

	store, err := keystore.NewFileStore(listenStorageDir)
	if err != nil {
		return err
	}
	serverPk, serverSk, err := keystore.LoadServerIdentity(store, listenKeyID)
	if err != nil {
		return fmt.Errorf("load server identity %s: %w", listenKeyID, err)
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}
	defer ln.Close()

	log := logger.GetDefaultLogger()
	log.Info("listening for handshake", logger.String("addr", listenAddr))

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("accept: %w", err)
	}

	stream := transport.FromConn(conn)
	outcome, err := handshake.Server(context.Background(), stream, networkID, serverPk, serverSk)
	if err != nil {
		return fmt.Errorf("server handshake: %w", err)
	}

	fmt.Printf("handshake complete: read_key=%x write_key=%x\n", outcome.ReadKey, outcome.WriteKey)
	return nil
}

func parseNetworkID(hexStr string) (keys.NetworkIdentifier, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return keys.NetworkIdentifier{}, fmt.Errorf("decode network id: %w", err)
	}
	return keys.NewNetworkIdentifier(raw)
}
