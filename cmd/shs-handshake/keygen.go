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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/shs/keystore"
)

var (
	keygenRole       string
	keygenStorageDir string
	keygenKeyID      string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a long-term Ed25519 identity and store it",
	Long: `Generate a fresh long-term Ed25519 key pair for the client or server role
and save it to a file-backed keystore directory.`,
	Example: `  # Generate a server identity
  shs-handshake keygen --role server --storage-dir ./keys --key-id server-1

  # Generate a client identity
  shs-handshake keygen --role client --storage-dir ./keys --key-id client-1`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVarP(&keygenRole, "role", "r", "client", "Role (client, server)")
	keygenCmd.Flags().StringVarP(&keygenStorageDir, "storage-dir", "s", "./keys", "Keystore directory")
	keygenCmd.Flags().StringVarP(&keygenKeyID, "key-id", "k", "", "Key ID (required)")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if keygenKeyID == "" {
		return fmt.Errorf("--key-id is required")
	}

	store, err := keystore.NewFileStore(keygenStorageDir)
	if err != nil {
		return err
	}

	switch keygenRole {
	case "client":
		pub, _, err := keystore.GenerateClientIdentity(store, keygenKeyID)
		if err != nil {
			return err
		}
		raw := pub.Bytes()
		fmt.Printf("generated client identity %q, public key: %x\n", keygenKeyID, raw)
	case "server":
		pub, _, err := keystore.GenerateServerIdentity(store, keygenKeyID)
		if err != nil {
			return err
		}
		raw := pub.Bytes()
		fmt.Printf("generated server identity %q, public key: %x\n", keygenKeyID, raw)
	default:
		return fmt.Errorf("unsupported role: %s", keygenRole)
	}
	return nil
}
