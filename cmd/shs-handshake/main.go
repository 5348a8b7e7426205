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
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shs-handshake",
	Short: "Secret Handshake CLI - key management and protocol runner",
	Long: `shs-handshake provides tools for generating long-term identities and
running the Secret Handshake protocol as either role over TCP.

This tool supports:
- Long-term Ed25519 identity generation (keygen)
- Acting as the listening server side of a handshake, once (listen)
- Acting as the dialing client side of a handshake (dial)
- Running the server side continuously with metrics/health endpoints (serve)
- A local loopback demo of both roles together (demo)`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Commands are registered in their respective files:
	// - keygen.go: keygenCmd
	// - listen.go: listenCmd
	// - dial.go: dialCmd
	// - serve.go: serveCmd
	// - demo.go: demoCmd
}
