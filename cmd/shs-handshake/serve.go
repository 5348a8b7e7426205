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
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/shs/config"
	"github.com/sage-x-project/shs/handshake"
	"github.com/sage-x-project/shs/health"
	"github.com/sage-x-project/shs/internal/logger"
	"github.com/sage-x-project/shs/internal/metrics"
	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/keystore"
	"github.com/sage-x-project/shs/transport"
)

var (
	serveConfigDir string
	serveAddr      string
	serveKeyID     string
)

const cfgShutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the server side of the handshake continuously, with metrics and health endpoints",
	Long: `serve loads operational configuration (environment-specific YAML, then
env var overrides), starts the Prometheus metrics and health check HTTP
servers it describes, and accepts handshakes in a loop until interrupted.

Unlike "listen", which runs a single handshake and exits, "serve" is meant
for long-running deployments.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigDir, "config-dir", "config", "Directory holding <environment>.yaml config files")
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Address to listen on (overrides config)")
	serveCmd.Flags().StringVarP(&serveKeyID, "key-id", "k", "", "Server identity key ID (required)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: serveConfigDir})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	addr := serveAddr
	if addr == "" {
		addr = ":4848"
	}

	networkID, err := resolveNetworkID(cfg)
	if err != nil {
		return err
	}

	store, err := openKeyStore(cfg.KeyStore)
	if err != nil {
		return err
	}
	serverPk, serverSk, err := keystore.LoadServerIdentity(store, serveKeyID)
	if err != nil {
		return fmt.Errorf("load server identity %s: %w", serveKeyID, err)
	}

	log := logger.GetDefaultLogger().WithFields(logger.String("component", "serve"))

	checker := health.NewHealthChecker(cfg.Handshake.Timeout)
	checker.SetLogger(log)
	checker.RegisterCheck("keystore", health.KeyStoreHealthCheck(func() error {
		_, err := store.Exists(serveKeyID)
		return err
	}))
	checker.RegisterCheck("metrics_registry", health.MetricsRegistryHealthCheck(func() error {
		_, err := metrics.Registry.Gather()
		return err
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go serveHTTP(ctx, log, "metrics", cfg.Metrics.Addr, metricsMux())
	}
	if cfg.Health.Enabled {
		go serveHTTP(ctx, log, "health", cfg.Health.Addr, healthMux(checker))
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info("serving handshakes", logger.String("addr", addr), logger.String("environment", cfg.Environment))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutting down")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go func(conn net.Conn) {
			hctx, cancel := context.WithTimeout(ctx, cfg.Handshake.Timeout)
			defer cancel()
			handleConn(hctx, log, conn, networkID, serverPk, serverSk)
		}(conn)
	}
}

func handleConn(ctx context.Context, log logger.Logger, conn net.Conn, networkID keys.NetworkIdentifier, serverPk keys.ServerLongTermPublicKey, serverSk keys.ServerLongTermSecretKey) {
	defer conn.Close()
	stream := transport.FromConn(conn)
	outcome, err := handshake.Server(ctx, stream, networkID, serverPk, serverSk)
	if err != nil {
		log.Warn("handshake failed", logger.String("remote", conn.RemoteAddr().String()), logger.Error(err))
		return
	}
	log.Info("handshake complete", logger.String("remote", conn.RemoteAddr().String()), logger.String("read_key", hex.EncodeToString(outcome.ReadKey[:])))
}

func openKeyStore(cfg config.KeyStoreConfig) (keystore.Store, error) {
	switch cfg.Type {
	case "", "memory":
		return keystore.NewMemoryStore(), nil
	case "file":
		return keystore.NewFileStore(cfg.Directory)
	default:
		return nil, fmt.Errorf("unknown keystore type %q", cfg.Type)
	}
}

func resolveNetworkID(cfg *config.Config) (keys.NetworkIdentifier, error) {
	hexStr := cfg.Handshake.NetworkIDHex
	if hexStr == "" && cfg.Handshake.NetworkIDEnv != "" {
		hexStr = os.Getenv(cfg.Handshake.NetworkIDEnv)
	}
	if hexStr == "" {
		return keys.NetworkIdentifier{}, errors.New("no network id configured: set handshake.network_id_hex or handshake.network_id_env")
	}
	return parseNetworkID(hexStr)
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func healthMux(checker *health.HealthChecker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := checker.GetOverallStatus(r.Context())
		if status != health.StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintf(w, `{"status":%q}`, status)
	})
	return mux
}

func serveHTTP(ctx context.Context, log logger.Logger, name, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfgShutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting http endpoint", logger.String("endpoint", name), logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http endpoint failed", logger.String("endpoint", name), logger.Error(err))
	}
}
