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

// Package handshake drives the four-message Secret Handshake protocol: one
// function per role, each a linear sequence of reads, writes, and
// derivations over a Stream. Every suspension point is a stream I/O
// operation; there is no shared mutable state between concurrent
// handshakes, and each handshake owns its own ephemeral keys and shared
// secrets, which are discarded on return.
package handshake

import (
	"context"
	"time"

	"github.com/sage-x-project/shs/internal/logger"
	"github.com/sage-x-project/shs/internal/metrics"
	"github.com/sage-x-project/shs/keys"
	"github.com/sage-x-project/shs/session"
	"github.com/sage-x-project/shs/wire"
)

// Outcome is the tuple of session keys and nonce generators produced on a
// successful handshake, re-exported from the session package so callers
// need only import this one.
type Outcome = session.Outcome

// closeBestEffort closes s and swallows any error, so the original
// cryptographic or transport error reaches the caller undisturbed (§9).
func closeBestEffort(s Stream) {
	_ = s.Close()
}

func observe(role string, kind *ErrorKind, start time.Time) {
	metrics.HandshakeDuration.WithLabelValues("handshake").Observe(time.Since(start).Seconds())
	if kind == nil {
		metrics.HandshakesCompleted.WithLabelValues("success").Inc()
		return
	}
	metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
	metrics.HandshakesFailed.WithLabelValues(kind.String()).Inc()
}

// Client runs the client side of the handshake against stream, using
// networkID to scope the network and the given long-term identities. It
// blocks until the handshake succeeds, fails, or ctx is cancelled. On any
// error the stream is closed best-effort before returning.
func Client(ctx context.Context, stream Stream, networkID keys.NetworkIdentifier, clientPk keys.ClientLongTermPublicKey, clientSk keys.ClientLongTermSecretKey, serverPk keys.ServerLongTermPublicKey) (Outcome, error) {
	log := logger.GetDefaultLogger().WithFields(logger.String("role", "client"))
	start := time.Now()
	metrics.HandshakesInitiated.WithLabelValues("client").Inc()

	outcome, kind, err := runClient(ctx, stream, networkID, clientPk, clientSk, serverPk, log)
	observe("client", kind, start)
	if err != nil {
		closeBestEffort(stream)
		log.Warn("client handshake failed", logger.Error(err))
		return Outcome{}, err
	}
	return outcome, nil
}

func runClient(ctx context.Context, stream Stream, networkID keys.NetworkIdentifier, clientPk keys.ClientLongTermPublicKey, clientSk keys.ClientLongTermSecretKey, serverPk keys.ServerLongTermPublicKey, log logger.Logger) (Outcome, *ErrorKind, error) {
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 1. Generate client ephemeral keypair.
	clientEphPk, clientEphSk, err := keys.GenerateClientEphemeralKeyPair()
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	log.Debug("generated client ephemeral key pair")

	// 2. Write ClientHello. Flush.
	hello := wire.EncodeClientHello(networkID, clientEphPk)
	if err := writeFrame(ctx, stream, hello[:]); err != nil {
		return fail(TransportError, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 3. Read ServerHello; verify MAC; extract server_eph_pk.
	var helloBuf [wire.ServerHelloSize]byte
	if err := stream.ReadFull(ctx, helloBuf[:]); err != nil {
		return fail(TransportError, err)
	}
	serverEphPk, err := wire.VerifyServerHello(networkID, helloBuf[:])
	if err != nil {
		return fail(HelloAuthFailure, err)
	}

	// 4. Derive SharedA, SharedB, SharedC.
	sharedA, err := clientEphSk.DHWithServerEphemeral(serverEphPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	serverCurvePk, err := serverPk.ToCurve()
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	sharedB, err := clientEphSk.DHWithServerLongTermCurve(serverCurvePk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	clientCurveSk, err := clientSk.ToCurve()
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	sharedC, err := keys.DHClientLongTermWithServerEphemeral(clientCurveSk, serverEphPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}

	// 5. Write ClientAuth, read and verify ServerAccept, derive output.
	return deriveClientAuthAndSend(ctx, stream, networkID, clientPk, clientSk, serverPk, sharedA, sharedB, sharedC, clientEphPk, serverEphPk)
}

func deriveClientAuthAndSend(ctx context.Context, stream Stream, networkID keys.NetworkIdentifier, clientPk keys.ClientLongTermPublicKey, clientSk keys.ClientLongTermSecretKey, serverPk keys.ServerLongTermPublicKey, sharedA keys.SharedA, sharedB keys.SharedB, sharedC keys.SharedC, clientEphPk keys.ClientEphemeralPublicKey, serverEphPk keys.ServerEphemeralPublicKey) (Outcome, *ErrorKind, error) {
	k1 := wire.ClientAuthKey(networkID, sharedA, sharedB)
	sigMsg := wire.ClientAuthSignatureMessage(networkID, serverPk, sharedA)
	clientSig := signDetached(clientSk, sigMsg)

	clientAuth, err := wire.EncodeClientAuth(k1, clientSig[:], clientPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}
	if err := writeFrame(ctx, stream, clientAuth[:]); err != nil {
		return fail(TransportError, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 6. Read ServerAccept; open-and-verify using K2 and the server's
	// signature message.
	var acceptBuf [wire.ServerAcceptSize]byte
	if err := stream.ReadFull(ctx, acceptBuf[:]); err != nil {
		return fail(TransportError, err)
	}
	k2 := wire.ServerAcceptKey(networkID, sharedA, sharedB, sharedC)
	serverSig, err := wire.OpenServerAccept(k2, acceptBuf[:])
	if err != nil {
		return fail(ServerAcceptFailure, err)
	}
	acceptMsg := wire.ServerAcceptSignatureMessage(networkID, clientSig, clientPk, sharedA)
	if !verifyDetached(serverPk, acceptMsg, serverSig[:]) {
		return fail(ServerAcceptFailure, errSignatureMismatch)
	}

	// 7. Derive session output.
	outcome := session.DeriveClientOutcome(networkID, sharedA, sharedB, sharedC, clientPk, serverPk, clientEphPk, serverEphPk)
	return outcome, nil, nil
}

// Server runs the server side of the handshake against stream. It blocks
// until the handshake succeeds, fails, or ctx is cancelled. On any error
// the stream is closed best-effort before returning.
func Server(ctx context.Context, stream Stream, networkID keys.NetworkIdentifier, serverPk keys.ServerLongTermPublicKey, serverSk keys.ServerLongTermSecretKey) (Outcome, error) {
	log := logger.GetDefaultLogger().WithFields(logger.String("role", "server"))
	start := time.Now()
	metrics.HandshakesInitiated.WithLabelValues("server").Inc()

	outcome, kind, err := runServer(ctx, stream, networkID, serverPk, serverSk, log)
	observe("server", kind, start)
	if err != nil {
		closeBestEffort(stream)
		log.Warn("server handshake failed", logger.Error(err))
		return Outcome{}, err
	}
	return outcome, nil
}

func runServer(ctx context.Context, stream Stream, networkID keys.NetworkIdentifier, serverPk keys.ServerLongTermPublicKey, serverSk keys.ServerLongTermSecretKey, log logger.Logger) (Outcome, *ErrorKind, error) {
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 1. Generate server ephemeral keypair.
	serverEphPk, serverEphSk, err := keys.GenerateServerEphemeralKeyPair()
	if err != nil {
		return fail(KeyConversionFailure, err)
	}

	// 2. Read ClientHello; verify MAC; extract client_eph_pk.
	var helloBuf [wire.ClientHelloSize]byte
	if err := stream.ReadFull(ctx, helloBuf[:]); err != nil {
		return fail(TransportError, err)
	}
	clientEphPk, err := wire.VerifyClientHello(networkID, helloBuf[:])
	if err != nil {
		return fail(HelloAuthFailure, err)
	}
	log.Debug("verified client hello")
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 3. Write ServerHello. Flush.
	hello := wire.EncodeServerHello(networkID, serverEphPk)
	if err := writeFrame(ctx, stream, hello[:]); err != nil {
		return fail(TransportError, err)
	}

	// 4. Derive SharedA and SharedB.
	sharedA, err := serverEphSk.DHWithClientEphemeral(clientEphPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	serverCurveSk, err := serverSk.ToCurve()
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	sharedB, err := keys.DHServerLongTermWithClientEphemeral(serverCurveSk, clientEphPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 5. Read ClientAuth; open with K1; verify client signature; extract
	// client_sig and client_longterm_pk.
	var authBuf [wire.ClientAuthSize]byte
	if err := stream.ReadFull(ctx, authBuf[:]); err != nil {
		return fail(TransportError, err)
	}
	k1 := wire.ClientAuthKey(networkID, sharedA, sharedB)
	clientSig, clientPk, err := wire.OpenClientAuth(k1, authBuf[:])
	if err != nil {
		return fail(ClientAuthFailure, err)
	}
	sigMsg := wire.ClientAuthSignatureMessage(networkID, serverPk, sharedA)
	if !verifyDetached(clientPk, sigMsg, clientSig[:]) {
		return fail(ClientAuthFailure, errSignatureMismatch)
	}

	// 6. Derive SharedC.
	clientCurvePk, err := clientLongTermToCurve(clientPk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	sharedC, err := serverEphSk.DHWithClientLongTermCurve(clientCurvePk)
	if err != nil {
		return fail(KeyConversionFailure, err)
	}

	// 7. Write ServerAccept. Flush.
	k2 := wire.ServerAcceptKey(networkID, sharedA, sharedB, sharedC)
	acceptMsg := wire.ServerAcceptSignatureMessage(networkID, clientSig, clientPk, sharedA)
	serverSig := signDetached(serverSk, acceptMsg)
	accept, err := wire.EncodeServerAccept(k2, serverSig[:])
	if err != nil {
		return fail(KeyConversionFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}
	if err := writeFrame(ctx, stream, accept[:]); err != nil {
		return fail(TransportError, err)
	}
	log.Debug("sent server accept")
	if err := ctx.Err(); err != nil {
		return fail(TransportError, err)
	}

	// 8. Derive session output.
	outcome := session.DeriveServerOutcome(networkID, sharedA, sharedB, sharedC, clientPk, serverPk, clientEphPk, serverEphPk)
	return outcome, nil, nil
}

func writeFrame(ctx context.Context, stream Stream, frame []byte) error {
	if err := stream.Write(ctx, frame); err != nil {
		return err
	}
	return stream.Flush(ctx)
}

func fail(kind ErrorKind, cause error) (Outcome, *ErrorKind, error) {
	k := kind
	return Outcome{}, &k, newError(kind, cause)
}
