// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// These four vectors are populated exclusively by handshake.Client and
// handshake.Server (see handshake/handshake.go's observe helper); the label
// values below are exactly what those call sites pass, not an aspirational
// set.
var (
	// HandshakesInitiated counts handshake attempts by the role that started
	// them. role is "client" or "server".
	HandshakesInitiated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "initiated_total",
			Help:      "Total number of SHS handshakes initiated, by role",
		},
		[]string{"role"},
	)

	// HandshakesCompleted counts handshake attempts that ran to completion,
	// whether or not they succeeded. status is "success" or "failure"; a
	// "failure" is always accompanied by a HandshakesFailed increment with
	// the matching error_type.
	HandshakesCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "completed_total",
			Help:      "Total number of SHS handshakes that ran to completion, by outcome",
		},
		[]string{"status"},
	)

	// HandshakesFailed breaks failed handshakes down by the ErrorKind
	// returned from the core (handshake.ErrorKind.String(): TransportError,
	// BadLength, HelloAuthFailure, ClientAuthFailure, ServerAcceptFailure,
	// KeyConversionFailure).
	HandshakesFailed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "failed_total",
			Help:      "Total number of failed SHS handshakes, by ErrorKind",
		},
		[]string{"error_type"},
	)

	// HandshakeDuration measures wall-clock time from the first line of
	// Client/Server to its return, success or failure alike. Only one stage
	// is currently observed, labelled "handshake"; the label exists so a
	// future split (e.g. hello exchange vs. auth exchange) doesn't require a
	// metric rename.
	HandshakeDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handshakes",
			Name:      "duration_seconds",
			Help:      "End-to-end SHS handshake duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"stage"},
	)
)
