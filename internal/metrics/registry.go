package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "shs"

// Registry is the process-wide Prometheus registry for handshake metrics.
// Kept separate from prometheus.DefaultRegisterer so embedding callers can
// mount it under their own namespace without colliding with other collectors.
var Registry = prometheus.NewRegistry()
