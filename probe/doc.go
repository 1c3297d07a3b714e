// Package probe builds readiness and liveness checks for info.InfoHandler.
//
// NewPingProbe and NewMongoPingProbe wrap dependency pings. NewHTTPProbe
// checks an HTTP endpoint and decodes envelope replies, so failures carry
// the upstream message; NewEnvelopeProbe additionally requires the upstream
// envelope to report success.
package probe
