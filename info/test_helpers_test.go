package info

import (
	"encoding/json"
	"testing"

	"github.com/drblury/apienvelope/responder"
)

type envelopeOf[T any] struct {
	Status  string  `json:"status"`
	Code    int     `json:"code"`
	Message *string `json:"message"`
	Data    T       `json:"data"`
}

func decodeEnvelope[T any](t *testing.T, body []byte) envelopeOf[T] {
	t.Helper()

	var env envelopeOf[T]
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, string(body))
	}
	return env
}

func decodeProbePayload(t *testing.T, body []byte) probePayload {
	t.Helper()
	return decodeEnvelope[probePayload](t, body).Data
}

func decodeProblem(t *testing.T, body []byte) envelopeOf[responder.ProblemDetails] {
	t.Helper()
	return decodeEnvelope[responder.ProblemDetails](t, body)
}
