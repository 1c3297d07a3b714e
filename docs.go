// Package apienvelope bundles HTTP helpers that give every response of a Go
// service the same shape:
//
//	{"status": "success", "code": 200, "message": null, "data": {...}}
//
// The envelope package derives the status category from the HTTP code and
// lifts the "detail" of error payloads into the message. The responder
// package renders handler results and structured errors through it. The
// router and envelope middleware wrap bodies written by code that does not
// know about envelopes, such as OpenAPI validation and timeouts.
//
// # Packages
//
//   - envelope: status categories, the renderer and the wrapping middleware.
//   - responder: enveloped JSON success and problem responses with trace ids
//     and structured logging hooks via functional options.
//   - router: middleware chain with OpenAPI validation, CORS, timeouts and
//     request logging, enveloped with WithRenderer.
//   - info: status, health, version and OpenAPI document endpoints.
//   - probe: adapters that turn database pings, HTTP endpoints or arbitrary
//     closures into readiness checks, including upstream envelope checks.
//   - jsonutil: thin sonic wrappers shared by every package.
//
// # Quick Start
//
//	renderer := envelope.NewRenderer(envelope.WithLogger(logger))
//	resp := responder.NewResponder(responder.WithRenderer(renderer))
//	infoHandler := info.NewInfoHandler(
//	    info.WithInfoResponder(resp),
//	    info.WithReadinessChecks(probe.NewMongoPingProbe(mongoClient, nil)),
//	)
//
//	mux := http.NewServeMux()
//	infoHandler.Mount(mux, "/info")
//	handler := router.New(mux, router.WithRenderer(renderer), router.WithSwagger(doc))
//
// Sharing the renderer keeps the detail key and validation message
// consistent between handlers and middleware.
package apienvelope
