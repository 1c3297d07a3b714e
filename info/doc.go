// Package info exposes build metadata, health probes, and the raw OpenAPI
// document. Probe and version answers are written through a responder, so
// they share the envelope format of the API they sit next to; the OpenAPI
// document is served unwrapped.
//
// See ExampleInfoHandler_full for a runnable wiring of the handler and probes.
package info
