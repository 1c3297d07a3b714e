// Package envelope normalizes API responses into a uniform JSON body:
//
//	{"status": "client_error", "code": 404, "message": "Not found", "data": {...}}
//
// The status is derived from the HTTP status code (informational, success,
// redirect, client_error, server_error; anything outside 100-599 counts as
// success). For error categories the message is taken from the "detail" key
// of a mapping payload, which is then removed from the embedded data, or set
// to "Validation failed" for sequence payloads. Every other payload yields a
// null message.
//
// By default the renderer never mutates the caller's payload: the remaining
// fields of a mapping are copied into a new map. WithInPlaceDetail restores
// the destructive behavior where the detail key is deleted from the caller's
// map.
//
// Middleware applies the renderer to every JSON response produced by an
// http.Handler.
package envelope
