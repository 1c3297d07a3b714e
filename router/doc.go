// Package router wraps http.ServeMux with OpenAPI validation, CORS,
// timeouts, and logging defaults. WithRenderer additionally wraps every JSON
// response, validation failure and timeout into a response envelope.
// ExampleNew_customOptions demonstrates how to combine built-in and custom
// middlewares.
package router
