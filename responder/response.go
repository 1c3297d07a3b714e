package responder

import (
	"net/http"

	"github.com/drblury/apienvelope/envelope"
)

// HandleAPIError renders an enveloped problem payload for the supplied HTTP
// status and logs it using the configured logger. The error text becomes
// the envelope message.
func (r *Responder) HandleAPIError(w http.ResponseWriter, req *http.Request, status int, err error, logMsg ...string) {
	if err == nil {
		return
	}

	meta := r.statusMetaFor(status)
	problem := r.buildProblemDetails(req, status, err, meta)
	r.logProblem(req, meta, err, problem.TraceID, status, logMsg)
	r.respond(w, req, status, problem.payload())
}

// HandleInternalServerError is a shortcut that reports a 500 status code.
func (r *Responder) HandleInternalServerError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusInternalServerError, err, logMsg...)
}

// HandleBadRequestError reports client validation errors using HTTP 400.
func (r *Responder) HandleBadRequestError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusBadRequest, err, logMsg...)
}

// HandleUnauthorizedError reports authentication failures using HTTP 401.
func (r *Responder) HandleUnauthorizedError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusUnauthorized, err, logMsg...)
}

// HandleNotFoundError reports missing resources using HTTP 404.
func (r *Responder) HandleNotFoundError(w http.ResponseWriter, req *http.Request, err error, logMsg ...string) {
	r.HandleAPIError(w, req, http.StatusNotFound, err, logMsg...)
}

// HandleValidationErrors reports field level failures using HTTP 400. The
// list is embedded as the envelope data and the message reads
// "Validation failed" unless the renderer was configured otherwise.
func (r *Responder) HandleValidationErrors(w http.ResponseWriter, req *http.Request, fieldErrs []FieldError) {
	if len(fieldErrs) == 0 {
		return
	}

	meta := r.statusMetaFor(http.StatusBadRequest)
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	r.logger().With("status", http.StatusBadRequest, "fields", fields).
		Log(requestContext(req), meta.logLevel, "validation failed")
	r.respond(w, req, http.StatusBadRequest, fieldErrs)
}

// RespondWithJSON wraps the provided value in an envelope and writes it to
// the response using the supplied status code.
func (r *Responder) RespondWithJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	r.respond(w, req, status, v)
}

// HandleErrors inspects the supplied error using the configured classifier and
// emits an appropriate enveloped response.
func (r *Responder) HandleErrors(w http.ResponseWriter, req *http.Request, err error, msgs ...string) {
	if err == nil {
		return
	}

	if status, handled := r.classifyError(err); handled {
		r.HandleAPIError(w, req, status, err, msgs...)
		return
	}

	r.HandleInternalServerError(w, req, err, msgs...)
}

func (r *Responder) respond(w http.ResponseWriter, req *http.Request, status int, payload any) {
	if w == nil {
		return
	}

	body, err := r.Renderer().RenderStatus(status, payload)
	if err != nil {
		r.logger().ErrorContext(requestContext(req), "failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(body) == 0 || body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}

	r.writeResponse(w, status, body)
}

func (r *Responder) writeResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", jsonContentType)
	w.Header().Set(envelope.SkipHeader, "1")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		r.logger().Error("failed to write response", "error", err)
	}
}
