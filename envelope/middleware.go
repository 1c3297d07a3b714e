package envelope

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	"github.com/drblury/apienvelope/jsonutil"
)

// SkipHeader marks responses the middleware writes unchanged, such as
// bodies that already are envelopes or raw documents. The middleware strips
// the header before the response is sent.
const SkipHeader = "X-Envelope-Skip"

const jsonContentType = "application/json"

// Middleware wraps JSON responses produced by next into envelopes using the
// captured status code. Empty bodies without a non-JSON Content-Type are
// wrapped with null data, and bodies without a Content-Type are treated as
// JSON when they hold an object or an array. HEAD requests, other media
// types, bodies that do not decode as JSON and responses carrying
// SkipHeader are written unchanged.
func Middleware(r *Renderer) func(http.Handler) http.Handler {
	if r == nil {
		r = std
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			rec := &recorder{w: w}
			next.ServeHTTP(rec, req)
			r.flush(w, req, rec)
		})
	}
}

// recorder buffers the final response. Informational 1xx headers other
// than 101 are forwarded immediately and the final status is still awaited.
type recorder struct {
	w           http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (rec *recorder) Header() http.Header {
	return rec.w.Header()
}

func (rec *recorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	if code >= 100 && code <= 199 && code != http.StatusSwitchingProtocols {
		rec.w.WriteHeader(code)
		return
	}
	rec.status = code
	rec.wroteHeader = true
}

func (rec *recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.body.Write(b)
}

func (rec *recorder) statusCode() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (r *Renderer) flush(w http.ResponseWriter, req *http.Request, rec *recorder) {
	status := rec.statusCode()
	header := w.Header()

	payload, ok := r.capturedPayload(req, header, status, rec.body.Bytes())
	header.Del(SkipHeader)
	if !ok {
		w.WriteHeader(status)
		r.write(w, rec.body.Bytes())
		return
	}

	body, err := r.RenderStatus(status, payload)
	if err != nil {
		r.logger().ErrorContext(req.Context(), "failed to render envelope", "error", err, "status", status)
		header.Del("Content-Length")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	header.Set("Content-Type", jsonContentType)
	header.Del("Content-Length")
	w.WriteHeader(status)
	r.write(w, body)
}

// capturedPayload decodes the buffered body and reports whether it should be
// enveloped.
func (r *Renderer) capturedPayload(req *http.Request, header http.Header, status int, body []byte) (any, bool) {
	if req.Method == http.MethodHead || header.Get(SkipHeader) != "" || !statusAllowsBody(status) {
		return nil, false
	}
	contentType := header.Get("Content-Type")
	if contentType != "" && !isJSONMediaType(contentType) {
		return nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, true
	}
	if contentType == "" && !looksLikeJSON(body) {
		return nil, false
	}

	var payload any
	if err := jsonutil.UnmarshalNumber(body, &payload); err != nil {
		r.logger().DebugContext(req.Context(), "response body is not valid JSON, skipping envelope", "error", err)
		return nil, false
	}
	return payload, true
}

func (r *Renderer) write(w http.ResponseWriter, body []byte) {
	if len(body) == 0 {
		return
	}
	if _, err := w.Write(body); err != nil {
		r.logger().Error("failed to write response", "error", err)
	}
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func statusAllowsBody(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

func isJSONMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == jsonContentType || strings.HasSuffix(mediaType, "+json")
}
