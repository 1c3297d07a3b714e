package envelope

import (
	"log/slog"
	"net/http"
)

const (
	// DefaultCode is used when no status code can be read from the context.
	DefaultCode = http.StatusOK
	// DefaultDetailKey is the mapping key lifted into the envelope message.
	DefaultDetailKey = "detail"
	// DefaultValidationMessage is reported for sequence payloads on errors.
	DefaultValidationMessage = "Validation failed"
)

// Envelope is the uniform body written for every API response.
type Envelope struct {
	Status  StatusCategory `json:"status"`
	Code    int            `json:"code"`
	Message *string        `json:"message"`
	Data    any            `json:"data"`
}

// StatusCoder exposes the status code of the response being rendered.
type StatusCoder interface {
	StatusCode() int
}

// Code adapts a plain status code to StatusCoder.
type Code int

// StatusCode implements StatusCoder.
func (c Code) StatusCode() int { return int(c) }

type responseStatus struct{ resp *http.Response }

func (r responseStatus) StatusCode() int {
	if r.resp == nil {
		return 0
	}
	return r.resp.StatusCode
}

// ResponseStatus reads the status code from resp. A nil response reports no
// code, so the renderer falls back to its default.
func ResponseStatus(resp *http.Response) StatusCoder {
	return responseStatus{resp: resp}
}

// Option configures a Renderer.
type Option func(*Renderer)

// Renderer wraps payloads into envelopes and serializes them. A Renderer is
// immutable once built and safe for concurrent use.
type Renderer struct {
	log               *slog.Logger
	defaultCode       int
	detailKey         string
	validationMessage string
	inPlace           bool
}

// NewRenderer returns a Renderer configured with the package defaults and
// the supplied options.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		log:               slog.Default(),
		defaultCode:       DefaultCode,
		detailKey:         DefaultDetailKey,
		validationMessage: DefaultValidationMessage,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// WithLogger sets the logger used by the renderer and its middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithDefaultCode overrides the code used when the context has none.
func WithDefaultCode(code int) Option {
	return func(r *Renderer) {
		if code > 0 {
			r.defaultCode = code
		}
	}
}

// WithDetailKey changes the mapping key promoted to the envelope message.
func WithDetailKey(key string) Option {
	return func(r *Renderer) {
		if key != "" {
			r.detailKey = key
		}
	}
}

// WithValidationMessage changes the message reported for sequence payloads.
func WithValidationMessage(msg string) Option {
	return func(r *Renderer) {
		if msg != "" {
			r.validationMessage = msg
		}
	}
}

// WithInPlaceDetail makes the renderer delete the detail key from the
// caller's mapping instead of copying the remaining fields. Rendering the
// same mapping twice then yields a null message the second time, and the
// payload must not be shared between goroutines.
func WithInPlaceDetail() Option {
	return func(r *Renderer) {
		r.inPlace = true
	}
}

// DetailKey returns the mapping key promoted to the envelope message.
func (r *Renderer) DetailKey() string {
	if r == nil || r.detailKey == "" {
		return DefaultDetailKey
	}
	return r.detailKey
}

func (r *Renderer) logger() *slog.Logger {
	if r == nil || r.log == nil {
		return slog.Default()
	}
	return r.log
}
