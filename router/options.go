package router

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/apienvelope/envelope"
)

// Middleware wraps an http.Handler to produce a new http.Handler.
type Middleware func(http.Handler) http.Handler

// Option configures the router via the functional options pattern.
type Option func(*options)

// stage names one middleware of the default chain.
type stage uint8

const (
	stageEnvelope stage = iota
	stageOpenAPI
	stageCORS
	stageTimeout
	stageLogging
)

// defaultStages lists the default chain from outermost to innermost. The
// envelope stage comes first so it also wraps bodies written by the
// validation and timeout stages.
var defaultStages = []struct {
	name  stage
	build func(*options) Middleware
}{
	{stageEnvelope, func(o *options) Middleware {
		if o.renderer == nil {
			return nil
		}
		return envelope.Middleware(o.renderer)
	}},
	{stageOpenAPI, func(o *options) Middleware {
		if o.swagger == nil {
			return nil
		}
		return oapiMiddleware(o.swagger, o.renderer)
	}},
	{stageCORS, func(o *options) Middleware {
		if !o.config.CORS.enabled() {
			return nil
		}
		return corsMiddleware(o.config.CORS)
	}},
	{stageTimeout, func(o *options) Middleware {
		if o.config.Timeout <= 0 {
			return nil
		}
		return timeoutMiddleware(o.config.Timeout, o.renderer)
	}},
	{stageLogging, func(o *options) Middleware {
		if o.logger == nil {
			return nil
		}
		return loggingMiddleware(o.logger, o.config.QuietdownRoutes, o.config.HideHeaders)
	}},
}

type options struct {
	config   Config
	logger   *slog.Logger
	swagger  *openapi3.T
	renderer *envelope.Renderer
	skipped  map[stage]bool
	outer    []Middleware
	inner    []Middleware
	chain    []Middleware
}

func defaultOptions() *options {
	return &options{
		config:  Config{Timeout: DefaultTimeout},
		logger:  slog.Default(),
		skipped: make(map[stage]bool),
	}
}

// middlewareChain returns the middlewares from outermost to innermost.
func (o *options) middlewareChain() []Middleware {
	if len(o.chain) > 0 {
		return slices.Clone(o.chain)
	}

	chain := slices.Clone(o.outer)
	for _, s := range defaultStages {
		if o.skipped[s.name] {
			continue
		}
		if mw := s.build(o); mw != nil {
			chain = append(chain, mw)
		}
	}
	return append(chain, o.inner...)
}

func skip(s stage) Option {
	return func(o *options) {
		o.skipped[s] = true
	}
}

// WithConfig replaces the router configuration with a copy of cfg.
func WithConfig(cfg Config) Option {
	cfg = cfg.clone()
	return func(o *options) {
		o.config = cfg
	}
}

// WithConfigMutator edits the router configuration in place after the
// defaults and any WithConfig have been applied.
func WithConfigMutator(mutate func(*Config)) Option {
	return func(o *options) {
		if mutate != nil {
			mutate(&o.config)
		}
	}
}

// WithLogger sets the logger of the request logging stage. A nil logger
// removes the stage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSwagger validates requests against the OpenAPI document.
func WithSwagger(swagger *openapi3.T) Option {
	return func(o *options) {
		o.swagger = swagger
	}
}

// WithRenderer enables response enveloping. Every JSON response, OpenAPI
// validation failure and timeout is written as an envelope produced by
// renderer.
func WithRenderer(renderer *envelope.Renderer) Option {
	return func(o *options) {
		o.renderer = renderer
	}
}

// WithMiddlewares adds middlewares outside the default chain. They see the
// final, enveloped response.
func WithMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.outer = append(o.outer, middlewares...)
	}
}

// WithTrailingMiddlewares adds middlewares between the default chain and
// the handler. Their JSON output is still enveloped.
func WithTrailingMiddlewares(middlewares ...Middleware) Option {
	return func(o *options) {
		o.inner = append(o.inner, middlewares...)
	}
}

// WithMiddlewareChain replaces the whole chain, including the default
// stages, with middlewares.
func WithMiddlewareChain(middlewares ...Middleware) Option {
	chain := slices.Clone(middlewares)
	return func(o *options) {
		o.chain = chain
	}
}

// WithoutEnvelope keeps the renderer for validation and timeout bodies but
// leaves handler responses unwrapped.
func WithoutEnvelope() Option { return skip(stageEnvelope) }

// WithoutOpenAPIValidation removes the OpenAPI validation stage.
func WithoutOpenAPIValidation() Option { return skip(stageOpenAPI) }

// WithoutCORSMiddleware removes the CORS stage regardless of configuration.
func WithoutCORSMiddleware() Option { return skip(stageCORS) }

// WithoutTimeoutMiddleware removes the timeout stage.
func WithoutTimeoutMiddleware() Option { return skip(stageTimeout) }

// WithoutLoggingMiddleware removes the request logging stage.
func WithoutLoggingMiddleware() Option { return skip(stageLogging) }
