package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/apienvelope/envelope"
	"github.com/drblury/apienvelope/info"
	"github.com/drblury/apienvelope/internal/config"
	"github.com/drblury/apienvelope/probe"
	"github.com/drblury/apienvelope/responder"
	"github.com/drblury/apienvelope/router"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(openAPIDocument)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

func newRenderer(cfg config.EnvelopeConfig, logger *slog.Logger) *envelope.Renderer {
	opts := []envelope.Option{
		envelope.WithLogger(logger),
		envelope.WithValidationMessage(cfg.ValidationMessage),
	}
	if cfg.InPlace {
		opts = append(opts, envelope.WithInPlaceDetail())
	}
	return envelope.NewRenderer(opts...)
}

// buildHandler assembles the widget API and the info endpoints behind the
// router middleware chain.
func buildHandler(cfg *config.Config, logger *slog.Logger, doc *openapi3.T, readiness ...probe.Func) (http.Handler, error) {
	renderer := newRenderer(cfg.Envelope, logger)
	resp := responder.NewResponder(
		responder.WithLogger(logger),
		responder.WithRenderer(renderer),
		responder.WithErrorClassifier(classifyWidgetError),
	)

	rawDoc, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	mux := http.NewServeMux()
	widgets := &widgetHandler{Responder: resp, store: newWidgetStore()}
	widgets.mount(mux)

	infoHandler := info.NewInfoHandler(
		info.WithInfoResponder(resp),
		info.WithInfoProvider(func() any {
			return map[string]string{
				"service":   "apienvelope-demo",
				"version":   version,
				"goVersion": runtime.Version(),
			}
		}),
		info.WithSwaggerProvider(func() ([]byte, error) { return rawDoc, nil }),
		info.WithProbeTimeout(cfg.Probes.Timeout),
		info.WithReadinessChecks(readiness...),
	)
	infoHandler.Mount(mux, "/info")

	return router.New(mux,
		router.WithLogger(logger),
		router.WithRenderer(renderer),
		router.WithSwagger(doc),
		router.WithConfig(router.Config{
			Timeout:         cfg.HTTP.RequestTimeout,
			CORS:            router.CORSConfig{Origins: cfg.HTTP.CORSOrigins},
			QuietdownRoutes: []string{"/info/healthz", "/info/readyz"},
			HideHeaders:     []string{"Authorization", "Cookie"},
		}),
	), nil
}
