package responder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/drblury/apienvelope/jsonutil"
)

const defaultMaxBodyBytes int64 = 1 << 20

var errBodyRequired = errors.New("request body is required")

// ReadRequestBody decodes the JSON request body into v. Malformed, empty or
// oversized bodies are answered with an enveloped 400 and false is returned.
func (r *Responder) ReadRequestBody(w http.ResponseWriter, req *http.Request, v any) bool {
	if err := r.decodeRequestBody(w, req, v); err != nil {
		r.HandleBadRequestError(w, req, err, "failed to parse request body")
		return false
	}
	return true
}

func (r *Responder) decodeRequestBody(w http.ResponseWriter, req *http.Request, v any) error {
	if req == nil || req.Body == nil || req.Body == http.NoBody {
		return errBodyRequired
	}

	body := http.MaxBytesReader(w, req.Body, defaultMaxBodyBytes)
	if err := jsonutil.Decode(body, v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errBodyRequired
		default:
			return err
		}
	}
	return nil
}

func requestInstance(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return req.URL.RequestURI()
}

func requestContext(req *http.Request) context.Context {
	if req == nil {
		return context.Background()
	}
	return req.Context()
}
