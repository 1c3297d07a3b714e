package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/drblury/apienvelope/envelope"
	"github.com/drblury/apienvelope/jsonutil"
)

// maxReplyBytes bounds how much of an upstream body is read.
const maxReplyBytes = 1 << 20

// HTTPDoer is the part of *http.Client an HTTP check needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Reply is the upstream answer an HTTP check validates.
type Reply struct {
	StatusCode int
	Header     http.Header
	// Envelope is the decoded body when the upstream answered with an
	// envelope, nil otherwise.
	Envelope *envelope.Envelope
}

// HTTPOption configures NewHTTPProbe and NewEnvelopeProbe.
type HTTPOption func(*httpCheck)

type httpCheck struct {
	client          HTTPDoer
	accept          func(status int) bool
	requireEnvelope bool
	categories      []envelope.StatusCategory
	header          http.Header
	validators      []func(Reply) error
}

// WithHTTPClient sends the request with client instead of http.DefaultClient.
func WithHTTPClient(client HTTPDoer) HTTPOption {
	return func(c *httpCheck) {
		if client != nil {
			c.client = client
		}
	}
}

// WithHTTPAllowedStatuses accepts exactly the given status codes instead of
// any 2xx.
func WithHTTPAllowedStatuses(statuses ...int) HTTPOption {
	allowed := slices.Clone(statuses)
	return func(c *httpCheck) {
		c.accept = func(status int) bool { return slices.Contains(allowed, status) }
	}
}

// WithHTTPHeader sets a request header, e.g. an API key for the upstream.
func WithHTTPHeader(key, value string) HTTPOption {
	return func(c *httpCheck) {
		c.header.Set(key, value)
	}
}

// WithHTTPEnvelopeCategory requires the reply to be an envelope whose status
// is one of categories. Without categories any envelope is accepted.
func WithHTTPEnvelopeCategory(categories ...envelope.StatusCategory) HTTPOption {
	return func(c *httpCheck) {
		c.requireEnvelope = true
		c.categories = append(c.categories, categories...)
	}
}

// WithHTTPReplyValidator adds a check that runs after the status and
// envelope checks passed.
func WithHTTPReplyValidator(validate func(Reply) error) HTTPOption {
	return func(c *httpCheck) {
		if validate != nil {
			c.validators = append(c.validators, validate)
		}
	}
}

func anyStatus() HTTPOption {
	return func(c *httpCheck) {
		c.accept = nil
	}
}

// NewHTTPProbe requests target and succeeds on a 2xx reply. Error replies
// that carry an envelope report its message.
func NewHTTPProbe(name, method, target string, opts ...HTTPOption) Func {
	check := &httpCheck{
		client: http.DefaultClient,
		accept: func(status int) bool { return status >= 200 && status < 300 },
		header: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(check)
		}
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	target = strings.TrimSpace(target)

	return func(ctx context.Context) error {
		if target == "" {
			return fmt.Errorf("%s probe: target URL is required", name)
		}
		reply, err := check.fetch(orBackground(ctx), method, target)
		if err != nil {
			return fmt.Errorf("%s probe request failed: %w", name, err)
		}
		if err := check.verify(reply); err != nil {
			return fmt.Errorf("%s probe: %w", name, err)
		}
		return nil
	}
}

// NewEnvelopeProbe checks an upstream that answers in envelopes. Any HTTP
// status is accepted; the envelope status must be success, otherwise the
// envelope message is reported.
func NewEnvelopeProbe(name, target string, opts ...HTTPOption) Func {
	opts = append([]HTTPOption{anyStatus(), WithHTTPEnvelopeCategory(envelope.Success)}, opts...)
	return NewHTTPProbe(name, http.MethodGet, target, opts...)
}

func (c *httpCheck) fetch(ctx context.Context, method, target string) (Reply, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return Reply{}, err
	}
	for key, values := range c.header {
		req.Header[key] = slices.Clone(values)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("read body: %w", err)
	}
	return Reply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Envelope:   decodeEnvelope(body),
	}, nil
}

func (c *httpCheck) verify(reply Reply) error {
	if c.accept != nil && !c.accept(reply.StatusCode) {
		return withEnvelopeMessage(fmt.Sprintf("unexpected status %d %s", reply.StatusCode, http.StatusText(reply.StatusCode)), reply.Envelope)
	}
	if c.requireEnvelope {
		if reply.Envelope == nil {
			return errors.New("response is not an envelope")
		}
		if len(c.categories) > 0 && !slices.Contains(c.categories, reply.Envelope.Status) {
			return withEnvelopeMessage("unexpected envelope status "+reply.Envelope.Status.String(), reply.Envelope)
		}
	}
	for _, validate := range c.validators {
		if err := validate(reply); err != nil {
			return err
		}
	}
	return nil
}

func withEnvelopeMessage(msg string, env *envelope.Envelope) error {
	if env != nil && env.Message != nil {
		return fmt.Errorf("%s: %s", msg, *env.Message)
	}
	return errors.New(msg)
}

// decodeEnvelope returns nil unless body is a JSON object with a known
// status category.
func decodeEnvelope(body []byte) *envelope.Envelope {
	var raw struct {
		Status  *envelope.StatusCategory `json:"status"`
		Code    int                      `json:"code"`
		Message *string                  `json:"message"`
		Data    any                      `json:"data"`
	}
	if err := jsonutil.UnmarshalNumber(body, &raw); err != nil || raw.Status == nil {
		return nil
	}
	return &envelope.Envelope{Status: *raw.Status, Code: raw.Code, Message: raw.Message, Data: raw.Data}
}
