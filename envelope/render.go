package envelope

import (
	"fmt"
	"reflect"

	"github.com/drblury/apienvelope/jsonutil"
)

var std = NewRenderer()

// Render wraps data using a Renderer with default settings.
func Render(data any, sc StatusCoder) ([]byte, error) {
	return std.Render(data, sc)
}

// Render wraps data into an envelope for the status reported by sc and
// returns its JSON encoding. A nil sc, or one reporting a non-positive code,
// renders with the default code.
func (r *Renderer) Render(data any, sc StatusCoder) ([]byte, error) {
	body, err := jsonutil.Marshal(r.Build(data, sc))
	if err != nil {
		return nil, fmt.Errorf("envelope: encode response: %w", err)
	}
	return body, nil
}

// RenderStatus is Render for a known status code.
func (r *Renderer) RenderStatus(code int, data any) ([]byte, error) {
	return r.Render(data, Code(code))
}

// Build returns the envelope for data without serializing it.
func (r *Renderer) Build(data any, sc StatusCoder) Envelope {
	code := r.statusCode(sc)
	env := Envelope{
		Status: Categorize(code),
		Code:   code,
		Data:   data,
	}
	if env.Status.IsError() {
		env.Message, env.Data = r.extractMessage(data)
	}
	return env
}

func (r *Renderer) statusCode(sc StatusCoder) int {
	if sc != nil {
		if code := sc.StatusCode(); code > 0 {
			return code
		}
	}
	return r.defaultCode
}

// extractMessage returns the message for an error payload along with the
// data that should be embedded next to it.
func (r *Renderer) extractMessage(data any) (*string, any) {
	if data == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, data
		}
		return r.extractDetail(rv, data)
	case reflect.Slice:
		// []byte and json.RawMessage are encoded as scalars.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, data
		}
		msg := r.validationMessage
		return &msg, data
	case reflect.Array:
		msg := r.validationMessage
		return &msg, data
	default:
		return nil, data
	}
}

func (r *Renderer) extractDetail(rv reflect.Value, data any) (*string, any) {
	key := reflect.ValueOf(r.detailKey).Convert(rv.Type().Key())
	detail := rv.MapIndex(key)
	if !detail.IsValid() {
		return nil, data
	}
	msg := detailMessage(detail.Interface())

	if r.inPlace {
		rv.SetMapIndex(key, reflect.Value{})
		return msg, data
	}

	rest := reflect.MakeMapWithSize(rv.Type(), rv.Len()-1)
	iter := rv.MapRange()
	for iter.Next() {
		if iter.Key().String() == r.detailKey {
			continue
		}
		rest.SetMapIndex(iter.Key(), iter.Value())
	}
	return msg, rest.Interface()
}

func detailMessage(v any) *string {
	var msg string
	switch d := v.(type) {
	case nil:
		return nil
	case string:
		msg = d
	case error:
		msg = d.Error()
	case fmt.Stringer:
		msg = d.String()
	default:
		// Structured details keep their JSON form in the message.
		body, err := jsonutil.Marshal(d)
		if err != nil {
			msg = fmt.Sprint(d)
			break
		}
		msg = string(body)
	}
	return &msg
}
