package envelope

import "fmt"

// StatusCategory classifies an HTTP status code into one of five buckets.
type StatusCategory uint8

const (
	Success StatusCategory = iota
	Informational
	Redirect
	ClientError
	ServerError
)

// Categorize maps an HTTP status code to its category. Codes outside the
// 100-599 range are reported as Success.
func Categorize(code int) StatusCategory {
	switch {
	case code >= 100 && code <= 199:
		return Informational
	case code >= 200 && code <= 299:
		return Success
	case code >= 300 && code <= 399:
		return Redirect
	case code >= 400 && code <= 499:
		return ClientError
	case code >= 500 && code <= 599:
		return ServerError
	default:
		return Success
	}
}

// IsError reports whether the category is ClientError or ServerError.
func (c StatusCategory) IsError() bool {
	return c == ClientError || c == ServerError
}

func (c StatusCategory) String() string {
	switch c {
	case Informational:
		return "informational"
	case Success:
		return "success"
	case Redirect:
		return "redirect"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	default:
		return fmt.Sprintf("StatusCategory(%d)", uint8(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c StatusCategory) MarshalText() ([]byte, error) {
	if c > ServerError {
		return nil, fmt.Errorf("envelope: unknown status category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *StatusCategory) UnmarshalText(text []byte) error {
	parsed, err := ParseStatusCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseStatusCategory returns the category named by s.
func ParseStatusCategory(s string) (StatusCategory, error) {
	switch s {
	case "informational":
		return Informational, nil
	case "success":
		return Success, nil
	case "redirect":
		return Redirect, nil
	case "client_error":
		return ClientError, nil
	case "server_error":
		return ServerError, nil
	default:
		return Success, fmt.Errorf("envelope: unknown status category %q", s)
	}
}
