package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/whatsapp-api-go/internal/whatsapp/response"
)

var (
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("whatsapp client: not logged in")
	// ErrAlreadyLoggedIn is returned by Login when a session exists.
	ErrAlreadyLoggedIn = errors.New("whatsapp client: already logged in")
)

// TransportError wraps a failure to complete the HTTP round trip.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("whatsapp client: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) HTTPStatus() int   { return 0 }
func (e *TransportError) ProviderCode() int { return 0 }

// HTTPStatusError reports a non-2xx response. Response is the parsed body when
// it could be parsed.
type HTTPStatusError struct {
	Status   int
	Body     []byte
	Code     int
	Response response.Response
}

func (e *HTTPStatusError) Error() string {
	msg := http.StatusText(e.Status)
	if e.Response != nil {
		if out := e.Response.Outcome(); out.Error != nil {
			msg = out.Error.Message
		} else if out.Message != "" {
			msg = out.Message
		}
	}
	if e.Code != 0 {
		return fmt.Sprintf("whatsapp client: http %d (code %d): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("whatsapp client: http %d: %s", e.Status, msg)
}

func (e *HTTPStatusError) HTTPStatus() int   { return e.Status }
func (e *HTTPStatusError) ProviderCode() int { return e.Code }

// ProviderError reports a 2xx response that carries a Cloud API error object.
type ProviderError struct {
	Status int
	API    response.CloudAPIError
	Body   []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("whatsapp client: provider error: %s", e.API.Error())
}

func (e *ProviderError) HTTPStatus() int   { return e.Status }
func (e *ProviderError) ProviderCode() int { return e.API.Code }

// RequestError reports a response whose success flag is false.
type RequestError struct {
	Message  string
	Data     json.RawMessage
	Response response.Response
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return "whatsapp client: request failed"
	}
	return "whatsapp client: request failed: " + e.Message
}

// UnexpectedResponseError reports a successful response of the wrong variant.
type UnexpectedResponseError struct {
	Want     response.Kind
	Response response.Response
}

func (e *UnexpectedResponseError) Error() string {
	got := response.Kind("none")
	if e.Response != nil {
		got = e.Response.Kind()
	}
	return fmt.Sprintf("whatsapp client: expected %s response, got %s", e.Want, got)
}

// Retryable reports whether err is a failure the retry policy applies to:
// transport failures, HTTP error statuses and provider error codes.
func Retryable(err error) bool {
	var (
		te *TransportError
		he *HTTPStatusError
		pe *ProviderError
	)
	return errors.As(err, &te) || errors.As(err, &he) || errors.As(err, &pe)
}

// RetryInputs returns the HTTP status and provider error code carried by err
// or anything it wraps, and zeros when there are none. These are the inputs
// retry.Decide takes.
func RetryInputs(err error) (status, code int) {
	var carrier interface {
		HTTPStatus() int
		ProviderCode() int
	}
	if errors.As(err, &carrier) {
		return carrier.HTTPStatus(), carrier.ProviderCode()
	}
	return 0, 0
}
