package common

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapTransient(t *testing.T) {
	base := errors.New("temporary failure")
	wrapped := WrapTransient(base)

	if !errors.Is(wrapped, ErrTransient) {
		t.Fatalf("expected wrapped error to be transient: %v", wrapped)
	}

	if !strings.Contains(wrapped.Error(), base.Error()) {
		t.Fatalf("expected wrapped error message to include original message")
	}
}

func TestWrapPermanent(t *testing.T) {
	base := errors.New("invalid recipient")
	wrapped := WrapPermanent(base)

	if !errors.Is(wrapped, ErrPermanent) {
		t.Fatalf("expected wrapped error to be permanent: %v", wrapped)
	}

	if !strings.Contains(wrapped.Error(), base.Error()) {
		t.Fatalf("expected wrapped error message to include original message")
	}
}

func TestWrapNil(t *testing.T) {
	if !errors.Is(WrapTransient(nil), ErrTransient) {
		t.Fatalf("expected nil transient wrap to fall back to ErrTransient")
	}
	if !errors.Is(WrapPermanent(nil), ErrPermanent) {
		t.Fatalf("expected nil permanent wrap to fall back to ErrPermanent")
	}
}

type fakeHTTPError struct {
	status int
	code   int
}

func (e *fakeHTTPError) Error() string     { return "upstream failure" }
func (e *fakeHTTPError) HTTPStatus() int   { return e.status }
func (e *fakeHTTPError) ProviderCode() int { return e.code }

func TestWrapKeepsCauseReachable(t *testing.T) {
	base := &fakeHTTPError{status: 429, code: 130429}
	wrapped := WrapTransient(base)

	var target *fakeHTTPError
	if !errors.As(wrapped, &target) {
		t.Fatalf("expected wrapped error to expose the cause")
	}
	if target != base {
		t.Fatalf("unexpected cause: %v", target)
	}
}

func TestRetryInputs(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "direct", err: &fakeHTTPError{status: 403, code: 10}, wantStatus: 403, wantCode: 10},
		{name: "wrapped transient", err: WrapTransient(&fakeHTTPError{status: 400, code: 131056}), wantStatus: 400, wantCode: 131056},
		{name: "wrapped permanent", err: WrapPermanent(fmt.Errorf("send: %w", &fakeHTTPError{status: 401})), wantStatus: 401},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := RetryInputs(tc.err)
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("RetryInputs() = (%d, %d), want (%d, %d)", status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}
