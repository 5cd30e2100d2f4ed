package whatsapp_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/whatsapp-api-go/internal/whatsapp"
	"github.com/example/whatsapp-api-go/internal/whatsapp/response"
)

func TestRetryInputs(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "transport", err: &whatsapp.TransportError{Method: "POST", Path: "/messages", Err: errors.New("reset")}},
		{name: "http status", err: &whatsapp.HTTPStatusError{Status: 429, Code: 4}, wantStatus: 429, wantCode: 4},
		{
			name:       "provider error",
			err:        &whatsapp.ProviderError{Status: 200, API: response.CloudAPIError{Code: 131056}},
			wantStatus: 200,
			wantCode:   131056,
		},
		{name: "wrapped", err: fmt.Errorf("send: %w", &whatsapp.HTTPStatusError{Status: 403}), wantStatus: 403},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := whatsapp.RetryInputs(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}
