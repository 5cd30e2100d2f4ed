package util_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/example/whatsapp-api-go/internal/util"
)

func TestParseUUIDv4(t *testing.T) {
	valid := uuid.NewString()
	if _, err := util.ParseUUIDv4(valid); err != nil {
		t.Fatalf("expected valid uuid, got error: %v", err)
	}

	if _, err := util.ParseUUIDv4(""); !errors.Is(err, util.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID for empty value, got %v", err)
	}

	v1 := "f47ac10b-58cc-11e4-8bcd-0800200c9a66"
	if _, err := util.ParseUUIDv4(v1); !errors.Is(err, util.ErrInvalidUUID) {
		t.Fatalf("expected ErrInvalidUUID for non-v4 uuid, got %v", err)
	}
}

func TestNormalizeRecipient(t *testing.T) {
	cases := map[string]string{
		"972543089167":                   "972543089167",
		" +972543089167 ":                "972543089167",
		"120363025246125486@g.us":        "120363025246125486@g.us",
		"972543089167-1617@g.us":         "972543089167-1617@g.us",
		"972543089167@s.whatsapp.net":    "972543089167@s.whatsapp.net",
		"972543089167:12@s.whatsapp.net": "972543089167:12@s.whatsapp.net",
		"120363144038483540@newsletter":  "120363144038483540@newsletter",
		"187743116525604@lid":            "187743116525604@lid",
		"status@broadcast":               "status@broadcast",
	}
	for in, want := range cases {
		got, err := util.NormalizeRecipient(in)
		if err != nil {
			t.Fatalf("NormalizeRecipient(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeRecipient(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "abc", "+0123", "12", "@s.whatsapp.net", "972543089167@", "a b@s.whatsapp.net", "x@S.WHATSAPP.NET"} {
		if _, err := util.NormalizeRecipient(in); !errors.Is(err, util.ErrInvalidRecipient) {
			t.Fatalf("NormalizeRecipient(%q) expected ErrInvalidRecipient, got %v", in, err)
		}
	}
}

func TestIsGroupRecipient(t *testing.T) {
	if !util.IsGroupRecipient("120363025246125486@g.us") {
		t.Fatalf("expected group recipient")
	}
	if util.IsGroupRecipient("972543089167") {
		t.Fatalf("phone number must not be treated as group")
	}
	if util.IsGroupRecipient("120363144038483540@newsletter") {
		t.Fatalf("newsletter jid must not be treated as group")
	}
}

func TestValidateMetadata(t *testing.T) {
	meta, err := util.ValidateMetadata(map[string]string{" key ": " value "}, 5, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta["key"] != "value" {
		t.Fatalf("expected trimmed metadata, got %+v", meta)
	}

	if _, err := util.ValidateMetadata(map[string]string{"a": "1", "b": "2"}, 1, 10, 10); err == nil {
		t.Fatalf("expected entries limit error")
	}
	if _, err := util.ValidateMetadata(map[string]string{"": "1"}, 5, 10, 10); err == nil {
		t.Fatalf("expected empty key error")
	}
	if _, err := util.ValidateMetadata(map[string]string{"k": strings.Repeat("v", 11)}, 5, 10, 10); err == nil {
		t.Fatalf("expected value length error")
	}
}

func TestRuneLen(t *testing.T) {
	if got := util.RuneLen("héllo"); got != 5 {
		t.Fatalf("expected 5 runes, got %d", got)
	}
}

func TestValidateHTTPURL(t *testing.T) {
	if _, err := util.ValidateHTTPURL("https://example.com/image.jpg"); err != nil {
		t.Fatalf("expected valid url, got %v", err)
	}
	for _, in := range []string{"", "ftp://example.com/a", "https://", "::"} {
		if _, err := util.ValidateHTTPURL(in); !errors.Is(err, util.ErrInvalidURL) {
			t.Fatalf("ValidateHTTPURL(%q) expected ErrInvalidURL, got %v", in, err)
		}
	}
}
