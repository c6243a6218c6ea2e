package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestAnonymize(t *testing.T) {
	in := "login for alice@example.com with eyJhbGciOiJIUzI1NiJ9.e30.sig and $2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	out := Anonymize(in)

	for _, leaked := range []string{"alice@example.com", "eyJhbGci", "$2a$10$"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("expected %q to be redacted, got %q", leaked, out)
		}
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_TOKEN]", "[REDACTED_HASH]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("expected marker %q in %q", marker, out)
		}
	}
}

func TestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Warn("service/posts", "publish failed for bob@example.org", errors.New("broker down"))

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != WarnLevel || entry.Module != "service/posts" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Error != "broker down" {
		t.Fatalf("unexpected error field %q", entry.Error)
	}
	if strings.Contains(entry.Message, "bob@example.org") {
		t.Fatalf("email leaked into message: %q", entry.Message)
	}
}
