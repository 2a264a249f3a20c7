package logutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestIsSensitiveLogField(t *testing.T) {
	t.Parallel()

	sensitive := []string{"Authorization", "X-Api-Key", "session_token", "COOKIE", "client-secret", "password"}
	for _, key := range sensitive {
		if !IsSensitiveLogField(key) {
			t.Errorf("%q should be treated as sensitive", key)
		}
	}

	benign := []string{"Content-Type", "Accept", "X-Request-Id", "traceparent"}
	for _, key := range benign {
		if IsSensitiveLogField(key) {
			t.Errorf("%q should not be treated as sensitive", key)
		}
	}
}

func TestFormatHeadersForLog_RedactsAndSorts(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer abc123")
	headers.Set("Content-Type", "application/json")

	got := FormatHeadersForLog(headers)
	if strings.Contains(got, "abc123") {
		t.Errorf("authorization value leaked into log text: %q", got)
	}
	if !strings.Contains(got, "[REDACTED]") {
		t.Errorf("expected redaction marker in %q", got)
	}
	if !strings.Contains(got, "application/json") {
		t.Errorf("benign header value missing from %q", got)
	}
	if strings.Index(got, "authorization") > strings.Index(got, "content-type") {
		t.Errorf("headers should be sorted by key: %q", got)
	}
}

func TestFormatHeadersForLog_Empty(t *testing.T) {
	t.Parallel()
	if got := FormatHeadersForLog(nil); got != "{}" {
		t.Errorf("empty headers = %q, want {}", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	if got := TruncateForLog("  line1\nline2  ", 0); got != `line1\nline2` {
		t.Errorf("TruncateForLog newline handling = %q", got)
	}
	long := strings.Repeat("a", 50)
	got := TruncateForLog(long, 10)
	if !strings.HasPrefix(got, "aaaaaaaaaa") || !strings.HasSuffix(got, "[truncated]") {
		t.Errorf("TruncateForLog(long, 10) = %q", got)
	}
	if got := TruncateForLog("", 10); got != "" {
		t.Errorf("TruncateForLog empty = %q", got)
	}
}
