package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaskField(t *testing.T) {
	if got := MaskField("signature", "0xdeadbeef"); got.Value.String() != RedactedValue {
		t.Fatalf("signature not redacted: %v", got)
	}
	if got := MaskField("requestId", "abc"); got.Value.String() != "abc" {
		t.Fatalf("allowlisted key redacted: %v", got)
	}
	if got := MaskField("signature", " "); got.Value.String() != " " {
		t.Fatalf("empty value should pass through: %v", got)
	}
}

func TestMaskClient(t *testing.T) {
	for input, want := range map[string]string{
		"203.0.113.42":          "203.0.113.0",
		"203.0.113.42:51234":    "203.0.113.0",
		"[2001:db8:1:2::7]:443": "2001:db8:1::",
		"api-key-123":           RedactedValue,
		"":                      "",
	} {
		if got := MaskClient("client", input).Value.String(); got != want {
			t.Fatalf("MaskClient(%q)=%q, want %q", input, got, want)
		}
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "passmintd.log")
	logger := Setup("passmintd", "test", FileOptions{Path: path, MaxSizeMB: 1})
	logger.Info("transition applied", "op", "create_issuer")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	for key, want := range map[string]string{
		"message":  "transition applied",
		"severity": "INFO",
		"service":  "passmintd",
		"env":      "test",
		"op":       "create_issuer",
	} {
		if entry[key] != want {
			t.Fatalf("%s=%v, want %q", key, entry[key], want)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("timestamp missing in %v", entry)
	}
}
