package logger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactorMasksCredentials(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.kvs([]any{
		"access_token", "abc",
		"Email", "a@b.c",
		"status", "added",
	})
	if len(out) != 6 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != redacted || out[3] != redacted {
		t.Fatalf("expected redaction, got %v", out)
	}
	if out[5] != "added" {
		t.Fatalf("plain value should pass through, got %v", out[5])
	}
}

func TestRedactorHashesUserIDs(t *testing.T) {
	r := &redactor{enabled: true, salt: "pepper"}
	id := uuid.New()
	out := r.kvs([]any{"user_id", id, "author_id", id.String()})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hashed user id, got %v", out[1])
	}
	if out[3] != got {
		t.Fatalf("uuid and its string form should hash alike: %v vs %v", out[1], out[3])
	}
	if other := (&redactor{enabled: true}).hash(id); other == got {
		t.Fatalf("salt should change the hash")
	}
}

func TestRedactorNestedValues(t *testing.T) {
	r := &redactor{enabled: true}
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	out := r.kvs([]any{
		"header", jwtish,
		"payload", map[string]any{"password": "hunter22", "kind": "like"},
	})
	if out[1] != redacted {
		t.Fatalf("expected JWT to be redacted, got %v", out[1])
	}
	payload := out[3].(map[string]any)
	if payload["password"] != redacted || payload["kind"] != "like" {
		t.Fatalf("unexpected nested output: %v", payload)
	}
}

func TestRedactorDisabledAndOddLength(t *testing.T) {
	off := &redactor{}
	in := []any{"password", "x"}
	if out := off.kvs(in); out[1] != "x" {
		t.Fatalf("disabled redactor should pass through, got %v", out)
	}
	out := (&redactor{enabled: true}).kvs([]any{"status", "ok", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestWithKeepsRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar(), redact: &redactor{enabled: true}}

	l.With("service", "AuthService").Info("login", "password", "hunter22")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["password"] != redacted || fields["service"] != "AuthService" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
