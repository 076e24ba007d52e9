package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// Keys are matched as lowercase substrings.
var (
	redactKeyParts = []string{"token", "authorization", "password", "secret", "cookie", "email", "refresh"}
	hashKeyParts   = []string{"user_id", "actor_id", "owner_id", "author_id"}
)

// redactor masks credentials and pseudonymizes user identifiers. A nil or
// disabled redactor passes values through untouched.
type redactor struct {
	enabled bool
	salt    string
}

func redactorFromEnv() *redactor {
	r := &redactor{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		r.enabled = false
	}
	return r
}

func (r *redactor) kvs(kv []any) []any {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			out = append(out, kv[i])
			break
		}
		key := stringify(kv[i])
		out = append(out, key, r.value(strings.ToLower(key), kv[i+1]))
	}
	return out
}

func (r *redactor) value(key string, val any) any {
	switch {
	case key != "" && containsAny(key, redactKeyParts):
		return redacted
	case key != "" && containsAny(key, hashKeyParts):
		return r.hash(val)
	}
	switch v := val.(type) {
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = r.value(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = r.value("", inner)
		}
		return out
	default:
		return val
	}
}

// hash keeps ids correlatable across log lines without exposing them.
func (r *redactor) hash(val any) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func containsAny(key string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
