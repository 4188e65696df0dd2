package logging

import (
	"log/slog"
	"strings"
)

const redacted = "[redacted]"

// secretKeySuffixes lists attribute key endings whose values never reach a log sink.
var secretKeySuffixes = []string{"api_key", "app_secret", "secret", "token", "password"}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	if idx := strings.LastIndexByte(key, '.'); idx >= 0 {
		key = key[idx+1:]
	}
	for _, suffix := range secretKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

func redactValue(key string, value slog.Value) slog.Value {
	if !isSecretKey(key) {
		return value
	}
	if value.Kind() == slog.KindString && value.String() == "" {
		return value
	}
	return slog.StringValue(redacted)
}
