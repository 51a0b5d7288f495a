package util

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

func GenerateUUID() string {
	return uuid.New().String()
}

// MarshalJSON wraps json.Marshal, returning a RawMessage ready to embed
// in event payloads.
func MarshalJSON(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// NormalizePath forces a leading slash and strips any trailing one, so
// configured base paths join cleanly with route suffixes.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
