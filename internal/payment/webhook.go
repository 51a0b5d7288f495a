package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMissingSignature = errors.New("missing webhook signature")
)

// WebhookVerifier authenticates processor webhooks with HMAC-SHA256 over
// the raw request body.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify checks the hex-encoded signature header against the raw body.
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	given, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	if !hmac.Equal(given, expected) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign produces the signature for a body. Used by tests and by ops tooling
// that replays events.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// DecodeEvent parses a verified webhook body into a typed event. The
// processor sends loosely-typed JSON; mapstructure bridges it into the
// WebhookEvent shape and rejects unknown top-level fields quietly.
func DecodeEvent(body []byte) (*WebhookEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}

	var event WebhookEvent
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &event,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("unexpected webhook shape: %w", err)
	}

	if event.ID == "" || event.Type == "" {
		return nil, errors.New("webhook event missing id or type")
	}

	return &event, nil
}
