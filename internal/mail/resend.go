package mail

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/models"
)

type ResendProvider struct {
	config *models.EmailConfig
	logger models.Logger
	client *resend.Client
}

func NewResendProvider(config *models.EmailConfig, logger models.Logger) (*ResendProvider, error) {
	apiKey := strings.TrimSpace(os.Getenv(env.EnvResendApiKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable is not set", env.EnvResendApiKey)
	}

	return &ResendProvider{
		config: config,
		logger: logger,
		client: resend.NewClient(apiKey),
	}, nil
}

func (r *ResendProvider) SendEmail(ctx context.Context, to string, subject string, text string, html string) error {
	if text == "" && html == "" {
		return fmt.Errorf("email must have at least a text or html body")
	}

	params := &resend.SendEmailRequest{
		To:      []string{to},
		From:    r.config.FromAddress,
		Subject: subject,
		Text:    text,
		Html:    html,
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		r.logger.Error("failed to send email via Resend", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("resend send failed: %w", err)
	}

	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend send failed: empty response")
	}

	return nil
}
