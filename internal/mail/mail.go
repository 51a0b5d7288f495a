// Package mail sends transactional email through a primary provider with
// an optional fallback. Providers: SMTP (go-mail) and Resend.
package mail

import "context"

// Provider is a single mail transport.
type Provider interface {
	SendEmail(ctx context.Context, to string, subject string, text string, html string) error
}
