package mail

import (
	"context"

	"github.com/shopkit/shopkit/models"
)

// Service sends through the primary provider and falls back on failure.
type Service struct {
	logger   models.Logger
	primary  Provider
	fallback Provider
}

func NewService(logger models.Logger, primary Provider, fallback Provider) *Service {
	return &Service{
		logger:   logger,
		primary:  primary,
		fallback: fallback,
	}
}

func (s *Service) SendEmail(ctx context.Context, to string, subject string, text string, html string) error {
	err := s.primary.SendEmail(ctx, to, subject, text, html)
	if err == nil {
		return nil
	}

	s.logger.Warn("primary email provider failed", "to", to, "subject", subject, "error", err)

	if s.fallback != nil {
		fallbackErr := s.fallback.SendEmail(ctx, to, subject, text, html)
		if fallbackErr == nil {
			s.logger.Info("fallback email provider succeeded", "to", to)
			return nil
		}
		s.logger.Error("fallback email provider also failed", "to", to, "subject", subject, "error", fallbackErr)
	}

	return err
}
