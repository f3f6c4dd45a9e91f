package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogEmailSender writes outbound email to the structured log instead of a
// delivery gateway. Used until a real provider is configured.
type LogEmailSender struct {
	logger zerolog.Logger
}

func NewLogEmailSender(logger zerolog.Logger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("channel", "email").
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("notification dispatched")
	return nil
}

// LogSMSSender writes outbound SMS to the structured log instead of a
// delivery gateway.
type LogSMSSender struct {
	logger zerolog.Logger
}

func NewLogSMSSender(logger zerolog.Logger) *LogSMSSender {
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().
		Str("channel", "sms").
		Str("to", to).
		Str("body", body).
		Msg("notification dispatched")
	return nil
}
