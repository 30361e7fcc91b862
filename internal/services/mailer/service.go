// Package mailer sends extraction run summaries over SMTP. The service is
// inert until an SMTP host is configured.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// sendFunc matches smtp.SendMail so tests can capture outgoing mail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service mails a short summary when a bulk extraction run finishes
type Service struct {
	config common.SMTPConfig
	logger arbor.ILogger
	send   sendFunc
}

// NewService creates a new mailer service
func NewService(config common.SMTPConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
		send:   smtp.SendMail,
	}
}

// IsConfigured checks if SMTP is configured with minimum required settings
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.From != "" && len(s.config.To) > 0
}

// SubscribeToExtractionEvents mails a summary whenever a run reaches a
// terminal state. Send failures are logged, never surfaced to the run.
func (s *Service) SubscribeToExtractionEvents(eventService interfaces.EventService) {
	eventService.Subscribe(interfaces.EventExtractionProgress, func(ctx context.Context, event interfaces.Event) error {
		progress, ok := event.Payload.(models.ExtractionProgress)
		if !ok || !progress.IsTerminal() {
			return nil
		}
		if !s.IsConfigured() {
			return nil
		}
		if err := s.SendRunSummary(ctx, progress); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to send extraction summary mail")
		}
		return nil
	})
}

// SendRunSummary sends a plain text summary of a finished run
func (s *Service) SendRunSummary(ctx context.Context, progress models.ExtractionProgress) error {
	if !s.IsConfigured() {
		return fmt.Errorf("SMTP host not configured")
	}

	subject := fmt.Sprintf("Extraction completed (%d/%d endpoints)", progress.Completed, progress.Total)
	if progress.State == models.ExtractionStateError {
		subject = "Extraction failed"
	}

	var body strings.Builder
	body.WriteString(fmt.Sprintf("State: %s\r\n", progress.State))
	body.WriteString(fmt.Sprintf("Endpoints: %d/%d\r\n", progress.Completed, progress.Total))
	if progress.Message != "" {
		body.WriteString(fmt.Sprintf("Message: %s\r\n", progress.Message))
	}
	body.WriteString(fmt.Sprintf("Finished: %s\r\n", time.UnixMilli(progress.UpdatedAt).Format(time.RFC1123)))

	return s.sendPlain(subject, body.String())
}

// sendPlain builds a plain text message and hands it to SMTP
func (s *Service) sendPlain(subject, textBody string) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(s.config.To, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(textBody)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Auth is optional; local relays accept mail without it
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.send(addr, auth, s.config.From, s.config.To, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info().
		Str("subject", subject).
		Int("recipients", len(s.config.To)).
		Msg("Extraction summary mail sent")

	return nil
}
