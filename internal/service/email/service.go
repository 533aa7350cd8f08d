package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/clinicore/consult-api/config"
	"github.com/clinicore/consult-api/pkg/logger"
)

// Sender delivers outbound notifications.
type Sender interface {
	SendConsultationSummary(to, patientName, summary string) error
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, logger *logger.Logger) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpSender) SendConsultationSummary(to, patientName, summary string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Consultation summary for %s", patientName))
	m.SetBody("text/plain", summary)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	s.logger.Info(fmt.Sprintf("consultation summary sent to %s", to))
	return nil
}
