package mail

import (
	"context"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/amendment-service/internal/config"
)

// SMTPSender sends mail through an SMTP relay with a bounded timeout.
type SMTPSender struct {
	client  *gomail.Client
	from    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSMTPSender builds a sender from configuration. A disabled or
// misconfigured mail setup yields a NopSender so callers never branch.
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		return NopSender{}
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout()),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		logger.Warn("smtp client misconfigured; outbound mail disabled", zap.Error(err))
		return NopSender{}
	}
	return &SMTPSender{
		client:  client,
		from:    cfg.From,
		timeout: cfg.Timeout(),
		logger:  logger,
	}
}

// Enabled reports true; disabled configurations never construct an SMTPSender.
func (s *SMTPSender) Enabled() bool { return true }

// Send delivers the message, bounding the attempt so a provider outage
// cannot stall the request path.
func (s *SMTPSender) Send(ctx context.Context, msg Message) bool {
	recipients := make([]string, 0, len(msg.Recipients))
	for _, addr := range msg.Recipients {
		if addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return false
	}

	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		s.logger.Warn("invalid mail sender address", zap.String("from", s.from), zap.Error(err))
		return false
	}
	if err := m.To(recipients...); err != nil {
		s.logger.Warn("invalid mail recipient", zap.Strings("to", recipients), zap.Error(err))
		return false
	}
	m.Subject(msg.Subject)
	if msg.TextBody != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	} else {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.DialAndSendWithContext(sendCtx, m); err != nil {
		s.logger.Warn("mail send failed",
			zap.Strings("to", recipients),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return false
	}
	return true
}
