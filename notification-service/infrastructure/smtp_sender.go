package infrastructure

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/telemetry"
)

var _ domain.Sender = (*SMTPSender)(nil)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers plain text emails through an SMTP relay
type SMTPSender struct {
	config   SMTPConfig
	auth     smtp.Auth
	sendMail sendMailFunc
	logger   *zap.Logger
}

func NewSMTPSender(config SMTPConfig, logger *zap.Logger) *SMTPSender {
	if config.From == "" {
		config.From = config.User
	}

	var auth smtp.Auth
	if config.User != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	return &SMTPSender{
		config:   config,
		auth:     auth,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

func (s *SMTPSender) Send(ctx context.Context, email domain.Email) error {
	ctx, span := telemetry.StartSpan(ctx, "smtp.send",
		trace.WithAttributes(attribute.String("to", email.To)),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	if err := s.sendMail(addr, s.auth, s.config.From, []string{email.To}, buildMessage(s.config.From, email)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, s.logger, "failed to send email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err),
		)
		return errors.Wrap(err, "failed to send mail")
	}

	logger.Info(ctx, s.logger, "email sent", zap.String("to", email.To), zap.String("subject", email.Subject))
	return nil
}

func buildMessage(from string, email domain.Email) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(email.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
