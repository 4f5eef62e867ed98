package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

// SMTPSender delivers alerts to an SMTP relay
type SMTPSender struct {
	address  string
	from     string
	to       []string
	auth     sasl.Client
	hostname string
	logger   *zap.Logger
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg config.NotifyConfig, logger *zap.Logger) (*SMTPSender, error) {
	if cfg.SMTPAddress == "" {
		return nil, errors.New("notify.smtp_address is required")
	}
	if cfg.From == "" || len(cfg.To) == 0 {
		return nil, errors.New("notify.from and notify.to are required")
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	s := &SMTPSender{
		address:  cfg.SMTPAddress,
		from:     cfg.From,
		to:       cfg.To,
		hostname: hostname,
		logger:   logger,
	}
	if cfg.Username != "" {
		s.auth = sasl.NewPlainClient("", cfg.Username, cfg.Password)
	}

	logger.Info("Initialized SMTP alert sender",
		zap.String("address", cfg.SMTPAddress),
		zap.Strings("recipients", cfg.To))

	return s, nil
}

// Name returns the sender name
func (s *SMTPSender) Name() string {
	return "smtp"
}

// Send delivers one alert to the configured relay
func (s *SMTPSender) Send(ctx context.Context, alert *Alert) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.address, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(sendTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(s.hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(s.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range s.to {
		if err := c.Rcpt(recipient, nil); err != nil {
			s.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(s.message(alert)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send alert data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		s.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

func (s *SMTPSender) message(alert *Alert) []byte {
	var msg bytes.Buffer

	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", alert.Subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "X-Threat-Level: %s\r\n", alert.Level)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	msg.WriteString(alert.Text)

	return msg.Bytes()
}
