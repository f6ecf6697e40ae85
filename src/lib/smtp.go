package lib

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/wneessen/go-mail"
)

type SendMailInput struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	Body     string
	Html     bool
}

// MailSender delivers one rendered message.
type MailSender interface {
	Send(ctx context.Context, input *SendMailInput) error
}

var ErrNoRecipient = errors.New("no recipient")

type SMTPSender struct {
	host string
	port int
	user string
	pass string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPSender{host: cfg.SMTPHost, port: port, user: cfg.SMTPUsername, pass: cfg.SMTPPassword}
}

func (s *SMTPSender) client() (*mail.Client, error) {
	c, err := mail.NewClient(
		s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.user),
		mail.WithPassword(s.pass),
	)
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

func (s *SMTPSender) Send(ctx context.Context, input *SendMailInput) error {
	msg, err := NewMailMessage(input)
	if err != nil {
		return err
	}
	c, err := s.client()
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, msg)
}

func NewMailMessage(input *SendMailInput) (*mail.Msg, error) {
	if len(input.To) == 0 {
		return nil, ErrNoRecipient
	}
	msg := mail.NewMsg()
	if err := msg.FromFormat(input.FromName, input.From); err != nil {
		log.Printf("Failed to set From address: %s\n", err.Error())
	}
	if err := msg.To(input.To...); err != nil {
		return nil, err
	}
	if input.ReplyTo != "" {
		if err := msg.ReplyTo(input.ReplyTo); err != nil {
			log.Printf("Failed to set Reply-To address: %s\n", err.Error())
		}
	}
	msg.Subject(input.Subject)
	if input.Html {
		msg.SetBodyString(mail.TypeTextHTML, input.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, input.Body)
	}
	return msg, nil
}

// LogSender only logs messages. It is used when no mail transport is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, input *SendMailInput) error {
	if len(input.To) == 0 {
		return ErrNoRecipient
	}
	log.Printf("[mail] to=%s subject=%q\n", strings.Join(input.To, ","), input.Subject)
	return nil
}
