package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	awslib "github.com/santupramanik23/my-guide-backend/src/lib/aws"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// Dispatcher renders booking notifications and hands them to a MailSender.
type Dispatcher struct {
	sender      lib.MailSender
	from        string
	fromName    string
	frontendURL string
	currency    string
}

func NewDispatcher(sender lib.MailSender, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		from:        cfg.Mail.From,
		fromName:    cfg.Mail.FromName,
		frontendURL: cfg.FrontendURL,
		currency:    cfg.Razorpay.Currency,
	}
}

// NewSender picks the transport named by MAIL_DRIVER. Anything unusable falls back to logging.
func NewSender(cfg config.MailConfig) lib.MailSender {
	switch cfg.Driver {
	case "smtp":
		if cfg.SMTPHost != "" {
			return lib.NewSMTPSender(cfg)
		}
		log.Println("[mail] SMTP_HOST is not set. Falling back to log sender")
	case "ses":
		if c := awslib.GetSESClient(); c != nil {
			return awslib.NewSESSender(c)
		}
		log.Println("[mail] SES client unavailable. Falling back to log sender")
	}
	return lib.LogSender{}
}

type templateData struct {
	Name         string
	ItemTitle    string
	Location     string
	Date         string
	Time         string
	BookingID    string
	Status       string
	Participants int
	Total        string
	PaymentID    string
	Reason       string
	BookingURL   string
}

var subjects = map[types.NotificationKind]string{
	types.NOTIFY_CONFIRMATION:         "Booking Confirmed - %s",
	types.NOTIFY_CANCELLATION:         "Booking Cancelled - %s",
	types.NOTIFY_PAYMENT_CONFIRMATION: "Payment Received - %s",
	types.NOTIFY_REMINDER:             "Reminder: Your booking tomorrow - %s",
}

// Render returns the subject and HTML body for kind.
func (d *Dispatcher) Render(kind types.NotificationKind, booking *models.Booking, to types.Person, item *types.BookableItem) (string, string, error) {
	subject, ok := subjects[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind: %s", kind)
	}
	data := templateData{
		Name:         to.Name,
		ItemTitle:    "your booking",
		Date:         booking.Date.Format("Monday, 02 January 2006"),
		Time:         booking.Time,
		BookingID:    booking.ID.String(),
		Status:       string(booking.Status),
		Participants: booking.Participants,
		Total:        fmt.Sprintf("%s %.2f", d.currency, booking.TotalAmount),
		BookingURL:   lib.BookingURL(d.frontendURL, booking),
	}
	if data.Name == "" {
		data.Name = "Traveller"
	}
	if item != nil && item.Title != "" {
		data.ItemTitle = item.Title
		data.Location = item.Location
		if data.Location == "" {
			data.Location = item.City
		}
	}
	if booking.PaymentID != nil {
		data.PaymentID = *booking.PaymentID
	}
	if booking.CancellationReason != nil {
		data.Reason = *booking.CancellationReason
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(kind), data); err != nil {
		return "", "", err
	}
	return fmt.Sprintf(subject, data.ItemTitle), body.String(), nil
}

func (d *Dispatcher) Notify(ctx context.Context, kind types.NotificationKind, booking *models.Booking, to types.Person, item *types.BookableItem) error {
	if to.Email == "" {
		return lib.ErrNoRecipient
	}
	subject, body, err := d.Render(kind, booking, to, item)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, &lib.SendMailInput{
		From:     d.from,
		FromName: d.fromName,
		To:       []string{to.Email},
		Subject:  subject,
		Body:     body,
		Html:     true,
	})
}
