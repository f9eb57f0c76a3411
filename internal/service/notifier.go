package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"carrental/internal/config"
	"carrental/internal/db"
	"carrental/internal/entities"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type EmailSender func(ctx context.Context, toEmail, toName, subject, plainText, html string) error

type SMSSender func(ctx context.Context, toNumber, body string) error

// Notifier tells customers about their bookings by email and SMS. Either
// channel may be nil, in which case it is skipped.
type Notifier struct {
	email EmailSender
	sms   SMSSender
	log   *zerolog.Logger
}

func NewNotifier(email EmailSender, sms SMSSender, logger *zerolog.Logger) *Notifier {
	return &Notifier{email: email, sms: sms, log: logger}
}

// NewNotifierFromConfig enables the channels whose credentials are configured.
func NewNotifierFromConfig(cfg *config.Config, logger *zerolog.Logger) *Notifier {
	var (
		email EmailSender
		sms   SMSSender
	)
	if cfg.EmailEnabled() {
		email = SendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}
	if cfg.SMSEnabled() {
		sms = TwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	}
	return NewNotifier(email, sms, logger)
}

func SendGridSender(apiKey, fromEmail, fromName string) EmailSender {
	client := sendgrid.NewSendClient(apiKey)
	from := mail.NewEmail(fromName, fromEmail)
	return func(ctx context.Context, toEmail, toName, subject, plainText, html string) error {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail(toName, toEmail), plainText, html)
		response, err := client.SendWithContext(ctx, message)
		if err != nil {
			return fmt.Errorf("sendgrid request failed: %w", err)
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
		}
		return nil
	}
}

func TwilioSender(accountSID, authToken, fromNumber string) SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return func(_ context.Context, toNumber, body string) error {
		params := &openapi.CreateMessageParams{}
		params.SetTo(toNumber)
		params.SetFrom(fromNumber)
		params.SetBody(body)
		if _, err := client.Api.CreateMessage(params); err != nil {
			return fmt.Errorf("twilio request failed: %w", err)
		}
		return nil
	}
}

var bookingEmailTemplate = template.Must(template.New("booking").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Hello {{.UserName}},</h2>
  <p>Your booking #{{.BookingID}} is <strong>{{.Status}}</strong>.</p>
  <table cellpadding="4">
    <tr><td>Car</td><td>{{.CarName}} ({{.LicensePlate}})</td></tr>
    <tr><td>Pick-up</td><td>{{.StartDateFormatted}}</td></tr>
    <tr><td>Return</td><td>{{.EndDateFormatted}}</td></tr>
    <tr><td>Total</td><td>{{.TotalPrice}}</td></tr>
  </table>
  <p style="font-size: 12px; color: #6b7280;">&copy; {{.CurrentYear}} CarRental. All rights reserved.</p>
</body>
</html>`))

// statusWording is how a booking state reads in a message.
func statusWording(s db.BookingStatus) string {
	switch s {
	case db.BookingPending:
		return "received"
	case db.BookingActive:
		return "confirmed"
	case db.BookingCancelled:
		return "cancelled"
	case db.BookingCompleted:
		return "completed"
	}
	return string(s)
}

func bookingEmailData(user *db.User, car *db.Car, b *db.Booking) entities.BookingEmailData {
	return entities.BookingEmailData{
		UserName:           strings.TrimSpace(user.FirstName + " " + user.LastName),
		BookingID:          b.ID,
		CarName:            fmt.Sprintf("%s %s %d", car.Brand, car.Model, car.Year),
		LicensePlate:       car.LicensePlate,
		StartDateFormatted: b.StartDate.Format("Mon, 02 Jan 2006"),
		EndDateFormatted:   b.EndDate.Format("Mon, 02 Jan 2006"),
		TotalPrice:         fmt.Sprintf("$%.2f", b.TotalPrice),
		Status:             statusWording(b.Status),
		CurrentYear:        time.Now().Year(),
	}
}

// BookingChanged sends the booking's current state to its customer. Failures
// are logged and never returned; the booking itself already succeeded.
func (n *Notifier) BookingChanged(ctx context.Context, user *db.User, car *db.Car, b *db.Booking) {
	if n == nil || user == nil || car == nil {
		return
	}
	data := bookingEmailData(user, car, b)

	if n.email != nil && user.Email != "" {
		subject := fmt.Sprintf("Your CarRental booking #%d is %s", data.BookingID, data.Status)
		plain := fmt.Sprintf(
			"Hello %s,\n\nYour booking #%d is %s.\n\n"+
				"Car: %s (Plate: %s)\n"+
				"Pick-up: %s\n"+
				"Return: %s\n"+
				"Total: %s\n\n"+
				"Thank you for choosing CarRental.",
			data.UserName, data.BookingID, data.Status, data.CarName, data.LicensePlate,
			data.StartDateFormatted, data.EndDateFormatted, data.TotalPrice,
		)
		var html bytes.Buffer
		if err := bookingEmailTemplate.Execute(&html, data); err != nil {
			n.log.Error().Err(err).Int64("booking_id", b.ID).Msg("rendering booking email")
		}
		if err := n.email(ctx, user.Email, data.UserName, subject, plain, html.String()); err != nil {
			n.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("booking email not sent")
		}
	}

	if n.sms != nil && user.Phone != "" {
		body := fmt.Sprintf("CarRental: booking #%d for %s is %s. Pick-up %s.",
			data.BookingID, data.CarName, data.Status, b.StartDate.Format("02/01"))
		if err := n.sms(ctx, user.Phone, body); err != nil {
			n.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("booking SMS not sent")
		}
	}
}
