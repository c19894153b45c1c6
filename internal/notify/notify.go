// Package notify tells the operator how purchase runs went, by email and
// by (simulated) SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"purchase-automation/internal/telemetry"
	"purchase-automation/lib/validate"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("purchase_automation.notify")

const (
	report_email_send    = "notify.email-send"
	report_email_invalid = "notify.email-invalid"
	report_sms_invalid   = "notify.sms-invalid"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Options struct {
	Enabled bool `json:"enabled"`
	// Email is the recipient of email notifications.
	Email string `json:"email"`
	// SMS is the phone number receiving SMS notifications.
	SMS  string     `json:"sms"`
	Smtp SmtpConfig `json:"smtp"`
}

type Notifier struct {
	opts Options
	tel  telemetry.API
}

func NewNotifier(opts Options, tel telemetry.API) Notifier {
	return Notifier{
		opts: opts,
		tel:  telemetry.NewScopedAPI("notify", tel),
	}
}

func (n Notifier) Enabled() bool {
	return n.opts.Enabled
}

// SendEmail mails the message to the configured recipient. It returns
// false without an error when notifications are disabled or no recipient
// is configured.
func (n Notifier) SendEmail(ctx context.Context, subject, message string) (bool, error) {
	ctx, span := tracer.Start(ctx, "SendEmail")
	defer span.End()

	if !n.opts.Enabled {
		n.tel.ReportDebug("notifications disabled, email not sent")
		return false, nil
	}
	if n.opts.Email == "" {
		n.tel.ReportWarning(report_email_invalid, "no recipient configured")
		return false, nil
	}
	if !validate.Email(n.opts.Email) {
		err := fmt.Errorf("invalid recipient %q", n.opts.Email)
		n.tel.ReportWarning(report_email_invalid, err)
		return false, err
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Purchase Automation <%s>", n.opts.Smtp.EmailAddress)
	mail.To = []string{n.opts.Email}
	mail.Subject = subject
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", n.opts.Smtp.Server, n.opts.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.opts.Smtp.EmailAddress, n.opts.Smtp.Password, n.opts.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		n.tel.ReportBroken(report_email_send, addr, err)
		return false, err
	}

	n.tel.ReportDebug("email sent", "to", n.opts.Email)
	return true, nil
}

// SendSMS only logs the message, there is no SMS provider.
func (n Notifier) SendSMS(ctx context.Context, message string) (bool, error) {
	if !n.opts.Enabled {
		n.tel.ReportDebug("notifications disabled, sms not sent")
		return false, nil
	}
	if n.opts.SMS == "" {
		n.tel.ReportWarning(report_sms_invalid, "no phone number configured")
		return false, nil
	}
	if !validate.Phone(n.opts.SMS, "") {
		err := fmt.Errorf("invalid phone number %q", n.opts.SMS)
		n.tel.ReportWarning(report_sms_invalid, err)
		return false, err
	}
	n.tel.ReportDebug("simulated sms sent", "to", n.opts.SMS, "message", message)
	return true, nil
}

// Notify sends the message through every configured channel.
func (n Notifier) Notify(ctx context.Context, subject, message string) error {
	var errs []error
	if n.opts.Email != "" {
		_, err := n.SendEmail(ctx, subject, message)
		errs = append(errs, err)
	}
	if n.opts.SMS != "" {
		_, err := n.SendSMS(ctx, fmt.Sprintf("%s: %s", subject, message))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
