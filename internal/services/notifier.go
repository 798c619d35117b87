package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/coralpointe/association-portal/internal/models"
	"github.com/coralpointe/association-portal/internal/utils"
)

const notifyTimeout = 15 * time.Second

// boardRoles are the account roles that receive escalation and approval
// notices.
var boardRoles = []string{"board_treasurer", "board_secretary", "board_member", "management"}

// Notifier is the notification collaborator boundary. The core supplies
// fact payloads and recipients; the collaborator owns channel formatting
// and delivery. Failures are logged by callers and never abort ledger
// mutations.
type Notifier interface {
	NotifyDelinquencyChange(ctx context.Context, unit *models.Unit, status models.DelinquencyStatus, notice models.NoticeType, recipients []*models.Owner) error
	NotifyInvoiceDecision(ctx context.Context, invoice *models.Invoice, outcome models.InvoiceStatus, recipients []*models.Owner) error
}

// notificationService delivers email via SendGrid and SMS via Twilio.
type notificationService struct {
	sendgridKey string
	fromEmail   string
	fromName    string
	twilioFrom  string
	twilio      *twilio.RestClient
	sandbox     bool
}

func NewNotificationService(sendgridKey, fromEmail, fromName string, twilioClient *twilio.RestClient, twilioFrom string, sandbox bool) Notifier {
	return &notificationService{
		sendgridKey: sendgridKey,
		fromEmail:   fromEmail,
		fromName:    fromName,
		twilio:      twilioClient,
		twilioFrom:  twilioFrom,
		sandbox:     sandbox,
	}
}

func (n *notificationService) NotifyDelinquencyChange(
	ctx context.Context,
	unit *models.Unit,
	status models.DelinquencyStatus,
	notice models.NoticeType,
	recipients []*models.Owner,
) error {
	subject := fmt.Sprintf("Unit %s delinquency update: %s", unit.UnitNumber, status)
	body := fmt.Sprintf(
		"Unit %s is now %s (total owed %s). Recommended action: %s.",
		unit.UnitNumber, status, unit.TotalOwed.StringFixed(2), notice,
	)
	smsBody := fmt.Sprintf("Unit %s: %s, owed %s, action %s", unit.UnitNumber, status, unit.TotalOwed.StringFixed(2), notice)
	return n.deliver(ctx, subject, body, smsBody, recipients)
}

func (n *notificationService) NotifyInvoiceDecision(
	ctx context.Context,
	invoice *models.Invoice,
	outcome models.InvoiceStatus,
	recipients []*models.Owner,
) error {
	subject := fmt.Sprintf("Invoice %s: %s", invoice.ID, outcome)
	body := fmt.Sprintf(
		"Invoice %s (%s, %s fund, %s) is now %s.",
		invoice.ID, invoice.Description, invoice.Fund, invoice.Amount.StringFixed(2), outcome,
	)
	return n.deliver(ctx, subject, body, "", recipients)
}

func (n *notificationService) deliver(ctx context.Context, subject, body, smsBody string, recipients []*models.Owner) error {
	if n.sandbox {
		utils.Logger.Infof("Sandbox notification (%d recipients): %s", len(recipients), subject)
		return nil
	}

	var firstErr error
	for _, rcpt := range recipients {
		if rcpt.Email != "" {
			if err := n.sendEmail(ctx, rcpt, subject, body); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if smsBody != "" && rcpt.Phone != "" && n.twilio != nil {
			if err := n.sendSMS(rcpt.Phone, smsBody); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *notificationService) sendEmail(ctx context.Context, rcpt *models.Owner, subject, body string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(rcpt.FullName, rcpt.Email)
	msg := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(n.sendgridKey)
	resp, err := client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %w", resp.StatusCode, utils.ErrExternalServiceFailure)
	}
	return nil
}

func (n *notificationService) sendSMS(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.twilioFrom)
	params.SetBody(body)
	if _, err := n.twilio.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}
