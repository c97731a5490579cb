package complaint

import (
	"context"

	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/metrics"
)

// Channel labels used in logs and metrics.
const (
	channelEmployeeEmail = "employee_email"
	channelClientEmail   = "client_email"
	channelClientSMS     = "client_sms"
)

// notifyEmployees broadcasts the complaint to every staff recipient configured
// for the reseller. The flag means "sent with a valid config"; a transport
// failure aborts the whole operation.
func (o *Operation) notifyEmployees(ctx context.Context, resellerID int64, data map[string]string) (bool, error) {
	from, err := o.settings.SenderEmail(ctx, resellerID)
	if err != nil {
		return false, collaboratorError("get sender email", err)
	}
	recipients, err := o.settings.RecipientEmails(ctx, resellerID, PermitGoodsReturn)
	if err != nil {
		return false, collaboratorError("get recipient emails", err)
	}

	if from == "" || len(recipients) == 0 {
		o.logger.Debug("employee notification skipped",
			zap.Int64("reseller_id", resellerID),
			zap.Bool("has_sender", from != ""),
			zap.Int("recipients", len(recipients)),
		)
		metrics.RecordChannelDelivery(channelEmployeeEmail, metrics.OutcomeSkipped)
		return false, nil
	}

	sent := false
	for _, to := range recipients {
		msg, err := o.renderEmail(ctx, from, to, keyEmployeeEmailSubject, keyEmployeeEmailBody, data, resellerID)
		if err != nil {
			return sent, err
		}

		err = o.transport.Send(ctx, []EmailMessage{msg}, Envelope{
			ResellerID: resellerID,
			Event:      EventChangeReturnStatus,
		})
		if err != nil {
			metrics.RecordChannelDelivery(channelEmployeeEmail, metrics.OutcomeFailed)
			return sent, collaboratorError("send employee email", err)
		}
		metrics.RecordChannelDelivery(channelEmployeeEmail, metrics.OutcomeSent)
		sent = true
	}

	return sent, nil
}

// notifyClient only fires for status changes that name a target status.
func (o *Operation) notifyClient(ctx context.Context, req NotificationRequest, client *Contractor, data map[string]string) (clientOutcome, error) {
	var out clientOutcome
	if req.NotificationType != TypeChange || req.Differences == nil || req.Differences.To == 0 {
		return out, nil
	}
	statusID := req.Differences.To

	emailSent, err := o.sendClientEmail(ctx, req.ResellerID, client, statusID, data)
	if err != nil {
		return out, err
	}
	out.emailSent = emailSent

	sms, err := o.sendClientSMS(ctx, req.ResellerID, client, statusID, data)
	if err != nil {
		return out, err
	}
	out.sms = sms

	return out, nil
}

func (o *Operation) sendClientEmail(ctx context.Context, resellerID int64, client *Contractor, statusID int64, data map[string]string) (bool, error) {
	from, err := o.settings.SenderEmail(ctx, resellerID)
	if err != nil {
		return false, collaboratorError("get sender email", err)
	}
	if from == "" || client.Email == "" {
		metrics.RecordChannelDelivery(channelClientEmail, metrics.OutcomeSkipped)
		return false, nil
	}

	msg, err := o.renderEmail(ctx, from, client.Email, keyClientEmailSubject, keyClientEmailBody, data, resellerID)
	if err != nil {
		return false, err
	}

	err = o.transport.Send(ctx, []EmailMessage{msg}, Envelope{
		ResellerID: resellerID,
		Event:      EventChangeReturnStatus,
		ClientID:   client.ID,
		StatusID:   statusID,
	})
	if err != nil {
		metrics.RecordChannelDelivery(channelClientEmail, metrics.OutcomeFailed)
		return false, collaboratorError("send client email", err)
	}

	metrics.RecordChannelDelivery(channelClientEmail, metrics.OutcomeSent)
	return true, nil
}

func (o *Operation) sendClientSMS(ctx context.Context, resellerID int64, client *Contractor, statusID int64, data map[string]string) (SMSOutcome, error) {
	var out SMSOutcome
	if client.Mobile == "" {
		metrics.RecordChannelDelivery(channelClientSMS, metrics.OutcomeSkipped)
		return out, nil
	}

	sent, message, err := o.sms.Send(ctx, SMSRequest{
		ResellerID: resellerID,
		ClientID:   client.ID,
		Event:      EventChangeReturnStatus,
		StatusID:   statusID,
		Data:       data,
	})
	if err != nil {
		metrics.RecordChannelDelivery(channelClientSMS, metrics.OutcomeFailed)
		return out, collaboratorError("send client sms", err)
	}

	if sent {
		out.IsSent = true
		metrics.RecordChannelDelivery(channelClientSMS, metrics.OutcomeSent)
	} else {
		metrics.RecordChannelDelivery(channelClientSMS, metrics.OutcomeRejected)
	}
	if message != "" {
		out.Message = message
	}

	return out, nil
}

func (o *Operation) renderEmail(ctx context.Context, from, to, subjectKey, bodyKey string, data map[string]string, resellerID int64) (EmailMessage, error) {
	subject, err := o.renderer.Render(ctx, subjectKey, data, resellerID)
	if err != nil {
		return EmailMessage{}, collaboratorError("render "+subjectKey, err)
	}
	body, err := o.renderer.Render(ctx, bodyKey, data, resellerID)
	if err != nil {
		return EmailMessage{}, collaboratorError("render "+bodyKey, err)
	}

	return EmailMessage{From: from, To: to, Subject: subject, Body: body}, nil
}
