// Package complaint notifies staff and clients about goods-return complaints.
//
// Operation.Do runs a strictly linear pipeline:
//
//	validate input -> resolve parties -> describe differences ->
//	assemble template data -> validate template data ->
//	notify employees -> notify client
//
// Everything before dispatch is all-or-nothing. Each channel reports its
// own partial outcome and Do merges them into the NotificationResult.
package complaint

import (
	"context"

	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/metrics"
)

// Dependencies are the collaborators an Operation needs.
type Dependencies struct {
	Directory Directory
	Statuses  StatusNamer
	Renderer  Renderer
	Settings  Settings
	Transport EmailTransport
	SMS       SMSNotifier
}

// Operation is stateless between calls and safe for concurrent use.
type Operation struct {
	directory Directory
	statuses  StatusNamer
	renderer  Renderer
	settings  Settings
	transport EmailTransport
	sms       SMSNotifier
	logger    *zap.Logger
}

func New(deps Dependencies, logger *zap.Logger) *Operation {
	return &Operation{
		directory: deps.Directory,
		statuses:  deps.Statuses,
		renderer:  deps.Renderer,
		settings:  deps.Settings,
		transport: deps.Transport,
		sms:       deps.SMS,
		logger:    logger,
	}
}

// Do executes the notification operation. On error the result is zero and
// the error is a *Error describing the first failure.
func (o *Operation) Do(ctx context.Context, req NotificationRequest) (NotificationResult, error) {
	result, err := o.do(ctx, req)

	fields := []zap.Field{
		zap.Int64("reseller_id", req.ResellerID),
		zap.String("notification_type", req.NotificationType.String()),
		zap.Int64("complaint_id", req.ComplaintID),
	}
	if err != nil {
		kind := KindOf(err)
		metrics.RecordOperation(string(kind))
		o.logger.Warn("return notification failed",
			append(fields, zap.String("kind", string(kind)), zap.Error(err))...,
		)
		return NotificationResult{}, err
	}

	metrics.RecordOperation("ok")
	o.logger.Info("return notification processed",
		append(fields,
			zap.Bool("employee_email", result.EmployeeByEmail),
			zap.Bool("client_email", result.ClientByEmail),
			zap.Bool("client_sms", result.ClientBySMS.IsSent),
			zap.String("client_sms_message", result.ClientBySMS.Message),
		)...,
	)
	return result, nil
}

func (o *Operation) do(ctx context.Context, req NotificationRequest) (NotificationResult, error) {
	var result NotificationResult

	if req.ResellerID == 0 {
		return result, inputError(msgEmptyReseller)
	}
	if req.NotificationType == 0 {
		return result, inputError(msgEmptyNotificationType)
	}

	if _, err := o.resolveReseller(ctx, req.ResellerID); err != nil {
		return result, err
	}
	client, err := o.resolveClient(ctx, req.ClientID, req.ResellerID)
	if err != nil {
		return result, err
	}
	creator, err := o.resolveEmployee(ctx, req.CreatorID, "creator")
	if err != nil {
		return result, err
	}
	expert, err := o.resolveEmployee(ctx, req.ExpertID, "expert")
	if err != nil {
		return result, err
	}

	differences, err := o.differencesMessage(ctx, req.NotificationType, req.Differences, req.ResellerID)
	if err != nil {
		return result, err
	}

	data := assembleTemplateData(req, client, creator, expert, differences)
	if err := data.Validate(); err != nil {
		return result, err
	}
	fields := data.Map()

	employeeSent, err := o.notifyEmployees(ctx, req.ResellerID, fields)
	if err != nil {
		return result, err
	}
	result.EmployeeByEmail = employeeSent

	clientRes, err := o.notifyClient(ctx, req, client, fields)
	if err != nil {
		return result, err
	}
	result.ClientByEmail = clientRes.emailSent
	result.ClientBySMS = clientRes.sms

	return result, nil
}
