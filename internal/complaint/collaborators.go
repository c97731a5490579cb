package complaint

import "context"

// Directory resolves parties by id. Lookups return (nil, nil) when the
// record does not exist; a non-nil error means the store itself failed.
type Directory interface {
	Seller(ctx context.Context, id int64) (*Seller, error)
	Contractor(ctx context.Context, id int64) (*Contractor, error)
	Employee(ctx context.Context, id int64) (*Employee, error)
}

type StatusNamer interface {
	StatusName(ctx context.Context, code int64) (string, error)
}

// Renderer renders a localized template for a reseller. fields may be nil.
type Renderer interface {
	Render(ctx context.Context, key string, fields map[string]string, resellerID int64) (string, error)
}

// Settings exposes per-reseller delivery configuration.
type Settings interface {
	SenderEmail(ctx context.Context, resellerID int64) (string, error)
	RecipientEmails(ctx context.Context, resellerID int64, permit string) ([]string, error)
}

// EmailMessage is a single rendered email.
type EmailMessage struct {
	From    string `json:"emailFrom"`
	To      string `json:"emailTo"`
	Subject string `json:"subject"`
	Body    string `json:"message"`
}

// Envelope tags a batch of emails for the transport. ClientID and StatusID
// are zero for staff notifications.
type Envelope struct {
	ResellerID int64
	Event      string
	ClientID   int64
	StatusID   int64
}

type EmailTransport interface {
	Send(ctx context.Context, messages []EmailMessage, env Envelope) error
}

// SMSRequest carries everything the SMS notifier needs to reach a client.
type SMSRequest struct {
	ResellerID int64
	ClientID   int64
	Event      string
	StatusID   int64
	Data       map[string]string
}

// SMSNotifier delivers a client SMS. sent and message are reported
// independently; err is reserved for infrastructure failures.
type SMSNotifier interface {
	Send(ctx context.Context, req SMSRequest) (sent bool, message string, err error)
}
