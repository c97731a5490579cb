package complaint

import "strings"

// NotificationType tells whether a return position was just created or changed status.
type NotificationType int

const (
	TypeNew    NotificationType = 1
	TypeChange NotificationType = 2
)

func (t NotificationType) String() string {
	switch t {
	case TypeNew:
		return "new"
	case TypeChange:
		return "change"
	default:
		return "unknown"
	}
}

// Event kinds and permits understood by the delivery collaborators.
const (
	EventChangeReturnStatus = "changeReturnStatus"
	PermitGoodsReturn       = "tsGoodsReturn"
)

// Contractor types
const (
	ContractorTypeCustomer = "customer"
)

// Differences is the from/to status transition of a CHANGE notification.
type Differences struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// NotificationRequest is the decoded "data" payload of the operation.
type NotificationRequest struct {
	ResellerID        int64            `json:"resellerId"`
	NotificationType  NotificationType `json:"notificationType"`
	ClientID          int64            `json:"clientId"`
	CreatorID         int64            `json:"creatorId"`
	ExpertID          int64            `json:"expertId"`
	ComplaintID       int64            `json:"complaintId"`
	ComplaintNumber   string           `json:"complaintNumber"`
	ConsumptionID     int64            `json:"consumptionId"`
	ConsumptionNumber string           `json:"consumptionNumber"`
	AgreementNumber   string           `json:"agreementNumber"`
	Date              string           `json:"date"`
	Differences       *Differences     `json:"differences,omitempty"`
}

// Seller is a reseller, the tenant every complaint is scoped to.
type Seller struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// Contractor is a counterparty of a reseller. Only customers receive notifications.
type Contractor struct {
	ID        int64  `json:"id"`
	SellerID  int64  `json:"seller_id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// FullName joins first and last name, skipping blanks.
func (c *Contractor) FullName() string {
	return joinName(c.FirstName, c.LastName)
}

// DisplayName falls back to the stored short name when no full name is known.
func (c *Contractor) DisplayName() string {
	if name := c.FullName(); name != "" {
		return name
	}
	return c.Name
}

// Employee is a reseller staff member (complaint creator or expert).
type Employee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (e *Employee) FullName() string {
	return joinName(e.FirstName, e.LastName)
}

func joinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// SMSOutcome reports the client SMS channel. IsSent and Message are independent.
type SMSOutcome struct {
	IsSent  bool   `json:"isSent"`
	Message string `json:"message"`
}

// NotificationResult is what the operation reports back to the caller.
type NotificationResult struct {
	EmployeeByEmail bool       `json:"notificationEmployeeByEmail"`
	ClientByEmail   bool       `json:"notificationClientByEmail"`
	ClientBySMS     SMSOutcome `json:"notificationClientBySms"`
}

// clientOutcome is the partial result produced by the client channel.
type clientOutcome struct {
	emailSent bool
	sms       SMSOutcome
}
