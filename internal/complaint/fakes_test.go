package complaint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type fakeDirectory struct {
	sellers     map[int64]*Seller
	contractors map[int64]*Contractor
	employees   map[int64]*Employee
	err         error
	calls       int
}

func (f *fakeDirectory) Seller(ctx context.Context, id int64) (*Seller, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sellers[id], nil
}

func (f *fakeDirectory) Contractor(ctx context.Context, id int64) (*Contractor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.contractors[id], nil
}

func (f *fakeDirectory) Employee(ctx context.Context, id int64) (*Employee, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.employees[id], nil
}

type fakeStatuses map[int64]string

func (f fakeStatuses) StatusName(ctx context.Context, code int64) (string, error) {
	name, ok := f[code]
	if !ok {
		return "", fmt.Errorf("unknown status %d", code)
	}
	return name, nil
}

// fakeRenderer renders "key[K1=v1;K2=v2]" so tests can see what was passed.
type fakeRenderer struct {
	err error
}

func (f *fakeRenderer) Render(ctx context.Context, key string, fields map[string]string, resellerID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(fields) == 0 {
		return key, nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return key + "[" + strings.Join(parts, ";") + "]", nil
}

type fakeSettings struct {
	sender     string
	recipients []string
	err        error
}

func (f *fakeSettings) SenderEmail(ctx context.Context, resellerID int64) (string, error) {
	return f.sender, f.err
}

func (f *fakeSettings) RecipientEmails(ctx context.Context, resellerID int64, permit string) ([]string, error) {
	if permit != PermitGoodsReturn {
		return nil, fmt.Errorf("unexpected permit %q", permit)
	}
	return f.recipients, f.err
}

type sentBatch struct {
	messages []EmailMessage
	env      Envelope
}

type fakeTransport struct {
	batches []sentBatch
	// failAfter makes the n-th send (1-based) fail; 0 never fails.
	failAfter int
}

func (f *fakeTransport) Send(ctx context.Context, messages []EmailMessage, env Envelope) error {
	if f.failAfter > 0 && len(f.batches)+1 == f.failAfter {
		return fmt.Errorf("smtp relay down")
	}
	f.batches = append(f.batches, sentBatch{messages: messages, env: env})
	return nil
}

type fakeSMS struct {
	sent     bool
	message  string
	err      error
	requests []SMSRequest
}

func (f *fakeSMS) Send(ctx context.Context, req SMSRequest) (bool, string, error) {
	f.requests = append(f.requests, req)
	return f.sent, f.message, f.err
}

type fixture struct {
	directory *fakeDirectory
	statuses  fakeStatuses
	renderer  *fakeRenderer
	settings  *fakeSettings
	transport *fakeTransport
	sms       *fakeSMS
}

func newFixture() *fixture {
	return &fixture{
		directory: &fakeDirectory{
			sellers: map[int64]*Seller{7: {ID: 7, Name: "Acme", Locale: "en"}},
			contractors: map[int64]*Contractor{
				100: {ID: 100, SellerID: 7, Type: ContractorTypeCustomer, Name: "jdoe", FirstName: "John", LastName: "Doe", Email: "john@example.com", Mobile: "+15550100"},
				101: {ID: 101, SellerID: 7, Type: "supplier", Name: "Supplier"},
				102: {ID: 102, SellerID: 8, Type: ContractorTypeCustomer, Name: "Foreign"},
				103: {ID: 103, SellerID: 7, Type: ContractorTypeCustomer},
			},
			employees: map[int64]*Employee{
				200: {ID: 200, FirstName: "Ann", LastName: "Creator"},
				201: {ID: 201, FirstName: "Eve", LastName: "Expert"},
			},
		},
		statuses:  fakeStatuses{1: "Pending", 2: "Rejected"},
		renderer:  &fakeRenderer{},
		settings:  &fakeSettings{sender: "noreply@acme.test", recipients: []string{"a@acme.test", "b@acme.test"}},
		transport: &fakeTransport{},
		sms:       &fakeSMS{sent: true},
	}
}

func (f *fixture) operation() *Operation {
	return New(Dependencies{
		Directory: f.directory,
		Statuses:  f.statuses,
		Renderer:  f.renderer,
		Settings:  f.settings,
		Transport: f.transport,
		SMS:       f.sms,
	}, zap.NewNop())
}

func newRequest() NotificationRequest {
	return NotificationRequest{
		ResellerID:        7,
		NotificationType:  TypeNew,
		ClientID:          100,
		CreatorID:         200,
		ExpertID:          201,
		ComplaintID:       300,
		ComplaintNumber:   "C-300",
		ConsumptionID:     400,
		ConsumptionNumber: "R-400",
		AgreementNumber:   "AG-1",
		Date:              "2024-05-01",
	}
}

func changeRequest(from, to int64) NotificationRequest {
	req := newRequest()
	req.NotificationType = TypeChange
	req.Differences = &Differences{From: from, To: to}
	return req
}
