package sns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalithlochan/returns-notifier/internal/circuitbreaker"
	"github.com/lalithlochan/returns-notifier/internal/complaint"
)

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	inputs      []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

type stubContacts struct {
	contractors map[int64]*complaint.Contractor
	err         error
}

func (s stubContacts) Contractor(ctx context.Context, id int64) (*complaint.Contractor, error) {
	return s.contractors[id], s.err
}

type stubRenderer struct {
	err  error
	keys []string
}

func (s *stubRenderer) Render(ctx context.Context, key string, fields map[string]string, resellerID int64) (string, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return "", s.err
	}
	return "Return " + fields["CONSUMPTION_NUMBER"] + " updated", nil
}

type fixture struct {
	sns      *MockSNSService
	contacts stubContacts
	renderer *stubRenderer
	breaker  *circuitbreaker.CircuitBreaker
}

func newFixture() *fixture {
	return &fixture{
		sns: &MockSNSService{},
		contacts: stubContacts{contractors: map[int64]*complaint.Contractor{
			100: {ID: 100, Mobile: "+15550100"},
			101: {ID: 101},
		}},
		renderer: &stubRenderer{},
		breaker:  circuitbreaker.New(circuitbreaker.Config{Name: "sns", MaxFailures: 1, RecoveryTimeout: time.Minute}, zap.NewNop()),
	}
}

func (f *fixture) notifier() *Notifier {
	return NewWithClient(f.sns, f.contacts, f.renderer, f.breaker, zap.NewNop())
}

func smsRequest(clientID int64) complaint.SMSRequest {
	return complaint.SMSRequest{
		ResellerID: 7,
		ClientID:   clientID,
		Event:      complaint.EventChangeReturnStatus,
		StatusID:   2,
		Data:       map[string]string{"CONSUMPTION_NUMBER": "R-400"},
	}
}

func TestNotifier_Publishes(t *testing.T) {
	f := newFixture()

	sent, message, err := f.notifier().Send(context.Background(), smsRequest(100))

	require.NoError(t, err)
	assert.True(t, sent)
	assert.Empty(t, message)
	require.Len(t, f.sns.inputs, 1)
	assert.Equal(t, "+15550100", aws.ToString(f.sns.inputs[0].PhoneNumber))
	assert.Equal(t, "Return R-400 updated", aws.ToString(f.sns.inputs[0].Message))
	assert.Equal(t, []string{"complaintClientSmsBody"}, f.renderer.keys)
}

func TestNotifier_NoMobile(t *testing.T) {
	for name, clientID := range map[string]int64{"empty mobile": 101, "unknown client": 999} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()

			sent, message, err := f.notifier().Send(context.Background(), smsRequest(clientID))

			require.NoError(t, err)
			assert.False(t, sent)
			assert.Equal(t, "client has no mobile number", message)
			assert.Empty(t, f.sns.inputs)
		})
	}
}

func TestNotifier_PublishFailureIsReportedNotReturned(t *testing.T) {
	f := newFixture()
	f.sns.PublishFunc = func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
		return nil, errors.New("InvalidParameter: PhoneNumber")
	}
	n := f.notifier()

	sent, message, err := n.Send(context.Background(), smsRequest(100))
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Contains(t, message, "InvalidParameter")

	sent, message, err = n.Send(context.Background(), smsRequest(100))
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Contains(t, message, "circuit breaker is open")
	assert.Len(t, f.sns.inputs, 1)
}

func TestNotifier_InfrastructureErrors(t *testing.T) {
	t.Run("directory", func(t *testing.T) {
		f := newFixture()
		f.contacts.err = errors.New("db down")

		_, _, err := f.notifier().Send(context.Background(), smsRequest(100))
		assert.ErrorIs(t, err, f.contacts.err)
	})

	t.Run("renderer", func(t *testing.T) {
		f := newFixture()
		f.renderer.err = errors.New("catalog broken")

		_, _, err := f.notifier().Send(context.Background(), smsRequest(100))
		assert.ErrorIs(t, err, f.renderer.err)
		assert.Empty(t, f.sns.inputs)
	})
}
