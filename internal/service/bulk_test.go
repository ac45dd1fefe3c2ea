package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"comms-service/internal/model"
	"comms-service/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/useinsider/go-pkg/inslogger"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendAndRecord(ctx context.Context, channel model.Channel, recipient string, payload provider.Payload, accountNumber string) (*provider.Response, error) {
	args := m.Called(ctx, channel, recipient, payload, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Response), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) FindByPhone(ctx context.Context, phone string) (model.Customer, error) {
	args := m.Called(ctx, phone)
	return args.Get(0).(model.Customer), args.Error(1)
}

func (m *MockCustomerService) FindByAccountNumber(ctx context.Context, accountNumber string) (model.Customer, error) {
	args := m.Called(ctx, accountNumber)
	return args.Get(0).(model.Customer), args.Error(1)
}

func newTestBulkSender(sender Sender, customers *MockCustomerService) *BulkSender {
	if customers == nil {
		return NewBulkSender(sender, nil, inslogger.NewLogger(inslogger.Debug), 0)
	}
	return NewBulkSender(sender, customers, inslogger.NewLogger(inslogger.Debug), 0)
}

func TestBulkSendAllSucceed(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := newTestBulkSender(mockSender, nil)

	result := b.Send(context.Background(), BulkRequest{
		Channel: model.ChannelSMS,
		Recipients: []model.Recipient{
			{PhoneNumber: "0821234567"},
			{PhoneNumber: "0827654321"},
			{PhoneNumber: "0829999999"},
		},
		Content:   "hello",
		BatchSize: 2,
	})

	assert.Equal(t, 3, result.TotalRecipients)
	assert.Equal(t, 3, result.TotalSent)
	assert.Equal(t, 0, result.TotalFailed)
	assert.Equal(t, 0, result.TotalInvalid)
	assert.Equal(t, result.TotalRecipients, result.TotalSent+result.TotalFailed)
	mockSender.AssertNumberOfCalls(t, "SendAndRecord", 3)
}

func TestBulkSendMixedOutcomes(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, "0821234567", mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "ok-1"}, nil)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, "0827654321", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider rejected"))

	b := newTestBulkSender(mockSender, nil)

	result := b.Send(context.Background(), BulkRequest{
		Channel: model.ChannelSMS,
		Recipients: []model.Recipient{
			{PhoneNumber: "0821234567"},
			{PhoneNumber: "0827654321"},
		},
		Content:   "hello",
		BatchSize: 10,
	})

	assert.Equal(t, 2, result.TotalRecipients)
	assert.Equal(t, 1, result.TotalSent)
	assert.Equal(t, 1, result.TotalFailed)
	assert.Len(t, result.Successful, 1)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, "ok-1", result.Successful[0].MessageID)
	assert.Equal(t, "provider rejected", result.Failed[0].Error)
}

func TestBulkSendInvalidRecipientsExcluded(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := newTestBulkSender(mockSender, nil)

	result := b.Send(context.Background(), BulkRequest{
		Channel: model.ChannelSMS,
		Recipients: []model.Recipient{
			{PhoneNumber: "0821234567"},
			{PhoneNumber: "123"},
		},
		Content:   "hello",
		BatchSize: 10,
	})

	// Unusable numbers never count against totalRecipients.
	assert.Equal(t, 1, result.TotalRecipients)
	assert.Equal(t, 1, result.TotalSent)
	assert.Equal(t, 1, result.TotalInvalid)
	assert.Equal(t, []string{"123"}, result.Invalid)
	mockSender.AssertNumberOfCalls(t, "SendAndRecord", 1)
}

func TestBulkSendAccountNumberFallback(t *testing.T) {
	mockSender := new(MockSender)
	mockCustomers := new(MockCustomerService)

	mockCustomers.On("FindByAccountNumber", mock.Anything, "ACC-001").
		Return(model.Customer{AccountNumber: "ACC-001", Name: "Thabo", Phone: "0821234567"}, nil)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, "0821234567", mock.Anything, "ACC-001").
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := newTestBulkSender(mockSender, mockCustomers)

	result := b.Send(context.Background(), BulkRequest{
		Channel:    model.ChannelSMS,
		Recipients: []model.Recipient{{AccountNumber: "ACC-001"}},
		Content:    "hello",
		BatchSize:  10,
	})

	assert.Equal(t, 1, result.TotalSent)
	mockCustomers.AssertCalled(t, "FindByAccountNumber", mock.Anything, "ACC-001")
}

func TestBulkSendEmailValidation(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelEmail, "thabo@example.com", mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := newTestBulkSender(mockSender, nil)

	result := b.Send(context.Background(), BulkRequest{
		Channel: model.ChannelEmail,
		Recipients: []model.Recipient{
			{Email: "thabo@example.com"},
			{Email: "not-an-email"},
		},
		Content:   "body",
		Subject:   "subject",
		BatchSize: 10,
	})

	assert.Equal(t, 1, result.TotalSent)
	assert.Equal(t, 1, result.TotalInvalid)
}

func TestBulkSendTemplateRendering(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, "0821234567",
		mock.MatchedBy(func(p provider.Payload) bool {
			return p.Text == "Dear Thabo, you owe R 500.00"
		}), "ACC-001").
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := newTestBulkSender(mockSender, nil)

	result := b.Send(context.Background(), BulkRequest{
		Channel:    model.ChannelSMS,
		Recipients: []model.Recipient{{PhoneNumber: "0821234567", Name: "Thabo", AccountNumber: "ACC-001"}},
		Content:    "Dear {customerName}, you owe {outstandingAmount}",
		IsTemplate: true,
		Params:     map[string]string{"outstandingAmount": "R 500.00"},
		BatchSize:  10,
	})

	assert.Equal(t, 1, result.TotalSent)
	mockSender.AssertExpectations(t)
}

func TestBulkSendCancelledDuringBatchDelay(t *testing.T) {
	mockSender := new(MockSender)
	mockSender.On("SendAndRecord", mock.Anything, model.ChannelSMS, mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "msg"}, nil)

	b := NewBulkSender(mockSender, nil, inslogger.NewLogger(inslogger.Debug), 500*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	result := b.Send(ctx, BulkRequest{
		Channel: model.ChannelSMS,
		Recipients: []model.Recipient{
			{PhoneNumber: "0821234567"},
			{PhoneNumber: "0827654321"},
			{PhoneNumber: "0829999999"},
		},
		Content:   "hello",
		BatchSize: 1,
	})

	// Recipients not yet attempted when the delay is interrupted must show
	// up as failures, never vanish from the accounting.
	assert.Equal(t, 3, result.TotalRecipients)
	assert.Equal(t, 1, result.TotalSent)
	assert.Equal(t, 2, result.TotalFailed)
	assert.Equal(t, result.TotalRecipients, result.TotalSent+result.TotalFailed)
	mockSender.AssertNumberOfCalls(t, "SendAndRecord", 1)
}

func TestBulkSendCancelledContext(t *testing.T) {
	mockSender := new(MockSender)

	b := newTestBulkSender(mockSender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := b.Send(ctx, BulkRequest{
		Channel: model.ChannelSMS,
		Recipients: []model.Recipient{
			{PhoneNumber: "0821234567"},
			{PhoneNumber: "0827654321"},
		},
		Content:   "hello",
		BatchSize: 1,
	})

	assert.Equal(t, 2, result.TotalFailed)
	assert.Equal(t, 0, result.TotalSent)
	mockSender.AssertNotCalled(t, "SendAndRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
