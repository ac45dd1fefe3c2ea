package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/useinsider/go-pkg/inslogger"
)

// Mock dependencies
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Send(ctx context.Context, destination string, payload provider.Payload) (*provider.Response, error) {
	args := m.Called(ctx, destination, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Response), args.Error(1)
}

func (m *MockProvider) Sender() string {
	return m.Called().String(0)
}

type MockCommunicationService struct {
	mock.Mock
}

func (m *MockCommunicationService) Record(ctx context.Context, rec model.CommunicationRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommunicationService) History(ctx context.Context, limit int, cursor int64) ([]model.CommunicationRecord, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]model.CommunicationRecord), args.Error(1)
}

func (m *MockCommunicationService) UpdateStatusByMessageID(ctx context.Context, messageID string, status model.Status) (bool, error) {
	args := m.Called(ctx, messageID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommunicationService) CountsSince(ctx context.Context, channel model.Channel, since time.Time) (cpostgres.AnalyticsCounts, error) {
	args := m.Called(ctx, channel, since)
	return args.Get(0).(cpostgres.AnalyticsCounts), args.Error(1)
}

func newTestDispatcher(p Provider, comms cpostgres.CommunicationService) *Dispatcher {
	return NewDispatcher(
		map[model.Channel]Provider{
			model.ChannelSMS:   p,
			model.ChannelEmail: p,
		},
		comms,
		inslogger.NewLogger(inslogger.Debug),
	)
}

func TestSendAndRecordSuccess(t *testing.T) {
	mockProvider := new(MockProvider)
	mockComms := new(MockCommunicationService)

	mockProvider.On("Sender").Return("ConsumerPortal")
	mockProvider.On("Send", mock.Anything, "27821234567", mock.Anything).
		Return(&provider.Response{MessageID: "msg-1", Status: "PENDING"}, nil)
	mockComms.On("Record", mock.Anything, mock.MatchedBy(func(rec model.CommunicationRecord) bool {
		return rec.Status == model.StatusSent && rec.MessageID == "msg-1" && rec.Recipient == "27821234567"
	})).Return(int64(1), nil)

	d := newTestDispatcher(mockProvider, mockComms)

	resp, err := d.SendAndRecord(context.Background(), model.ChannelSMS, "0821234567", provider.Payload{Text: "hello"}, "ACC-001")

	assert.NoError(t, err)
	assert.Equal(t, "msg-1", resp.MessageID)
	mockComms.AssertExpectations(t)
}

func TestSendAndRecordFailureStillRecords(t *testing.T) {
	mockProvider := new(MockProvider)
	mockComms := new(MockCommunicationService)

	mockProvider.On("Sender").Return("ConsumerPortal")
	mockProvider.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down"))
	mockComms.On("Record", mock.Anything, mock.MatchedBy(func(rec model.CommunicationRecord) bool {
		return rec.Status == model.StatusFailed && rec.MessageID == ""
	})).Return(int64(2), nil)

	d := newTestDispatcher(mockProvider, mockComms)

	resp, err := d.SendAndRecord(context.Background(), model.ChannelSMS, "0821234567", provider.Payload{Text: "hello"}, "")

	assert.Error(t, err)
	assert.Nil(t, resp)
	mockComms.AssertCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestSendAndRecordSwallowsRecorderError(t *testing.T) {
	mockProvider := new(MockProvider)
	mockComms := new(MockCommunicationService)

	mockProvider.On("Sender").Return("ConsumerPortal")
	mockProvider.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Response{MessageID: "msg-3"}, nil)
	mockComms.On("Record", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	d := newTestDispatcher(mockProvider, mockComms)

	resp, err := d.SendAndRecord(context.Background(), model.ChannelSMS, "0821234567", provider.Payload{Text: "hello"}, "")

	assert.NoError(t, err)
	assert.Equal(t, "msg-3", resp.MessageID)
}

func TestSendAndRecordEmailNotNormalized(t *testing.T) {
	mockProvider := new(MockProvider)
	mockComms := new(MockCommunicationService)

	mockProvider.On("Sender").Return("portal@example.gov.za")
	mockProvider.On("Send", mock.Anything, "thabo@example.com", mock.Anything).
		Return(&provider.Response{MessageID: "msg-4"}, nil)
	mockComms.On("Record", mock.Anything, mock.Anything).Return(int64(4), nil)

	d := newTestDispatcher(mockProvider, mockComms)

	_, err := d.SendAndRecord(context.Background(), model.ChannelEmail, "thabo@example.com", provider.Payload{Text: "body", Subject: "Hello"}, "")

	assert.NoError(t, err)
	mockProvider.AssertCalled(t, "Send", mock.Anything, "thabo@example.com", mock.Anything)
}

func TestSendAndRecordUnknownChannel(t *testing.T) {
	mockComms := new(MockCommunicationService)
	d := NewDispatcher(map[model.Channel]Provider{}, mockComms, inslogger.NewLogger(inslogger.Debug))

	_, err := d.SendAndRecord(context.Background(), model.ChannelWhatsApp, "0821234567", provider.Payload{Text: "x"}, "")

	assert.Error(t, err)
	mockComms.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestRecordInbound(t *testing.T) {
	mockComms := new(MockCommunicationService)
	mockComms.On("Record", mock.Anything, mock.MatchedBy(func(rec model.CommunicationRecord) bool {
		return rec.Status == model.StatusReceived
	})).Return(int64(5), nil)

	d := NewDispatcher(nil, mockComms, inslogger.NewLogger(inslogger.Debug))

	err := d.RecordInbound(context.Background(), model.CommunicationRecord{
		Channel: model.ChannelWhatsApp,
		Content: "hi",
		Sender:  "27821234567",
	})

	assert.NoError(t, err)
	mockComms.AssertExpectations(t)
}

func TestRecordContentFlattening(t *testing.T) {
	assert.Equal(t, "hello", recordContent(provider.Payload{Text: "hello"}))
	assert.Equal(t, "Subject: body", recordContent(provider.Payload{Text: "body", Subject: "Subject"}))
	assert.Equal(t, "template:payment_reminder [Thabo ACC-001]", recordContent(provider.Payload{
		TemplateName:   "payment_reminder",
		TemplateParams: []string{"Thabo", "ACC-001"},
	}))
}
