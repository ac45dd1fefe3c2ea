package service

import (
	"context"
	"fmt"

	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/phone"
	"comms-service/internal/provider"

	"github.com/useinsider/go-pkg/inslogger"
)

// Provider is the slice of a provider adapter the dispatcher needs.
type Provider interface {
	Send(ctx context.Context, destination string, payload provider.Payload) (*provider.Response, error)
	Sender() string
}

// Sender is the send-and-record contract consumed by the bulk engine, the
// reminder sweep and the webhook auto-reply.
type Sender interface {
	SendAndRecord(ctx context.Context, channel model.Channel, recipient string, payload provider.Payload, accountNumber string) (*provider.Response, error)
}

// Dispatcher composes a provider call with a history write. Recording is
// structural: every send attempt produces exactly one record, success or
// failure. A recorder failure during a successful send is logged and
// swallowed so delivery wins over bookkeeping.
type Dispatcher struct {
	providers map[model.Channel]Provider
	comms     cpostgres.CommunicationService
	logger    inslogger.Interface
}

func NewDispatcher(providers map[model.Channel]Provider, comms cpostgres.CommunicationService, logger inslogger.Interface) *Dispatcher {
	return &Dispatcher{
		providers: providers,
		comms:     comms,
		logger:    logger,
	}
}

func (d *Dispatcher) SendAndRecord(ctx context.Context, channel model.Channel, recipient string, payload provider.Payload, accountNumber string) (*provider.Response, error) {
	p, ok := d.providers[channel]
	if !ok {
		return nil, fmt.Errorf("no provider configured for channel %q", channel)
	}

	destination := recipient
	if channel != model.ChannelEmail {
		destination = phone.Normalize(recipient)
	}

	resp, sendErr := p.Send(ctx, destination, payload)

	rec := model.CommunicationRecord{
		Channel:       channel,
		Content:       recordContent(payload),
		Recipient:     destination,
		Sender:        p.Sender(),
		AccountNumber: accountNumber,
	}
	if sendErr != nil {
		rec.Status = model.StatusFailed
	} else {
		rec.Status = model.StatusSent
		rec.MessageID = resp.MessageID
	}

	if _, recErr := d.comms.Record(ctx, rec); recErr != nil {
		d.logger.Errorf("failed to record %s communication to %s (status=%s): %v", channel, destination, rec.Status, recErr)
	}

	if sendErr != nil {
		return nil, sendErr
	}
	return resp, nil
}

// RecordInbound appends a received-message record, used by the webhook flow.
func (d *Dispatcher) RecordInbound(ctx context.Context, rec model.CommunicationRecord) error {
	rec.Status = model.StatusReceived
	_, err := d.comms.Record(ctx, rec)
	return err
}

// recordContent flattens a payload into the stored content column. Email
// history keeps subject and body together.
func recordContent(payload provider.Payload) string {
	if payload.TemplateName != "" {
		return fmt.Sprintf("template:%s %v", payload.TemplateName, payload.TemplateParams)
	}
	if payload.Subject != "" {
		return payload.Subject + ": " + payload.Text
	}
	return payload.Text
}
