package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/phone"
	"comms-service/internal/provider"

	"github.com/useinsider/go-pkg/inslogger"
)

// BulkOutcome is one recipient's result inside a bulk send.
type BulkOutcome struct {
	Recipient     string `json:"recipient"`
	AccountNumber string `json:"accountNumber,omitempty"`
	MessageID     string `json:"messageId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// BulkResult aggregates a bulk send. Recipients failing input validation
// are excluded from TotalRecipients and reported under TotalInvalid, so
// TotalSent + TotalFailed == TotalRecipients always holds.
type BulkResult struct {
	TotalRecipients int           `json:"totalRecipients"`
	TotalSent       int           `json:"totalSent"`
	TotalFailed     int           `json:"totalFailed"`
	TotalInvalid    int           `json:"totalInvalid"`
	Successful      []BulkOutcome `json:"successfulMessages"`
	Failed          []BulkOutcome `json:"failedMessages"`
	Invalid         []string      `json:"invalidRecipients,omitempty"`
}

// BulkRequest describes one fan-out operation.
type BulkRequest struct {
	Channel      model.Channel
	Recipients   []model.Recipient
	Content      string
	Subject      string
	IsTemplate   bool
	TemplateName string
	Params       map[string]string
	BatchSize    int
}

// BulkSender batches recipients, issues intra-batch sends concurrently and
// sleeps a fixed delay between batches to respect provider rate limits.
type BulkSender struct {
	sender     Sender
	customers  cpostgres.CustomerService
	logger     inslogger.Interface
	batchDelay time.Duration
}

func NewBulkSender(sender Sender, customers cpostgres.CustomerService, logger inslogger.Interface, batchDelay time.Duration) *BulkSender {
	return &BulkSender{
		sender:     sender,
		customers:  customers,
		logger:     logger,
		batchDelay: batchDelay,
	}
}

func (b *BulkSender) Send(ctx context.Context, req BulkRequest) *BulkResult {
	result := &BulkResult{}

	valid := make([]model.Recipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		resolved, ok := b.resolve(ctx, req.Channel, r)
		if !ok {
			result.Invalid = append(result.Invalid, recipientLabel(r))
			continue
		}
		valid = append(valid, resolved)
	}
	result.TotalInvalid = len(result.Invalid)
	result.TotalRecipients = len(valid)

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	for start := 0; start < len(valid); start += batchSize {
		end := start + batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]

		if start > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(b.batchDelay):
			}
		}

		// Cancellation before a batch, including during the delay above,
		// fails every recipient not yet attempted.
		if err := ctx.Err(); err != nil {
			for _, r := range valid[start:] {
				result.Failed = append(result.Failed, BulkOutcome{
					Recipient:     recipientLabel(r),
					AccountNumber: r.AccountNumber,
					Error:         err.Error(),
				})
			}
			break
		}

		for _, outcome := range b.sendBatch(ctx, req, batch) {
			if outcome.Error != "" {
				result.Failed = append(result.Failed, outcome)
			} else {
				result.Successful = append(result.Successful, outcome)
			}
		}
	}

	result.TotalSent = len(result.Successful)
	result.TotalFailed = len(result.Failed)
	return result
}

// sendBatch fans a batch out concurrently and reduces the collected
// outcomes. No counters are shared across goroutines.
func (b *BulkSender) sendBatch(ctx context.Context, req BulkRequest, batch []model.Recipient) []BulkOutcome {
	outcomes := make([]BulkOutcome, len(batch))
	var wg sync.WaitGroup

	for i, r := range batch {
		wg.Add(1)
		go func(i int, r model.Recipient) {
			defer wg.Done()
			outcomes[i] = b.sendOne(ctx, req, r)
		}(i, r)
	}
	wg.Wait()

	return outcomes
}

func (b *BulkSender) sendOne(ctx context.Context, req BulkRequest, r model.Recipient) BulkOutcome {
	outcome := BulkOutcome{
		Recipient:     recipientLabel(r),
		AccountNumber: r.AccountNumber,
	}

	payload := provider.Payload{Subject: req.Subject}
	if req.TemplateName != "" {
		payload.TemplateName = req.TemplateName
		payload.TemplateParams = []string{r.Name, r.AccountNumber}
	} else if req.IsTemplate {
		payload.Text = model.RenderTemplate(req.Content, model.TemplateData{
			CustomerName:      r.Name,
			AccountNumber:     r.AccountNumber,
			OutstandingAmount: req.Params["outstandingAmount"],
			Month:             req.Params["currentMonth"],
		})
	} else {
		payload.Text = req.Content
	}

	resp, err := b.sender.SendAndRecord(ctx, req.Channel, recipientDestination(req.Channel, r), payload, r.AccountNumber)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.MessageID = resp.MessageID
	return outcome
}

// resolve canonicalizes one recipient for the requested channel. A phone
// recipient without a usable number falls back to the customer on file for
// its account number.
func (b *BulkSender) resolve(ctx context.Context, channel model.Channel, r model.Recipient) (model.Recipient, bool) {
	if channel == model.ChannelEmail {
		if strings.Contains(r.Email, "@") {
			return r, true
		}
		return r, false
	}

	if phone.Usable(r.PhoneNumber) {
		return r, true
	}

	if r.AccountNumber != "" && b.customers != nil {
		customer, err := b.customers.FindByAccountNumber(ctx, r.AccountNumber)
		if err == nil && phone.Usable(customer.Phone) {
			r.PhoneNumber = customer.Phone
			if r.Name == "" {
				r.Name = customer.Name
			}
			return r, true
		}
	}

	return r, false
}

func recipientDestination(channel model.Channel, r model.Recipient) string {
	if channel == model.ChannelEmail {
		return r.Email
	}
	return r.PhoneNumber
}

func recipientLabel(r model.Recipient) string {
	if r.PhoneNumber != "" {
		return r.PhoneNumber
	}
	if r.Email != "" {
		return r.Email
	}
	return r.AccountNumber
}
