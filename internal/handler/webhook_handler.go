package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/phone"
	"comms-service/internal/provider"
	"comms-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/useinsider/go-pkg/inslogger"
	"github.com/useinsider/go-pkg/insredis"
)

const seenKeyPrefix = "whatsapp:seen:"

// AutoReplier produces an automatic response to an inbound message body.
type AutoReplier interface {
	Reply(content string) string
}

// InboundRecorder appends a received-message record to the history.
type InboundRecorder interface {
	RecordInbound(ctx context.Context, rec model.CommunicationRecord) error
}

// WebhookHandler receives Meta-format WhatsApp webhook events: the GET
// subscription challenge, inbound messages and delivery status updates.
type WebhookHandler struct {
	verifyToken string
	comms       cpostgres.CommunicationService
	customers   cpostgres.CustomerService
	recorder    InboundRecorder
	sender      service.Sender
	matcher     AutoReplier
	logger      inslogger.Interface
	redisClient insredis.RedisInterface
}

func NewWebhookHandler(
	verifyToken string,
	comms cpostgres.CommunicationService,
	customers cpostgres.CustomerService,
	recorder InboundRecorder,
	sender service.Sender,
	matcher AutoReplier,
	logger inslogger.Interface,
	redisClient insredis.RedisInterface,
) *WebhookHandler {

	return &WebhookHandler{
		verifyToken: verifyToken,
		comms:       comms,
		customers:   customers,
		recorder:    recorder,
		sender:      sender,
		matcher:     matcher,
		logger:      logger,
		redisClient: redisClient,
	}
}

// Verify answers Meta's webhook subscription challenge.
// @Summary Webhook verification
// @Tags webhook
// @Produce plain
// @Param hub.mode query string true "Must be subscribe"
// @Param hub.verify_token query string true "Shared secret"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {string} string
// @Router /api/whatsapp/webhook [get]
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Log("webhook verification successful")
		c.String(http.StatusOK, challenge)
		return
	}

	h.logger.Warnf("webhook verification failed: mode=%q", mode)
	c.String(http.StatusForbidden, "verification failed")
}

// Receive acknowledges a webhook delivery immediately and processes it in
// the background. Processing failures after the 200 are logged only; the
// provider must never see an error that would trigger a retry storm.
// @Summary Webhook event delivery
// @Tags webhook
// @Accept json
// @Produce plain
// @Success 200 {string} string
// @Router /api/whatsapp/webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload provider.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warnf("webhook: invalid JSON: %v", err)
		c.String(http.StatusOK, "EVENT_RECEIVED")
		return
	}

	c.String(http.StatusOK, "EVENT_RECEIVED")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.ProcessPayload(ctx, payload)
	}()
}

// ProcessPayload walks the entry/changes structure and handles inbound
// messages and status updates. All errors are swallowed into logs.
func (h *WebhookHandler) ProcessPayload(ctx context.Context, payload provider.WebhookPayload) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			contactNames := make(map[string]string)
			for _, contact := range change.Value.Contacts {
				contactNames[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				if h.markSeen(msg.ID) {
					h.logger.Logf("webhook: skipping duplicate message %s", msg.ID)
					continue
				}
				h.processInbound(ctx, change.Value.Metadata, msg, contactNames[msg.From])
			}

			for _, status := range change.Value.Statuses {
				h.processStatus(ctx, status)
			}
		}
	}
}

func (h *WebhookHandler) processInbound(ctx context.Context, meta provider.WebhookMetadata, msg provider.InboundMessage, contactName string) {
	sender := phone.Normalize(msg.From)
	content := extractContent(msg)

	rec := model.CommunicationRecord{
		Channel:   model.ChannelWhatsApp,
		Content:   content,
		Recipient: meta.DisplayPhoneNumber,
		Sender:    sender,
		MessageID: msg.ID,
	}

	var customer model.Customer
	if h.customers != nil {
		found, err := h.customers.FindByPhone(ctx, sender)
		if err == nil {
			customer = found
			rec.AccountNumber = customer.AccountNumber
		} else if err != cpostgres.ErrCustomerNotFound {
			h.logger.Warnf("webhook: customer lookup failed for %s: %v", sender, err)
		}
	}

	if err := h.recorder.RecordInbound(ctx, rec); err != nil {
		h.logger.Errorf("webhook: failed to record inbound message %s: %v", msg.ID, err)
	}

	if h.matcher == nil {
		return
	}

	name := customer.Name
	if name == "" {
		name = contactName
	}

	reply := h.matcher.Reply(content)
	reply = model.RenderTemplate(reply, model.TemplateData{
		CustomerName:  name,
		AccountNumber: customer.AccountNumber,
	})

	if _, err := h.sender.SendAndRecord(ctx, model.ChannelWhatsApp, msg.From, provider.Payload{Text: reply}, customer.AccountNumber); err != nil {
		h.logger.Errorf("webhook: failed to send auto-reply to %s: %v", sender, err)
	}
}

func (h *WebhookHandler) processStatus(ctx context.Context, status provider.StatusUpdate) {
	mapped, ok := mapStatus(status.Status)
	if !ok {
		h.logger.Warnf("webhook: unknown status %q for message %s", status.Status, status.ID)
		return
	}

	updated, err := h.comms.UpdateStatusByMessageID(ctx, status.ID, mapped)
	if err != nil {
		h.logger.Errorf("webhook: status update failed for message %s: %v", status.ID, err)
		return
	}
	if !updated {
		// Status for a message we never recorded; dropped on purpose.
		h.logger.Logf("webhook: no record for message %s, status %s dropped", status.ID, mapped)
	}
}

// markSeen claims a message ID in Redis so replayed webhook deliveries are
// processed once. The claim is a single SetNX, so concurrent replays of the
// same delivery race on one atomic write. Without Redis every delivery is
// processed.
func (h *WebhookHandler) markSeen(messageID string) bool {
	if h.redisClient == nil || messageID == "" {
		return false
	}

	key := seenKeyPrefix + messageID
	claimed, err := h.redisClient.SetNX(key, "1", 24*time.Hour).Result()
	if err != nil {
		h.logger.Warnf("webhook: failed to mark message %s seen: %v", messageID, err)
		return false
	}
	return !claimed
}

func mapStatus(raw string) (model.Status, bool) {
	switch raw {
	case "sent":
		return model.StatusSent, true
	case "delivered":
		return model.StatusDelivered, true
	case "failed":
		return model.StatusFailed, true
	case "read":
		return model.StatusRead, true
	}
	return "", false
}

// extractContent flattens a message of any supported type into the stored
// content string. Media without a caption falls back to a placeholder.
func extractContent(msg provider.InboundMessage) string {
	switch msg.Type {
	case "text":
		return msg.Body()
	case "image":
		return mediaContent("Image", msg.Image)
	case "document":
		if msg.Document != nil && msg.Document.Filename != "" {
			return "Document received: " + msg.Document.Filename
		}
		return mediaContent("Document", msg.Document)
	case "audio":
		return mediaContent("Audio", msg.Audio)
	case "video":
		return mediaContent("Video", msg.Video)
	default:
		return fmt.Sprintf("Unsupported message type: %s", msg.Type)
	}
}

func mediaContent(kind string, media *provider.MediaContent) string {
	if media == nil {
		return kind + " received"
	}
	if media.Caption != "" {
		return media.Caption
	}
	if media.ID != "" {
		return fmt.Sprintf("%s received (%s)", kind, media.ID)
	}
	return kind + " received"
}
