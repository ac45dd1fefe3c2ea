package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"comms-service/internal/config"
	"comms-service/internal/cpostgres"
	"comms-service/internal/model"
	"comms-service/internal/provider"
	"comms-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/useinsider/go-pkg/inslogger"
	"github.com/useinsider/go-pkg/insredis"
)

const historyCacheKey = "communications:history"

// WhatsAppAdmin is the management slice of the WhatsApp adapter used by the
// templates and settings endpoints.
type WhatsAppAdmin interface {
	ListTemplates(ctx context.Context) ([]provider.ProviderTemplate, error)
	Reconfigure(cfg config.WhatsAppConfig)
}

type MessageHandler struct {
	comms       cpostgres.CommunicationService
	templates   cpostgres.TemplateService
	reminders   cpostgres.ReminderService
	settings    cpostgres.SettingsService
	admins      cpostgres.AdminService
	dispatcher  service.Sender
	bulk        *service.BulkSender
	scheduler   service.ReminderScheduler
	whatsapp    WhatsAppAdmin
	logger      inslogger.Interface
	redisClient insredis.RedisInterface
	bulkCfg     config.BulkConfig
}

func NewMessageHandler(
	comms cpostgres.CommunicationService,
	templates cpostgres.TemplateService,
	reminders cpostgres.ReminderService,
	settings cpostgres.SettingsService,
	admins cpostgres.AdminService,
	dispatcher service.Sender,
	bulk *service.BulkSender,
	scheduler service.ReminderScheduler,
	whatsapp WhatsAppAdmin,
	logger inslogger.Interface,
	redisClient insredis.RedisInterface,
	bulkCfg config.BulkConfig,
) *MessageHandler {

	return &MessageHandler{
		comms:       comms,
		templates:   templates,
		reminders:   reminders,
		settings:    settings,
		admins:      admins,
		dispatcher:  dispatcher,
		bulk:        bulk,
		scheduler:   scheduler,
		whatsapp:    whatsapp,
		logger:      logger,
		redisClient: redisClient,
		bulkCfg:     bulkCfg,
	}
}

// SendMessage sends one message on one channel and records it.
// @Summary Send a single message
// @Description Send a message to one recipient over sms, email or whatsapp
// @Tags messages
// @Accept json
// @Produce json
// @Param message body model.SendMessageRequest true "Message payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/whatsapp-messages/send [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req model.SendMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid request payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	if !req.Channel.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel"})
		return
	}

	payload := provider.Payload{Text: req.Content, Subject: req.Subject}
	resp, err := h.dispatcher.SendAndRecord(c.Request.Context(), req.Channel, req.Recipient, payload, req.AccountNumber)
	if err != nil {
		h.logger.Errorf("Failed to send %s message: %v", req.Channel, err)
		c.JSON(providerStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.invalidateHistoryCache()

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": resp.MessageID,
	})
}

// History returns the communication log, newest first.
// @Summary Get communication history
// @Description Retrieve the communication log with cursor pagination
// @Tags messages
// @Produce json
// @Param limit query int false "Page size"
// @Param cursor query int false "Last seen record id"
// @Success 200 {object} map[string]interface{}
// @Router /api/whatsapp-messages/history [get]
func (h *MessageHandler) History(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	cursor := int64(parseIntQuery(c, "cursor", 0))

	// Only the first page is worth caching; cursors fan out too much.
	if cursor == 0 && h.redisClient != nil {
		cached, err := h.redisClient.Get(historyCacheKey).Result()
		if err == nil && cached != "" {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		} else if err != nil && err.Error() != "redis: nil" {
			h.logger.Warnf("Redis error while reading history cache: %v", err)
		}
	}

	records, err := h.comms.History(c.Request.Context(), limit, cursor)
	if err != nil {
		h.logger.Errorf("Error retrieving history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	var nextCursor int64
	if len(records) > 0 {
		nextCursor = records[len(records)-1].ID
	}

	body := gin.H{"items": records, "nextCursor": nextCursor}
	if cursor == 0 && h.redisClient != nil {
		if encoded, err := json.Marshal(body); err == nil {
			if err := h.redisClient.Set(historyCacheKey, encoded, 5*time.Minute).Err(); err != nil {
				h.logger.Warnf("Failed to cache history: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, body)
}

// BulkWhatsApp fans one message out to many WhatsApp recipients.
// @Summary Bulk WhatsApp send
// @Description Send a text or template message to a list of recipients
// @Tags bulk
// @Accept json
// @Produce json
// @Param request body model.BulkMessageRequest true "Bulk payload"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/whatsapp/bulk-message [post]
func (h *MessageHandler) BulkWhatsApp(c *gin.Context) {
	var req model.BulkMessageRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipients must not be empty"})
		return
	}
	if req.MessageType != "text" && req.MessageType != "template" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messageType must be text or template"})
		return
	}

	bulkReq := service.BulkRequest{
		Channel:    model.ChannelWhatsApp,
		Recipients: req.Recipients,
		Content:    req.Content,
		IsTemplate: req.MessageType == "template",
		Params:     req.TemplateParams,
		BatchSize:  h.bulkCfg.EmailBatchSize,
	}
	if req.MessageType == "template" && req.TemplateName != "" {
		bulkReq.TemplateName = req.TemplateName
	}

	result := h.bulk.Send(c.Request.Context(), bulkReq)
	h.invalidateHistoryCache()

	c.JSON(http.StatusOK, gin.H{
		"success": result.TotalSent > 0,
		"result":  result,
	})
}

// BulkSMS fans one message out to many SMS recipients.
// @Summary Bulk SMS send
// @Tags bulk
// @Accept json
// @Produce json
// @Param request body model.BulkSMSRequest true "Bulk payload"
// @Success 200 {object} service.BulkResult
// @Failure 400 {object} map[string]interface{}
// @Router /api/sms/bulk [post]
func (h *MessageHandler) BulkSMS(c *gin.Context) {
	var req model.BulkSMSRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipients must not be empty"})
		return
	}

	result := h.bulk.Send(c.Request.Context(), service.BulkRequest{
		Channel:    model.ChannelSMS,
		Recipients: req.Recipients,
		Content:    req.Message,
		IsTemplate: req.IsTemplate,
		Params:     req.Params,
		BatchSize:  h.bulkCfg.SMSBatchSize,
	})
	h.invalidateHistoryCache()

	c.JSON(http.StatusOK, gin.H{
		"success": result.TotalSent > 0,
		"result":  result,
	})
}

// SendEmails fans one email out to many recipients in batches of ten.
// @Summary Bulk email send
// @Tags bulk
// @Accept json
// @Produce json
// @Param request body model.SendEmailsRequest true "Bulk payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/send-emails [post]
func (h *MessageHandler) SendEmails(c *gin.Context) {
	var req model.SendEmailsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if len(req.Recipients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipients must not be empty"})
		return
	}

	result := h.bulk.Send(c.Request.Context(), service.BulkRequest{
		Channel:    model.ChannelEmail,
		Recipients: req.Recipients,
		Content:    req.Content,
		Subject:    req.Subject,
		IsTemplate: req.TemplateType != "",
		BatchSize:  h.bulkCfg.EmailBatchSize,
	})
	h.invalidateHistoryCache()

	c.JSON(http.StatusOK, gin.H{
		"success": result.TotalSent > 0,
		"results": append(result.Successful, result.Failed...),
		"summary": gin.H{
			"totalRecipients": result.TotalRecipients,
			"totalSent":       result.TotalSent,
			"totalFailed":     result.TotalFailed,
			"totalInvalid":    result.TotalInvalid,
		},
	})
}

// Analytics aggregates WhatsApp traffic over a trailing window.
// @Summary WhatsApp analytics
// @Tags analytics
// @Produce json
// @Param days query int false "Trailing window in days"
// @Success 200 {object} cpostgres.AnalyticsCounts
// @Router /api/whatsapp/analytics [get]
func (h *MessageHandler) Analytics(c *gin.Context) {
	days := parseIntQuery(c, "days", 7)
	if days <= 0 {
		days = 7
	}

	since := time.Now().AddDate(0, 0, -days)
	counts, err := h.comms.CountsSince(c.Request.Context(), model.ChannelWhatsApp, since)
	if err != nil {
		h.logger.Errorf("Error computing analytics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":   days,
		"counts": counts,
	})
}

// Templates merges provider-approved templates with the local template table.
// @Summary List message templates
// @Tags templates
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/whatsapp/templates [get]
func (h *MessageHandler) Templates(c *gin.Context) {
	local, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Error listing local templates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list templates"})
		return
	}

	// Provider listing is best-effort; local templates still render a page.
	var remote []provider.ProviderTemplate
	if h.whatsapp != nil {
		remote, err = h.whatsapp.ListTemplates(c.Request.Context())
		if err != nil {
			h.logger.Warnf("Failed to list provider templates: %v", err)
			remote = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": remote,
		"local":    local,
	})
}

// CreateTemplate stores a reusable local template.
// @Summary Create a message template
// @Tags templates
// @Accept json
// @Produce json
// @Param template body model.CreateTemplateRequest true "Template"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/whatsapp/templates [post]
func (h *MessageHandler) CreateTemplate(c *gin.Context) {
	var req model.CreateTemplateRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	id, err := h.templates.Create(c.Request.Context(), model.MessageTemplate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.logger.Errorf("Failed to create template: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// UpdateSettings persists WhatsApp credentials and applies them live.
// @Summary Update WhatsApp credentials
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body model.SettingsRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/whatsapp-messages/settings [post]
func (h *MessageHandler) UpdateSettings(c *gin.Context) {
	var req model.SettingsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	cfg := config.WhatsAppConfig{
		AccessToken:   req.AccessToken,
		PhoneNumberID: req.PhoneNumberID,
		BusinessID:    req.BusinessID,
	}

	if err := h.settings.SaveWhatsAppCredentials(c.Request.Context(), cfg); err != nil {
		h.logger.Errorf("Failed to save settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	if h.whatsapp != nil {
		h.whatsapp.Reconfigure(cfg)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}

// CreateReminder stores a future-dated payment reminder.
// @Summary Schedule a payment reminder
// @Tags reminders
// @Accept json
// @Produce json
// @Param reminder body model.ReminderRequest true "Reminder"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/reminders [post]
func (h *MessageHandler) CreateReminder(c *gin.Context) {
	var req model.ReminderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if !req.Channel.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel"})
		return
	}
	if !req.ScheduledAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduledAt must be in the future"})
		return
	}

	id, err := h.reminders.Create(c.Request.Context(), model.ReminderSchedule{
		Message:       req.Message,
		Channel:       req.Channel,
		ScheduledAt:   req.ScheduledAt,
		AccountNumber: req.AccountNumber,
		CustomerName:  req.CustomerName,
		ContactInfo:   req.ContactInfo,
		Amount:        req.Amount,
	})
	if err != nil {
		h.logger.Errorf("Failed to create reminder: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListReminders returns scheduled reminders, newest first.
// @Summary List payment reminders
// @Tags reminders
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /api/reminders [get]
func (h *MessageHandler) ListReminders(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)

	reminders, err := h.reminders.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("Failed to list reminders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reminders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": reminders})
}

// StartScheduler starts the reminder sweep.
// @Summary Start the reminder scheduler
// @Tags scheduler
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/scheduler/start [post]
func (h *MessageHandler) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		h.logger.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start scheduler",
		})
		return
	}
	if h.redisClient != nil {
		if err := h.redisClient.Set("scheduler:state", "running", 0).Err(); err != nil {
			h.logger.Warnf("Failed to cache scheduler state: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler started successfully",
		"status":  "running",
	})
}

// StopScheduler stops the reminder sweep.
// @Summary Stop the reminder scheduler
// @Tags scheduler
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/scheduler/stop [post]
func (h *MessageHandler) StopScheduler(c *gin.Context) {
	if err := h.scheduler.Stop(); err != nil {
		h.logger.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to stop scheduler",
		})
		return
	}

	if h.redisClient != nil {
		if err := h.redisClient.Del("scheduler:state").Err(); err != nil {
			h.logger.Warnf("Failed to remove scheduler state from cache: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scheduler stopped successfully",
		"status":  "stopped",
	})
}

// DeleteAdminUser removes a portal admin user.
// @Summary Delete an admin user
// @Tags admin
// @Accept json
// @Produce json
// @Param request body model.DeleteAdminUserRequest true "User id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /deleteAdminUser [post]
func (h *MessageHandler) DeleteAdminUser(c *gin.Context) {
	var req model.DeleteAdminUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	deleted, err := h.admins.DeleteUser(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Errorf("Failed to delete admin user %s: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *MessageHandler) invalidateHistoryCache() {
	if h.redisClient == nil {
		return
	}
	if err := h.redisClient.Del(historyCacheKey).Err(); err != nil {
		h.logger.Warnf("Failed to invalidate history cache: %v", err)
	}
}

// providerStatus passes a provider's own status code through when the
// failure carried one, and falls back to 500.
func providerStatus(err error) int {
	var perr *provider.Error
	if errors.As(err, &perr) && perr.StatusCode >= http.StatusBadRequest {
		return perr.StatusCode
	}
	return http.StatusInternalServerError
}

func parseIntQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
