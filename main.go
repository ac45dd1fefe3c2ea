package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comms-service/internal/config"
	"comms-service/internal/cpostgres"
	"comms-service/internal/handler"
	"comms-service/internal/model"
	"comms-service/internal/pkg/gpostgresql"
	"comms-service/internal/provider"
	"comms-service/internal/service"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/useinsider/go-pkg/inslogger"
	"github.com/useinsider/go-pkg/insredis"
)

// @title Consumer Portal Communications API
// @version 1.0
// @description Multi-channel communication dispatch and status tracking for the municipal consumer portal

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	logger := inslogger.NewLogger(inslogger.Debug)

	cfg := config.ReadEnvironment(ctx, &config.AppEnv)

	if err := gpostgresql.ApplyMigrations(&cfg.Database, logger); err != nil {
		log.Fatalf("Error applying migrations: %v", err)
	}

	pool, err := gpostgresql.NewDBConnection(ctx, &cfg.Database, logger)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer gpostgresql.Close(ctx, pool, logger)

	var redisClient insredis.RedisInterface
	rdb := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
	})
	if err := rdb.Ping().Err(); err != nil {
		logger.Warnf("Redis unavailable, running without cache: %v", err)
	} else {
		redisClient = rdb
	}

	comms := cpostgres.NewCommunicationService(pool)
	customers := cpostgres.NewCustomerService(pool)
	templates := cpostgres.NewTemplateService(pool)
	reminders := cpostgres.NewReminderService(pool)
	intents := cpostgres.NewIntentService(pool)
	settings := cpostgres.NewSettingsService(pool)
	admins := cpostgres.NewAdminService(pool)

	whatsapp := provider.NewWhatsApp(cfg.Providers.WhatsApp)
	if stored, err := settings.LoadWhatsAppCredentials(ctx); err == nil {
		whatsapp.Reconfigure(stored)
	} else {
		logger.Warnf("Failed to load stored WhatsApp credentials: %v", err)
	}

	providers := map[model.Channel]service.Provider{
		model.ChannelSMS:      provider.NewInfobip(cfg.Providers.Infobip),
		model.ChannelWhatsApp: whatsapp,
	}
	if cfg.Providers.Resend.APIKey != "" {
		providers[model.ChannelEmail] = provider.NewResend(cfg.Providers.Resend)
	} else {
		providers[model.ChannelEmail] = provider.NewSMTP(cfg.Providers.SMTP)
	}

	dispatcher := service.NewDispatcher(providers, comms, logger)
	bulk := service.NewBulkSender(dispatcher, customers, logger, cfg.Bulk.BatchDelay)

	intentTable, err := intents.List(ctx)
	if err != nil {
		logger.Warnf("Failed to load intents, auto-replies fall back: %v", err)
	}
	matcher := service.NewMatcher(intentTable)

	scheduler := service.NewReminderScheduler(reminders, dispatcher, logger, cfg.Reminder.CronSpec)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Error starting reminder scheduler: %v", err)
	}

	messageHandler := handler.NewMessageHandler(
		comms,
		templates,
		reminders,
		settings,
		admins,
		dispatcher,
		bulk,
		scheduler,
		whatsapp,
		logger,
		redisClient,
		cfg.Bulk,
	)
	webhookHandler := handler.NewWebhookHandler(
		cfg.Webhook.VerifyToken,
		comms,
		customers,
		dispatcher,
		dispatcher,
		matcher,
		logger,
		redisClient,
	)

	router := gin.Default()

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/whatsapp/webhook", webhookHandler.Verify)
	router.POST("/api/whatsapp/webhook", webhookHandler.Receive)
	router.GET("/api/whatsapp/analytics", messageHandler.Analytics)
	router.GET("/api/whatsapp/templates", messageHandler.Templates)
	router.POST("/api/whatsapp/templates", messageHandler.CreateTemplate)
	router.POST("/api/whatsapp/bulk-message", messageHandler.BulkWhatsApp)
	router.POST("/api/whatsapp-messages/send", messageHandler.SendMessage)
	router.GET("/api/whatsapp-messages/history", messageHandler.History)
	router.POST("/api/whatsapp-messages/settings", messageHandler.UpdateSettings)
	router.POST("/api/send-emails", messageHandler.SendEmails)
	router.POST("/api/sms/bulk", messageHandler.BulkSMS)
	router.POST("/api/reminders", messageHandler.CreateReminder)
	router.GET("/api/reminders", messageHandler.ListReminders)
	router.POST("/api/scheduler/start", messageHandler.StartScheduler)
	router.POST("/api/scheduler/stop", messageHandler.StopScheduler)
	router.POST("/deleteAdminUser", messageHandler.DeleteAdminUser)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()
	logger.Logf("listening on :%d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log("shutting down")
	if err := scheduler.Stop(); err != nil {
		logger.Errorf("Error stopping scheduler: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
