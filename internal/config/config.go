package config

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

var AppEnv App

type App struct {
	Config
	Providers ProviderConfig
	Webhook   WebhookConfig
	Bulk      BulkConfig
	Reminder  ReminderConfig
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port int `env:"SERVER_PORT,required"`
}

type DatabaseConfig struct {
	Host           string `env:"DB_HOST,required"`
	Port           int    `env:"DB_PORT,required"`
	User           string `env:"DB_USER,required"`
	Password       string `env:"DB_PASSWORD,required"`
	Name           string `env:"DB_NAME,required"`
	MigrationsPath string `env:"DB_MIGRATIONS_PATH,default=migrations"`
}

type RedisConfig struct {
	Host string `env:"REDIS_HOST,required"`
	Port int    `env:"REDIS_PORT,required"`
}

type ProviderConfig struct {
	Infobip  InfobipConfig
	Resend   ResendConfig
	WhatsApp WhatsAppConfig
	SMTP     SMTPConfig
}

type InfobipConfig struct {
	BaseURL string `env:"INFOBIP_BASE_URL"`
	APIKey  string `env:"INFOBIP_API_KEY"`
	Sender  string `env:"INFOBIP_SENDER,default=ConsumerPortal"`
}

type ResendConfig struct {
	APIKey string `env:"RESEND_API_KEY"`
	From   string `env:"RESEND_FROM"`
}

type WhatsAppConfig struct {
	AccessToken   string `env:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	BusinessID    string `env:"WHATSAPP_BUSINESS_ID"`
	APIVersion    string `env:"WHATSAPP_API_VERSION,default=v19.0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

type WebhookConfig struct {
	VerifyToken string `env:"WEBHOOK_VERIFY_TOKEN,required"`
}

type BulkConfig struct {
	SMSBatchSize   int           `env:"BULK_SMS_BATCH_SIZE,default=100"`
	EmailBatchSize int           `env:"BULK_EMAIL_BATCH_SIZE,default=10"`
	BatchDelay     time.Duration `env:"BULK_BATCH_DELAY,default=1s"`
}

type ReminderConfig struct {
	CronSpec string `env:"REMINDER_CRON_SPEC,default=* * * * *"`
}

func ReadEnvironment(ctx context.Context, envParam any) *App {
	_ = godotenv.Load()
	var config App
	err := envconfig.Process(ctx, &config)
	if err != nil {
		log.Fatalf("Error processing environment variables: %v", err)
	}

	return &config
}
