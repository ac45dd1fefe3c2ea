package cpostgres

import (
	"context"

	"comms-service/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	settingAccessToken   = "whatsapp_access_token"
	settingPhoneNumberID = "whatsapp_phone_number_id"
	settingBusinessID    = "whatsapp_business_id"
)

type SettingsService interface {
	SaveWhatsAppCredentials(ctx context.Context, cfg config.WhatsAppConfig) error
	LoadWhatsAppCredentials(ctx context.Context) (config.WhatsAppConfig, error)
}

type settings struct {
	pool *pgxpool.Pool
}

func NewSettingsService(pool *pgxpool.Pool) SettingsService {
	return &settings{
		pool: pool,
	}
}

func (r *settings) SaveWhatsAppCredentials(ctx context.Context, cfg config.WhatsAppConfig) error {
	entries := map[string]string{
		settingAccessToken:   cfg.AccessToken,
		settingPhoneNumberID: cfg.PhoneNumberID,
		settingBusinessID:    cfg.BusinessID,
	}

	query := `
		INSERT INTO provider_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	for key, value := range entries {
		if value == "" {
			continue
		}
		if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *settings) LoadWhatsAppCredentials(ctx context.Context) (config.WhatsAppConfig, error) {
	var cfg config.WhatsAppConfig

	query := `
		SELECT key, value
		FROM provider_settings
		WHERE key = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, []string{settingAccessToken, settingPhoneNumberID, settingBusinessID})
	if err != nil {
		return cfg, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return cfg, err
		}
		switch key {
		case settingAccessToken:
			cfg.AccessToken = value
		case settingPhoneNumberID:
			cfg.PhoneNumberID = value
		case settingBusinessID:
			cfg.BusinessID = value
		}
	}

	return cfg, rows.Err()
}
