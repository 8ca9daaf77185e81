package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	AccessSecret string
}

type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
}

type JobNimbusConfig struct {
	BaseURL   string
	APIKey    string
	SyncDelay time.Duration
}

type MediaConfig struct {
	GCSBucket   string
	UploadURL   string
	UploadToken string
}

type NotifyConfig struct {
	SMSWebhookURL   string
	EmailWebhookURL string
	Token           string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	Auth        AuthConfig
	Sheets      SheetsConfig
	JobNimbus   JobNimbusConfig
	Media       MediaConfig
	Notify      NotifyConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
			CredentialsFile: v.GetString("SHEETS_CREDENTIALS_FILE"),
		},
		JobNimbus: JobNimbusConfig{
			BaseURL:   v.GetString("JOBNIMBUS_BASE_URL"),
			APIKey:    v.GetString("JOBNIMBUS_API_KEY"),
			SyncDelay: v.GetDuration("JOBNIMBUS_SYNC_DELAY"),
		},
		Media: MediaConfig{
			GCSBucket:   v.GetString("MEDIA_GCS_BUCKET"),
			UploadURL:   v.GetString("MEDIA_UPLOAD_URL"),
			UploadToken: v.GetString("MEDIA_UPLOAD_TOKEN"),
		},
		Notify: NotifyConfig{
			SMSWebhookURL:   v.GetString("NOTIFY_SMS_WEBHOOK_URL"),
			EmailWebhookURL: v.GetString("NOTIFY_EMAIL_WEBHOOK_URL"),
			Token:           v.GetString("NOTIFY_WEBHOOK_TOKEN"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.JobNimbus.SyncDelay == 0 {
		cfg.JobNimbus.SyncDelay = time.Second
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
