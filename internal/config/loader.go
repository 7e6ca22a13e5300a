package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Переменные окружения для секретов, которые не хранятся в YAML
const (
	EnvStorageDSN   = "CASTANET_STORAGE_DSN"
	EnvWebhookURL   = "CASTANET_WEBHOOK_URL"
	EnvSMTPPassword = "CASTANET_SMTP_PASSWORD"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env не обязателен: без него берём системное окружение
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// ApplyEnv перекрывает секреты значениями из окружения
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvStorageDSN); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(EnvWebhookURL); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.Notify.SMTP.Password = v
	}
}
