package config

import (
	"fmt"
	"os"
	"time"

	"briefing-mail-archive/internal/models"

	"gopkg.in/yaml.v2"
)

// Load reads the configuration from the specified YAML file and returns a Config struct
func Load(filepath string) (*models.Config, error) {
	configFile, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := yaml.Unmarshal(configFile, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Email.MailBox == "" {
		cfg.Email.MailBox = "INBOX"
	}
	if cfg.Email.RefreshTime <= 0 {
		cfg.Email.RefreshTime = 30 * time.Minute
	}
	if cfg.StorageFile == "" {
		cfg.StorageFile = "email_data.json"
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
}

func validate(cfg *models.Config) error {
	if cfg.Email.Imap == "" {
		return fmt.Errorf("email.imap is required")
	}
	if cfg.Email.Login == "" || cfg.Email.Password == "" {
		return fmt.Errorf("email.login and email.password are required")
	}
	if cfg.TargetSubject == "" {
		return fmt.Errorf("targetSubject is required")
	}
	return nil
}
