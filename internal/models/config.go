package models

import "time"

// Config represents the application configuration
type Config struct {
	Email         EmailConfig `yaml:"email"`
	TargetSubject string      `yaml:"targetSubject"`
	StorageFile   string      `yaml:"storageFile"`
	Listen        string      `yaml:"listen"`
	PageSize      int         `yaml:"pageSize"`
	MaxPerCycle   int         `yaml:"maxPerCycle"`
}

// EmailConfig represents IMAP email configuration
type EmailConfig struct {
	Imap        string        `yaml:"imap"`
	Login       string        `yaml:"login"`
	Password    string        `yaml:"password"`
	RefreshTime time.Duration `yaml:"refreshTime"` // ex: "30s", "30m"
	MailBox     string        `yaml:"mailbox"`
}
