package models

import (
	"encoding/json"
	"time"
)

// Known site setting keys.
const (
	SettingHero            = "hero"
	SettingConsultWhatsApp = "consult_whatsapp"
	SettingConsultEmail    = "consult_email"
)

// Setting is a JSON object stored under a unique key.
type Setting struct {
	Key       string          `db:"key" json:"key"`
	Value     json.RawMessage `db:"value" json:"value"`
	UpdatedBy *string         `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// HeroSetting drives the landing page banner.
type HeroSetting struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// WhatsAppSetting configures the consultation chat link.
type WhatsAppSetting struct {
	Number      string `json:"number"`
	DefaultText string `json:"default_text"`
}

// EmailSetting configures the consultation mail link.
type EmailSetting struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
