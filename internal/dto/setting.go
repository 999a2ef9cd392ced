package dto

import "encoding/json"

// SettingItem represents a site setting in responses.
type SettingItem struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// BulkUpsertSettingsRequest upserts many keys at once.
type BulkUpsertSettingsRequest struct {
	Items []SettingItem `json:"items" validate:"required,min=1,dive"`
}

// ConsultationLinks are the prebuilt contact links for the consultation page.
type ConsultationLinks struct {
	WhatsAppURL string `json:"whatsapp_url"`
	EmailURL    string `json:"email_url"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}
